package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUBS
// Запросы читают узкий срез репозитория, поэтому стабы встраивают
// интерфейс и переопределяют только нужные методы.
// ══════════════════════════════════════════════════════════════════════════════

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const testProfileID = "6f1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"

type stubMissionRepo struct {
	catalog.MissionRepository
	active []*catalog.Mission
}

func (s *stubMissionRepo) ListActive(_ context.Context) ([]*catalog.Mission, error) {
	return s.active, nil
}

type stubProgressionRepo struct {
	progression.Repository
	missionRecords []*progression.MissionProgress
	statsHistory   []*progression.DailyStats
}

func (s *stubProgressionRepo) ListMissionProgressForDay(_ context.Context, _ string, _ time.Time) ([]*progression.MissionProgress, error) {
	return s.missionRecords, nil
}

func (s *stubProgressionRepo) GetDailyStatsHistory(_ context.Context, _ string, _ int) ([]*progression.DailyStats, error) {
	return s.statsHistory, nil
}

func newQueryMission(t *testing.T, id string, missionType catalog.MissionType, target, coins, xp int) *catalog.Mission {
	t.Helper()
	m, err := catalog.NewMission(catalog.NewMissionParams{
		ID:          id,
		Title:       "Миссия дня",
		Type:        missionType,
		TargetValue: target,
		CoinsReward: coins,
		XPReward:    xp,
	})
	assert.NoError(t, err)
	return m
}
