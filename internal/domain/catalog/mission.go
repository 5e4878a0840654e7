package catalog

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY MISSION (Ежедневная миссия)
// ══════════════════════════════════════════════════════════════════════════════

// MissionType определяет вид ежедневной миссии.
type MissionType string

const (
	// MissionCompleteLessons - завершить N уроков.
	MissionCompleteLessons MissionType = "complete_lessons"
	// MissionEarnCoins - заработать N монет.
	MissionEarnCoins MissionType = "earn_coins"
	// MissionEarnXP - заработать N очков опыта.
	MissionEarnXP MissionType = "earn_xp"
	// MissionLoginStreak - поддержать серию входов.
	MissionLoginStreak MissionType = "login_streak"
	// MissionQuizScore - набрать N баллов в квизе.
	MissionQuizScore MissionType = "quiz_score"
)

// IsValid проверяет, что тип миссии корректен.
func (m MissionType) IsValid() bool {
	switch m {
	case MissionCompleteLessons, MissionEarnCoins, MissionEarnXP, MissionLoginStreak, MissionQuizScore:
		return true
	default:
		return false
	}
}

// Mission - ежедневная миссия.
// Справочная сущность: прогресс конкретного пользователя за конкретный
// день живёт в progression.MissionProgress.
type Mission struct {
	// ID - уникальный идентификатор (UUID).
	ID string

	// Title - заголовок миссии.
	Title string

	// Description - описание задания.
	Description string

	// Type - вид миссии.
	Type MissionType

	// TargetValue - целевое значение прогресса для выполнения.
	TargetValue int

	// CoinsReward - награда монетами за выполнение.
	CoinsReward int

	// XPReward - награда опытом за выполнение.
	XPReward int

	// Icon - иконка миссии (эмодзи или ключ).
	Icon string

	// Active - включена ли миссия в ежедневный набор.
	Active bool

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// Ошибки валидации миссии.
var (
	ErrInvalidMissionTitle  = errors.New("invalid mission title: must be 1-200 chars")
	ErrInvalidMissionType   = errors.New("invalid mission type")
	ErrInvalidMissionTarget = errors.New("invalid mission target: must be positive")
	ErrInvalidMissionReward = errors.New("invalid mission reward: must be non-negative")
)

// NewMissionParams содержит параметры для создания миссии.
type NewMissionParams struct {
	ID          string
	Title       string
	Description string
	Type        MissionType
	TargetValue int
	CoinsReward int
	XPReward    int
	Icon        string
}

// NewMission создаёт миссию с валидацией всех полей.
func NewMission(params NewMissionParams) (*Mission, error) {
	if params.ID == "" {
		return nil, errors.New("mission id is required")
	}

	title := strings.TrimSpace(params.Title)
	if len(title) == 0 || len(title) > 200 {
		return nil, ErrInvalidMissionTitle
	}

	if !params.Type.IsValid() {
		return nil, ErrInvalidMissionType
	}

	if params.TargetValue <= 0 {
		return nil, ErrInvalidMissionTarget
	}

	if params.CoinsReward < 0 || params.XPReward < 0 {
		return nil, ErrInvalidMissionReward
	}

	now := time.Now().UTC()

	return &Mission{
		ID:          params.ID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Type:        params.Type,
		TargetValue: params.TargetValue,
		CoinsReward: params.CoinsReward,
		XPReward:    params.XPReward,
		Icon:        params.Icon,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Deactivate выключает миссию из ежедневного набора.
func (m *Mission) Deactivate() {
	m.Active = false
	m.UpdatedAt = time.Now().UTC()
}
