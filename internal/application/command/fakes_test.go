package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// Фейки повторяют контракт хранилищ: GetByID отдаёт копию, Update проверяет
// версию. Конфликт версий можно форсировать через failUpdates.
// ══════════════════════════════════════════════════════════════════════════════

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const (
	testProfileID = "6f1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	testLessonID  = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	testMissionID = "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e"
	testItemID    = "c3d4e5f6-a7b8-4c9d-0e1f-2a3b4c5d6e7f"
)

// fakeProfileRepo is an in-memory profile.Repository with optimistic locking.
type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile

	// failUpdates forces this many Update calls to lose the version race.
	failUpdates int
	updateCalls int
}

func newFakeProfileRepo(profiles ...*profile.Profile) *fakeProfileRepo {
	repo := &fakeProfileRepo{profiles: make(map[string]*profile.Profile)}
	for _, p := range profiles {
		repo.profiles[p.ID] = p.Clone()
	}
	return repo
}

func (r *fakeProfileRepo) Create(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; ok {
		return profile.ErrProfileAlreadyExists
	}
	r.profiles[p.ID] = p.Clone()
	return nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email shared.Email) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == email {
			return p.Clone(), nil
		}
	}
	return nil, profile.ErrProfileNotFound
}

func (r *fakeProfileRepo) Update(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++

	stored, ok := r.profiles[p.ID]
	if !ok {
		return profile.ErrProfileNotFound
	}
	if r.failUpdates > 0 {
		r.failUpdates--
		return shared.ErrOptimisticLock
	}
	if stored.Version != p.Version {
		return shared.ErrOptimisticLock
	}
	p.Version++
	r.profiles[p.ID] = p.Clone()
	return nil
}

func (r *fakeProfileRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, id)
	return nil
}

func (r *fakeProfileRepo) GetAll(_ context.Context, _ profile.ListOptions) ([]*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*profile.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *fakeProfileRepo) GetByIDs(ctx context.Context, ids []string) ([]*profile.Profile, error) {
	out := make([]*profile.Profile, 0, len(ids))
	for _, id := range ids {
		p, err := r.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProfileRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.profiles), nil
}

func (r *fakeProfileRepo) TopByCoins(ctx context.Context, _ int) ([]*profile.Profile, error) {
	return r.GetAll(ctx, profile.DefaultListOptions())
}

func (r *fakeProfileRepo) TopByStreak(ctx context.Context, _ int) ([]*profile.Profile, error) {
	return r.GetAll(ctx, profile.DefaultListOptions())
}

func (r *fakeProfileRepo) FindWithBrokenStreaks(_ context.Context, _ time.Time) ([]*profile.Profile, error) {
	return nil, nil
}

func (r *fakeProfileRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.profiles[id]
	return ok, nil
}

func (r *fakeProfileRepo) ExistsByEmail(_ context.Context, email shared.Email) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// mustGet returns the stored profile or fails the test.
func (r *fakeProfileRepo) mustGet(t *testing.T, id string) *profile.Profile {
	t.Helper()
	p, err := r.GetByID(context.Background(), id)
	assert.NoError(t, err)
	return p
}

// fakeProfileCache records invalidations.
type fakeProfileCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *fakeProfileCache) Get(_ context.Context, _ string) (*profile.Profile, error) {
	return nil, shared.ErrNotFound
}

func (c *fakeProfileCache) Set(_ context.Context, _ *profile.Profile, _ time.Duration) error {
	return nil
}

func (c *fakeProfileCache) Delete(_ context.Context, profileID string) error {
	return c.Invalidate(context.Background(), profileID)
}

func (c *fakeProfileCache) Invalidate(_ context.Context, profileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, profileID)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Catalog fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeLessonRepo struct {
	lessons map[string]*catalog.Lesson
}

func newFakeLessonRepo(lessons ...*catalog.Lesson) *fakeLessonRepo {
	repo := &fakeLessonRepo{lessons: make(map[string]*catalog.Lesson)}
	for _, l := range lessons {
		repo.lessons[l.ID] = l
	}
	return repo
}

func (r *fakeLessonRepo) Create(_ context.Context, l *catalog.Lesson) error {
	r.lessons[l.ID] = l
	return nil
}

func (r *fakeLessonRepo) GetByID(_ context.Context, id string) (*catalog.Lesson, error) {
	l, ok := r.lessons[id]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return l, nil
}

func (r *fakeLessonRepo) List(_ context.Context) ([]*catalog.Lesson, error) {
	out := make([]*catalog.Lesson, 0, len(r.lessons))
	for _, l := range r.lessons {
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeLessonRepo) ListByCategory(ctx context.Context, _ string) ([]*catalog.Lesson, error) {
	return r.List(ctx)
}

func (r *fakeLessonRepo) Update(_ context.Context, l *catalog.Lesson) error {
	r.lessons[l.ID] = l
	return nil
}

func (r *fakeLessonRepo) Delete(_ context.Context, id string) error {
	delete(r.lessons, id)
	return nil
}

func (r *fakeLessonRepo) Count(_ context.Context) (int, error) {
	return len(r.lessons), nil
}

type fakeMissionRepo struct {
	missions map[string]*catalog.Mission
}

func newFakeMissionRepo(missions ...*catalog.Mission) *fakeMissionRepo {
	repo := &fakeMissionRepo{missions: make(map[string]*catalog.Mission)}
	for _, m := range missions {
		repo.missions[m.ID] = m
	}
	return repo
}

func (r *fakeMissionRepo) Create(_ context.Context, m *catalog.Mission) error {
	r.missions[m.ID] = m
	return nil
}

func (r *fakeMissionRepo) GetByID(_ context.Context, id string) (*catalog.Mission, error) {
	m, ok := r.missions[id]
	if !ok {
		return nil, shared.ErrMissionNotFound
	}
	return m, nil
}

func (r *fakeMissionRepo) ListActive(_ context.Context) ([]*catalog.Mission, error) {
	out := make([]*catalog.Mission, 0, len(r.missions))
	for _, m := range r.missions {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMissionRepo) Update(_ context.Context, m *catalog.Mission) error {
	r.missions[m.ID] = m
	return nil
}

func (r *fakeMissionRepo) Delete(_ context.Context, id string) error {
	delete(r.missions, id)
	return nil
}

type fakeStoreItemRepo struct {
	items map[string]*catalog.StoreItem
}

func newFakeStoreItemRepo(items ...*catalog.StoreItem) *fakeStoreItemRepo {
	repo := &fakeStoreItemRepo{items: make(map[string]*catalog.StoreItem)}
	for _, i := range items {
		repo.items[i.ID] = i
	}
	return repo
}

func (r *fakeStoreItemRepo) Create(_ context.Context, i *catalog.StoreItem) error {
	r.items[i.ID] = i
	return nil
}

func (r *fakeStoreItemRepo) GetByID(_ context.Context, id string) (*catalog.StoreItem, error) {
	i, ok := r.items[id]
	if !ok {
		return nil, shared.ErrStoreItemNotFound
	}
	return i, nil
}

func (r *fakeStoreItemRepo) ListActive(_ context.Context) ([]*catalog.StoreItem, error) {
	out := make([]*catalog.StoreItem, 0, len(r.items))
	for _, i := range r.items {
		if i.Active {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *fakeStoreItemRepo) ListByCategory(ctx context.Context, _ string) ([]*catalog.StoreItem, error) {
	return r.ListActive(ctx)
}

func (r *fakeStoreItemRepo) Update(_ context.Context, i *catalog.StoreItem) error {
	r.items[i.ID] = i
	return nil
}

func (r *fakeStoreItemRepo) Delete(_ context.Context, id string) error {
	delete(r.items, id)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Progression fake
// ──────────────────────────────────────────────────────────────────────────────

// fakeProgressionRepo keys records the way the SQL schema does:
// (profile, lesson) for lessons, (profile, mission, day) for missions.
type fakeProgressionRepo struct {
	mu           sync.Mutex
	lessons      map[string]*progression.LessonProgress
	missions     map[string]*progression.MissionProgress
	purchases    map[string]*progression.Purchase
	achievements map[string]*progression.UnlockedAchievement
	stats        map[string]*progression.DailyStats
}

func newFakeProgressionRepo() *fakeProgressionRepo {
	return &fakeProgressionRepo{
		lessons:      make(map[string]*progression.LessonProgress),
		missions:     make(map[string]*progression.MissionProgress),
		purchases:    make(map[string]*progression.Purchase),
		achievements: make(map[string]*progression.UnlockedAchievement),
		stats:        make(map[string]*progression.DailyStats),
	}
}

func lessonKey(profileID, lessonID string) string {
	return profileID + "/" + lessonID
}

func missionKey(profileID, missionID string, day time.Time) string {
	return profileID + "/" + missionID + "/" + timeutil.DayKey(day)
}

func (r *fakeProgressionRepo) UpsertLessonProgress(_ context.Context, lp *progression.LessonProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lessons[lessonKey(lp.ProfileID, lp.LessonID)] = lp.Clone()
	return nil
}

func (r *fakeProgressionRepo) GetLessonProgress(_ context.Context, profileID, lessonID string) (*progression.LessonProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lessons[lessonKey(profileID, lessonID)].Clone(), nil
}

func (r *fakeProgressionRepo) ListLessonProgress(_ context.Context, profileID string) ([]*progression.LessonProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.LessonProgress
	for _, lp := range r.lessons {
		if lp.ProfileID == profileID {
			out = append(out, lp.Clone())
		}
	}
	return out, nil
}

func (r *fakeProgressionRepo) CountCompletedLessons(_ context.Context, profileID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, lp := range r.lessons {
		if lp.ProfileID == profileID && lp.Completed {
			n++
		}
	}
	return n, nil
}

func (r *fakeProgressionRepo) UpsertMissionProgress(_ context.Context, mp *progression.MissionProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missions[missionKey(mp.ProfileID, mp.MissionID, mp.Day)] = mp.Clone()
	return nil
}

func (r *fakeProgressionRepo) GetMissionProgress(_ context.Context, profileID, missionID string, day time.Time) (*progression.MissionProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.missions[missionKey(profileID, missionID, day)].Clone(), nil
}

func (r *fakeProgressionRepo) ListMissionProgressForDay(_ context.Context, profileID string, day time.Time) ([]*progression.MissionProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.MissionProgress
	for _, mp := range r.missions {
		if mp.ProfileID == profileID && timeutil.DayKey(mp.Day) == timeutil.DayKey(day) {
			out = append(out, mp.Clone())
		}
	}
	return out, nil
}

func (r *fakeProgressionRepo) CountClaimedMissions(_ context.Context, profileID string, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, mp := range r.missions {
		if mp.ProfileID == profileID && mp.Completed && timeutil.DayKey(mp.Day) == timeutil.DayKey(day) {
			n++
		}
	}
	return n, nil
}

func (r *fakeProgressionRepo) CreatePurchase(_ context.Context, p *progression.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.purchases[p.ID]; ok {
		return shared.ErrAlreadyProcessed
	}
	clone := *p
	r.purchases[p.ID] = &clone
	return nil
}

func (r *fakeProgressionRepo) GetPurchase(_ context.Context, id string) (*progression.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.purchases[id]
	if !ok {
		return nil, shared.ErrPurchaseNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProgressionRepo) ListPurchases(_ context.Context, profileID string) ([]*progression.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.Purchase
	for _, p := range r.purchases {
		if p.ProfileID == profileID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeProgressionRepo) UpdatePurchase(_ context.Context, p *progression.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.purchases[p.ID]; !ok {
		return shared.ErrPurchaseNotFound
	}
	clone := *p
	r.purchases[p.ID] = &clone
	return nil
}

func (r *fakeProgressionRepo) CountPurchases(_ context.Context, profileID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.purchases {
		if p.ProfileID == profileID {
			n++
		}
	}
	return n, nil
}

func (r *fakeProgressionRepo) SaveUnlockedAchievement(_ context.Context, u *progression.UnlockedAchievement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := u.ProfileID + "/" + u.AchievementID
	if _, ok := r.achievements[key]; ok {
		return nil
	}
	r.achievements[key] = u
	return nil
}

func (r *fakeProgressionRepo) ListUnlockedAchievements(_ context.Context, profileID string) ([]*progression.UnlockedAchievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.UnlockedAchievement
	for _, u := range r.achievements {
		if u.ProfileID == profileID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeProgressionRepo) HasUnlockedAchievement(_ context.Context, profileID, achievementID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.achievements[profileID+"/"+achievementID]
	return ok, nil
}

func (r *fakeProgressionRepo) UpsertDailyStats(_ context.Context, s *progression.DailyStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[s.ProfileID+"/"+timeutil.DayKey(s.Day)] = s
	return nil
}

func (r *fakeProgressionRepo) GetDailyStatsHistory(_ context.Context, profileID string, _ int) ([]*progression.DailyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.DailyStats
	for _, s := range r.stats {
		if s.ProfileID == profileID {
			out = append(out, s)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Event capture
// ──────────────────────────────────────────────────────────────────────────────

// fakePublisher collects published events for assertions.
type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Test factories
// ──────────────────────────────────────────────────────────────────────────────

func newTestProfile(t *testing.T, coins, xp int) *profile.Profile {
	t.Helper()
	p, err := profile.NewProfile(profile.NewProfileParams{
		ID:           testProfileID,
		Email:        shared.Email("user@example.com"),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		DisplayName:  "Test User",
	})
	assert.NoError(t, err)
	assert.NoError(t, p.Credit(coins, xp))
	return p
}

func newTestLesson(t *testing.T, coins, xp int) *catalog.Lesson {
	t.Helper()
	l, err := catalog.NewLesson(catalog.NewLessonParams{
		ID:          testLessonID,
		Title:       "Что такое бюджет",
		Category:    "budgeting",
		Difficulty:  catalog.DifficultyBeginner,
		CoinsReward: coins,
		XPReward:    xp,
	})
	assert.NoError(t, err)
	return l
}

func newTestMission(t *testing.T, target, coins, xp int) *catalog.Mission {
	t.Helper()
	m, err := catalog.NewMission(catalog.NewMissionParams{
		ID:          testMissionID,
		Title:       "Заработай монеты",
		Type:        catalog.MissionEarnCoins,
		TargetValue: target,
		CoinsReward: coins,
		XPReward:    xp,
	})
	assert.NoError(t, err)
	return m
}

func newTestItem(t *testing.T, cost int) *catalog.StoreItem {
	t.Helper()
	i, err := catalog.NewStoreItem(catalog.NewStoreItemParams{
		ID:        testItemID,
		Name:      "Золотой аватар",
		Category:  "avatar",
		CostCoins: cost,
		Stock:     catalog.StockUnlimited,
	})
	assert.NoError(t, err)
	return i
}
