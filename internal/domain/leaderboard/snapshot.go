package leaderboard

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot представляет зафиксированное состояние одного рейтинга
// на определённый момент времени. Снапшоты строит фоновый воркер,
// а HTTP-слой отдаёт их без пересчёта. Сравнение с предыдущим
// снапшотом даёт изменение позиций (RankChange).
type Snapshot struct {
	// Board - вид рейтинга.
	Board Board

	// Entries - записи, отсортированные по рангу.
	Entries []*Entry

	// TotalProfiles - общее количество участников.
	TotalProfiles int

	// AverageScore - средний показатель.
	AverageScore Score

	// GeneratedAt - время создания снапшота.
	GeneratedAt time.Time

	// byID - индекс для быстрого поиска по ID пользователя.
	byID map[string]*Entry
}

// NewSnapshot создаёт снапшот из отсортированного Ranking.
func NewSnapshot(ranking *Ranking) (*Snapshot, error) {
	if ranking == nil || ranking.Count() == 0 {
		return nil, ErrEmptyLeaderboard
	}

	entries := ranking.All()
	byID := make(map[string]*Entry, len(entries))
	for _, entry := range entries {
		byID[entry.ProfileID] = entry
	}

	return &Snapshot{
		Board:         ranking.Board(),
		Entries:       entries,
		TotalProfiles: len(entries),
		AverageScore:  ranking.AverageScore(),
		GeneratedAt:   time.Now().UTC(),
		byID:          byID,
	}, nil
}

// GetByID возвращает запись пользователя или nil.
func (s *Snapshot) GetByID(profileID string) *Entry {
	if s.byID == nil {
		s.rebuildIndex()
	}
	return s.byID[profileID]
}

// GetRank возвращает ранг пользователя (0, если не найден).
func (s *Snapshot) GetRank(profileID string) Rank {
	entry := s.GetByID(profileID)
	if entry == nil {
		return 0
	}
	return entry.Rank
}

// Top возвращает топ-N записей снапшота.
func (s *Snapshot) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(s.Entries) {
		n = len(s.Entries)
	}
	result := make([]*Entry, n)
	copy(result, s.Entries[:n])
	return result
}

// Page возвращает страницу рейтинга.
// page начинается с 1, pageSize - количество записей на странице.
func (s *Snapshot) Page(page, pageSize int) []*Entry {
	if page < 1 || pageSize <= 0 {
		return nil
	}

	from := (page - 1) * pageSize
	to := from + pageSize

	if from >= len(s.Entries) {
		return nil
	}
	if to > len(s.Entries) {
		to = len(s.Entries)
	}

	result := make([]*Entry, to-from)
	copy(result, s.Entries[from:to])
	return result
}

// TotalPages возвращает общее количество страниц.
func (s *Snapshot) TotalPages(pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := len(s.Entries) / pageSize
	if len(s.Entries)%pageSize != 0 {
		pages++
	}
	return pages
}

// ApplyRankChanges заполняет RankChange каждой записи, сравнивая
// с предыдущим снапшотом. Новые участники получают 0 (направление
// определяется по отсутствию в previous).
func (s *Snapshot) ApplyRankChanges(previous *Snapshot) {
	if previous == nil {
		return
	}

	for _, entry := range s.Entries {
		prevEntry := previous.GetByID(entry.ProfileID)
		if prevEntry == nil {
			entry.RankChange = 0
			continue
		}
		// Подъём = положительное изменение (был 5-м, стал 2-м => +3)
		entry.RankChange = RankChange(int(prevEntry.Rank) - int(entry.Rank))
	}
}

// DirectionFor возвращает направление изменения для пользователя,
// учитывая новых участников.
func (s *Snapshot) DirectionFor(profileID string, previous *Snapshot) RankDirection {
	entry := s.GetByID(profileID)
	if entry == nil {
		return RankDirectionStable
	}
	if previous == nil || previous.GetByID(profileID) == nil {
		return RankDirectionNew
	}
	return entry.RankChange.Direction()
}

// Age возвращает возраст снапшота.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.GeneratedAt)
}

// IsStale возвращает true, если снапшот старше maxAge.
func (s *Snapshot) IsStale(maxAge time.Duration) bool {
	return s.Age() > maxAge
}

// rebuildIndex восстанавливает byID после десериализации.
func (s *Snapshot) rebuildIndex() {
	s.byID = make(map[string]*Entry, len(s.Entries))
	for _, entry := range s.Entries {
		s.byID[entry.ProfileID] = entry
	}
}
