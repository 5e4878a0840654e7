// Package leaderboard содержит доменную модель рейтингов LuckCash.
// Система ведёт два рейтинга: по накопленным монетам и по текущей
// серии активных дней. Оба показывают топ-10 на главной странице.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Board определяет вид рейтинга.
type Board string

const (
	// BoardCoins - рейтинг по балансу монет.
	BoardCoins Board = "coins"
	// BoardStreak - рейтинг по текущей серии активных дней.
	BoardStreak Board = "streak"
)

// IsValid проверяет, что вид рейтинга корректен.
func (b Board) IsValid() bool {
	return b == BoardCoins || b == BoardStreak
}

// String возвращает строковое представление.
func (b Board) String() string {
	return string(b)
}

// ParseBoard разбирает вид рейтинга из строки запроса.
func ParseBoard(value string) (Board, error) {
	b := Board(value)
	if !b.IsValid() {
		return "", ErrInvalidBoard
	}
	return b, nil
}

// Rank представляет позицию пользователя в рейтинге.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если пользователь в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// Score представляет значение показателя рейтинга
// (монеты для BoardCoins, дни серии для BoardStreak).
type Score int

// IsValid проверяет, что показатель неотрицательный.
func (s Score) IsValid() bool {
	return s >= 0
}

// RankChange представляет изменение позиции в рейтинге.
// Положительное значение = подъём, отрицательное = падение.
type RankChange int

// Direction возвращает направление изменения.
func (rc RankChange) Direction() RankDirection {
	switch {
	case rc > 0:
		return RankDirectionUp
	case rc < 0:
		return RankDirectionDown
	default:
		return RankDirectionStable
	}
}

// Abs возвращает абсолютное значение изменения.
func (rc RankChange) Abs() int {
	if rc < 0 {
		return int(-rc)
	}
	return int(rc)
}

// String возвращает строковое представление изменения.
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", rc)
	case rc < 0:
		return fmt.Sprintf("%d", rc)
	default:
		return "±0"
	}
}

// RankDirection определяет направление изменения ранга.
type RankDirection string

const (
	// RankDirectionUp - пользователь поднялся в рейтинге.
	RankDirectionUp RankDirection = "up"
	// RankDirectionDown - пользователь опустился в рейтинге.
	RankDirectionDown RankDirection = "down"
	// RankDirectionStable - позиция не изменилась.
	RankDirectionStable RankDirection = "stable"
	// RankDirectionNew - новый участник в рейтинге.
	RankDirectionNew RankDirection = "new"
)

// Emoji возвращает эмодзи для отображения направления.
func (rd RankDirection) Emoji() string {
	switch rd {
	case RankDirectionUp:
		return "🔼"
	case RankDirectionDown:
		return "🔽"
	case RankDirectionNew:
		return "🆕"
	default:
		return "➖"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну запись в рейтинге.
type Entry struct {
	// Rank - текущая позиция в рейтинге.
	Rank Rank

	// ProfileID - внутренний идентификатор пользователя.
	ProfileID string

	// DisplayName - отображаемое имя.
	DisplayName string

	// SelectedAvatar - аватар пользователя для отображения.
	SelectedAvatar string

	// Score - показатель рейтинга (монеты или дни серии).
	Score Score

	// Level - уровень пользователя.
	Level int

	// RankChange - изменение позиции с прошлого снапшота.
	RankChange RankChange

	// UpdatedAt - время последнего обновления показателя.
	UpdatedAt time.Time
}

// NewEntry создаёт новую запись рейтинга с валидацией.
func NewEntry(rank Rank, profileID, displayName string, score Score, level int) (*Entry, error) {
	if !rank.IsValid() {
		return nil, ErrInvalidRank
	}
	if profileID == "" {
		return nil, ErrInvalidProfileID
	}
	if !score.IsValid() {
		return nil, ErrInvalidScore
	}

	return &Entry{
		Rank:        rank,
		ProfileID:   profileID,
		DisplayName: displayName,
		Score:       score,
		Level:       level,
		RankChange:  0,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

// Direction возвращает направление изменения ранга.
func (e *Entry) Direction() RankDirection {
	return e.RankChange.Direction()
}

// ScoreToNext возвращает, сколько не хватает до следующего места.
func (e *Entry) ScoreToNext(nextScore Score) Score {
	if nextScore <= e.Score {
		return 0
	}
	return nextScore - e.Score + 1
}

// Clone создаёт копию записи.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf(
		"Entry{Rank: %d, DisplayName: %s, Score: %d, Change: %s}",
		e.Rank, e.DisplayName, e.Score, e.RankChange.String(),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking представляет полный отсортированный список пользователей
// одного рейтинга. Вспомогательная структура для построения снапшотов.
type Ranking struct {
	board   Board
	entries []*Entry
	byID    map[string]*Entry
}

// NewRanking создаёт пустой Ranking для указанного рейтинга.
func NewRanking(board Board) *Ranking {
	return &Ranking{
		board:   board,
		entries: make([]*Entry, 0),
		byID:    make(map[string]*Entry),
	}
}

// Board возвращает вид рейтинга.
func (r *Ranking) Board() Board {
	return r.board
}

// Add добавляет запись в рейтинг (без автоматической сортировки).
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byID[entry.ProfileID]; exists {
		return ErrDuplicateProfile
	}

	r.entries = append(r.entries, entry)
	r.byID[entry.ProfileID] = entry
	return nil
}

// Sort сортирует записи по показателю (по убыванию) и присваивает ранги.
func (r *Ranking) Sort() {
	sort.Slice(r.entries, func(i, j int) bool {
		// По убыванию показателя
		if r.entries[i].Score != r.entries[j].Score {
			return r.entries[i].Score > r.entries[j].Score
		}
		// При равном показателе - по алфавиту DisplayName (стабильная сортировка)
		return r.entries[i].DisplayName < r.entries[j].DisplayName
	})

	// Одинаковый показатель = одинаковый ранг (shared rank)
	currentRank := Rank(1)
	for i, entry := range r.entries {
		if i > 0 && entry.Score == r.entries[i-1].Score {
			entry.Rank = r.entries[i-1].Rank
		} else {
			entry.Rank = currentRank
		}
		currentRank = Rank(i + 2)
	}
}

// GetByID возвращает запись по ID пользователя.
func (r *Ranking) GetByID(profileID string) *Entry {
	return r.byID[profileID]
}

// Top возвращает топ-N записей.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Slice возвращает срез записей [from:to).
func (r *Ranking) Slice(from, to int) []*Entry {
	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}
	if from >= to {
		return nil
	}
	result := make([]*Entry, to-from)
	copy(result, r.entries[from:to])
	return result
}

// Neighbors возвращает соседей пользователя по рангу (±rangeSize).
// Включает самого пользователя в центре.
func (r *Ranking) Neighbors(profileID string, rangeSize int) []*Entry {
	entry := r.GetByID(profileID)
	if entry == nil {
		return nil
	}

	var idx int
	for i, e := range r.entries {
		if e.ProfileID == profileID {
			idx = i
			break
		}
	}

	from := idx - rangeSize
	to := idx + rangeSize + 1

	return r.Slice(from, to)
}

// Count возвращает общее количество записей.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// All возвращает все записи.
func (r *Ranking) All() []*Entry {
	result := make([]*Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// AverageScore возвращает средний показатель по всем участникам.
func (r *Ranking) AverageScore() Score {
	if len(r.entries) == 0 {
		return 0
	}

	var total int
	for _, entry := range r.entries {
		total += int(entry.Score)
	}

	return Score(total / len(r.entries))
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidBoard - неизвестный вид рейтинга.
	ErrInvalidBoard = errors.New("invalid board: must be coins or streak")

	// ErrInvalidRank - невалидный ранг (должен быть положительным).
	ErrInvalidRank = errors.New("invalid rank: must be positive")

	// ErrInvalidProfileID - невалидный ID пользователя.
	ErrInvalidProfileID = errors.New("invalid profile id: cannot be empty")

	// ErrInvalidScore - невалидное значение показателя.
	ErrInvalidScore = errors.New("invalid score: must be non-negative")

	// ErrNilEntry - попытка добавить nil запись.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateProfile - пользователь уже есть в рейтинге.
	ErrDuplicateProfile = errors.New("profile already exists in ranking")

	// ErrSnapshotNotFound - снапшот не найден.
	ErrSnapshotNotFound = errors.New("leaderboard snapshot not found")

	// ErrEmptyLeaderboard - рейтинг пуст.
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")
)
