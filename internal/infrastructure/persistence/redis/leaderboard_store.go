package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/leaderboard"
	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD STORE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrProfileIDEmpty is returned when an empty profile ID is provided.
	ErrProfileIDEmpty = errors.New("leaderboard_store: profile id cannot be empty")

	// ErrProfileNotInBoard is returned when the profile is not ranked.
	ErrProfileNotInBoard = errors.New("leaderboard_store: profile not in board")

	// ErrInvalidLimit is returned when an invalid limit is provided.
	ErrInvalidLimit = errors.New("leaderboard_store: invalid limit")
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD STORE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardStore implements leaderboard.Repository using Redis Sorted Sets.
//
// Architecture:
//   - Sorted Set "leaderboard:live:{board}" stores profileID -> score mapping
//   - Hash "leaderboard:info:{board}" stores profileID -> entry JSON
//   - String "leaderboard:snapshot:{board}" stores the current snapshot
//   - String "leaderboard:snapshot:{board}:prev" stores the previous snapshot
//
// This design allows O(log N) rank lookups while the worker periodically
// freezes snapshots for rank-change display.
type LeaderboardStore struct {
	cache *Cache
}

// Key patterns for leaderboard storage.
const (
	keyBoardLive     = "leaderboard:live:"
	keyBoardInfo     = "leaderboard:info:"
	keyBoardSnapshot = "leaderboard:snapshot:"
	suffixPrevious   = ":prev"
)

// NewLeaderboardStore creates a new LeaderboardStore instance.
func NewLeaderboardStore(cache *Cache) *LeaderboardStore {
	return &LeaderboardStore{cache: cache}
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// snapshotDTO is the wire form of a leaderboard snapshot.
type snapshotDTO struct {
	Board         string     `json:"board"`
	Entries       []entryDTO `json:"entries"`
	TotalProfiles int        `json:"total_profiles"`
	AverageScore  int        `json:"average_score"`
	GeneratedAt   time.Time  `json:"generated_at"`
}

type entryDTO struct {
	Rank           int       `json:"rank"`
	ProfileID      string    `json:"profile_id"`
	DisplayName    string    `json:"display_name"`
	SelectedAvatar string    `json:"selected_avatar,omitempty"`
	Score          int       `json:"score"`
	Level          int       `json:"level"`
	RankChange     int       `json:"rank_change"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SaveSnapshot stores a snapshot, shifting the current one into previous.
func (s *LeaderboardStore) SaveSnapshot(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	if snapshot == nil {
		return leaderboard.ErrEmptyLeaderboard
	}

	key := keyBoardSnapshot + snapshot.Board.String()
	prevKey := key + suffixPrevious

	data, err := json.Marshal(toSnapshotDTO(snapshot))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.cache.Client().TxPipeline()
	// Current becomes previous before the new one lands.
	pipe.Rename(ctx, key, prevKey)
	pipe.Set(ctx, key, data, 0)
	_, err = pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		// Rename fails with an error when no current snapshot exists yet;
		// retry with a plain SET in that case.
		return s.cache.Client().Set(ctx, key, data, 0).Err()
	}

	return nil
}

// GetSnapshot returns the current snapshot for a board.
func (s *LeaderboardStore) GetSnapshot(ctx context.Context, board leaderboard.Board) (*leaderboard.Snapshot, error) {
	return s.getSnapshotByKey(ctx, keyBoardSnapshot+board.String(), true)
}

// GetPreviousSnapshot returns the previous snapshot, or nil, nil if absent.
func (s *LeaderboardStore) GetPreviousSnapshot(ctx context.Context, board leaderboard.Board) (*leaderboard.Snapshot, error) {
	snapshot, err := s.getSnapshotByKey(ctx, keyBoardSnapshot+board.String()+suffixPrevious, false)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *LeaderboardStore) getSnapshotByKey(ctx context.Context, key string, required bool) (*leaderboard.Snapshot, error) {
	data, err := s.cache.Client().Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if required {
				return nil, leaderboard.ErrSnapshotNotFound
			}
			return nil, nil
		}
		return nil, err
	}

	var dto snapshotDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return fromSnapshotDTO(dto), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIVE SCORE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateScore updates the live score of a profile in a board.
// Called by event handlers on coin or streak changes. O(log N).
func (s *LeaderboardStore) UpdateScore(ctx context.Context, board leaderboard.Board, profileID string, score leaderboard.Score) error {
	if profileID == "" {
		return ErrProfileIDEmpty
	}

	liveKey := keyBoardLive + board.String()
	return s.cache.Client().ZAdd(ctx, liveKey, redis.Z{
		Score:  float64(score),
		Member: profileID,
	}).Err()
}

// UpdateEntry updates the live score and the display info of a profile.
func (s *LeaderboardStore) UpdateEntry(ctx context.Context, board leaderboard.Board, entry *leaderboard.Entry) error {
	if entry == nil || entry.ProfileID == "" {
		return ErrProfileIDEmpty
	}

	liveKey := keyBoardLive + board.String()
	infoKey := keyBoardInfo + board.String()

	data, err := json.Marshal(toEntryDTO(entry))
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	pipe := s.cache.Client().Pipeline()
	pipe.ZAdd(ctx, liveKey, redis.Z{
		Score:  float64(entry.Score),
		Member: entry.ProfileID,
	})
	pipe.HSet(ctx, infoKey, entry.ProfileID, data)

	_, err = pipe.Exec(ctx)
	return err
}

// RemoveProfile removes a profile from all boards (account deletion).
func (s *LeaderboardStore) RemoveProfile(ctx context.Context, profileID string) error {
	if profileID == "" {
		return ErrProfileIDEmpty
	}

	pipe := s.cache.Client().Pipeline()
	for _, board := range []leaderboard.Board{leaderboard.BoardCoins, leaderboard.BoardStreak} {
		pipe.ZRem(ctx, keyBoardLive+board.String(), profileID)
		pipe.HDel(ctx, keyBoardInfo+board.String(), profileID)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// GetRank returns the live 1-based rank of a profile (0 if not ranked).
func (s *LeaderboardStore) GetRank(ctx context.Context, board leaderboard.Board, profileID string) (leaderboard.Rank, error) {
	if profileID == "" {
		return 0, ErrProfileIDEmpty
	}

	liveKey := keyBoardLive + board.String()

	// ZRevRank returns a 0-based rank (0 = highest score)
	rank, err := s.cache.Client().ZRevRank(ctx, liveKey, profileID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	return leaderboard.Rank(rank + 1), nil
}

// GetTop returns the top-N entries of the live board.
func (s *LeaderboardStore) GetTop(ctx context.Context, board leaderboard.Board, limit int) ([]*leaderboard.Entry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	liveKey := keyBoardLive + board.String()
	infoKey := keyBoardInfo + board.String()

	members, err := s.cache.Client().ZRevRangeWithScores(ctx, liveKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []*leaderboard.Entry{}, nil
	}

	profileIDs := make([]string, len(members))
	for i, m := range members {
		profileIDs[i] = m.Member.(string)
	}

	infoData, err := s.cache.Client().HMGet(ctx, infoKey, profileIDs...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*leaderboard.Entry, 0, len(members))
	for i, m := range members {
		entry := &leaderboard.Entry{
			Rank:      leaderboard.Rank(i + 1),
			ProfileID: profileIDs[i],
			Score:     leaderboard.Score(m.Score),
		}

		// Shared rank: same score keeps the previous rank
		if i > 0 && entries[i-1].Score == entry.Score {
			entry.Rank = entries[i-1].Rank
		}

		if raw, ok := infoData[i].(string); ok {
			var dto entryDTO
			if err := json.Unmarshal([]byte(raw), &dto); err == nil {
				entry.DisplayName = dto.DisplayName
				entry.SelectedAvatar = dto.SelectedAvatar
				entry.Level = dto.Level
				entry.UpdatedAt = dto.UpdatedAt
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// GetTotalCount returns the number of ranked profiles in a board.
func (s *LeaderboardStore) GetTotalCount(ctx context.Context, board leaderboard.Board) (int, error) {
	count, err := s.cache.Client().ZCard(ctx, keyBoardLive+board.String()).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAINTENANCE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// RebuildBoard replaces the live board contents atomically.
// Used by the rebuild job after reading authoritative data from Postgres.
func (s *LeaderboardStore) RebuildBoard(ctx context.Context, board leaderboard.Board, entries []*leaderboard.Entry) error {
	liveKey := keyBoardLive + board.String()
	infoKey := keyBoardInfo + board.String()

	pipe := s.cache.Client().TxPipeline()
	pipe.Del(ctx, liveKey, infoKey)

	if len(entries) > 0 {
		zMembers := make([]redis.Z, 0, len(entries))
		hashData := make(map[string]interface{}, len(entries))

		for _, entry := range entries {
			if entry == nil || entry.ProfileID == "" {
				continue
			}

			zMembers = append(zMembers, redis.Z{
				Score:  float64(entry.Score),
				Member: entry.ProfileID,
			})

			data, err := json.Marshal(toEntryDTO(entry))
			if err != nil {
				return fmt.Errorf("failed to marshal entry: %w", err)
			}
			hashData[entry.ProfileID] = data
		}

		if len(zMembers) > 0 {
			pipe.ZAdd(ctx, liveKey, zMembers...)
		}
		if len(hashData) > 0 {
			pipe.HSet(ctx, infoKey, hashData)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateAll removes all leaderboard data. Primarily for tests.
func (s *LeaderboardStore) InvalidateAll(ctx context.Context) error {
	if err := s.cache.DeleteByPattern(ctx, keyBoardLive+"*"); err != nil {
		return err
	}
	if err := s.cache.DeleteByPattern(ctx, keyBoardInfo+"*"); err != nil {
		return err
	}
	return s.cache.DeleteByPattern(ctx, keyBoardSnapshot+"*")
}

// ══════════════════════════════════════════════════════════════════════════════
// DTO CONVERSION
// ══════════════════════════════════════════════════════════════════════════════

func toSnapshotDTO(snapshot *leaderboard.Snapshot) snapshotDTO {
	entries := make([]entryDTO, len(snapshot.Entries))
	for i, e := range snapshot.Entries {
		entries[i] = toEntryDTO(e)
	}

	return snapshotDTO{
		Board:         snapshot.Board.String(),
		Entries:       entries,
		TotalProfiles: snapshot.TotalProfiles,
		AverageScore:  int(snapshot.AverageScore),
		GeneratedAt:   snapshot.GeneratedAt,
	}
}

func fromSnapshotDTO(dto snapshotDTO) *leaderboard.Snapshot {
	entries := make([]*leaderboard.Entry, len(dto.Entries))
	for i, e := range dto.Entries {
		entries[i] = fromEntryDTO(e)
	}

	return &leaderboard.Snapshot{
		Board:         leaderboard.Board(dto.Board),
		Entries:       entries,
		TotalProfiles: dto.TotalProfiles,
		AverageScore:  leaderboard.Score(dto.AverageScore),
		GeneratedAt:   dto.GeneratedAt,
	}
}

func toEntryDTO(e *leaderboard.Entry) entryDTO {
	return entryDTO{
		Rank:           int(e.Rank),
		ProfileID:      e.ProfileID,
		DisplayName:    e.DisplayName,
		SelectedAvatar: e.SelectedAvatar,
		Score:          int(e.Score),
		Level:          e.Level,
		RankChange:     int(e.RankChange),
		UpdatedAt:      e.UpdatedAt,
	}
}

func fromEntryDTO(dto entryDTO) *leaderboard.Entry {
	return &leaderboard.Entry{
		Rank:           leaderboard.Rank(dto.Rank),
		ProfileID:      dto.ProfileID,
		DisplayName:    dto.DisplayName,
		SelectedAvatar: dto.SelectedAvatar,
		Score:          leaderboard.Score(dto.Score),
		Level:          dto.Level,
		RankChange:     leaderboard.RankChange(dto.RankChange),
		UpdatedAt:      dto.UpdatedAt,
	}
}
