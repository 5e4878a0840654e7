package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildRanking(t *testing.T, board Board, scores map[string]Score) *Ranking {
	t.Helper()
	ranking := NewRanking(board)
	for id, score := range scores {
		entry, err := NewEntry(1, id, "user-"+id, score, 1)
		assert.NoError(t, err)
		assert.NoError(t, ranking.Add(entry))
	}
	ranking.Sort()
	return ranking
}

func TestParseBoard(t *testing.T) {
	board, err := ParseBoard("coins")
	assert.NoError(t, err)
	assert.Equal(t, BoardCoins, board)

	board, err = ParseBoard("streak")
	assert.NoError(t, err)
	assert.Equal(t, BoardStreak, board)

	_, err = ParseBoard("xp")
	assert.ErrorIs(t, err, ErrInvalidBoard)
}

func TestRankingSort(t *testing.T) {
	ranking := buildRanking(t, BoardCoins, map[string]Score{
		"a": 500,
		"b": 1200,
		"c": 300,
	})

	top := ranking.Top(3)
	assert.Equal(t, "b", top[0].ProfileID)
	assert.Equal(t, Rank(1), top[0].Rank)
	assert.Equal(t, "a", top[1].ProfileID)
	assert.Equal(t, Rank(2), top[1].Rank)
	assert.Equal(t, "c", top[2].ProfileID)
	assert.Equal(t, Rank(3), top[2].Rank)
}

func TestRankingSharedRank(t *testing.T) {
	ranking := buildRanking(t, BoardCoins, map[string]Score{
		"a": 500,
		"b": 500,
		"c": 100,
	})

	top := ranking.Top(3)
	// Одинаковый показатель делит одно место
	assert.Equal(t, Rank(1), top[0].Rank)
	assert.Equal(t, Rank(1), top[1].Rank)
	// Следующий за парой занимает 3-е место, не 2-е
	assert.Equal(t, Rank(3), top[2].Rank)
}

func TestRankingDuplicateProfile(t *testing.T) {
	ranking := NewRanking(BoardStreak)
	entry, err := NewEntry(1, "a", "user-a", 7, 2)
	assert.NoError(t, err)
	assert.NoError(t, ranking.Add(entry))

	dup, err := NewEntry(1, "a", "user-a", 9, 2)
	assert.NoError(t, err)
	assert.ErrorIs(t, ranking.Add(dup), ErrDuplicateProfile)
}

func TestRankingNeighbors(t *testing.T) {
	ranking := buildRanking(t, BoardCoins, map[string]Score{
		"a": 500, "b": 400, "c": 300, "d": 200, "e": 100,
	})

	neighbors := ranking.Neighbors("c", 1)
	assert.Len(t, neighbors, 3)
	assert.Equal(t, "b", neighbors[0].ProfileID)
	assert.Equal(t, "c", neighbors[1].ProfileID)
	assert.Equal(t, "d", neighbors[2].ProfileID)

	assert.Nil(t, ranking.Neighbors("missing", 1))
}

func TestSnapshotRankChanges(t *testing.T) {
	previous, err := NewSnapshot(buildRanking(t, BoardCoins, map[string]Score{
		"a": 300, "b": 200, "c": 100,
	}))
	assert.NoError(t, err)

	current, err := NewSnapshot(buildRanking(t, BoardCoins, map[string]Score{
		"a": 300, "b": 200, "c": 400, "d": 50,
	}))
	assert.NoError(t, err)

	current.ApplyRankChanges(previous)

	// c поднялся с 3-го на 1-е место
	assert.Equal(t, RankChange(2), current.GetByID("c").RankChange)
	assert.Equal(t, RankDirectionUp, current.GetByID("c").Direction())
	// a опустился с 1-го на 2-е
	assert.Equal(t, RankChange(-1), current.GetByID("a").RankChange)
	assert.Equal(t, RankDirectionDown, current.GetByID("a").Direction())
	// d - новый участник
	assert.Equal(t, RankDirectionNew, current.DirectionFor("d", previous))
}

func TestSnapshotEmpty(t *testing.T) {
	_, err := NewSnapshot(NewRanking(BoardCoins))
	assert.ErrorIs(t, err, ErrEmptyLeaderboard)
}

func TestSnapshotPage(t *testing.T) {
	snapshot, err := NewSnapshot(buildRanking(t, BoardStreak, map[string]Score{
		"a": 50, "b": 40, "c": 30, "d": 20, "e": 10,
	}))
	assert.NoError(t, err)

	page := snapshot.Page(2, 2)
	assert.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ProfileID)
	assert.Equal(t, 3, snapshot.TotalPages(2))
	assert.Nil(t, snapshot.Page(4, 2))
}

func TestQueryOptions(t *testing.T) {
	opts := DefaultQueryOptions().WithBoard(BoardStreak).WithPage(3).WithPageSize(25)
	assert.Equal(t, BoardStreak, opts.Board)
	assert.Equal(t, 50, opts.Offset())
	assert.Equal(t, 25, opts.Limit())

	clamped := DefaultQueryOptions().WithPage(0).WithPageSize(500)
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, 100, clamped.PageSize)
}
