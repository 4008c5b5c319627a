package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/kaikhaya123/RES-sub000/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct {
	snap *storage.RankSnapshot
}

func (s fixedSource) Latest() *storage.RankSnapshot { return s.snap }

func snapshotOf(n int) *storage.RankSnapshot {
	entries := make([]storage.RankEntry, 0, n)
	for i := 1; i <= n; i++ {
		trend := storage.TrendSame
		if i%3 == 0 {
			trend = storage.TrendUp
		}
		entries = append(entries, storage.RankEntry{
			ContestantID: fmt.Sprintf("c-%03d", i),
			Name:         fmt.Sprintf("Contestant %d", i),
			Votes:        int64(1000 - i),
			Rank:         i,
			PreviousRank: i,
			Trend:        trend,
		})
	}
	return &storage.RankSnapshot{Version: 7, GeneratedAt: time.Now().UTC(), Entries: entries}
}

func TestTop(t *testing.T) {
	lb := NewLeaderboard(fixedSource{snapshotOf(50)})

	top, snap := lb.Top(10)
	assert.Len(t, top, 10)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, int64(7), snap.Version)

	t.Run("n beyond size returns all", func(t *testing.T) {
		top, _ := lb.Top(500)
		assert.Len(t, top, 50)
	})
}

func TestFiltered(t *testing.T) {
	lb := NewLeaderboard(fixedSource{snapshotOf(60)})

	t.Run("all", func(t *testing.T) {
		entries, _, err := lb.Filtered(FilterAll)
		require.NoError(t, err)
		assert.Len(t, entries, 60)
	})

	t.Run("top30", func(t *testing.T) {
		entries, _, err := lb.Filtered(FilterTop30)
		require.NoError(t, err)
		assert.Len(t, entries, 30)
		assert.Equal(t, 30, entries[29].Rank)
	})

	t.Run("rising keeps only upward trends", func(t *testing.T) {
		entries, _, err := lb.Filtered(FilterRising)
		require.NoError(t, err)
		assert.Len(t, entries, 20)
		for _, e := range entries {
			assert.Equal(t, storage.TrendUp, e.Trend)
		}
	})

	t.Run("unknown filter rejected", func(t *testing.T) {
		_, _, err := lb.Filtered("bogus")
		assert.ErrorIs(t, err, ErrUnknownFilter)
	})
}

func TestFullPagination(t *testing.T) {
	lb := NewLeaderboard(fixedSource{snapshotOf(120)})

	t.Run("pages are disjoint and complete", func(t *testing.T) {
		seen := make(map[string]bool)
		page1, _, pg1 := lb.Full(1, 50)
		page2, _, pg2 := lb.Full(2, 50)
		page3, _, _ := lb.Full(3, 50)

		assert.Len(t, page1, 50)
		assert.Len(t, page2, 50)
		assert.Len(t, page3, 20)
		assert.Equal(t, 120, pg1.TotalItems)
		assert.Equal(t, 3, pg2.TotalPages)

		for _, e := range append(append(page1, page2...), page3...) {
			assert.False(t, seen[e.ContestantID], "no duplicates across pages")
			seen[e.ContestantID] = true
		}
		assert.Len(t, seen, 120, "no contestant missing")
	})

	t.Run("out of range page is empty", func(t *testing.T) {
		entries, _, _ := lb.Full(10, 50)
		assert.Empty(t, entries)
	})

	t.Run("page size is capped", func(t *testing.T) {
		entries, _, pg := lb.Full(1, 5000)
		assert.Equal(t, MaxPageSize, pg.PageSize)
		assert.Len(t, entries, MaxPageSize)
	})

	t.Run("defaults applied to bad input", func(t *testing.T) {
		_, _, pg := lb.Full(0, 0)
		assert.Equal(t, 1, pg.Page)
		assert.Equal(t, 50, pg.PageSize)
	})
}

func TestFullListCapped(t *testing.T) {
	lb := NewLeaderboard(fixedSource{snapshotOf(350)})

	_, _, pg := lb.Full(1, 50)
	assert.Equal(t, FullListCap, pg.TotalItems)

	entries, _, _ := lb.Full(4, 50)
	assert.Len(t, entries, 50)
	entries, _, _ = lb.Full(5, 50)
	assert.Empty(t, entries, "nothing beyond the cap")
}

func TestEmptyBeforeFirstSnapshot(t *testing.T) {
	lb := NewLeaderboard(fixedSource{nil})

	top, snap := lb.Top(10)
	assert.Empty(t, top)
	assert.NotNil(t, snap)

	entries, _, err := lb.Filtered(FilterRising)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
