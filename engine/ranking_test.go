package engine

import (
	"context"
	"testing"
	"time"

	"github.com/kaikhaya123/RES-sub000/logging"
	"github.com/kaikhaya123/RES-sub000/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContestant(id, name string, registeredAt time.Time) *storage.Contestant {
	return &storage.Contestant{
		ID:           id,
		Name:         name,
		Campus:       "Main",
		Status:       storage.ContestantActive,
		RegisteredAt: registeredAt,
	}
}

func newTestRanker(t *testing.T, contestants ...*storage.Contestant) (*Ranker, *TallyAggregator, *storage.MemorySnapshotStorage) {
	t.Helper()
	logging.Log = logrus.New()

	catalog := storage.NewMemoryContestantStorage()
	for _, c := range contestants {
		require.NoError(t, catalog.Put(context.TODO(), c))
	}

	snapshots := storage.NewMemorySnapshotStorage()
	tallies := NewTallyAggregator(storage.NewMemoryLedgerStorage())
	return NewRanker(tallies, catalog, snapshots, time.Second, 5), tallies, snapshots
}

func vote(tallies *TallyAggregator, contestantID string, n int) {
	for i := 0; i < n; i++ {
		tallies.ApplyEvent(&storage.VoteEvent{ContestantID: contestantID, Kind: storage.EventVote, Accepted: true})
	}
}

func TestRankOrderAndTieBreaks(t *testing.T) {
	early := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	ranker, tallies, _ := newTestRanker(t,
		testContestant("c-bbb", "B", late),
		testContestant("c-aaa", "A", early),
		testContestant("c-ccc", "C", late),
	)

	// A and B tie on votes, A registered first. B and C tie on votes and
	// registration time, lexical ID order decides.
	vote(tallies, "c-aaa", 100)
	vote(tallies, "c-bbb", 100)
	vote(tallies, "c-ccc", 100)
	vote(tallies, "c-aaa", 0)

	snap, err := ranker.ComputeOnce(context.TODO())
	require.NoError(t, err)
	require.Len(t, snap.Entries, 3)

	assert.Equal(t, "c-aaa", snap.Entries[0].ContestantID, "earlier registration wins the tie")
	assert.Equal(t, "c-bbb", snap.Entries[1].ContestantID, "lexical order is the final fallback")
	assert.Equal(t, "c-ccc", snap.Entries[2].ContestantID)

	t.Run("ranks are a strict total order", func(t *testing.T) {
		seen := make(map[int]bool)
		for i, e := range snap.Entries {
			assert.Equal(t, i+1, e.Rank)
			assert.False(t, seen[e.Rank], "no two contestants may share a rank")
			seen[e.Rank] = true
		}
	})

	t.Run("deterministic across recomputes", func(t *testing.T) {
		again, err := ranker.ComputeOnce(context.TODO())
		require.NoError(t, err)
		for i := range snap.Entries {
			assert.Equal(t, snap.Entries[i].ContestantID, again.Entries[i].ContestantID)
			assert.Equal(t, snap.Entries[i].Rank, again.Entries[i].Rank)
		}
	})
}

func TestFirstSnapshotHasFlatTrend(t *testing.T) {
	ranker, tallies, _ := newTestRanker(t,
		testContestant("c-1", "One", time.Now().UTC()),
		testContestant("c-2", "Two", time.Now().UTC()),
	)
	vote(tallies, "c-1", 5)
	vote(tallies, "c-2", 3)

	snap, err := ranker.ComputeOnce(context.TODO())
	require.NoError(t, err)

	for _, e := range snap.Entries {
		assert.Equal(t, storage.TrendSame, e.Trend)
		assert.Equal(t, e.Rank, e.PreviousRank)
	}
}

func TestTrendAcrossSnapshots(t *testing.T) {
	ranker, tallies, _ := newTestRanker(t,
		testContestant("c-a", "A", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		testContestant("c-b", "B", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
	)

	vote(tallies, "c-a", 10)
	vote(tallies, "c-b", 5)
	first, err := ranker.ComputeOnce(context.TODO())
	require.NoError(t, err)
	require.Equal(t, "c-a", first.Entries[0].ContestantID)

	// B overtakes A.
	vote(tallies, "c-b", 10)
	second, err := ranker.ComputeOnce(context.TODO())
	require.NoError(t, err)

	require.Equal(t, "c-b", second.Entries[0].ContestantID)
	assert.Equal(t, storage.TrendUp, second.Entries[0].Trend)
	assert.Equal(t, 2, second.Entries[0].PreviousRank)

	require.Equal(t, "c-a", second.Entries[1].ContestantID)
	assert.Equal(t, storage.TrendDown, second.Entries[1].Trend)
	assert.Equal(t, 1, second.Entries[1].PreviousRank)
}

func TestSnapshotsPersistedAndPruned(t *testing.T) {
	ranker, tallies, snapshots := newTestRanker(t,
		testContestant("c-1", "One", time.Now().UTC()),
	)
	ranker.retain = 3
	vote(tallies, "c-1", 1)

	for i := 0; i < 5; i++ {
		_, err := ranker.ComputeOnce(context.TODO())
		require.NoError(t, err)
	}

	stored, err := snapshots.List(context.TODO())
	require.NoError(t, err)
	assert.Len(t, stored, 3, "retention keeps only the newest snapshots")
	assert.Equal(t, int64(5), stored[len(stored)-1].Version)
}

func TestRestoreSeedsTrendHistory(t *testing.T) {
	ranker, tallies, snapshots := newTestRanker(t,
		testContestant("c-a", "A", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		testContestant("c-b", "B", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
	)

	vote(tallies, "c-a", 10)
	vote(tallies, "c-b", 5)
	_, err := ranker.ComputeOnce(context.TODO())
	require.NoError(t, err)

	// Simulate a restart: a fresh ranker over the same snapshot store.
	restarted := NewRanker(tallies, ranker.contestants, snapshots, time.Second, 5)
	require.NoError(t, restarted.Restore(context.TODO()))
	require.NotNil(t, restarted.Latest())

	vote(tallies, "c-b", 10)
	snap, err := restarted.ComputeOnce(context.TODO())
	require.NoError(t, err)

	assert.Equal(t, int64(2), snap.Version, "version continues after restart")
	assert.Equal(t, storage.TrendUp, snap.Entries[0].Trend)
}

func TestComputeFailureKeepsLastSnapshot(t *testing.T) {
	ranker, tallies, _ := newTestRanker(t, testContestant("c-1", "One", time.Now().UTC()))
	vote(tallies, "c-1", 1)

	good, err := ranker.ComputeOnce(context.TODO())
	require.NoError(t, err)

	ranker.contestants = failingContestantStorage{}
	snap, err := ranker.ComputeOnce(context.TODO())
	assert.Error(t, err)
	assert.Same(t, good, snap, "readers keep the last good snapshot")
	assert.Same(t, good, ranker.Latest())
}

type failingContestantStorage struct{}

func (failingContestantStorage) Get(context.Context, string) (*storage.Contestant, error) {
	return nil, assert.AnError
}
func (failingContestantStorage) GetAll(context.Context) ([]*storage.Contestant, error) {
	return nil, assert.AnError
}
func (failingContestantStorage) Put(context.Context, *storage.Contestant) error { return assert.AnError }
func (failingContestantStorage) UpdateStatus(context.Context, string, storage.ContestantStatus) error {
	return assert.AnError
}
