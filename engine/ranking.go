package engine

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/kaikhaya123/RES-sub000/logging"
	"github.com/kaikhaya123/RES-sub000/storage"
)

type rankerState int32

const (
	stateIdle rankerState = iota
	stateComputing
)

// Ranker turns live tallies into immutable, versioned rank snapshots on a
// fixed cadence. Publication is a pointer swap; readers always see a
// complete snapshot, never a partial one.
type Ranker struct {
	tallies     *TallyAggregator
	contestants storage.ContestantStorage
	snapshots   storage.SnapshotStorage

	interval time.Duration
	retain   int

	state     atomic.Int32
	version   atomic.Int64
	published atomic.Pointer[storage.RankSnapshot]
}

func NewRanker(tallies *TallyAggregator, contestants storage.ContestantStorage, snapshots storage.SnapshotStorage, interval time.Duration, retain int) *Ranker {
	return &Ranker{
		tallies:     tallies,
		contestants: contestants,
		snapshots:   snapshots,
		interval:    interval,
		retain:      retain,
	}
}

// Latest returns the last published snapshot, or nil before the first
// compute cycle completes.
func (r *Ranker) Latest() *storage.RankSnapshot {
	return r.published.Load()
}

// Restore seeds the published pointer and version counter from persisted
// snapshots so trends survive a restart.
func (r *Ranker) Restore(ctx context.Context) error {
	snap, err := r.snapshots.Latest(ctx)
	if err != nil {
		if err == storage.ErrSnapshotNotFound {
			return nil
		}
		return err
	}
	r.published.Store(snap)
	r.version.Store(snap.Version)
	logging.Log.Infof("RANK: restored snapshot version %d (%d entries)", snap.Version, len(snap.Entries))
	return nil
}

// ComputeOnce runs a single Idle -> Computing -> Published cycle. A
// failure leaves the previous snapshot in place and the engine idle.
func (r *Ranker) ComputeOnce(ctx context.Context) (*storage.RankSnapshot, error) {
	if !r.state.CompareAndSwap(int32(stateIdle), int32(stateComputing)) {
		// A cycle is already running; the next tick will catch up.
		return r.Latest(), nil
	}
	defer r.state.Store(int32(stateIdle))

	contestants, err := r.contestants.GetAll(ctx)
	if err != nil {
		logging.Log.Errorf("RANK: failed to load contestants, keeping last snapshot: %v", err)
		return r.Latest(), err
	}

	counts := r.tallies.All()
	previous := r.Latest()

	snap := buildSnapshot(r.version.Add(1), contestants, counts, previous)
	if err := r.snapshots.Put(ctx, snap); err != nil {
		// Persistence is for audit/restart; serving the new snapshot
		// still beats serving a stale one.
		logging.Log.Errorf("RANK: failed to persist snapshot %d: %v", snap.Version, err)
	} else if err := r.snapshots.Prune(ctx, r.retain); err != nil {
		logging.Log.Warnf("RANK: snapshot prune failed: %v", err)
	}

	r.published.Store(snap)
	logging.Log.Debugf("RANK: published snapshot %d with %d entries", snap.Version, len(snap.Entries))
	return snap, nil
}

// buildSnapshot sorts by votes descending with deterministic tie-breaks:
// earlier registration wins, then lexical contestant ID. Insertion order
// never decides a rank.
func buildSnapshot(version int64, contestants []*storage.Contestant, counts map[string]int64, previous *storage.RankSnapshot) *storage.RankSnapshot {
	ordered := make([]*storage.Contestant, len(contestants))
	copy(ordered, contestants)
	sort.Slice(ordered, func(i, j int) bool {
		vi, vj := counts[ordered[i].ID], counts[ordered[j].ID]
		if vi != vj {
			return vi > vj
		}
		if !ordered[i].RegisteredAt.Equal(ordered[j].RegisteredAt) {
			return ordered[i].RegisteredAt.Before(ordered[j].RegisteredAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	prevRanks := make(map[string]int)
	if previous != nil {
		for _, e := range previous.Entries {
			prevRanks[e.ContestantID] = e.Rank
		}
	}

	entries := make([]storage.RankEntry, 0, len(ordered))
	for i, c := range ordered {
		rank := i + 1
		prev, known := prevRanks[c.ID]
		trend := storage.TrendSame
		if !known {
			// First appearance: no history, trend is flat by definition.
			prev = rank
		} else if rank < prev {
			trend = storage.TrendUp
		} else if rank > prev {
			trend = storage.TrendDown
		}

		entries = append(entries, storage.RankEntry{
			ContestantID: c.ID,
			Name:         c.Name,
			Campus:       c.Campus,
			Status:       c.Status,
			Votes:        counts[c.ID],
			Rank:         rank,
			PreviousRank: prev,
			Trend:        trend,
		})
	}

	return &storage.RankSnapshot{
		Version:     version,
		GeneratedAt: time.Now().UTC(),
		Entries:     entries,
	}
}

// Start computes snapshots on the configured interval until ctx is done.
func (r *Ranker) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := r.ComputeOnce(ctx); err != nil {
					logging.Log.Errorf("RANK: compute cycle failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
