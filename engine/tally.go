package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kaikhaya123/RES-sub000/logging"
	"github.com/kaikhaya123/RES-sub000/storage"
)

// Tally is the running vote count for one contestant, derived from the
// ledger and recomputable at any time.
type Tally struct {
	ContestantID string    `json:"contestantId"`
	Votes        int64     `json:"votes"`
	AsOf         time.Time `json:"asOf"`
}

// TallyAggregator keeps one monotonic counter per contestant. Increments
// for different contestants never contend; increments for the same
// contestant are atomic, which is all a pure sum needs.
type TallyAggregator struct {
	ledger storage.LedgerStorage

	mu       sync.RWMutex
	counters map[string]*atomic.Int64
}

func NewTallyAggregator(ledger storage.LedgerStorage) *TallyAggregator {
	return &TallyAggregator{
		ledger:   ledger,
		counters: make(map[string]*atomic.Int64),
	}
}

func (a *TallyAggregator) counter(contestantID string) *atomic.Int64 {
	a.mu.RLock()
	c, ok := a.counters[contestantID]
	a.mu.RUnlock()
	if ok {
		return c
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok = a.counters[contestantID]; !ok {
		c = &atomic.Int64{}
		a.counters[contestantID] = c
	}
	return c
}

func delta(ev *storage.VoteEvent) int64 {
	if !ev.Accepted {
		return 0
	}
	if ev.Kind == storage.EventReversal {
		return -1
	}
	return 1
}

// ApplyEvent folds one ledger event into the live counters.
func (a *TallyAggregator) ApplyEvent(ev *storage.VoteEvent) Tally {
	votes := a.counter(ev.ContestantID).Add(delta(ev))
	return Tally{ContestantID: ev.ContestantID, Votes: votes, AsOf: time.Now().UTC()}
}

func (a *TallyAggregator) Votes(contestantID string) int64 {
	return a.counter(contestantID).Load()
}

// All returns a point-in-time copy of every counter.
func (a *TallyAggregator) All() map[string]int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]int64, len(a.counters))
	for id, c := range a.counters {
		out[id] = c.Load()
	}
	return out
}

// Recompute replays the ledger for one contestant and overwrites the live
// counter. Used by the reconciler and admin repair.
func (a *TallyAggregator) Recompute(ctx context.Context, contestantID string) (Tally, error) {
	var votes int64
	err := a.ledger.ReplayContestant(ctx, contestantID, func(ev *storage.VoteEvent) error {
		votes += delta(ev)
		return nil
	})
	if err != nil {
		logging.Log.Errorf("TALLY: recompute replay failed for %s: %v", contestantID, err)
		return Tally{}, err
	}

	a.counter(contestantID).Store(votes)
	logging.Log.Infof("TALLY: recomputed %s to %d votes", contestantID, votes)
	return Tally{ContestantID: contestantID, Votes: votes, AsOf: time.Now().UTC()}, nil
}

// Rebuild replays the whole ledger into fresh counters. Runs at startup
// before the server accepts traffic.
func (a *TallyAggregator) Rebuild(ctx context.Context) error {
	counts := make(map[string]int64)
	err := a.ledger.Replay(ctx, func(ev *storage.VoteEvent) error {
		counts[ev.ContestantID] += delta(ev)
		return nil
	})
	if err != nil {
		logging.Log.Errorf("TALLY: rebuild replay failed: %v", err)
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters = make(map[string]*atomic.Int64, len(counts))
	for id, votes := range counts {
		c := &atomic.Int64{}
		c.Store(votes)
		a.counters[id] = c
	}
	logging.Log.Infof("TALLY: rebuilt counters for %d contestants", len(counts))
	return nil
}
