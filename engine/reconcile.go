package engine

import (
	"context"
	"time"

	"github.com/kaikhaya123/RES-sub000/logging"
	"github.com/kaikhaya123/RES-sub000/storage"
)

// Reconciler periodically audits the live tallies against a full ledger
// replay. A mismatch means a counter drifted (crash between append and
// apply, for instance); the repair recomputes from the ledger and is
// always logged, never silent.
type Reconciler struct {
	ledger   storage.LedgerStorage
	tallies  *TallyAggregator
	interval time.Duration
}

func NewReconciler(ledger storage.LedgerStorage, tallies *TallyAggregator, interval time.Duration) *Reconciler {
	return &Reconciler{ledger: ledger, tallies: tallies, interval: interval}
}

// RunOnce returns the contestant IDs whose counters were repaired.
func (r *Reconciler) RunOnce(ctx context.Context) ([]string, error) {
	expected := make(map[string]int64)
	err := r.ledger.Replay(ctx, func(ev *storage.VoteEvent) error {
		expected[ev.ContestantID] += delta(ev)
		return nil
	})
	if err != nil {
		logging.Log.Errorf("RECONCILE: ledger replay failed: %v", err)
		return nil, err
	}

	live := r.tallies.All()

	var repaired []string
	for id, want := range expected {
		if live[id] != want {
			logging.Log.Warnf("RECONCILE: tally mismatch for %s: live=%d ledger=%d, repairing", id, live[id], want)
			if _, err := r.tallies.Recompute(ctx, id); err != nil {
				return repaired, err
			}
			repaired = append(repaired, id)
		}
	}
	// Counters with no ledger events behind them are drift too.
	for id, got := range live {
		if _, ok := expected[id]; !ok && got != 0 {
			logging.Log.Warnf("RECONCILE: orphan tally for %s: live=%d ledger=0, repairing", id, got)
			if _, err := r.tallies.Recompute(ctx, id); err != nil {
				return repaired, err
			}
			repaired = append(repaired, id)
		}
	}

	if len(repaired) > 0 {
		logging.Log.Infof("RECONCILE: repaired %d tallies", len(repaired))
	}
	return repaired, nil
}

// Start audits on the configured interval until ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					logging.Log.Errorf("RECONCILE: audit failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
