package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/kaikhaya123/RES-sub000/logging"
)

var ErrAbuseSuspected = errors.New("vote request flagged as suspected abuse")

// RequestMeta carries the client attributes used for fingerprinting.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// Fingerprint hashes the client network/device attributes so raw IPs are
// never kept in memory longer than the request.
func (m RequestMeta) Fingerprint() string {
	sum := sha256.Sum256([]byte(m.ClientIP + "|" + m.UserAgent))
	return hex.EncodeToString(sum[:8])
}

type Config struct {
	// BurstLimit is the max vote requests one voter may issue per
	// BurstWindow, regardless of remaining quota.
	BurstLimit  int
	BurstWindow time.Duration

	// SybilVoterLimit is the max distinct voter IDs one fingerprint may
	// present within SybilWindow before requests are flagged.
	SybilVoterLimit int
	SybilWindow     time.Duration
}

// Guard runs advisory, process-local abuse checks ahead of quota
// consumption. It holds only bounded recent history; rejections are
// heuristic and deliberately distinct from quota exhaustion.
type Guard struct {
	cfg Config
	now func() time.Time

	mu           sync.Mutex
	voterBursts  map[string][]time.Time
	fingerprints map[string]map[string]time.Time // fingerprint -> voterID -> last seen
}

func New(cfg Config) *Guard {
	return &Guard{
		cfg:          cfg,
		now:          time.Now,
		voterBursts:  make(map[string][]time.Time),
		fingerprints: make(map[string]map[string]time.Time),
	}
}

// Screen returns ErrAbuseSuspected when either heuristic trips. It never
// blocks on anything outside this process.
func (g *Guard) Screen(voterID, contestantID string, meta RequestMeta) error {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.burstExceeded(voterID, now) {
		logging.Log.Warnf("GUARD: burst limit hit for voter %s (contestant %s)", voterID, contestantID)
		return ErrAbuseSuspected
	}
	if g.sybilExceeded(meta.Fingerprint(), voterID, now) {
		logging.Log.Warnf("GUARD: fingerprint shared by too many voters, flagged voter %s", voterID)
		return ErrAbuseSuspected
	}
	return nil
}

func (g *Guard) burstExceeded(voterID string, now time.Time) bool {
	cutoff := now.Add(-g.cfg.BurstWindow)
	kept := g.voterBursts[voterID][:0]
	for _, t := range g.voterBursts[voterID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= g.cfg.BurstLimit {
		g.voterBursts[voterID] = kept
		return true
	}
	g.voterBursts[voterID] = append(kept, now)
	return false
}

func (g *Guard) sybilExceeded(fingerprint, voterID string, now time.Time) bool {
	cutoff := now.Add(-g.cfg.SybilWindow)
	seen := g.fingerprints[fingerprint]
	if seen == nil {
		seen = make(map[string]time.Time)
		g.fingerprints[fingerprint] = seen
	}
	for id, last := range seen {
		if !last.After(cutoff) {
			delete(seen, id)
		}
	}

	if _, known := seen[voterID]; !known && len(seen) >= g.cfg.SybilVoterLimit {
		return true
	}
	seen[voterID] = now
	return false
}

// Sweep drops idle window state. Called periodically so memory stays
// bounded by recent traffic, not total voter population.
func (g *Guard) Sweep() {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()

	burstCutoff := now.Add(-g.cfg.BurstWindow)
	for voterID, times := range g.voterBursts {
		kept := times[:0]
		for _, t := range times {
			if t.After(burstCutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(g.voterBursts, voterID)
		} else {
			g.voterBursts[voterID] = kept
		}
	}

	sybilCutoff := now.Add(-g.cfg.SybilWindow)
	for fp, seen := range g.fingerprints {
		for id, last := range seen {
			if !last.After(sybilCutoff) {
				delete(seen, id)
			}
		}
		if len(seen) == 0 {
			delete(g.fingerprints, fp)
		}
	}
}

// Start runs Sweep on a fixed cadence until stop is closed.
func (g *Guard) Start(stop <-chan struct{}) {
	interval := g.cfg.SybilWindow
	if g.cfg.BurstWindow > interval {
		interval = g.cfg.BurstWindow
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				g.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
