package guard

import (
	"testing"
	"time"

	"github.com/kaikhaya123/RES-sub000/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(cfg Config) (*Guard, *time.Time) {
	logging.Log = logrus.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := New(cfg)
	g.now = func() time.Time { return now }
	return g, &now
}

func TestBurstProtection(t *testing.T) {
	g, now := newTestGuard(Config{
		BurstLimit:      3,
		BurstWindow:     10 * time.Second,
		SybilVoterLimit: 100,
		SybilWindow:     time.Minute,
	})
	meta := RequestMeta{ClientIP: "10.0.0.1", UserAgent: "test"}

	t.Run("allows up to the limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.NoError(t, g.Screen("voter-1", "c-1", meta))
		}
	})

	t.Run("rejects past the limit", func(t *testing.T) {
		err := g.Screen("voter-1", "c-1", meta)
		require.ErrorIs(t, err, ErrAbuseSuspected)
	})

	t.Run("other voters unaffected", func(t *testing.T) {
		assert.NoError(t, g.Screen("voter-2", "c-1", meta))
	})

	t.Run("window slides", func(t *testing.T) {
		*now = now.Add(11 * time.Second)
		assert.NoError(t, g.Screen("voter-1", "c-1", meta))
	})
}

func TestSybilHeuristic(t *testing.T) {
	g, now := newTestGuard(Config{
		BurstLimit:      100,
		BurstWindow:     10 * time.Second,
		SybilVoterLimit: 2,
		SybilWindow:     time.Minute,
	})
	shared := RequestMeta{ClientIP: "10.0.0.9", UserAgent: "bot"}

	t.Run("distinct voters on one fingerprint up to limit", func(t *testing.T) {
		assert.NoError(t, g.Screen("voter-1", "c-1", shared))
		assert.NoError(t, g.Screen("voter-2", "c-1", shared))
	})

	t.Run("third voter on same fingerprint flagged", func(t *testing.T) {
		err := g.Screen("voter-3", "c-1", shared)
		require.ErrorIs(t, err, ErrAbuseSuspected)
	})

	t.Run("known voter still passes", func(t *testing.T) {
		assert.NoError(t, g.Screen("voter-1", "c-1", shared))
	})

	t.Run("different fingerprint unaffected", func(t *testing.T) {
		other := RequestMeta{ClientIP: "10.0.0.10", UserAgent: "bot"}
		assert.NoError(t, g.Screen("voter-3", "c-1", other))
	})

	t.Run("expired voters free the slot", func(t *testing.T) {
		*now = now.Add(2 * time.Minute)
		assert.NoError(t, g.Screen("voter-3", "c-1", shared))
	})
}

func TestSweepDropsIdleState(t *testing.T) {
	g, now := newTestGuard(Config{
		BurstLimit:      3,
		BurstWindow:     10 * time.Second,
		SybilVoterLimit: 2,
		SybilWindow:     time.Minute,
	})
	meta := RequestMeta{ClientIP: "10.0.0.1", UserAgent: "test"}

	require.NoError(t, g.Screen("voter-1", "c-1", meta))
	*now = now.Add(5 * time.Minute)
	g.Sweep()

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Empty(t, g.voterBursts)
	assert.Empty(t, g.fingerprints)
}

func TestFingerprintStable(t *testing.T) {
	a := RequestMeta{ClientIP: "1.2.3.4", UserAgent: "ua"}
	b := RequestMeta{ClientIP: "1.2.3.4", UserAgent: "ua"}
	c := RequestMeta{ClientIP: "1.2.3.5", UserAgent: "ua"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
