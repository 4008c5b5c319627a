package engine

import (
	"errors"

	"github.com/kaikhaya123/RES-sub000/storage"
)

type Filter string

const (
	FilterAll    Filter = "all"
	FilterTop30  Filter = "top30"
	FilterRising Filter = "rising"
)

var ErrUnknownFilter = errors.New("unknown leaderboard filter")

// FullListCap bounds how many contestants the paginated full list exposes,
// protecting downstream rendering from unbounded payloads.
const FullListCap = 200

// MaxPageSize bounds a single page of the full list.
const MaxPageSize = 100

// SnapshotSource yields the latest published snapshot. Satisfied by
// *Ranker; tests substitute fixed snapshots.
type SnapshotSource interface {
	Latest() *storage.RankSnapshot
}

// Leaderboard serves read views off the latest immutable snapshot only.
// It never touches the ledger or quota store, so read latency does not
// depend on write volume.
type Leaderboard struct {
	source SnapshotSource
}

func NewLeaderboard(source SnapshotSource) *Leaderboard {
	return &Leaderboard{source: source}
}

// Pagination describes one stable slice of a single snapshot. Entries
// never shift within a snapshot version; they may shift between versions,
// which is the disclosed behavior of a live leaderboard.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int   `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
	Version    int64 `json:"version"`
}

func (l *Leaderboard) snapshot() *storage.RankSnapshot {
	snap := l.source.Latest()
	if snap == nil {
		// Before the first compute cycle: an empty board, not an error.
		return &storage.RankSnapshot{Entries: []storage.RankEntry{}}
	}
	return snap
}

// Top returns the first n entries of the latest snapshot.
func (l *Leaderboard) Top(n int) ([]storage.RankEntry, *storage.RankSnapshot) {
	snap := l.snapshot()
	if n > len(snap.Entries) {
		n = len(snap.Entries)
	}
	if n < 0 {
		n = 0
	}
	return append([]storage.RankEntry(nil), snap.Entries[:n]...), snap
}

// Filtered returns all, the top 30, or only rising contestants.
func (l *Leaderboard) Filtered(filter Filter) ([]storage.RankEntry, *storage.RankSnapshot, error) {
	snap := l.snapshot()
	switch filter {
	case FilterAll, "":
		return append([]storage.RankEntry(nil), snap.Entries...), snap, nil
	case FilterTop30:
		entries, s := l.Top(30)
		return entries, s, nil
	case FilterRising:
		rising := make([]storage.RankEntry, 0)
		for _, e := range snap.Entries {
			if e.Trend == storage.TrendUp {
				rising = append(rising, e)
			}
		}
		return rising, snap, nil
	default:
		return nil, snap, ErrUnknownFilter
	}
}

// Full returns one page of the capped full ranking. Page numbers start
// at 1; an out-of-range page yields an empty (not error) result so
// clients can probe for the end.
func (l *Leaderboard) Full(page, pageSize int) ([]storage.RankEntry, *storage.RankSnapshot, Pagination) {
	snap := l.snapshot()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	entries := snap.Entries
	if len(entries) > FullListCap {
		entries = entries[:FullListCap]
	}

	total := len(entries)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	pg := Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
		Version:    snap.Version,
	}
	return append([]storage.RankEntry(nil), entries[start:end]...), snap, pg
}
