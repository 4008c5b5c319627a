package storage

import (
	"context"
	"sort"
	"sync"
)

// In-memory implementations of the storage interfaces. Used when
// storage.UseMemory is set (local development without AWS) and by the
// test suites.

type MemoryQuotaStorage struct {
	mu      sync.Mutex
	records map[string]*QuotaRecord
}

func NewMemoryQuotaStorage() *MemoryQuotaStorage {
	return &MemoryQuotaStorage{records: make(map[string]*QuotaRecord)}
}

func quotaKey(voterID, dateUTC string) string {
	return voterID + "#" + dateUTC
}

func (s *MemoryQuotaStorage) TryConsume(_ context.Context, voterID, dateUTC string, n, allowance int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[quotaKey(voterID, dateUTC)]
	if !ok {
		rec = &QuotaRecord{VoterID: voterID, DateUTC: dateUTC, Remaining: allowance}
		s.records[quotaKey(voterID, dateUTC)] = rec
	}
	if rec.Remaining < n {
		return 0, ErrQuotaExceeded
	}
	rec.Remaining -= n
	rec.Used += n
	return rec.Remaining, nil
}

func (s *MemoryQuotaStorage) Refund(_ context.Context, voterID, dateUTC string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[quotaKey(voterID, dateUTC)]
	if !ok || rec.Used < n {
		return nil
	}
	rec.Remaining += n
	rec.Used -= n
	return nil
}

func (s *MemoryQuotaStorage) Get(_ context.Context, voterID, dateUTC string) (*QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[quotaKey(voterID, dateUTC)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

type MemoryLedgerStorage struct {
	mu     sync.Mutex
	byKey  map[string]struct{}
	events []*VoteEvent
}

func NewMemoryLedgerStorage() *MemoryLedgerStorage {
	return &MemoryLedgerStorage{byKey: make(map[string]struct{})}
}

func (s *MemoryLedgerStorage) Append(_ context.Context, event *VoteEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[event.DedupKey]; exists {
		return ErrDuplicateEvent
	}
	s.byKey[event.DedupKey] = struct{}{}
	cp := *event
	s.events = append(s.events, &cp)
	return nil
}

func (s *MemoryLedgerStorage) Replay(_ context.Context, fn func(*VoteEvent) error) error {
	return s.replay("", fn)
}

func (s *MemoryLedgerStorage) ReplayContestant(_ context.Context, contestantID string, fn func(*VoteEvent) error) error {
	return s.replay(contestantID, fn)
}

func (s *MemoryLedgerStorage) replay(contestantID string, fn func(*VoteEvent) error) error {
	s.mu.Lock()
	events := make([]*VoteEvent, 0, len(s.events))
	for _, ev := range s.events {
		if contestantID == "" || ev.ContestantID == contestantID {
			cp := *ev
			events = append(events, &cp)
		}
	}
	s.mu.Unlock()

	sort.Slice(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })
	for _, ev := range events {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

type MemoryContestantStorage struct {
	mu          sync.RWMutex
	contestants map[string]*Contestant
}

func NewMemoryContestantStorage() *MemoryContestantStorage {
	return &MemoryContestantStorage{contestants: make(map[string]*Contestant)}
}

func (s *MemoryContestantStorage) Get(_ context.Context, id string) (*Contestant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contestants[id]
	if !ok {
		return nil, ErrContestantNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryContestantStorage) GetAll(_ context.Context) ([]*Contestant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Contestant, 0, len(s.contestants))
	for _, c := range s.contestants {
		cp := *c
		all = append(all, &cp)
	}
	return all, nil
}

func (s *MemoryContestantStorage) Put(_ context.Context, contestant *Contestant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contestants[contestant.ID]; exists {
		return ErrItemAlreadyExists
	}
	cp := *contestant
	s.contestants[contestant.ID] = &cp
	return nil
}

func (s *MemoryContestantStorage) UpdateStatus(_ context.Context, id string, status ContestantStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contestants[id]
	if !ok {
		return ErrContestantNotFound
	}
	c.Status = status
	return nil
}

type MemoryVoterStorage struct {
	mu     sync.RWMutex
	voters map[string]*Voter
}

func NewMemoryVoterStorage() *MemoryVoterStorage {
	return &MemoryVoterStorage{voters: make(map[string]*Voter)}
}

func (s *MemoryVoterStorage) Get(_ context.Context, id string) (*Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.voters[id]
	if !ok {
		return nil, ErrVoterNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryVoterStorage) GetAll(_ context.Context) ([]*Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Voter, 0, len(s.voters))
	for _, v := range s.voters {
		cp := *v
		all = append(all, &cp)
	}
	return all, nil
}

func (s *MemoryVoterStorage) Put(_ context.Context, voter *Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.voters[voter.ID]; exists {
		return ErrItemAlreadyExists
	}
	cp := *voter
	s.voters[voter.ID] = &cp
	return nil
}

func (s *MemoryVoterStorage) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.voters[id]
	if !ok {
		return ErrVoterNotFound
	}
	v.Active = false
	return nil
}

type MemorySnapshotStorage struct {
	mu        sync.Mutex
	snapshots []*RankSnapshot
}

func NewMemorySnapshotStorage() *MemorySnapshotStorage {
	return &MemorySnapshotStorage{}
}

func (s *MemorySnapshotStorage) Put(_ context.Context, snapshot *RankSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, snapshot)
	sort.Slice(s.snapshots, func(i, j int) bool { return s.snapshots[i].Version < s.snapshots[j].Version })
	return nil
}

func (s *MemorySnapshotStorage) Latest(_ context.Context) (*RankSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return s.snapshots[len(s.snapshots)-1], nil
}

func (s *MemorySnapshotStorage) List(_ context.Context) ([]*RankSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*RankSnapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out, nil
}

func (s *MemorySnapshotStorage) Prune(_ context.Context, retain int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) > retain {
		s.snapshots = append([]*RankSnapshot(nil), s.snapshots[len(s.snapshots)-retain:]...)
	}
	return nil
}
