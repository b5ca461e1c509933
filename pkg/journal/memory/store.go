package memory

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"codeberg.org/miketth/layoutlock/pkg/journal"
	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
)

type Store struct {
	mu       sync.Mutex
	sessions []journal.Session
	index    map[string]int
}

func NewStore() *Store {
	return &Store{
		index: make(map[string]int),
	}
}

func (s *Store) SessionStarted(ls layoutlock.LockSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[ls.ID]; ok {
		return fmt.Errorf("session %s already recorded", ls.ID)
	}

	s.index[ls.ID] = len(s.sessions)
	s.sessions = append(s.sessions, journal.FromLockSession(ls))
	return nil
}

func (s *Store) SessionEnded(ls layoutlock.LockSession, endedAt time.Time, restored bool) error {
	return s.update(ls.ID, func(session *journal.Session) {
		session.EndedAt = endedAt
		session.Restored = restored
	})
}

func (s *Store) Corrected(ls layoutlock.LockSession, c layoutlock.Correction) error {
	return s.update(ls.ID, func(session *journal.Session) {
		session.Corrections++
		if c.Result == layoutlock.SwitchFailed {
			session.FailedCorrections++
		}
	})
}

func (s *Store) Sessions(limit int) ([]journal.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.sessions)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AbandonOpen(at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for i := range s.sessions {
		if s.sessions[i].Open() {
			s.sessions[i].EndedAt = at
			s.sessions[i].Abandoned = true
			n++
		}
	}
	return n, nil
}

func (s *Store) Close() error {
	return nil
}

// Snapshot returns all sessions oldest first.
func (s *Store) Snapshot() []journal.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sessions)
}

// Restore replaces the store content with sessions, oldest first.
func (s *Store) Restore(sessions []journal.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = slices.Clone(sessions)
	s.index = make(map[string]int, len(sessions))
	for i, session := range s.sessions {
		s.index[session.ID] = i
	}
}

func (s *Store) update(id string, fn func(*journal.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", journal.ErrUnknownSession, id)
	}

	fn(&s.sessions[i])
	return nil
}
