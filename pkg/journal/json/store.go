package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"codeberg.org/miketth/layoutlock/pkg/journal"
	"codeberg.org/miketth/layoutlock/pkg/journal/memory"
	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
)

const saveInterval = time.Minute

// Store keeps the journal in memory and writes it to a JSON file from
// SaveLooper and on Close.
type Store struct {
	sessions *memory.Store
	file     *os.File
	lock     sync.Mutex
	dirty    bool
}

func NewStore(filename string) (*Store, error) {
	fileExists := true
	info, err := os.Stat(filename)
	if os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		fileExists = false
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	store := &Store{
		sessions: memory.NewStore(),
		file:     file,
		dirty:    true,
	}

	if fileExists {
		err = store.load()
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("load: %w", err)
		}

		store.dirty = false
	}

	return store, nil
}

func (s *Store) Close() error {
	saveErr := s.save()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if saveErr != nil {
		return fmt.Errorf("save: %w", saveErr)
	}
	return nil
}

func (s *Store) load() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, err := s.file.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	var sessions []journal.Session
	dec := json.NewDecoder(s.file)
	err = dec.Decode(&sessions)
	if err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	s.sessions.Restore(sessions)
	return nil
}

func (s *Store) save() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.dirty {
		return nil
	}

	_, err := s.file.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	err = s.file.Truncate(0)
	if err != nil {
		return fmt.Errorf("truncate file: %w", err)
	}

	enc := json.NewEncoder(s.file)
	enc.SetIndent("", "  ")
	err = enc.Encode(s.sessions.Snapshot())
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	s.dirty = false

	return nil
}

func (s *Store) SaveLooper(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			err := s.save()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}

			return ctx.Err()
		case <-time.After(saveInterval):
			err := s.save()
			if err != nil {
				return fmt.Errorf("save: %w", err)
			}
		}
	}
}

func (s *Store) SessionStarted(ls layoutlock.LockSession) error {
	return s.mutate(func() error { return s.sessions.SessionStarted(ls) })
}

func (s *Store) SessionEnded(ls layoutlock.LockSession, endedAt time.Time, restored bool) error {
	return s.mutate(func() error { return s.sessions.SessionEnded(ls, endedAt, restored) })
}

func (s *Store) Corrected(ls layoutlock.LockSession, c layoutlock.Correction) error {
	return s.mutate(func() error { return s.sessions.Corrected(ls, c) })
}

func (s *Store) Sessions(limit int) ([]journal.Session, error) {
	return s.sessions.Sessions(limit)
}

func (s *Store) AbandonOpen(at time.Time) (int, error) {
	var n int
	err := s.mutate(func() error {
		var err error
		n, err = s.sessions.AbandonOpen(at)
		return err
	})
	return n, err
}

func (s *Store) mutate(fn func() error) error {
	if err := fn(); err != nil {
		return err
	}

	s.lock.Lock()
	s.dirty = true
	s.lock.Unlock()
	return nil
}
