package journal

import (
	"errors"
	"time"

	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
)

var ErrUnknownSession = errors.New("unknown lock session")

// Session is the persisted form of a lock session. Layout handles are not
// stable across reboots, so the previous layout is kept by language id.
type Session struct {
	ID               string                `json:"id"`
	CreatedAt        time.Time             `json:"created_at"`
	EndedAt          time.Time             `json:"ended_at,omitzero"`
	PreviousLanguage layoutlock.LanguageID `json:"previous_language,omitempty"`
	HasPrevious      bool                  `json:"has_previous"`
	ForegroundThread uint32                `json:"foreground_thread"`
	Restored         bool                  `json:"restored"`
	Abandoned        bool                  `json:"abandoned"`

	Corrections       int `json:"corrections"`
	FailedCorrections int `json:"failed_corrections"`
}

func (s Session) Open() bool {
	return s.EndedAt.IsZero()
}

func (s Session) Duration() time.Duration {
	if s.Open() {
		return 0
	}
	return s.EndedAt.Sub(s.CreatedAt)
}

type Store interface {
	layoutlock.Journal

	// Sessions returns the newest sessions first. limit <= 0 means all.
	Sessions(limit int) ([]Session, error)
	// AbandonOpen ends sessions a previous run never closed.
	AbandonOpen(at time.Time) (int, error)
	Close() error
}

func FromLockSession(ls layoutlock.LockSession) Session {
	s := Session{
		ID:               ls.ID,
		CreatedAt:        ls.CreatedAt,
		HasPrevious:      ls.HasPrevious,
		ForegroundThread: ls.Foreground.Thread,
	}
	if ls.HasPrevious {
		s.PreviousLanguage = ls.PreviousLayout.LanguageID()
	}
	return s
}
