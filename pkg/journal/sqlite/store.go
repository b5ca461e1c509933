package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"codeberg.org/miketth/layoutlock/pkg/journal"
	"codeberg.org/miketth/layoutlock/pkg/journal/sqlite/migrations"
	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type Store struct {
	db      *sql.DB
	querier *Queries
}

func NewStore(filename string, log *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer; sqlite serializes anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrations.Migrate(db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{
		db:      db,
		querier: New(db),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SessionStarted(ls layoutlock.LockSession) error {
	session := journal.FromLockSession(ls)

	params := InsertSessionParams{
		ID:               session.ID,
		CreatedAt:        session.CreatedAt.UTC(),
		ForegroundThread: int64(session.ForegroundThread),
	}
	if session.HasPrevious {
		params.PreviousLanguage = sql.NullInt64{Int64: int64(session.PreviousLanguage), Valid: true}
	}

	if err := s.querier.InsertSession(context.Background(), params); err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}

	return nil
}

func (s *Store) SessionEnded(ls layoutlock.LockSession, endedAt time.Time, restored bool) error {
	n, err := s.querier.EndSession(context.Background(), ls.ID, endedAt.UTC(), restored)
	if err != nil {
		return fmt.Errorf("sqlite update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", journal.ErrUnknownSession, ls.ID)
	}

	return nil
}

func (s *Store) Corrected(ls layoutlock.LockSession, c layoutlock.Correction) error {
	if err := s.querier.InsertCorrection(context.Background(), InsertCorrectionParams{
		SessionID: ls.ID,
		At:        c.At.UTC(),
		Observed:  int64(c.Observed),
		Result:    c.Result.String(),
	}); err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}

	return nil
}

func (s *Store) Sessions(limit int) ([]journal.Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.querier.ListSessions(context.Background(), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}

	out := make([]journal.Session, 0, len(rows))
	for _, row := range rows {
		session := journal.Session{
			ID:                row.ID,
			CreatedAt:         row.CreatedAt,
			HasPrevious:       row.PreviousLanguage.Valid,
			PreviousLanguage:  layoutlock.LanguageID(row.PreviousLanguage.Int64),
			ForegroundThread:  uint32(row.ForegroundThread),
			Restored:          row.Restored,
			Abandoned:         row.Abandoned,
			Corrections:       int(row.Corrections),
			FailedCorrections: int(row.FailedCorrections),
		}
		if row.EndedAt.Valid {
			session.EndedAt = row.EndedAt.Time
		}
		out = append(out, session)
	}

	return out, nil
}

func (s *Store) AbandonOpen(at time.Time) (int, error) {
	n, err := s.querier.AbandonOpenSessions(context.Background(), at.UTC())
	if err != nil {
		return 0, fmt.Errorf("sqlite update: %w", err)
	}

	return int(n), nil
}
