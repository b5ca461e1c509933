package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const insertSession = `
insert into sessions (id, created_at, previous_language, foreground_thread)
values (?, ?, ?, ?)
`

type InsertSessionParams struct {
	ID               string
	CreatedAt        time.Time
	PreviousLanguage sql.NullInt64
	ForegroundThread int64
}

func (q *Queries) InsertSession(ctx context.Context, arg InsertSessionParams) error {
	_, err := q.db.ExecContext(ctx, insertSession, arg.ID, arg.CreatedAt, arg.PreviousLanguage, arg.ForegroundThread)
	return err
}

const endSession = `
update sessions set ended_at = ?, restored = ? where id = ? and ended_at is null
`

func (q *Queries) EndSession(ctx context.Context, id string, endedAt time.Time, restored bool) (int64, error) {
	res, err := q.db.ExecContext(ctx, endSession, endedAt, restored, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const abandonOpenSessions = `
update sessions set ended_at = ?, abandoned = true where ended_at is null
`

func (q *Queries) AbandonOpenSessions(ctx context.Context, at time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, abandonOpenSessions, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertCorrection = `
insert into corrections (session_id, at, observed, result)
values (?, ?, ?, ?)
`

type InsertCorrectionParams struct {
	SessionID string
	At        time.Time
	Observed  int64
	Result    string
}

func (q *Queries) InsertCorrection(ctx context.Context, arg InsertCorrectionParams) error {
	_, err := q.db.ExecContext(ctx, insertCorrection, arg.SessionID, arg.At, arg.Observed, arg.Result)
	return err
}

const listSessions = `
select s.id,
       s.created_at,
       s.ended_at,
       s.previous_language,
       s.foreground_thread,
       s.restored,
       s.abandoned,
       (select count(*) from corrections c where c.session_id = s.id)                         as corrections,
       (select count(*) from corrections c where c.session_id = s.id and c.result = 'failed') as failed_corrections
from sessions s
order by s.created_at desc, s.rowid desc
limit ?
`

type ListSessionsRow struct {
	ID                string
	CreatedAt         time.Time
	EndedAt           sql.NullTime
	PreviousLanguage  sql.NullInt64
	ForegroundThread  int64
	Restored          bool
	Abandoned         bool
	Corrections       int64
	FailedCorrections int64
}

func (q *Queries) ListSessions(ctx context.Context, limit int) ([]ListSessionsRow, error) {
	rows, err := q.db.QueryContext(ctx, listSessions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListSessionsRow
	for rows.Next() {
		var i ListSessionsRow
		if err := rows.Scan(
			&i.ID,
			&i.CreatedAt,
			&i.EndedAt,
			&i.PreviousLanguage,
			&i.ForegroundThread,
			&i.Restored,
			&i.Abandoned,
			&i.Corrections,
			&i.FailedCorrections,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		items = append(items, i)
	}

	return items, rows.Err()
}

const dumpSchema = `
select sql from sqlite_master
where sql is not null and name not like 'sqlite_%'
order by case type when 'table' then 0 else 1 end, name
`

// DumpSchema returns the create statements of the current schema, tables first.
func (q *Queries) DumpSchema(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, dumpSchema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statements []string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		statements = append(statements, stmt)
	}

	return statements, rows.Err()
}
