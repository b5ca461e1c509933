package sqlite_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/miketth/layoutlock/pkg/journal"
	"codeberg.org/miketth/layoutlock/pkg/journal/journaltest"
	"codeberg.org/miketth/layoutlock/pkg/journal/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	return store
}

func TestStore(t *testing.T) {
	journaltest.Run(t, func(t *testing.T) journal.Store {
		store := newStore(t, filepath.Join(t.TempDir(), "journal.db"))
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store := newStore(t, path)
	require.NoError(t, store.SessionStarted(journaltest.Session("a", 0, 0x0409)))
	require.NoError(t, store.Close())

	store = newStore(t, path)
	defer store.Close()

	sessions, err := store.Sessions(0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "a", sessions[0].ID)
}

func TestDumpSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store := newStore(t, path)
	require.NoError(t, store.Close())

	db := openRaw(t, path)
	statements, err := sqlite.New(db).DumpSchema(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, statements)
	assert.True(t, strings.HasPrefix(strings.ToLower(statements[0]), "create table"), statements[0])
	joined := strings.ToLower(strings.Join(statements, "\n"))
	assert.Contains(t, joined, "sessions")
	assert.Contains(t, joined, "corrections")
	assert.Contains(t, joined, "schema_migrations")
}
