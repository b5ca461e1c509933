// Package journaltest holds behaviour tests shared by every journal.Store.
package journaltest

import (
	"testing"
	"time"

	"codeberg.org/miketth/layoutlock/pkg/journal"
	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func Session(id string, offset time.Duration, previous layoutlock.LanguageID) layoutlock.LockSession {
	return layoutlock.LockSession{
		ID:             id,
		PreviousLayout: previous.DefaultHandle(),
		HasPrevious:    previous != 0,
		Foreground:     layoutlock.ForegroundContext{Window: 0x1234, Thread: 42},
		CreatedAt:      base.Add(offset),
	}
}

// Run exercises a store created fresh by newStore for every subtest.
func Run(t *testing.T, newStore func(t *testing.T) journal.Store) {
	t.Run("lifecycle", func(t *testing.T) {
		store := newStore(t)

		ls := Session("a", 0, 0x0804)
		require.NoError(t, store.SessionStarted(ls))
		require.NoError(t, store.Corrected(ls, layoutlock.Correction{At: base.Add(time.Second), Observed: 0x0411, Result: layoutlock.SwitchCooperative}))
		require.NoError(t, store.Corrected(ls, layoutlock.Correction{At: base.Add(2 * time.Second), Observed: 0x0411, Result: layoutlock.SwitchFailed}))
		require.NoError(t, store.SessionEnded(ls, base.Add(time.Minute), true))

		sessions, err := store.Sessions(0)
		require.NoError(t, err)
		require.Len(t, sessions, 1)

		got := sessions[0]
		assert.Equal(t, "a", got.ID)
		assert.True(t, got.CreatedAt.Equal(base), "created at %s", got.CreatedAt)
		assert.True(t, got.HasPrevious)
		assert.Equal(t, layoutlock.LanguageID(0x0804), got.PreviousLanguage)
		assert.Equal(t, uint32(42), got.ForegroundThread)
		assert.False(t, got.Open())
		assert.Equal(t, time.Minute, got.Duration())
		assert.True(t, got.Restored)
		assert.False(t, got.Abandoned)
		assert.Equal(t, 2, got.Corrections)
		assert.Equal(t, 1, got.FailedCorrections)
	})

	t.Run("without previous layout", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.SessionStarted(Session("a", 0, 0)))

		sessions, err := store.Sessions(0)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.False(t, sessions[0].HasPrevious)
		assert.True(t, sessions[0].Open())
		assert.Zero(t, sessions[0].Duration())
	})

	t.Run("newest first with limit", func(t *testing.T) {
		store := newStore(t)

		for i, id := range []string{"a", "b", "c"} {
			require.NoError(t, store.SessionStarted(Session(id, time.Duration(i)*time.Hour, 0x0409)))
		}

		sessions, err := store.Sessions(2)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "c", sessions[0].ID)
		assert.Equal(t, "b", sessions[1].ID)

		sessions, err = store.Sessions(-1)
		require.NoError(t, err)
		assert.Len(t, sessions, 3)
	})

	t.Run("unknown session", func(t *testing.T) {
		store := newStore(t)

		err := store.SessionEnded(Session("missing", 0, 0), base, false)
		require.ErrorIs(t, err, journal.ErrUnknownSession)
	})

	t.Run("abandon open", func(t *testing.T) {
		store := newStore(t)

		closed := Session("closed", 0, 0x0409)
		require.NoError(t, store.SessionStarted(closed))
		require.NoError(t, store.SessionEnded(closed, base.Add(time.Minute), false))
		require.NoError(t, store.SessionStarted(Session("open", time.Hour, 0x0409)))

		n, err := store.AbandonOpen(base.Add(2 * time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		sessions, err := store.Sessions(0)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "open", sessions[0].ID)
		assert.True(t, sessions[0].Abandoned)
		assert.Equal(t, time.Hour, sessions[0].Duration())
		assert.False(t, sessions[1].Abandoned)

		n, err = store.AbandonOpen(base.Add(3 * time.Hour))
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
