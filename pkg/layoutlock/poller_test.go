package layoutlock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerCorrectsDrift(t *testing.T) {
	ctx := testContext(t)
	desktop := newFakeDesktop(langChinese)
	c := startController(t, desktop)

	require.NoError(t, c.Lock(ctx))
	before, _, err := c.Session(ctx)
	require.NoError(t, err)

	desktop.setCurrent(langJapanese)
	c.clock.Advance(DefaultPollingInterval)

	require.Eventually(t, func() bool {
		return desktop.current() == DefaultReferenceLanguage
	}, time.Second, 5*time.Millisecond)

	after, _, err := c.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.PreviousLayout, after.PreviousLayout)

	events := c.journal.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "correct", events[1].kind)
	assert.Equal(t, langJapanese, events[1].correction.Observed)
	assert.Equal(t, SwitchCooperative, events[1].correction.Result)

	require.NoError(t, c.Unlock(ctx))
	assert.Equal(t, langChinese, desktop.current())
}

func TestPollerLeavesReferenceLayoutAlone(t *testing.T) {
	ctx := testContext(t)
	desktop := newFakeDesktop(langChinese)
	c := startController(t, desktop)

	require.NoError(t, c.Lock(ctx))
	requests := desktop.requestCount()

	c.clock.Advance(DefaultPollingInterval)
	// round-trip through the loop so the tick has been handled
	_, _, err := c.Session(ctx)
	require.NoError(t, err)

	assert.Equal(t, requests, desktop.requestCount())
}

func TestPollerSwallowsTransientFailures(t *testing.T) {
	ctx := testContext(t)
	desktop := newFakeDesktop(langChinese)
	c := startController(t, desktop)

	require.NoError(t, c.Lock(ctx))
	desktop.set(func(d *fakeDesktop) {
		d.layouts[d.fg.Thread] = langJapanese.DefaultHandle()
		d.noForeground = true
	})

	c.clock.Advance(DefaultPollingInterval)
	_, _, err := c.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, langJapanese, desktop.current())
	assert.True(t, c.Locked())

	desktop.set(func(d *fakeDesktop) { d.noForeground = false })
	c.clock.Advance(DefaultPollingInterval)
	require.Eventually(t, func() bool {
		return desktop.current() == DefaultReferenceLanguage
	}, time.Second, 5*time.Millisecond)
}

func TestPollerForcesWhenRequestIgnored(t *testing.T) {
	ctx := testContext(t)
	desktop := newFakeDesktop(langChinese)
	c := startController(t, desktop)

	require.NoError(t, c.Lock(ctx))
	desktop.set(func(d *fakeDesktop) {
		d.layouts[d.fg.Thread] = langJapanese.DefaultHandle()
		d.refuseRequests = true
	})

	c.clock.Advance(DefaultPollingInterval)
	require.Eventually(t, func() bool {
		return desktop.current() == DefaultReferenceLanguage
	}, time.Second, 5*time.Millisecond)

	desktop.set(func(d *fakeDesktop) {
		assert.Equal(t, 1, d.forced)
		assert.Zero(t, d.attached)
	})
}

func TestStaleTickAfterUnlockDoesNothing(t *testing.T) {
	ctx := testContext(t)
	desktop := newFakeDesktop(langChinese)
	c := startController(t, desktop)

	require.NoError(t, c.Lock(ctx))
	require.NoError(t, c.Unlock(ctx))

	desktop.setCurrent(langJapanese)
	requests := desktop.requestCount()

	// a tick that was already queued when unlock ran
	require.NoError(t, c.do(ctx, func() error {
		assert.False(t, c.poller.Running())
		c.correctDrift()
		return nil
	}))

	c.clock.Advance(10 * DefaultPollingInterval)
	_, _, err := c.Session(ctx)
	require.NoError(t, err)

	assert.Equal(t, requests, desktop.requestCount())
	assert.Equal(t, langJapanese, desktop.current())
}

func TestPollerDisabled(t *testing.T) {
	ctx := testContext(t)
	desktop := newFakeDesktop(langChinese)
	c := startController(t, desktop, WithPolling(PollingState{Enabled: false}))

	require.NoError(t, c.Lock(ctx))
	require.NoError(t, c.do(ctx, func() error {
		assert.False(t, c.poller.Running())
		return nil
	}))

	desktop.setCurrent(langJapanese)
	c.clock.Advance(time.Minute)
	_, _, err := c.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, langJapanese, desktop.current())
}

func TestSetPollingWhileLocked(t *testing.T) {
	ctx := testContext(t)
	desktop := newFakeDesktop(langChinese)
	c := startController(t, desktop)

	require.NoError(t, c.Lock(ctx))

	require.NoError(t, c.SetPolling(ctx, PollingState{Enabled: false}))
	require.NoError(t, c.do(ctx, func() error {
		assert.False(t, c.poller.Running())
		return nil
	}))

	require.NoError(t, c.SetPolling(ctx, PollingState{Enabled: true, Interval: time.Second}))
	require.NoError(t, c.do(ctx, func() error {
		assert.True(t, c.poller.Running())
		assert.Equal(t, time.Second, c.polling.Interval)
		assert.Equal(t, DefaultReferenceLanguage, c.polling.ReferenceLanguageID)
		return nil
	}))

	desktop.setCurrent(langJapanese)
	c.clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		return desktop.current() == DefaultReferenceLanguage
	}, time.Second, 5*time.Millisecond)
}

func TestSetPollingWhileUnlockedDoesNotStartPoller(t *testing.T) {
	ctx := testContext(t)
	c := startController(t, newFakeDesktop(langChinese))

	require.NoError(t, c.SetPolling(ctx, PollingState{Enabled: true, Interval: time.Second}))
	require.NoError(t, c.do(ctx, func() error {
		assert.False(t, c.poller.Running())
		return nil
	}))
}

func TestPersistentDriftIsJournalledOnce(t *testing.T) {
	ctx := testContext(t)
	desktop := newFakeDesktop(langChinese)
	c := startController(t, desktop)

	require.NoError(t, c.Lock(ctx))
	desktop.set(func(d *fakeDesktop) {
		d.layouts[d.fg.Thread] = langJapanese.DefaultHandle()
		d.ignoreRequests = true
	})

	tick := func() {
		t.Helper()
		requests := desktop.requestCount()
		c.clock.Advance(DefaultPollingInterval)
		require.Eventually(t, func() bool {
			return desktop.requestCount() > requests
		}, time.Second, time.Millisecond)
	}

	for i := 0; i < 50; i++ {
		tick()
	}
	_, _, err := c.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.journal.count("correct"), "one drift episode is one journal entry")
	assert.Equal(t, langJapanese, desktop.current())

	// back on the reference layout ends the episode
	desktop.set(func(d *fakeDesktop) {
		d.layouts[d.fg.Thread] = DefaultReferenceLanguage.DefaultHandle()
		d.ignoreRequests = false
	})
	c.clock.Advance(DefaultPollingInterval)
	require.Eventually(t, func() bool {
		drifting := true
		require.NoError(t, c.do(ctx, func() error {
			drifting = c.drifting
			return nil
		}))
		return !drifting
	}, time.Second, time.Millisecond)

	desktop.setCurrent(langJapanese)
	tick()
	require.Eventually(t, func() bool {
		return c.journal.count("correct") == 2
	}, time.Second, time.Millisecond)
}
