package layoutlock

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const taskQueueSize = 16

// Controller owns the lock session. All state changes happen on the goroutine
// running Run; the exported methods only enqueue work for it.
type Controller struct {
	desktop Desktop
	journal Journal
	clock   clockwork.Clock
	log     *zap.SugaredLogger

	tasks chan func()
	done  chan struct{}

	session *LockSession
	polling PollingState
	poller  *Poller
	locked  atomic.Bool
	// drifting is set from the first mismatching tick until the reference
	// layout is observed again; only that first tick is journalled.
	drifting bool

	listenersMu sync.Mutex
	listeners   []func(locked bool)
}

type Option func(*Controller)

func WithJournal(journal Journal) Option {
	return func(c *Controller) {
		if journal != nil {
			c.journal = journal
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

func WithPolling(state PollingState) Option {
	return func(c *Controller) {
		c.polling = normalizePolling(state)
	}
}

func NewController(desktop Desktop, log *zap.SugaredLogger, opts ...Option) *Controller {
	c := &Controller{
		desktop: desktop,
		journal: nopJournal{},
		clock:   clockwork.NewRealClock(),
		log:     log,
		tasks:   make(chan func(), taskQueueSize),
		done:    make(chan struct{}),
		polling: DefaultPollingState(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.poller = newPoller(c.clock, c.polling)

	return c
}

// Run executes queued lock/unlock work and poller ticks until ctx is done.
// On exit the lock is released, restoring the previous layout if possible.
func (c *Controller) Run(ctx context.Context) error {
	// forced switches attach and detach input on the same OS thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case task := <-c.tasks:
			task()
		case <-c.poller.C():
			c.correctDrift()
		}
	}
}

func (c *Controller) Lock(ctx context.Context) error {
	return c.do(ctx, c.lock)
}

func (c *Controller) Unlock(ctx context.Context) error {
	return c.do(ctx, c.unlock)
}

// Toggle queues a lock or unlock without waiting for it. It is safe to call
// from a hotkey callback.
func (c *Controller) Toggle() {
	c.post(func() {
		op, fn := "lock", c.lock
		if c.session != nil {
			op, fn = "unlock", c.unlock
		}

		if err := fn(); err != nil {
			c.log.Warnw("toggle failed", "op", op, "error", err)
		}
	})
}

func (c *Controller) SetPolling(ctx context.Context, state PollingState) error {
	return c.do(ctx, func() error {
		c.polling = normalizePolling(state)
		c.poller.setState(c.polling)
		if c.session != nil {
			c.poller.start()
		}
		return nil
	})
}

// Session returns a copy of the current lock session.
func (c *Controller) Session(ctx context.Context) (LockSession, bool, error) {
	var (
		session LockSession
		ok      bool
	)
	err := c.do(ctx, func() error {
		if c.session != nil {
			session, ok = *c.session, true
		}
		return nil
	})
	return session, ok, err
}

func (c *Controller) Locked() bool {
	return c.locked.Load()
}

// Subscribe registers fn for LockStateChanged notifications. fn runs on the
// controller goroutine and must not call Lock or Unlock.
func (c *Controller) Subscribe(fn func(locked bool)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) do(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	task := func() { errCh <- fn() }

	select {
	case c.tasks <- task:
	case <-c.done:
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errCh:
		return err
	case <-c.done:
		select {
		case err := <-errCh:
			return err
		default:
			return ErrShutdown
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) post(task func()) {
	select {
	case c.tasks <- task:
	case <-c.done:
		c.log.Debug("controller is shut down, dropping request")
	default:
		c.log.Warn("controller queue is full, dropping request")
	}
}

func (c *Controller) lock() error {
	if c.session != nil {
		return nil
	}

	fg, err := c.desktop.ForegroundContext()
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}

	previous, err := c.desktop.ActiveLayout(fg.Thread)
	if err != nil {
		c.log.Warnw("could not snapshot current layout, unlock will not restore it",
			"thread", fg.Thread, "error", err)
		previous = 0
	}

	ref := c.polling.ReferenceLanguageID
	result, err := switchLayout(c.desktop, c.log, fg, ref)
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}

	c.drifting = false
	c.session = &LockSession{
		ID:             uuid.NewString(),
		PreviousLayout: previous,
		HasPrevious:    previous != 0,
		Foreground:     fg,
		CreatedAt:      c.clock.Now(),
	}
	c.locked.Store(true)
	c.poller.start()

	if err := c.journal.SessionStarted(*c.session); err != nil {
		c.log.Warnw("journal session start", "session", c.session.ID, "error", err)
	}

	c.log.Infow("locked keyboard layout",
		"reference", ref,
		"previous", previous,
		"switch", result,
		"session", c.session.ID)

	c.notify(true)
	return nil
}

func (c *Controller) unlock() error {
	if c.session == nil {
		c.locked.Store(false)
		return nil
	}

	if c.session.HasPrevious {
		fg, err := c.desktop.ForegroundContext()
		if err != nil {
			return fmt.Errorf("unlock: %w", err)
		}

		if err := c.desktop.RequestLayout(fg.Window, c.session.PreviousLayout); err != nil {
			return fmt.Errorf("unlock: %w: %w", ErrSwitchFailed, err)
		}
	}

	c.endSession(c.session.HasPrevious)
	return nil
}

func (c *Controller) shutdown() {
	if c.session == nil {
		return
	}

	if err := c.unlock(); err != nil {
		c.log.Warnw("could not restore layout on shutdown, dropping lock", "error", err)
		c.endSession(false)
	}
}

func (c *Controller) endSession(restored bool) {
	c.poller.stop()

	session := *c.session
	c.session = nil
	c.drifting = false
	c.locked.Store(false)

	if err := c.journal.SessionEnded(session, c.clock.Now(), restored); err != nil {
		c.log.Warnw("journal session end", "session", session.ID, "error", err)
	}

	c.log.Infow("unlocked keyboard layout",
		"restored", restored,
		"previous", session.PreviousLayout,
		"session", session.ID)

	c.notify(false)
}

func (c *Controller) notify(locked bool) {
	c.listenersMu.Lock()
	listeners := make([]func(bool), len(c.listeners))
	copy(listeners, c.listeners)
	c.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(locked)
	}
}

func normalizePolling(state PollingState) PollingState {
	if state.Interval <= 0 {
		state.Interval = DefaultPollingInterval
	}
	if state.ReferenceLanguageID == 0 {
		state.ReferenceLanguageID = DefaultReferenceLanguage
	}
	return state
}
