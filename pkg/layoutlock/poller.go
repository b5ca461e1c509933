package layoutlock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Poller drives drift correction. It is owned by the controller goroutine and
// never touched from anywhere else.
type Poller struct {
	clock  clockwork.Clock
	state  PollingState
	ticker clockwork.Ticker
}

func newPoller(clock clockwork.Clock, state PollingState) *Poller {
	return &Poller{clock: clock, state: state}
}

// C is nil while stopped, which blocks forever in a select.
func (p *Poller) C() <-chan time.Time {
	if p.ticker == nil {
		return nil
	}
	return p.ticker.Chan()
}

func (p *Poller) Running() bool {
	return p.ticker != nil
}

func (p *Poller) start() {
	p.stop()
	if !p.state.Enabled {
		return
	}
	p.ticker = p.clock.NewTicker(p.state.Interval)
}

func (p *Poller) stop() {
	if p.ticker == nil {
		return
	}
	p.ticker.Stop()
	p.ticker = nil
}

func (p *Poller) setState(state PollingState) {
	p.state = state
}

// correctDrift re-applies the reference layout when the foreground context
// has moved away from it. Failures are retried on the next tick.
func (c *Controller) correctDrift() {
	if c.session == nil {
		return
	}

	fg, err := c.desktop.ForegroundContext()
	if err != nil {
		c.log.Debugw("drift check skipped", "error", err)
		return
	}

	current, err := c.desktop.ActiveLayout(fg.Thread)
	if err != nil {
		c.log.Debugw("drift check skipped", "thread", fg.Thread, "error", err)
		return
	}

	ref := c.polling.ReferenceLanguageID
	observed := current.LanguageID()
	if observed == ref {
		c.drifting = false
		return
	}

	result, err := switchLayout(c.desktop, c.log, fg, ref)
	if err != nil {
		c.log.Debugw("drift correction failed", "observed", observed, "error", err)
	} else {
		c.log.Debugw("corrected layout drift", "observed", observed, "switch", result)
	}

	if c.drifting {
		return
	}
	c.drifting = true

	correction := Correction{At: c.clock.Now(), Observed: observed, Result: result}
	if err := c.journal.Corrected(*c.session, correction); err != nil {
		c.log.Warnw("journal correction", "session", c.session.ID, "error", err)
	}
}
