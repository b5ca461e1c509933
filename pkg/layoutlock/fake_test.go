package layoutlock

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var errRefused = errors.New("refused")

type fakeDesktop struct {
	mu sync.Mutex

	fg           ForegroundContext
	noForeground bool
	layouts      map[uint32]LayoutHandle

	refuseRequests bool
	// ignoreRequests accepts requests without changing the layout
	ignoreRequests bool
	failLoad       bool

	requests    []LayoutHandle
	forced      int
	attached    int
	attachCalls int
}

func newFakeDesktop(current LanguageID) *fakeDesktop {
	fg := ForegroundContext{Window: 0x1234, Thread: 42}
	return &fakeDesktop{
		fg:      fg,
		layouts: map[uint32]LayoutHandle{fg.Thread: current.DefaultHandle()},
	}
}

func (d *fakeDesktop) ForegroundContext() (ForegroundContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.noForeground {
		return ForegroundContext{}, ErrNoForegroundWindow
	}
	return d.fg, nil
}

func (d *fakeDesktop) ActiveLayout(thread uint32) (LayoutHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layouts[thread], nil
}

func (d *fakeDesktop) RequestLayout(window uintptr, layout LayoutHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.refuseRequests {
		return errRefused
	}
	d.requests = append(d.requests, layout)
	if !d.ignoreRequests {
		d.layouts[d.fg.Thread] = layout
	}
	return nil
}

func (d *fakeDesktop) LoadLayout(klid string) (LayoutHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failLoad {
		return 0, errRefused
	}
	lang, err := strconv.ParseUint(klid, 16, 32)
	if err != nil {
		return 0, err
	}
	return LanguageID(lang).DefaultHandle(), nil
}

func (d *fakeDesktop) AttachInput(thread uint32) (func() error, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached++
	d.attachCalls++
	return func() error {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.attached--
		return nil
	}, nil
}

func (d *fakeDesktop) ActivateLayout(layout LayoutHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.attached == 0 {
		return errors.New("input not attached")
	}
	d.forced++
	d.layouts[d.fg.Thread] = layout
	return nil
}

func (d *fakeDesktop) current() LanguageID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layouts[d.fg.Thread].LanguageID()
}

func (d *fakeDesktop) setCurrent(lang LanguageID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layouts[d.fg.Thread] = lang.DefaultHandle()
}

func (d *fakeDesktop) set(fn func(d *fakeDesktop)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d)
}

func (d *fakeDesktop) requestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

type journalEvent struct {
	kind       string
	session    string
	restored   bool
	correction Correction
}

type fakeJournal struct {
	mu     sync.Mutex
	events []journalEvent
}

func (j *fakeJournal) SessionStarted(session LockSession) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, journalEvent{kind: "start", session: session.ID})
	return nil
}

func (j *fakeJournal) SessionEnded(session LockSession, _ time.Time, restored bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, journalEvent{kind: "end", session: session.ID, restored: restored})
	return nil
}

func (j *fakeJournal) Corrected(session LockSession, correction Correction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, journalEvent{kind: "correct", session: session.ID, correction: correction})
	return nil
}

func (j *fakeJournal) count(kind string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, e := range j.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func (j *fakeJournal) snapshot() []journalEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journalEvent(nil), j.events...)
}

type testController struct {
	*Controller
	clock   clockwork.FakeClock
	journal *fakeJournal
	cancel  context.CancelFunc
	exited  chan struct{}
}

func startController(t *testing.T, desktop Desktop, opts ...Option) *testController {
	t.Helper()

	clock := clockwork.NewFakeClock()
	journal := &fakeJournal{}
	opts = append([]Option{WithClock(clock), WithJournal(journal)}, opts...)
	c := NewController(desktop, zap.NewNop().Sugar(), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		_ = c.Run(ctx)
	}()

	tc := &testController{Controller: c, clock: clock, journal: journal, cancel: cancel, exited: exited}
	t.Cleanup(tc.stop)
	return tc
}

func (tc *testController) stop() {
	tc.cancel()
	<-tc.exited
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

type fakeSource struct {
	layouts    []LayoutHandle
	loadErr    error
	persistErr error
	preload    []string
	broadcasts int
}

func (s *fakeSource) InstalledLayouts() ([]LayoutHandle, error) {
	return s.layouts, nil
}

func (s *fakeSource) LoadLayout(klid string) (LayoutHandle, error) {
	if s.loadErr != nil {
		return 0, s.loadErr
	}
	lang, err := strconv.ParseUint(klid, 16, 32)
	if err != nil {
		return 0, err
	}
	h := LanguageID(lang).DefaultHandle()
	for _, l := range s.layouts {
		if l == h {
			return h, nil
		}
	}
	s.layouts = append(s.layouts, h)
	return h, nil
}

func (s *fakeSource) PersistPreload(klid string) (bool, error) {
	if s.persistErr != nil {
		return false, s.persistErr
	}
	for _, p := range s.preload {
		if p == klid {
			return false, nil
		}
	}
	s.preload = append(s.preload, klid)
	return true, nil
}

func (s *fakeSource) BroadcastLayoutChange() error {
	s.broadcasts++
	return errors.New("broadcast is best effort")
}

type fakeNames map[LanguageID]string

func (n fakeNames) DisplayName(lang LanguageID) string {
	if name, ok := n[lang]; ok {
		return name
	}
	return "Layout " + lang.String()
}
