package layoutlock

import "time"

// Desktop is the set of OS primitives the controller and the poller need.
type Desktop interface {
	// ForegroundContext returns ErrNoForegroundWindow when nothing has focus.
	ForegroundContext() (ForegroundContext, error)
	ActiveLayout(thread uint32) (LayoutHandle, error)

	// RequestLayout posts an input-language-change request to the window.
	RequestLayout(window uintptr, layout LayoutHandle) error

	LoadLayout(klid string) (LayoutHandle, error)
	// AttachInput attaches the calling thread's input processing to thread.
	// The returned detach func must be called on the same OS thread.
	AttachInput(thread uint32) (detach func() error, err error)
	ActivateLayout(layout LayoutHandle) error
}

type LayoutSource interface {
	InstalledLayouts() ([]LayoutHandle, error)
	// LoadLayout loads and activates klid for the current process.
	LoadLayout(klid string) (LayoutHandle, error)
	// PersistPreload adds klid to the user's preload list. added is false when
	// it was already there.
	PersistPreload(klid string) (added bool, err error)
	BroadcastLayoutChange() error
}

type NameResolver interface {
	DisplayName(lang LanguageID) string
}

type Journal interface {
	SessionStarted(session LockSession) error
	SessionEnded(session LockSession, endedAt time.Time, restored bool) error
	Corrected(session LockSession, correction Correction) error
}
