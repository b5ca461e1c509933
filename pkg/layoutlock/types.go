package layoutlock

import (
	"fmt"
	"time"
)

// LanguageID is a Windows LANGID, e.g. 0x0409 for English (US).
type LanguageID uint16

const DefaultReferenceLanguage LanguageID = 0x0409

const DefaultPollingInterval = 300 * time.Millisecond

func (l LanguageID) String() string {
	return fmt.Sprintf("0x%04X", uint16(l))
}

// KLID is the keyboard layout identifier string understood by LoadKeyboardLayout.
func (l LanguageID) KLID() string {
	return fmt.Sprintf("%08X", uint32(l))
}

// DefaultHandle is the HKL of the language's default layout (device id equal
// to the language id).
func (l LanguageID) DefaultHandle() LayoutHandle {
	return LayoutHandle(uint32(l)<<16 | uint32(l))
}

// LayoutHandle is an opaque HKL. It is only meaningful for the current session.
type LayoutHandle uintptr

func (h LayoutHandle) LanguageID() LanguageID {
	return LanguageID(uint64(h) & 0xFFFF)
}

func (h LayoutHandle) String() string {
	return fmt.Sprintf("0x%08X", uint64(h))
}

type ForegroundContext struct {
	Window uintptr
	Thread uint32
}

type LockSession struct {
	ID             string
	PreviousLayout LayoutHandle
	HasPrevious    bool
	Foreground     ForegroundContext
	CreatedAt      time.Time
}

type PollingState struct {
	Enabled             bool
	Interval            time.Duration
	ReferenceLanguageID LanguageID
}

func DefaultPollingState() PollingState {
	return PollingState{
		Enabled:             true,
		Interval:            DefaultPollingInterval,
		ReferenceLanguageID: DefaultReferenceLanguage,
	}
}

type CatalogEntry struct {
	Handle      LayoutHandle
	LanguageID  LanguageID
	DisplayName string
}

type Correction struct {
	At       time.Time
	Observed LanguageID
	Result   SwitchResult
}

type SwitchResult int

const (
	SwitchFailed SwitchResult = iota
	SwitchCooperative
	SwitchForced
)

func (r SwitchResult) String() string {
	switch r {
	case SwitchCooperative:
		return "cooperative"
	case SwitchForced:
		return "forced"
	default:
		return "failed"
	}
}
