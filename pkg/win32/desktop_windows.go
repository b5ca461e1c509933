//go:build windows

package win32

import (
	"fmt"

	"codeberg.org/miketth/layoutlock/pkg/hotkey"
	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// Desktop implements layoutlock.Desktop on user32.
type Desktop struct{}

func NewDesktop() (*Desktop, error) {
	if err := procGetKeyboardLayout.Find(); err != nil {
		return nil, fmt.Errorf("load user32: %w", err)
	}
	return &Desktop{}, nil
}

func (d *Desktop) ForegroundContext() (layoutlock.ForegroundContext, error) {
	hwnd := win.GetForegroundWindow()
	if hwnd == 0 {
		return layoutlock.ForegroundContext{}, layoutlock.ErrNoForegroundWindow
	}

	thread := win.GetWindowThreadProcessId(hwnd, nil)
	if thread == 0 {
		// the window went away between the two calls
		return layoutlock.ForegroundContext{}, layoutlock.ErrNoForegroundWindow
	}

	return layoutlock.ForegroundContext{Window: uintptr(hwnd), Thread: thread}, nil
}

func (d *Desktop) ActiveLayout(thread uint32) (layoutlock.LayoutHandle, error) {
	hkl := getKeyboardLayout(thread)
	if hkl == 0 {
		return 0, fmt.Errorf("GetKeyboardLayout(%d): no layout for thread", thread)
	}
	return layoutlock.LayoutHandle(hkl), nil
}

func (d *Desktop) RequestLayout(window uintptr, layout layoutlock.LayoutHandle) error {
	if win.PostMessage(win.HWND(window), wmInputLangChangeRequest, 0, uintptr(layout)) == 0 {
		return fmt.Errorf("PostMessage(WM_INPUTLANGCHANGEREQUEST): %w", callErr(windows.GetLastError()))
	}
	return nil
}

func (d *Desktop) LoadLayout(klid string) (layoutlock.LayoutHandle, error) {
	hkl, err := loadKeyboardLayout(klid, klfActivate)
	if err != nil {
		return 0, fmt.Errorf("LoadKeyboardLayout(%s): %w", klid, err)
	}
	return layoutlock.LayoutHandle(hkl), nil
}

func (d *Desktop) AttachInput(thread uint32) (func() error, error) {
	self := windows.GetCurrentThreadId()
	if self == thread {
		return func() error { return nil }, nil
	}

	if err := attachThreadInput(self, thread, true); err != nil {
		return nil, fmt.Errorf("AttachThreadInput(%d, %d): %w", self, thread, err)
	}

	return func() error {
		if err := attachThreadInput(self, thread, false); err != nil {
			return fmt.Errorf("detach thread input (%d, %d): %w", self, thread, err)
		}
		return nil
	}, nil
}

func (d *Desktop) ActivateLayout(layout layoutlock.LayoutHandle) error {
	if err := activateKeyboardLayout(uintptr(layout), klfSetForProcess); err != nil {
		return fmt.Errorf("ActivateKeyboardLayout(%s): %w", layout, err)
	}
	return nil
}

var (
	_ layoutlock.Desktop      = (*Desktop)(nil)
	_ layoutlock.LayoutSource = (*Layouts)(nil)
	_ hotkey.Receiver         = (*HotkeyReceiver)(nil)
)
