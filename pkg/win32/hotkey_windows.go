//go:build windows

package win32

import (
	"errors"
	"fmt"
	"runtime"

	"codeberg.org/miketth/layoutlock/pkg/hotkey"
	"github.com/lxn/win"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

const wmCall = wmApp + 1

// hwndMessage is HWND_MESSAGE, the parent of message-only windows.
const hwndMessage = ^win.HWND(2)

// HotkeyReceiver owns a message-only window on a dedicated OS thread.
// RegisterHotKey binds to the calling thread's window, so Bind and Unbind are
// marshalled onto that thread.
type HotkeyReceiver struct {
	dispatch func(id int)
	log      *zap.SugaredLogger

	hwnd  win.HWND
	done  chan struct{}
	calls callQueue
}

// HotkeyReceivers returns a factory for hotkey.NewRegistry.
func HotkeyReceivers(log *zap.SugaredLogger) hotkey.ReceiverFactory {
	return func(dispatch func(id int)) (hotkey.Receiver, error) {
		return NewHotkeyReceiver(dispatch, log)
	}
}

func NewHotkeyReceiver(dispatch func(id int), log *zap.SugaredLogger) (*HotkeyReceiver, error) {
	r := &HotkeyReceiver{
		dispatch: dispatch,
		log:      log,
		done:     make(chan struct{}),
	}

	ready := make(chan error, 1)
	go r.loop(ready)
	if err := <-ready; err != nil {
		return nil, err
	}

	return r, nil
}

func (r *HotkeyReceiver) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.done)

	class, _ := windows.UTF16PtrFromString("STATIC")
	title, _ := windows.UTF16PtrFromString("layoutlock hotkeys")
	r.hwnd = win.CreateWindowEx(0, class, title, 0, 0, 0, 0, 0, hwndMessage, 0, win.GetModuleHandle(nil), nil)
	if r.hwnd == 0 {
		ready <- fmt.Errorf("create message window: %w", callErr(windows.GetLastError()))
		return
	}
	ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 {
			return
		}
		if ret == -1 {
			r.log.Errorw("GetMessage failed", "error", callErr(windows.GetLastError()))
			return
		}

		switch msg.Message {
		case wmHotkey:
			r.dispatch(int(msg.WParam))
		case wmCall:
			r.calls.run()
		default:
			win.TranslateMessage(&msg)
			win.DispatchMessage(&msg)
		}
	}
}

// exec runs fn on the receiver thread and waits for it.
func (r *HotkeyReceiver) exec(fn func() error) error {
	return r.calls.do(fn, r.wake, r.done)
}

func (r *HotkeyReceiver) wake() error {
	if win.PostMessage(r.hwnd, wmCall, 0, 0) == 0 {
		return fmt.Errorf("wake hotkey thread: %w", callErr(windows.GetLastError()))
	}
	return nil
}

func (r *HotkeyReceiver) Bind(id int, mods hotkey.Modifier, key hotkey.VKey) error {
	return r.exec(func() error {
		err := registerHotKey(uintptr(r.hwnd), id, uint32(mods)|modNoRepeat, uint32(key))
		if errors.Is(err, errorHotkeyAlreadyRegistered) {
			return fmt.Errorf("RegisterHotKey: %w: %w", hotkey.ErrAlreadyBound, err)
		}
		if err != nil {
			return fmt.Errorf("RegisterHotKey: %w", err)
		}
		return nil
	})
}

func (r *HotkeyReceiver) Unbind(id int) error {
	return r.exec(func() error {
		if err := unregisterHotKey(uintptr(r.hwnd), id); err != nil {
			return fmt.Errorf("UnregisterHotKey: %w", err)
		}
		return nil
	})
}

func (r *HotkeyReceiver) Close() error {
	err := r.exec(func() error {
		win.DestroyWindow(r.hwnd)
		win.PostQuitMessage(0)
		return nil
	})

	r.calls.close()

	<-r.done
	return err
}
