//go:build windows

package win32

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterHotKey         = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey       = user32.NewProc("UnregisterHotKey")
	procGetKeyboardLayout      = user32.NewProc("GetKeyboardLayout")
	procGetKeyboardLayoutList  = user32.NewProc("GetKeyboardLayoutList")
	procLoadKeyboardLayoutW    = user32.NewProc("LoadKeyboardLayoutW")
	procActivateKeyboardLayout = user32.NewProc("ActivateKeyboardLayout")
	procAttachThreadInput      = user32.NewProc("AttachThreadInput")
)

const (
	wmInputLangChangeRequest = 0x0050
	wmHotkey                 = 0x0312
	wmApp                    = 0x8000

	hwndBroadcast = 0xFFFF

	klfActivate      = 0x00000001
	klfSetForProcess = 0x00000100

	modNoRepeat = 0x4000

	errorHotkeyAlreadyRegistered = windows.Errno(1409)
)

// callErr turns the last error of a failed user32 call into something that
// wraps cleanly. Some calls fail without setting it.
func callErr(lastErr error) error {
	var errno windows.Errno
	if errors.As(lastErr, &errno) && errno != 0 {
		return errno
	}
	return windows.ERROR_GEN_FAILURE
}

func getKeyboardLayout(thread uint32) uintptr {
	hkl, _, _ := procGetKeyboardLayout.Call(uintptr(thread))
	return hkl
}

func loadKeyboardLayout(klid string, flags uint32) (uintptr, error) {
	p, err := windows.UTF16PtrFromString(klid)
	if err != nil {
		return 0, err
	}
	hkl, _, lastErr := procLoadKeyboardLayoutW.Call(uintptr(unsafe.Pointer(p)), uintptr(flags))
	if hkl == 0 {
		return 0, callErr(lastErr)
	}
	return hkl, nil
}

func activateKeyboardLayout(hkl uintptr, flags uint32) error {
	prev, _, lastErr := procActivateKeyboardLayout.Call(hkl, uintptr(flags))
	if prev == 0 {
		return callErr(lastErr)
	}
	return nil
}

func keyboardLayoutList() ([]uintptr, error) {
	n, _, lastErr := procGetKeyboardLayoutList.Call(0, 0)
	if n == 0 {
		return nil, callErr(lastErr)
	}

	list := make([]uintptr, n)
	n, _, lastErr = procGetKeyboardLayoutList.Call(n, uintptr(unsafe.Pointer(&list[0])))
	if n == 0 {
		return nil, callErr(lastErr)
	}
	return list[:n], nil
}

func attachThreadInput(from, to uint32, attach bool) error {
	var flag uintptr
	if attach {
		flag = 1
	}
	ok, _, lastErr := procAttachThreadInput.Call(uintptr(from), uintptr(to), flag)
	if ok == 0 {
		return callErr(lastErr)
	}
	return nil
}

func registerHotKey(hwnd uintptr, id int, mods, vk uint32) error {
	ok, _, lastErr := procRegisterHotKey.Call(hwnd, uintptr(id), uintptr(mods), uintptr(vk))
	if ok == 0 {
		return callErr(lastErr)
	}
	return nil
}

func unregisterHotKey(hwnd uintptr, id int) error {
	ok, _, lastErr := procUnregisterHotKey.Call(hwnd, uintptr(id))
	if ok == 0 {
		return callErr(lastErr)
	}
	return nil
}
