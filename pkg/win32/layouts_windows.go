//go:build windows

package win32

import (
	"errors"
	"fmt"

	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
	"github.com/lxn/win"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// Layouts implements layoutlock.LayoutSource for the current user.
type Layouts struct {
	log *zap.SugaredLogger
}

func NewLayouts(log *zap.SugaredLogger) *Layouts {
	return &Layouts{log: log}
}

func (l *Layouts) InstalledLayouts() ([]layoutlock.LayoutHandle, error) {
	list, err := keyboardLayoutList()
	if err != nil {
		return nil, fmt.Errorf("GetKeyboardLayoutList: %w", err)
	}

	handles := make([]layoutlock.LayoutHandle, len(list))
	for i, hkl := range list {
		handles[i] = layoutlock.LayoutHandle(hkl)
	}
	return handles, nil
}

func (l *Layouts) LoadLayout(klid string) (layoutlock.LayoutHandle, error) {
	if _, err := ParseKLID(klid); err != nil {
		return 0, err
	}

	hkl, err := loadKeyboardLayout(klid, klfActivate|klfSetForProcess)
	if err != nil {
		return 0, fmt.Errorf("LoadKeyboardLayout(%s): %w", klid, err)
	}
	return layoutlock.LayoutHandle(hkl), nil
}

func (l *Layouts) PersistPreload(klid string) (bool, error) {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, preloadKeyPath, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return false, fmt.Errorf("open preload key: %w", err)
	}
	defer key.Close()

	names, err := key.ReadValueNames(0)
	if err != nil {
		return false, fmt.Errorf("read preload value names: %w", err)
	}

	values := make(map[string]string, len(names))
	for _, name := range names {
		value, _, err := key.GetStringValue(name)
		if errors.Is(err, registry.ErrUnexpectedType) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("read preload value %s: %w", name, err)
		}
		values[name] = value
	}

	name, add := nextPreloadSlot(values, klid)
	if !add {
		l.log.Debugw("layout already in preload list", "klid", klid, "slot", name)
		return false, nil
	}

	if err := key.SetStringValue(name, klid); err != nil {
		return false, fmt.Errorf("write preload value %s: %w", name, err)
	}
	values[name] = klid

	order := make([]string, 0, len(values))
	for _, n := range sortedValueNames(values) {
		order = append(order, values[n])
	}
	l.log.Infow("added layout to preload list", "klid", klid, "slot", name, "preload", order)

	return true, nil
}

func (l *Layouts) BroadcastLayoutChange() error {
	if win.PostMessage(win.HWND(hwndBroadcast), wmInputLangChangeRequest, 0, 0) == 0 {
		return fmt.Errorf("broadcast WM_INPUTLANGCHANGEREQUEST: %w", callErr(windows.GetLastError()))
	}
	return nil
}
