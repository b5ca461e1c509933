//go:build !windows

package win32

import (
	"codeberg.org/miketth/layoutlock/pkg/hotkey"
	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
	"go.uber.org/zap"
)

type Desktop struct{}

func NewDesktop() (*Desktop, error) {
	return nil, ErrUnsupported
}

func (d *Desktop) ForegroundContext() (layoutlock.ForegroundContext, error) {
	return layoutlock.ForegroundContext{}, ErrUnsupported
}

func (d *Desktop) ActiveLayout(uint32) (layoutlock.LayoutHandle, error) {
	return 0, ErrUnsupported
}

func (d *Desktop) RequestLayout(uintptr, layoutlock.LayoutHandle) error {
	return ErrUnsupported
}

func (d *Desktop) LoadLayout(string) (layoutlock.LayoutHandle, error) {
	return 0, ErrUnsupported
}

func (d *Desktop) AttachInput(uint32) (func() error, error) {
	return nil, ErrUnsupported
}

func (d *Desktop) ActivateLayout(layoutlock.LayoutHandle) error {
	return ErrUnsupported
}

type Layouts struct{}

func NewLayouts(*zap.SugaredLogger) *Layouts {
	return &Layouts{}
}

func (l *Layouts) InstalledLayouts() ([]layoutlock.LayoutHandle, error) {
	return nil, ErrUnsupported
}

func (l *Layouts) LoadLayout(string) (layoutlock.LayoutHandle, error) {
	return 0, ErrUnsupported
}

func (l *Layouts) PersistPreload(string) (bool, error) {
	return false, ErrUnsupported
}

func (l *Layouts) BroadcastLayoutChange() error {
	return ErrUnsupported
}

func HotkeyReceivers(*zap.SugaredLogger) hotkey.ReceiverFactory {
	return func(func(id int)) (hotkey.Receiver, error) {
		return nil, ErrUnsupported
	}
}

type Autostart struct{}

func NewAutostart(...string) (*Autostart, error) {
	return nil, ErrUnsupported
}

func (a *Autostart) Command() string        { return "" }
func (a *Autostart) Enabled() (bool, error) { return false, ErrUnsupported }
func (a *Autostart) Enable() error          { return ErrUnsupported }
func (a *Autostart) Disable() error         { return ErrUnsupported }

var (
	_ layoutlock.Desktop      = (*Desktop)(nil)
	_ layoutlock.LayoutSource = (*Layouts)(nil)
)
