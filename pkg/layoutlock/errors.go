package layoutlock

import "errors"

var (
	ErrNoForegroundWindow = errors.New("no foreground window")
	ErrSwitchFailed       = errors.New("layout switch failed")
	ErrLayoutLoadFailed   = errors.New("layout load failed, installation may be restricted by policy")
	ErrShutdown           = errors.New("controller is shut down")
)
