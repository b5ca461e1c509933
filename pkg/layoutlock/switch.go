package layoutlock

import (
	"fmt"

	"go.uber.org/zap"
)

// switchLayout asks the foreground window to take the reference layout and
// falls back to activating it directly with the input thread attached.
func switchLayout(desktop Desktop, log *zap.SugaredLogger, fg ForegroundContext, ref LanguageID) (SwitchResult, error) {
	err := desktop.RequestLayout(fg.Window, ref.DefaultHandle())
	if err == nil {
		return SwitchCooperative, nil
	}
	log.Debugw("cooperative layout request refused, forcing", "window", fg.Window, "error", err)

	if err := forceLayout(desktop, fg.Thread, ref); err != nil {
		return SwitchFailed, fmt.Errorf("%w: %w", ErrSwitchFailed, err)
	}

	return SwitchForced, nil
}

func forceLayout(desktop Desktop, thread uint32, ref LanguageID) (err error) {
	hkl, err := desktop.LoadLayout(ref.KLID())
	if err != nil {
		return fmt.Errorf("load layout %s: %w", ref.KLID(), err)
	}

	detach, err := desktop.AttachInput(thread)
	if err != nil {
		return fmt.Errorf("attach input to thread %d: %w", thread, err)
	}
	defer func() {
		if detachErr := detach(); detachErr != nil && err == nil {
			err = fmt.Errorf("detach input from thread %d: %w", thread, detachErr)
		}
	}()

	if err := desktop.ActivateLayout(hkl); err != nil {
		return fmt.Errorf("activate layout %s: %w", hkl, err)
	}

	return nil
}
