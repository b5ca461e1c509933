package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"codeberg.org/miketth/layoutlock/pkg/config"
	"codeberg.org/miketth/layoutlock/pkg/hotkey"
	jsonstore "codeberg.org/miketth/layoutlock/pkg/journal/json"
	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
	"codeberg.org/miketth/layoutlock/pkg/win32"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// hotkeys is the part of hotkey.Registry the daemon drives.
type hotkeys interface {
	Register(mods hotkey.Modifier, key hotkey.VKey, onTrigger func()) (int, error)
	UnregisterAll() error
}

// lockController is the part of layoutlock.Controller the daemon drives.
type lockController interface {
	Lock(ctx context.Context) error
	Toggle()
	SetPolling(ctx context.Context, state layoutlock.PollingState) error
}

type daemonState struct {
	controller lockController
	hotkeys    hotkeys
	level      zap.AtomicLevel
	debugFlag  bool
	log        *zap.SugaredLogger

	mu       sync.Mutex
	settings config.Settings
}

func (c *cli) runDaemon(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := c.log

	desktop, err := win32.NewDesktop()
	if err != nil {
		return fmt.Errorf("open desktop: %w", err)
	}

	store, err := openJournal(c.settings, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnw("close journal", "error", err)
		}
	}()

	if n, err := store.AbandonOpen(time.Now()); err != nil {
		log.Warnw("could not close stale lock sessions", "error", err)
	} else if n > 0 {
		log.Infow("closed lock sessions left open by a previous run", "count", n)
	}

	controller := layoutlock.NewController(desktop, log,
		layoutlock.WithJournal(store),
		layoutlock.WithPolling(c.settings.PollingState()),
	)
	controller.Subscribe(func(locked bool) {
		log.Infow("lock state changed", "locked", locked)
	})

	c.warnIfReferenceMissing()

	registry := hotkey.NewRegistry(win32.HotkeyReceivers(log), log)
	defer func() {
		if err := registry.Dispose(); err != nil {
			log.Warnw("release hotkeys", "error", err)
		}
	}()
	registry.OnRegistrationFailed(func(message string) {
		log.Warn(message)
	})

	d := &daemonState{
		controller: controller,
		hotkeys:    registry,
		level:      c.level,
		debugFlag:  c.debug,
		log:        log,
		settings:   c.settings,
	}
	// a taken hotkey is reported and the daemon keeps running, so a
	// settings change can fix it
	_ = d.bindHotkey(c.settings)

	c.syncAutostart()

	ref, _ := c.settings.ReferenceLanguageID()
	log.Infow("started layoutlock",
		"hotkey", c.settings.Hotkey,
		"reference", c.names.DisplayName(ref),
		"polling", c.settings.Polling.Enabled,
		"config", c.configPath)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return controller.Run(ctx)
	})

	g.Go(func() error {
		err := systemdNotifyLoop(ctx, "Keeping an eye on your keyboard layout")
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("systemd notify: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := config.Watch(ctx, c.configPath, log, func(s config.Settings) { d.apply(ctx, s) })
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warnw("settings will not be reloaded", "error", err)
		}
		return nil
	})

	if saver, ok := store.(*jsonstore.Store); ok {
		g.Go(func() error {
			err := saver.SaveLooper(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("save journal: %w", err)
			}
			return nil
		})
	}

	if c.settings.StartLocked {
		g.Go(func() error {
			if err := controller.Lock(ctx); err != nil {
				log.Warnw("could not lock at startup", "error", err)
			}
			return nil
		})
	}

	err = g.Wait()
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("shutting down")
		return nil
	case err != nil:
		return err
	}

	return nil
}

func (c *cli) warnIfReferenceMissing() {
	catalog, err := c.newCatalog()
	if err != nil {
		c.log.Warnw("reference layout check skipped", "error", err)
		return
	}

	installed, err := catalog.IsReferenceLayoutInstalled()
	if err != nil {
		c.log.Warnw("could not list installed layouts", "error", err)
		return
	}
	if !installed {
		c.log.Warnw("reference layout is not installed, locking will load it on demand; run install-layout to add it permanently",
			"reference", catalog.Reference())
	}
}

func (c *cli) syncAutostart() {
	autostart, err := win32.NewAutostart("run", "--config", c.configPath)
	if err != nil {
		c.log.Debugw("autostart unavailable", "error", err)
		return
	}

	enabled, err := autostart.Enabled()
	if err != nil {
		c.log.Warnw("could not read autostart state", "error", err)
		return
	}

	switch {
	case c.settings.Autostart && !enabled:
		err = autostart.Enable()
	case !c.settings.Autostart && enabled:
		err = autostart.Disable()
	}
	if err != nil {
		c.log.Warnw("could not update autostart", "want", c.settings.Autostart, "error", err)
	}
}

func (d *daemonState) bindHotkey(s config.Settings) error {
	b, err := s.Binding()
	if err != nil {
		return err
	}

	if _, err := d.hotkeys.Register(b.Modifiers, b.Key, d.controller.Toggle); err != nil {
		d.log.Warnw("hotkey not registered", "hotkey", b.String(), "error", err)
		return err
	}
	return nil
}

// apply reconciles the running daemon with freshly loaded settings.
func (d *daemonState) apply(ctx context.Context, s config.Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.settings
	d.settings = s

	d.level.SetLevel(logLevel(d.debugFlag || s.Debug))

	if s.Hotkey != prev.Hotkey {
		if err := d.hotkeys.UnregisterAll(); err != nil {
			d.log.Warnw("release previous hotkey", "hotkey", prev.Hotkey, "error", err)
		}
		if err := d.bindHotkey(s); err == nil {
			d.log.Infow("hotkey changed", "from", prev.Hotkey, "to", s.Hotkey)
		}
	}

	if s.PollingState() != prev.PollingState() {
		if err := d.controller.SetPolling(ctx, s.PollingState()); err != nil {
			d.log.Warnw("apply polling settings", "error", err)
		}
	}

	if s.Journal != prev.Journal {
		d.log.Warn("journal settings take effect after a restart")
	}
}
