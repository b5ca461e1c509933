// Package config loads the YAML settings file and watches it for changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/miketth/layoutlock/pkg/hotkey"
	"codeberg.org/miketth/layoutlock/pkg/langnames"
	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const appName = "layoutlock"

const MinPollingInterval = 50 * time.Millisecond

var ErrInvalid = errors.New("invalid settings")

type JournalDriver string

const (
	JournalSQLite JournalDriver = "sqlite"
	JournalJSON   JournalDriver = "json"
	JournalMemory JournalDriver = "memory"
)

type Settings struct {
	Hotkey string `yaml:"hotkey"`
	// ReferenceLanguage is a locale name ("en-US") or a hex language id ("0x0409").
	ReferenceLanguage string  `yaml:"reference_language"`
	StartLocked       bool    `yaml:"start_locked"`
	Autostart         bool    `yaml:"autostart"`
	Debug             bool    `yaml:"debug"`
	Polling           Polling `yaml:"polling"`
	Journal           Journal `yaml:"journal"`
}

type Polling struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

type Journal struct {
	Driver JournalDriver `yaml:"driver"`
	// Path defaults to a file under the XDG data dir.
	Path string `yaml:"path,omitempty"`
}

func Default() Settings {
	return Settings{
		Hotkey:            hotkey.DefaultBinding.String(),
		ReferenceLanguage: layoutlock.DefaultReferenceLanguage.String(),
		Polling: Polling{
			Enabled:  true,
			Interval: layoutlock.DefaultPollingInterval,
		},
		Journal: Journal{
			Driver: JournalSQLite,
		},
	}
}

// Path returns the settings file location, creating its directory.
func Path() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join(appName, "config.yaml"))
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

// Load reads path on top of the defaults. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}

	return settings, nil
}

// LoadOrCreate is Load, but writes the defaults when path does not exist yet.
func LoadOrCreate(path string) (Settings, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		settings := Default()
		if err := Save(path, settings); err != nil {
			return Settings{}, err
		}
		return settings, nil
	}

	return Load(path)
}

func Save(path string, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	// replace atomically
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}

	return nil
}

func (s Settings) Validate() error {
	var errs []error

	if _, err := hotkey.ParseBinding(s.Hotkey); err != nil {
		errs = append(errs, fmt.Errorf("hotkey: %w", err))
	}

	if _, err := s.ReferenceLanguageID(); err != nil {
		errs = append(errs, err)
	}

	if s.Polling.Enabled && s.Polling.Interval < MinPollingInterval {
		errs = append(errs, fmt.Errorf("polling.interval %s is below %s", s.Polling.Interval, MinPollingInterval))
	}

	switch s.Journal.Driver {
	case JournalSQLite, JournalJSON, JournalMemory:
	default:
		errs = append(errs, fmt.Errorf("journal.driver %q is not one of sqlite, json, memory", s.Journal.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (s Settings) Binding() (hotkey.Binding, error) {
	return hotkey.ParseBinding(s.Hotkey)
}

func (s Settings) ReferenceLanguageID() (layoutlock.LanguageID, error) {
	if s.ReferenceLanguage == "" {
		return layoutlock.DefaultReferenceLanguage, nil
	}

	id, ok := langnames.Default().Lookup(s.ReferenceLanguage)
	if !ok {
		return 0, fmt.Errorf("reference_language: unknown language %q", s.ReferenceLanguage)
	}
	return id, nil
}

// PollingState assumes s is valid.
func (s Settings) PollingState() layoutlock.PollingState {
	ref, err := s.ReferenceLanguageID()
	if err != nil {
		ref = layoutlock.DefaultReferenceLanguage
	}

	return layoutlock.PollingState{
		Enabled:             s.Polling.Enabled,
		Interval:            s.Polling.Interval,
		ReferenceLanguageID: ref,
	}
}

// JournalPath returns the configured journal file or a driver specific
// default under the XDG data dir.
func (s Settings) JournalPath() (string, error) {
	if s.Journal.Path != "" {
		return s.Journal.Path, nil
	}

	name := "journal.db"
	if s.Journal.Driver == JournalJSON {
		name = "journal.json"
	}

	path, err := xdg.DataFile(filepath.Join(appName, name))
	if err != nil {
		return "", fmt.Errorf("resolve journal path: %w", err)
	}
	return path, nil
}
