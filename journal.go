package main

import (
	"fmt"
	"os"
	"path/filepath"

	"codeberg.org/miketth/layoutlock/pkg/config"
	"codeberg.org/miketth/layoutlock/pkg/journal"
	jsonstore "codeberg.org/miketth/layoutlock/pkg/journal/json"
	"codeberg.org/miketth/layoutlock/pkg/journal/memory"
	"codeberg.org/miketth/layoutlock/pkg/journal/sqlite"
	"go.uber.org/zap"
)

func openJournal(settings config.Settings, log *zap.SugaredLogger) (journal.Store, error) {
	if settings.Journal.Driver == config.JournalMemory {
		return memory.NewStore(), nil
	}

	path, err := settings.JournalPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	log.Debugw("opening journal", "driver", settings.Journal.Driver, "path", path)

	switch settings.Journal.Driver {
	case config.JournalJSON:
		store, err := jsonstore.NewStore(path)
		if err != nil {
			return nil, fmt.Errorf("open json journal: %w", err)
		}
		return store, nil
	case config.JournalSQLite:
		store, err := sqlite.NewStore(path, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite journal: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown journal driver %q", settings.Journal.Driver)
	}
}
