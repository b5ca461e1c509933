package layoutlock

import (
	"fmt"

	"go.uber.org/zap"
)

// Catalog reads the installed layouts and installs the reference layout.
// Nothing is cached; every call goes to the OS.
type Catalog struct {
	source    LayoutSource
	names     NameResolver
	reference LanguageID
	log       *zap.SugaredLogger
}

type InstallResult struct {
	// Persisted is false when the layout is usable now but did not make it
	// into the preload list.
	Persisted bool
	Message   string
}

func NewCatalog(source LayoutSource, names NameResolver, reference LanguageID, log *zap.SugaredLogger) *Catalog {
	if reference == 0 {
		reference = DefaultReferenceLanguage
	}

	return &Catalog{
		source:    source,
		names:     names,
		reference: reference,
		log:       log,
	}
}

func (c *Catalog) Reference() LanguageID {
	return c.reference
}

func (c *Catalog) ListInstalled() ([]CatalogEntry, error) {
	handles, err := c.source.InstalledLayouts()
	if err != nil {
		return nil, fmt.Errorf("list installed layouts: %w", err)
	}

	entries := make([]CatalogEntry, 0, len(handles))
	for _, h := range handles {
		lang := h.LanguageID()
		entries = append(entries, CatalogEntry{
			Handle:      h,
			LanguageID:  lang,
			DisplayName: c.names.DisplayName(lang),
		})
	}

	return entries, nil
}

func (c *Catalog) IsReferenceLayoutInstalled() (bool, error) {
	entries, err := c.ListInstalled()
	if err != nil {
		return false, err
	}

	for _, e := range entries {
		if e.LanguageID == c.reference {
			return true, nil
		}
	}

	return false, nil
}

func (c *Catalog) InstallReferenceLayout() (InstallResult, error) {
	name := c.names.DisplayName(c.reference)
	klid := c.reference.KLID()

	hkl, err := c.source.LoadLayout(klid)
	if err != nil {
		return InstallResult{}, fmt.Errorf("install %s: %w: %w", name, ErrLayoutLoadFailed, err)
	}
	c.log.Infow("loaded layout", "klid", klid, "handle", hkl)

	added, err := c.source.PersistPreload(klid)
	if err != nil {
		c.log.Warnw("could not persist layout to preload list", "klid", klid, "error", err)
		return InstallResult{
			Persisted: false,
			Message:   fmt.Sprintf("%s is usable now, but it may only appear in the layout switcher after logging off", name),
		}, nil
	}

	if err := c.source.BroadcastLayoutChange(); err != nil {
		c.log.Debugw("layout change broadcast failed", "error", err)
	}

	msg := fmt.Sprintf("added %s keyboard layout", name)
	if !added {
		msg = fmt.Sprintf("%s keyboard layout is already installed", name)
	}

	return InstallResult{Persisted: true, Message: msg}, nil
}
