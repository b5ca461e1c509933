package langnames

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"codeberg.org/miketth/layoutlock/pkg/layoutlock"
)

//go:embed languages.xml
var builtin []byte

// Registry maps Windows language ids to names.
type Registry struct {
	raw  LanguageRegistry
	byID map[layoutlock.LanguageID]ConfigItem
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return Parse(bytes.NewReader(builtin))
})

// Default returns the registry built into the binary.
func Default() *Registry {
	r, err := defaultRegistry()
	if err != nil {
		panic(fmt.Sprintf("builtin language registry: %v", err))
	}
	return r
}

func ParseFile(path string) (*Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

func Parse(r io.Reader) (*Registry, error) {
	registry := &Registry{byID: make(map[layoutlock.LanguageID]ConfigItem)}
	if err := xml.NewDecoder(r).Decode(&registry.raw); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	for _, l := range registry.raw.LanguageList.Language {
		id, err := strconv.ParseUint(l.ConfigItem.ID, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("language %q: invalid id %q: %w", l.ConfigItem.Name, l.ConfigItem.ID, err)
		}
		registry.byID[layoutlock.LanguageID(id)] = l.ConfigItem
	}

	return registry, nil
}

func (r *Registry) DisplayName(lang layoutlock.LanguageID) string {
	if item, ok := r.byID[lang]; ok {
		return item.Description
	}

	return fmt.Sprintf("Layout %s", lang)
}

// Tag returns the locale name, e.g. "en-US".
func (r *Registry) Tag(lang layoutlock.LanguageID) string {
	return r.byID[lang].Name
}

// Lookup resolves a locale name, a description or a hex id ("0x0409").
func (r *Registry) Lookup(name string) (layoutlock.LanguageID, bool) {
	name = strings.TrimSpace(name)

	if lower := strings.ToLower(name); strings.HasPrefix(lower, "0x") {
		id, err := strconv.ParseUint(lower[2:], 16, 16)
		if err != nil || id == 0 {
			return 0, false
		}
		return layoutlock.LanguageID(id), true
	}

	for _, l := range r.raw.LanguageList.Language {
		if strings.EqualFold(l.ConfigItem.Name, name) || strings.EqualFold(l.ConfigItem.Description, name) {
			id, _ := strconv.ParseUint(l.ConfigItem.ID, 16, 16)
			return layoutlock.LanguageID(id), true
		}
	}

	return 0, false
}
