// Package win32 binds layoutlock and hotkey to the Windows desktop.
package win32

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var ErrUnsupported = errors.New("only supported on windows")

const (
	preloadKeyPath = `Keyboard Layout\Preload`
	runKeyPath     = `Software\Microsoft\Windows\CurrentVersion\Run`
	runValueName   = "LayoutLock"
)

// nextPreloadSlot decides where klid goes in the Preload key. values maps the
// numeric value names ("1", "2", ...) to the KLIDs stored there.
func nextPreloadSlot(values map[string]string, klid string) (name string, add bool) {
	highest := 0
	for name, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), klid) {
			return name, false
		}
		if n, err := strconv.Atoi(name); err == nil && n > highest {
			highest = n
		}
	}

	return strconv.Itoa(highest + 1), true
}

// runCommand is the Run key value that starts exe with args at logon.
func runCommand(exe string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, `"`+exe+`"`)
	for _, arg := range args {
		if strings.ContainsAny(arg, " \t") {
			arg = `"` + arg + `"`
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// ParseKLID parses an 8 digit hex keyboard layout identifier.
func ParseKLID(klid string) (uint32, error) {
	if len(klid) != 8 {
		return 0, fmt.Errorf("invalid KLID %q: want 8 hex digits", klid)
	}
	v, err := strconv.ParseUint(klid, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid KLID %q: %w", klid, err)
	}
	return uint32(v), nil
}

func sortedValueNames(values map[string]string) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		if errA != nil || errB != nil {
			return strings.Compare(a, b)
		}
		return na - nb
	})
	return names
}
