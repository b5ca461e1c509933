package hotkey

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier is a Win32 hotkey modifier bitmask.
type Modifier uint32

const (
	ModAlt   Modifier = 0x0001
	ModCtrl  Modifier = 0x0002
	ModShift Modifier = 0x0004
	ModWin   Modifier = 0x0008

	modMask = ModAlt | ModCtrl | ModShift | ModWin
)

// VKey is a Win32 virtual-key code.
type VKey uint32

const (
	vkTab    VKey = 0x09
	vkReturn VKey = 0x0D
	vkPause  VKey = 0x13
	vkEscape VKey = 0x1B
	vkSpace  VKey = 0x20
	vkEnd    VKey = 0x23
	vkHome   VKey = 0x24
	vkLeft   VKey = 0x25
	vkUp     VKey = 0x26
	vkRight  VKey = 0x27
	vkDown   VKey = 0x28
	vkInsert VKey = 0x2D
	vkDelete VKey = 0x2E
	vkF1     VKey = 0x70
	vkF24    VKey = 0x87
	vkOem3   VKey = 0xC0
)

var modifierByName = map[string]Modifier{
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"ALT":     ModAlt,
	"SHIFT":   ModShift,
	"WIN":     ModWin,
	"SUPER":   ModWin,
}

var keyByName = map[string]VKey{
	"TAB":    vkTab,
	"ENTER":  vkReturn,
	"RETURN": vkReturn,
	"PAUSE":  vkPause,
	"ESC":    vkEscape,
	"ESCAPE": vkEscape,
	"SPACE":  vkSpace,
	"END":    vkEnd,
	"HOME":   vkHome,
	"LEFT":   vkLeft,
	"UP":     vkUp,
	"RIGHT":  vkRight,
	"DOWN":   vkDown,
	"INSERT": vkInsert,
	"DELETE": vkDelete,
	"`":      vkOem3,
}

// display order matches the Windows convention
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
	{ModWin, "Win"},
}

type Binding struct {
	Modifiers Modifier
	Key       VKey
}

// DefaultBinding is Ctrl+Alt+K.
var DefaultBinding = Binding{Modifiers: ModCtrl | ModAlt, Key: 'K'}

func (b Binding) Validate() error {
	if b.Modifiers == 0 {
		return fmt.Errorf("%w: at least one modifier is required", ErrInvalidBinding)
	}
	if b.Modifiers&^modMask != 0 {
		return fmt.Errorf("%w: unknown modifier bits 0x%X", ErrInvalidBinding, uint32(b.Modifiers&^modMask))
	}
	if b.Key == 0 || b.Key > 0xFE {
		return fmt.Errorf("%w: invalid virtual key 0x%X", ErrInvalidBinding, uint32(b.Key))
	}
	return nil
}

func (b Binding) String() string {
	parts := make([]string, 0, len(modifierOrder)+1)
	for _, m := range modifierOrder {
		if b.Modifiers&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, keyName(b.Key)), "+")
}

// ParseBinding parses a binding like "Ctrl+Alt+K".
func ParseBinding(s string) (Binding, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Binding{}, fmt.Errorf("%w: empty hotkey", ErrInvalidBinding)
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("%w: %q needs a modifier and a key", ErrInvalidBinding, raw)
	}

	var b Binding
	for _, token := range parts[:len(parts)-1] {
		mod, ok := modifierByName[strings.ToUpper(strings.TrimSpace(token))]
		if !ok {
			return Binding{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidBinding, token, raw)
		}
		b.Modifiers |= mod
	}

	key, err := parseKey(parts[len(parts)-1])
	if err != nil {
		return Binding{}, fmt.Errorf("%w: %w in %q", ErrInvalidBinding, err, raw)
	}
	b.Key = key

	if err := b.Validate(); err != nil {
		return Binding{}, err
	}

	return b, nil
}

func parseKey(raw string) (VKey, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, fmt.Errorf("missing key")
	}

	if key, ok := keyByName[token]; ok {
		return key, nil
	}

	if len(token) == 1 {
		ch := token[0]
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			return VKey(ch), nil
		}
	}

	if strings.HasPrefix(token, "F") {
		if n, err := strconv.Atoi(token[1:]); err == nil && n >= 1 && n <= 24 {
			return vkF1 + VKey(n-1), nil
		}
	}

	if strings.HasPrefix(token, "0X") {
		value, err := strconv.ParseUint(token[2:], 16, 8)
		if err != nil || value == 0 {
			return 0, fmt.Errorf("invalid key code %q", raw)
		}
		return VKey(value), nil
	}

	return 0, fmt.Errorf("unknown key %q", raw)
}

func keyName(key VKey) string {
	switch {
	case (key >= 'A' && key <= 'Z') || (key >= '0' && key <= '9'):
		return string(rune(key))
	case key >= vkF1 && key <= vkF24:
		return "F" + strconv.Itoa(int(key-vkF1)+1)
	}

	if name, ok := canonicalKeyNames[key]; ok {
		return name
	}

	return fmt.Sprintf("0x%02X", uint32(key))
}

var canonicalKeyNames = map[VKey]string{
	vkTab:    "Tab",
	vkReturn: "Enter",
	vkPause:  "Pause",
	vkEscape: "Esc",
	vkSpace:  "Space",
	vkEnd:    "End",
	vkHome:   "Home",
	vkLeft:   "Left",
	vkUp:     "Up",
	vkRight:  "Right",
	vkDown:   "Down",
	vkInsert: "Insert",
	vkDelete: "Delete",
	vkOem3:   "`",
}
