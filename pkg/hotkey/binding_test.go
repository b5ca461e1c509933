package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBinding(t *testing.T) {
	tests := []struct {
		text string
		want Binding
		str  string
	}{
		{"Ctrl+Alt+K", Binding{ModCtrl | ModAlt, 'K'}, "Ctrl+Alt+K"},
		{" alt + ctrl + k ", Binding{ModCtrl | ModAlt, 'K'}, "Ctrl+Alt+K"},
		{"Control+Shift+F12", Binding{ModCtrl | ModShift, 0x7B}, "Ctrl+Shift+F12"},
		{"Win+Space", Binding{ModWin, vkSpace}, "Win+Space"},
		{"Super+Alt+1", Binding{ModWin | ModAlt, '1'}, "Alt+Win+1"},
		{"Ctrl+0x4B", Binding{ModCtrl, 'K'}, "Ctrl+K"},
		{"Ctrl+Alt+`", Binding{ModCtrl | ModAlt, vkOem3}, "Ctrl+Alt+`"},
		{"Shift+F24", Binding{ModShift, vkF24}, "Shift+F24"},
		{"Ctrl+0xBA", Binding{ModCtrl, 0xBA}, "Ctrl+0xBA"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseBinding(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestParseBindingErrors(t *testing.T) {
	for _, text := range []string{
		"",
		"K",
		"Ctrl+",
		"Hyper+K",
		"Ctrl+Alt+NotAKey",
		"Ctrl+F25",
		"Ctrl+0x00",
		"Ctrl+0x1FF",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseBinding(text)
			require.ErrorIs(t, err, ErrInvalidBinding)
		})
	}
}

func TestDefaultBinding(t *testing.T) {
	require.NoError(t, DefaultBinding.Validate())
	assert.Equal(t, "Ctrl+Alt+K", DefaultBinding.String())
}
