package win32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPreloadSlot(t *testing.T) {
	tests := []struct {
		name     string
		klid     string
		values   map[string]string
		wantName string
		wantAdd  bool
	}{
		{"empty", "00000409", map[string]string{}, "1", true},
		{"appends after highest", "00000409", map[string]string{"1": "00000419", "3": "00000407"}, "4", true},
		{"already present", "00000409", map[string]string{"1": "00000419", "2": "00000409"}, "2", false},
		{"case insensitive", "0000040C", map[string]string{"1": "0000040c"}, "1", false},
		{"ignores non numeric names", "00000409", map[string]string{"default": "00000419", "2": "00000407"}, "3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, add := nextPreloadSlot(tt.values, tt.klid)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantAdd, add)
		})
	}
}

func TestRunCommand(t *testing.T) {
	assert.Equal(t, `"C:\Program Files\layoutlock.exe" run`, runCommand(`C:\Program Files\layoutlock.exe`, "run"))
	assert.Equal(t, `"C:\ll.exe" --config "C:\My Config\config.yaml"`, runCommand(`C:\ll.exe`, "--config", `C:\My Config\config.yaml`))
}

func TestParseKLID(t *testing.T) {
	v, err := ParseKLID("00000409")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0409), v)

	v, err = ParseKLID("00010409")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00010409), v)

	for _, bad := range []string{"", "409", "0000040Z", "000004090"} {
		_, err := ParseKLID(bad)
		assert.Error(t, err, bad)
	}
}

func TestSortedValueNames(t *testing.T) {
	got := sortedValueNames(map[string]string{"10": "", "2": "", "1": ""})
	assert.Equal(t, []string{"1", "2", "10"}, got)
}
