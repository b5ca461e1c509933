//go:build windows

package win32

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutostartCommand(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	autostart, err := NewAutostart("run", "--config", `C:\Users\me\My Config\config.yaml`)
	require.NoError(t, err)

	cmd := autostart.Command()
	assert.True(t, strings.HasPrefix(cmd, `"`+exe+`" run --config `), cmd)
	assert.True(t, strings.HasSuffix(cmd, `"C:\Users\me\My Config\config.yaml"`), cmd)
}
