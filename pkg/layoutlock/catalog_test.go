package layoutlock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNames = fakeNames{
	DefaultReferenceLanguage: "English (US)",
	langChinese:              "Chinese (Simplified)",
}

func newTestCatalog(source LayoutSource) *Catalog {
	return NewCatalog(source, testNames, 0, zap.NewNop().Sugar())
}

func TestListInstalled(t *testing.T) {
	source := &fakeSource{layouts: []LayoutHandle{
		langChinese.DefaultHandle(),
		LayoutHandle(0xF0020409),
	}}

	entries, err := newTestCatalog(source).ListInstalled()
	require.NoError(t, err)
	assert.Equal(t, []CatalogEntry{
		{Handle: langChinese.DefaultHandle(), LanguageID: langChinese, DisplayName: "Chinese (Simplified)"},
		{Handle: LayoutHandle(0xF0020409), LanguageID: DefaultReferenceLanguage, DisplayName: "English (US)"},
	}, entries)
}

func TestIsReferenceLayoutInstalled(t *testing.T) {
	source := &fakeSource{layouts: []LayoutHandle{langChinese.DefaultHandle()}}
	catalog := newTestCatalog(source)

	installed, err := catalog.IsReferenceLayoutInstalled()
	require.NoError(t, err)
	assert.False(t, installed)

	source.layouts = append(source.layouts, LayoutHandle(0xF0020409))
	installed, err = catalog.IsReferenceLayoutInstalled()
	require.NoError(t, err)
	assert.True(t, installed, "variants of the reference language count")
}

func TestInstallReferenceLayoutIsIdempotent(t *testing.T) {
	source := &fakeSource{layouts: []LayoutHandle{langChinese.DefaultHandle()}}
	catalog := newTestCatalog(source)

	res, err := catalog.InstallReferenceLayout()
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	assert.Equal(t, "added English (US) keyboard layout", res.Message)

	res, err = catalog.InstallReferenceLayout()
	require.NoError(t, err)
	assert.True(t, res.Persisted)

	assert.Equal(t, []string{"00000409"}, source.preload)
	assert.Equal(t, 2, source.broadcasts)

	installed, err := catalog.IsReferenceLayoutInstalled()
	require.NoError(t, err)
	assert.True(t, installed)
}

func TestInstallReferenceLayoutPersistFailure(t *testing.T) {
	source := &fakeSource{persistErr: errors.New("access denied")}

	res, err := newTestCatalog(source).InstallReferenceLayout()
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.Contains(t, res.Message, "logging off")
	assert.Zero(t, source.broadcasts)
}

func TestInstallReferenceLayoutLoadFailure(t *testing.T) {
	source := &fakeSource{loadErr: errors.New("blocked by policy")}

	_, err := newTestCatalog(source).InstallReferenceLayout()
	require.ErrorIs(t, err, ErrLayoutLoadFailed)
	assert.Empty(t, source.preload)
}
