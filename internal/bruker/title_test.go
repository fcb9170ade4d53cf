package bruker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenolabs/nmrtab/internal/testutil"
)

func TestTitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "title")
	require.NoError(t, os.WriteFile(path, []byte("Plasma 1D NOESY\r\n\r\n   \nCOV_p001 \n"), 0o644))

	r := NewReader(testutil.NewTestLogger(t))
	got, ok := r.Title(path)
	require.True(t, ok)
	assert.Equal(t, "Plasma 1D NOESY\nCOV_p001", got)
}

func TestTitleMissingFile(t *testing.T) {
	r := NewReader(testutil.NewTestLogger(t))
	got, ok := r.Title(filepath.Join(t.TempDir(), "title"))
	assert.False(t, ok)
	assert.Empty(t, got)
}
