package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriteFileCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "report.md")
	require.NoError(t, SafeWriteFile(path, []byte("# hi\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(got))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")
}

func TestSafeWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, SafeWriteFile(path, []byte("old")))
	require.NoError(t, SafeWriteFile(path, []byte("new")))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"count": 3})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"count\": 3\n}", string(b))

	_, err = PrettyJSON(func() {})
	assert.Error(t, err)
}
