package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decyjphr/github-repository-analysis/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "warn"},
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input).String())
		})
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repostats.log")
	l, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.WithPanel("size-histogram").WithOp("histogram").Infow("dispatched", "points", 42)
	require.NoError(t, l.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.Contains(out, `"panel":"size-histogram"`), out)
	assert.True(t, strings.Contains(out, `"op":"histogram"`), out)
	assert.True(t, strings.Contains(out, `"points":42`), out)
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filtered.log")
	l, err := New(&config.LoggingConfig{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	l.Infow("hidden")
	l.Warnw("shown")
	require.NoError(t, l.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hidden")
	assert.Contains(t, string(b), "shown")
}

func TestNopAndDefault(t *testing.T) {
	assert.NotNil(t, NewNop())
	assert.NotNil(t, NewDefault())
	NewNop().WithTag("abc").WithOp("reduce").Errorw("discarded", "k", 1)
}
