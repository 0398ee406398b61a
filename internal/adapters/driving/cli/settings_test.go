package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShowCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Embedding.APIKey = "sk-1234567890abcdef"

	out, err := runCmd(nil, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "search.bm25_weight")
	assert.Contains(t, out, "0.35")
	assert.Contains(t, out, "sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Embedding provider: configured")
}

func TestSettingsShowCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCmd(nil, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "embedding.api_key")
	assert.Contains(t, out, "(not set)")
	assert.Contains(t, out, "not configured")
}

func TestSettingsGetCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCmd(nil, "settings", "get", "chunking.chunk_size")

	require.NoError(t, err)
	assert.Equal(t, "1000\n", out)
}

func TestSettingsGetCmd_UnknownKey(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCmd(nil, "settings", "get", "search.nope")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSetCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCmd(nil, "settings", "set", "search.bm25_weight", "0.5")

	require.NoError(t, err)
	assert.Equal(t, "0.5", ts.settings.values["search.bm25_weight"])
	assert.Contains(t, out, "Set search.bm25_weight.")
}

func TestSettingsSetCmd_Rejected(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCmd(nil, "settings", "set", "search.unknown", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set search.unknown")
}

func TestSettingsKeysCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCmd(nil, "settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "search.bm25_weight\nsearch.cosine_weight\n", out)
}

func TestSettingEntries_CoverEveryKey(t *testing.T) {
	s := domain.DefaultAppSettings()
	entries := settingEntries(&s)

	assert.Len(t, entries, 16)
	seen := make(map[string]bool)
	for _, e := range entries {
		assert.False(t, seen[e.key], e.key)
		seen[e.key] = true
	}
	assert.True(t, seen["storage.data_dir"])
}

func TestSettingsCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.err = errors.New("corrupt config")

	_, err := runCmd(nil, "settings")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt config")
}

func TestSettingsSetCmd_PromptsForValue(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCmd(strings.NewReader("sk-secret-value\n"), "settings", "set", "embedding.api_key")

	require.NoError(t, err)
	assert.Contains(t, out, "Enter value for embedding.api_key:")
	assert.Equal(t, "sk-secret-value", ts.settings.values["embedding.api_key"])
}

func TestSettingsSetCmd_PromptEmpty(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCmd(strings.NewReader("\n"), "settings", "set", "embedding.api_key")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, ts.settings.values)
}

func TestReadSecret(t *testing.T) {
	t.Run("reads line without trailing newline", func(t *testing.T) {
		v, err := readSecret(strings.NewReader("  value  "))

		require.NoError(t, err)
		assert.Equal(t, "value", v)
	})

	t.Run("only first line", func(t *testing.T) {
		v, err := readSecret(strings.NewReader("first\nsecond\n"))

		require.NoError(t, err)
		assert.Equal(t, "first", v)
	})
}
