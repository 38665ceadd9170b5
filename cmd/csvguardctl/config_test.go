package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file yields local defaults", func(t *testing.T) {
		cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
		assert.Empty(t, cfg.Token)
	})

	t.Run("missing file honors the env fallback", func(t *testing.T) {
		t.Setenv("CSVGUARD_API_URL", "https://api.example.com")

		cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	})

	t.Run("yaml values are read", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "csvguard.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"api_base_url: https://api.example.com\ntoken: abc\nuser: ana\n"), 0o600))

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
		assert.Equal(t, "abc", cfg.Token)
		assert.Equal(t, "ana", cfg.User)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "csvguard.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api_base_url: [unclosed"), 0o600))

		_, err := loadConfig(path)
		assert.Error(t, err)
	})
}
