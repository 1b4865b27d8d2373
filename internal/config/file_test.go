package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	return writeTempFile(t, dir, name, string(b))
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathJSON := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"http_addr":          ":9000",
		"storage":            "memory",
		"s3_path_style":      false,
		"list_limit":         50,
		"upload_clear_delay": "5s",
		"token_validity":     "2h",
		"identity":           "gotrue",
		"auth_url":           "https://auth.example.com/auth/v1",
		"redis_db":           2,
	})
	pathYAML := writeTempFile(t, dir, "cfg.yml", `
site_url: https://files.example.com
invite_delay: 3s
google_client_id: client-id
`)

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathJSON}

		var cfg Config
		cfg.LoadDefaults()
		parseFile(&cfg)

		assert.Equal(t, ":9000", cfg.HTTPAddr)
		assert.Equal(t, StorageMemory, cfg.StorageBackend)
		assert.False(t, cfg.S3UsePathStyle)
		assert.Equal(t, 50, cfg.ListLimit)
		assert.Equal(t, 5*time.Second, cfg.UploadClearDelay)
		assert.Equal(t, 2*time.Hour, cfg.TokenValidity)
		assert.Equal(t, IdentityGoTrue, cfg.IdentityBackend)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, "files", cfg.S3Bucket, "absent keys keep their value")
	})

	t.Run("loads from yaml", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", pathYAML}

		var cfg Config
		cfg.LoadDefaults()
		parseFile(&cfg)

		assert.Equal(t, "https://files.example.com", cfg.SiteURL)
		assert.Equal(t, 3*time.Second, cfg.InviteDelay)
		assert.Equal(t, "client-id", cfg.GoogleClientID)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		var cfg, want Config
		cfg.LoadDefaults()
		want.LoadDefaults()
		parseFile(&cfg)

		assert.Equal(t, want, cfg)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		var cfg Config
		require.Panics(t, func() { parseFile(&cfg) })
	})

	t.Run("malformed json panics", func(t *testing.T) {
		bad := writeTempFile(t, dir, "bad.json", "{")
		os.Args = []string{"testbin", "-c", bad}
		var cfg Config
		require.Panics(t, func() { parseFile(&cfg) })
	})
}
