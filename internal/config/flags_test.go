package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-u", "https://files.example.com", "-l", "debug",
			"-storage", "memory", "-b", "bucket", "-e", "http://endpoint",
			"-identity=gotrue", "-d", "db", "-s", "secret", "-t", "30m", "-r", "redis:6379", "-o", "out",
		}, expected: &Config{
			HTTPAddr:        "127.0.0.1:9090",
			SiteURL:         "https://files.example.com",
			LogLevel:        "debug",
			StorageBackend:  StorageMemory,
			S3Bucket:        "bucket",
			S3BaseEndpoint:  "http://endpoint",
			IdentityBackend: IdentityGoTrue,
			DatabaseDSN:     "db",
			SecretKey:       "secret",
			TokenValidity:   30 * time.Minute,
			RedisAddr:       "redis:6379",
			DownloadDir:     "out",
		}},
		{name: "foreign flags are ignored", args: []string{"cmd", "-c", "cfg.json", "-x", "1", "-a", ":1"},
			expected: &Config{HTTPAddr: ":1"}},
		{name: "bad duration", args: []string{"cmd", "-t", "forever"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Equal(t, tt.expected, config)
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
