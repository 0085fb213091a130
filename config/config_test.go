package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/parsekit/parse"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  url: https://api.example.com
  app_id: myapp
  master_key: secret
  timeout: 5s
logging:
  level: debug
  format: json
filters:
  recent: daysSince(createdAt) < 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Server.URL)
	assert.Equal(t, "myapp", cfg.Server.AppID)
	assert.Equal(t, "secret", cfg.Server.MasterKey)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "parse", cfg.Server.MountPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Nil(t, cfg.Logging.Color)
	assert.Equal(t, "daysSince(createdAt) < 7", cfg.Filters["recent"])
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  app_id: fromfile
`)
	t.Setenv("PARSE_APP_ID", "fromenv")
	t.Setenv("PARSE_MASTER_KEY", "envmaster")
	t.Setenv("PARSE_SERVER_URL", "http://parse.local:1337")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fromenv", cfg.Server.AppID)
	assert.Equal(t, "envmaster", cfg.Server.MasterKey)
	assert.Equal(t, "http://parse.local:1337", cfg.Server.URL)
}

func TestLoadWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("PARSE_APP_ID", "envonly")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "envonly", cfg.Server.AppID)
	assert.Equal(t, "http://localhost:1337", cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{URL: "http://localhost:1337", AppID: "app"},
			Logging: LoggingConfig{Level: "info", Format: "console"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing app id",
			mutate:  func(c *Config) { c.Server.AppID = "" },
			wantErr: "AppID",
		},
		{
			name:    "missing url",
			mutate:  func(c *Config) { c.Server.URL = "" },
			wantErr: "URL",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Server.Timeout = -time.Second },
			wantErr: "Timeout",
		},
		{
			name:    "invalid level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "Level",
		},
		{
			name:    "invalid format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "Format",
		},
		{
			name:    "blank filter",
			mutate:  func(c *Config) { c.Filters = map[string]string{"empty": "  "} },
			wantErr: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClientOptions(t *testing.T) {
	s := ServerConfig{
		MasterKey:      "mk",
		SessionToken:   "r:tok",
		InstallationID: "inst",
		Timeout:        time.Second,
	}

	assert.Len(t, s.ClientOptions(), 4)
	assert.Empty(t, ServerConfig{}.ClientOptions())

	client, err := parse.NewClient("http://localhost:1337", "app", zerolog.Nop(), s.ClientOptions()...)
	require.NoError(t, err)
	assert.True(t, client.HasMasterKey())
	assert.Equal(t, "r:tok", client.SessionToken())
	assert.Equal(t, "inst", client.Auth().InstallationID)
}
