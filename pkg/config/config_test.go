package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "todo-bulk-update/pkg/errors"
)

var configKeys = []string{
	"CONFIG_FILE", "PORT", "ENV", "STORE_DRIVER", "DATABASE_URL", "BOLT_PATH",
	"SESSION_DRIVER", "REDIS_ADDR", "SESSION_TTL", "SESSION_COOKIE_NAME",
	"PASSWORD_COST", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED", "ADMIN_PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, SessionsStore, cfg.SessionDriver)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "session", cfg.SessionCookieName)
	assert.True(t, cfg.MetricsEnabled, "development enables metrics")
	require.NoError(t, cfg.Validate())
}

func TestLoadFileEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "store_driver: bolt\nbolt_path: /tmp/todos.db\nport: 9000\nsession_ttl: 1h\nmetrics_enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreBolt, cfg.StoreDriver)
	assert.Equal(t, "/tmp/todos.db", cfg.BoltPath)
	assert.Equal(t, "9100", cfg.Port, "env wins over file")
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	_, err = Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"mysql needs url", func(c *Config) { c.StoreDriver = StoreMySQL; c.DatabaseURL = "" }, "DATABASE_URL"},
		{"bad url", func(c *Config) { c.StoreDriver = StoreMySQL; c.DatabaseURL = "nonsense" }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }, "STORE_DRIVER"},
		{"unknown session driver", func(c *Config) { c.SessionDriver = "memcache" }, "SESSION_DRIVER"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"port conflict", func(c *Config) { c.AdminPort = c.Port }, "ADMIN_PORT"},
		{"bad port", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"password cost", func(c *Config) { c.PasswordCost = 2 }, "PASSWORD_COST"},
		{"ttl", func(c *Config) { c.SessionTTL = 0 }, "SESSION_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := load(source{})
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.ErrInputParse))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfigSummaryMasksDatabaseURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "todo_app_user:secretpassword@tcp(localhost:3306)/todos"}
	summary := cfg.GetConfigSummary()
	assert.NotContains(t, summary["database_url"], "secretpassword")
}

func TestValidatorCollectsEveryField(t *testing.T) {
	clearEnv(t)
	cfg := load(source{})
	cfg.Port = "abc"
	cfg.StoreDriver = "sqlite"
	cfg.SessionTTL = -time.Minute

	v := NewConfigValidator()
	cfg.validateFormats(v)
	cfg.validateRanges(v)
	cfg.validatePorts(v)

	var fields []string
	for _, e := range v.GetErrors() {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"STORE_DRIVER", "SESSION_TTL", "PORT"}, fields)
}
