package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cleannft-core", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.Service.HTTPPort)
	assert.True(t, cfg.Service.IsDev())
	assert.Equal(t, "best_effort", cfg.Waste.NonceMode)
	assert.Equal(t, 3, cfg.Waste.TxMaxAttempts)
	assert.Equal(t, 2000, cfg.Outbox.PollIntervalMs)
	assert.Equal(t, 10, cfg.Outbox.BatchSize)
	assert.Equal(t, "simulated", cfg.Settlement.Mode)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
service:
  name: cleannft-core
  http_port: 9090
  env: production
waste:
  nonce_mode: required
outbox:
  poll_interval_ms: 500
  batch_size: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Service.HTTPPort)
	assert.False(t, cfg.Service.IsDev())
	assert.Equal(t, "required", cfg.Waste.NonceMode)
	assert.Equal(t, 500, cfg.Outbox.PollIntervalMs)
	assert.Equal(t, 20, cfg.Outbox.BatchSize)
	// 文件未覆盖的字段保持默认
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SETTLEMENT_MODE", "simulated")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Service.HTTPPort = 0 }},
		{"empty jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"bad nonce mode", func(c *Config) { c.Waste.NonceMode = "sometimes" }},
		{"bad settlement mode", func(c *Config) { c.Settlement.Mode = "moon" }},
		{"ethereum without rpc", func(c *Config) { c.Settlement.Mode = "ethereum"; c.Settlement.RPCURL = "" }},
		{"bad batch size", func(c *Config) { c.Outbox.BatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := defaultConfig()
	dsn := cfg.Database.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=cleannft")
}
