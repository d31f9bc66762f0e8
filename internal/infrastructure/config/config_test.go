package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "olist-dashboard", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, SourceCSV, cfg.Dataset.Source)
		assert.Equal(t, "data", cfg.Dataset.Dir)
		assert.Equal(t, 5, cfg.Dataset.PreviewRows)
		assert.Equal(t, 10, cfg.Dataset.TopN)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 1000, cfg.Database.BatchSize)
		assert.Equal(t, CacheMemory, cfg.Cache.Backend)
		assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
		assert.True(t, cfg.Cache.AllowFallback)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
		assert.Equal(t, "olist-dashboard", cfg.Telemetry.ServiceName)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("env vars override defaults", func(t *testing.T) {
		t.Setenv("OLIST_APP_PORT", "9090")
		t.Setenv("OLIST_DATASET_SOURCE", "S3")
		t.Setenv("OLIST_STORAGE_BUCKET", "olist-raw")
		t.Setenv("OLIST_CACHE_BACKEND", "redis")
		t.Setenv("OLIST_CACHE_TTL", "30m")
		t.Setenv("OLIST_CACHE_ALLOW_FALLBACK", "false")
		t.Setenv("OLIST_REDIS_PORT", "6380")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, SourceS3, cfg.Dataset.Source)
		assert.Equal(t, "olist-raw", cfg.Storage.Bucket)
		assert.Equal(t, CacheRedis, cfg.Cache.Backend)
		assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
		assert.False(t, cfg.Cache.AllowFallback)
		assert.Equal(t, "localhost:6380", cfg.Redis.Addr())
	})

	t.Run("rejects unknown dataset source", func(t *testing.T) {
		t.Setenv("OLIST_DATASET_SOURCE", "ftp")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dataset.source")
	})

	t.Run("s3 source requires a bucket", func(t *testing.T) {
		t.Setenv("OLIST_DATASET_SOURCE", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("rejects wildcard CORS in production", func(t *testing.T) {
		t.Setenv("OLIST_APP_ENV", "production")
		t.Setenv("OLIST_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
name = "olist-test"

[dataset]
source = "database"
preview_rows = 20

[database]
driver = "sqlite"
path = ":memory:"

[log]
level = "debug"
output = "/tmp/olist.log"
max_size_mb = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "olist-test", cfg.App.Name)
	assert.Equal(t, SourceDatabase, cfg.Dataset.Source)
	assert.Equal(t, 20, cfg.Dataset.PreviewRows)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Log.MaxSizeMB)
	assert.Equal(t, "olist-test", cfg.Telemetry.ServiceName)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "idle above open", mutate: func(c *Config) { c.Database.MaxIdleConns = 50 }, wantErr: "max_idle_conns"},
		{name: "unknown cache", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: "cache.backend"},
		{name: "negative preview", mutate: func(c *Config) { c.Dataset.PreviewRows = -1 }, wantErr: "preview_rows"},
		{name: "negative refresh", mutate: func(c *Config) { c.Dataset.RefreshInterval = -time.Second }, wantErr: "refresh_interval"},
		{name: "sampling above one", mutate: func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, wantErr: "sampling_ratio"},
		{
			name: "production database without ssl",
			mutate: func(c *Config) {
				c.App.Env = "production"
				c.Dataset.Source = SourceDatabase
			},
			wantErr: "sslmode",
		},
		{
			name: "production full sql logging",
			mutate: func(c *Config) {
				c.App.Env = "production"
				c.Telemetry.DBLogFullSQL = true
			},
			wantErr: "db_log_full_sql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "olist",
		Password: "p@ss word",
		DBName:   "olist",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://olist:p%40ss%20word@db:5432/olist?sslmode=disable", d.DSN())
}
