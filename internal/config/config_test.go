package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "matchcast.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "https://s.jina.ai", cfg.Jina.SearchBaseURL)
	assert.Equal(t, "https://api.football-data.org/v4", cfg.FootballData.BaseURL)
	assert.Equal(t, "PL", cfg.FootballData.Competition)
	assert.Equal(t, 10, cfg.FootballData.RequestsPerMin)
	assert.Equal(t, 3, cfg.Evidence.ResultCap)
	assert.Equal(t, 4, cfg.Evidence.FetchTimeoutSecs)
	assert.Equal(t, 5, cfg.Engine.EvidenceTimeoutSecs)
	assert.Equal(t, 8, cfg.Engine.NarrativeTimeoutSecs)
	assert.Equal(t, 4, cfg.Engine.BatchConcurrency)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/matchcast
log:
  level: debug
  format: console
server:
  port: 9090
engine:
  batch_concurrency: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/matchcast", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Engine.BatchConcurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Evidence.ResultCap)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("MATCHCAST_STORE_DRIVER", "postgres")
	t.Setenv("MATCHCAST_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("MATCHCAST_SERVER_PORT", "3000")
	t.Setenv("MATCHCAST_ANTHROPIC_KEY", "sk-ant-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults mirrors Load's defaults for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "matchcast.db"
	cfg.Server.Port = 8080
	cfg.Evidence.ResultCap = 3
	cfg.Engine.EvidenceTimeoutSecs = 5
	cfg.Engine.NarrativeTimeoutSecs = 8
	cfg.Engine.BatchConcurrency = 4
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	for _, mode := range []string{"predict", "batch", "serve", "accuracy", "fixtures"} {
		assert.NoError(t, Validate(validDefaults(), mode), mode)
	}
}

func TestValidate_PostgresRequiresURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := Validate(cfg, "predict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/matchcast"
	assert.NoError(t, Validate(cfg, "predict"))
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := Validate(cfg, "predict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidate_ServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := Validate(cfg, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_ConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Engine.BatchConcurrency = 0
	err := Validate(cfg, "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_concurrency must be between 1 and 32")

	cfg.Engine.BatchConcurrency = 33
	err = Validate(cfg, "batch")
	require.Error(t, err)

	cfg.Engine.BatchConcurrency = 32
	assert.NoError(t, Validate(cfg, "batch"))
}

func TestValidate_SourceTimeouts(t *testing.T) {
	cfg := validDefaults()
	cfg.Engine.NarrativeTimeoutSecs = 0

	err := Validate(cfg, "predict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source timeouts")
}

func TestValidate_UnknownMode(t *testing.T) {
	err := Validate(validDefaults(), "unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
