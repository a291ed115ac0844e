package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://ec2-13-229-144-6.ap-southeast-1.compute.amazonaws.com", cfg.Geosearch.BaseURL)
	assert.Equal(t, "5000", cfg.Geosearch.Port)
	assert.Equal(t, 60, cfg.Geosearch.TimeoutSecs)
	assert.InDelta(t, 0, cfg.Geosearch.RequestsPerSecond, 0.001)
	assert.Equal(t, "json", cfg.Export.Format)
	assert.Equal(t, "indicators", cfg.Export.Table)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
geosearch:
  base_url: http://geo.internal
  port: "8000"
  requests_per_second: 2.5
export:
  format: sqlite
  path: out.db
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://geo.internal", cfg.Geosearch.BaseURL)
	assert.Equal(t, "8000", cfg.Geosearch.Port)
	assert.InDelta(t, 2.5, cfg.Geosearch.RequestsPerSecond, 0.001)
	assert.Equal(t, "sqlite", cfg.Export.Format)
	assert.Equal(t, "out.db", cfg.Export.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 60, cfg.Geosearch.TimeoutSecs)
	assert.Equal(t, "indicators", cfg.Export.Table)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
geosearch:
  port: "8000"
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INDICATOR_GEOSEARCH_PORT", "9000")
	t.Setenv("INDICATOR_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "9000", cfg.Geosearch.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("INDICATOR_GEOSEARCH_TIMEOUT_SECS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Geosearch.TimeoutSecs)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("geosearch: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
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

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Geosearch.BaseURL = "http://localhost"
	cfg.Geosearch.Port = "5000"
	cfg.Geosearch.TimeoutSecs = 60
	cfg.Export.Format = "json"
	cfg.Export.Table = "indicators"
	return cfg
}

func TestValidateSearch_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("search"))
}

func TestValidateSearch_Invalid(t *testing.T) {
	cfg := validDefaults()
	cfg.Geosearch.BaseURL = ""
	cfg.Geosearch.TimeoutSecs = -1
	cfg.Geosearch.RequestsPerSecond = -2

	err := cfg.Validate("search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "geosearch.base_url is required")
	assert.Contains(t, err.Error(), "timeout_secs must be >= 0")
	assert.Contains(t, err.Error(), "requests_per_second must be >= 0")
}

func TestValidateExport_StreamFormats(t *testing.T) {
	for _, f := range []string{"json", "yaml", "csv", "CSV"} {
		cfg := validDefaults()
		cfg.Export.Format = f
		assert.NoError(t, cfg.Validate("export"), f)
	}
}

func TestValidateExport_FileFormatsNeedPath(t *testing.T) {
	for _, f := range []string{"xlsx", "sqlite"} {
		cfg := validDefaults()
		cfg.Export.Format = f

		err := cfg.Validate("export")
		assert.Error(t, err, f)
		assert.Contains(t, err.Error(), "export.path is required")

		cfg.Export.Path = "out." + f
		assert.NoError(t, cfg.Validate("export"), f)
	}
}

func TestValidateExport_Postgres(t *testing.T) {
	cfg := validDefaults()
	cfg.Export.Format = "postgres"

	err := cfg.Validate("export")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")

	cfg.Export.DatabaseURL = "postgres://localhost/indicators"
	assert.NoError(t, cfg.Validate("export"))
}

func TestValidateExport_UnknownFormat(t *testing.T) {
	cfg := validDefaults()
	cfg.Export.Format = "parquet"
	cfg.Export.Table = ""

	err := cfg.Validate("export")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "export.format must be one of")
	assert.Contains(t, err.Error(), "export.table is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
