package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crucible/internal/config"
	"crucible/options"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.New(), "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)

	cats, err := cfg.Categories()
	require.NoError(t, err)
	assert.Equal(t, options.CategoryNone, cats)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crucible.yaml"), []byte(`
dialect: postgres
dsn: postgres://localhost/shop
package: shoprecords
coercions: [safe_number, seconds]
log_level: debug
`), 0o600))

	cfg, err := config.Load(config.New(), "", dir)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "postgres://localhost/shop", cfg.DSN)
	assert.Equal(t, "shoprecords", cfg.Package)
	assert.Equal(t, "./records", cfg.OutputDir)

	cats, err := cfg.Categories()
	require.NoError(t, err)
	assert.True(t, cats.Has(options.CategorySafeNumber))
	assert.True(t, cats.Has(options.CategorySeconds))
	assert.False(t, cats.Has(options.CategoryEnumString))

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CRUCIBLE_DIALECT", "postgres")
	t.Setenv("CRUCIBLE_COERCIONS", "safe_number,enum_string")

	cfg, err := config.Load(config.New(), "", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, []string{"safe_number", "enum_string"}, cfg.Coercions)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(config.New(), filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err, "an explicit config file must exist")

	cfg := config.Defaults()
	cfg.Coercions = []string{"bogus"}
	_, err = cfg.Categories()
	require.Error(t, err)

	cfg.LogLevel = "loud"
	_, err = cfg.Logger(&bytes.Buffer{})
	require.Error(t, err)
}

func TestLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "class", "Customer")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "class=Customer")
}
