package config_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gomathex/pkg/config"
	"github.com/sandrolain/gomathex/pkg/evaluator"
	"github.com/sandrolain/gomathex/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "gomathex.yaml", `
cache:
  enabled: false
  capacity: 64
  shards: 4
evaluation:
  timeout: 250ms
  concurrency: 2
  tolerance:
    float_range: 0.01
parser:
  max_depth: 32
catalogs:
  ext: [numeric, crypto]
  yaml: [./geometry.yaml]
data:
  values:
    limit: 10
  sqlite:
    path: ./params.db
log:
  level: DEBUG
  format: json
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 64, cfg.Cache.Capacity)
	assert.Equal(t, 4, cfg.Cache.Shards)
	assert.Equal(t, 250*time.Millisecond, cfg.Evaluation.Timeout)
	assert.Equal(t, 2, cfg.Evaluation.Concurrency)
	assert.Equal(t, types.Tolerance{FloatRange: 0.01}, cfg.Evaluation.Tolerance)
	assert.Equal(t, 32, cfg.Parser.MaxDepth)
	assert.Equal(t, []string{"numeric", "crypto"}, cfg.Catalogs.Ext)
	assert.Equal(t, []string{"./geometry.yaml"}, cfg.Catalogs.YAML)
	assert.Empty(t, cfg.Catalogs.WASM)
	assert.EqualValues(t, 10, cfg.Data.Values["limit"])
	require.NotNil(t, cfg.Data.SQLite)
	assert.Equal(t, "parameters", cfg.Data.SQLite.Table)
	assert.Nil(t, cfg.Data.Redis)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.Equal(t, 256, cfg.Parser.MaxDepth)
	assert.True(t, cfg.Evaluation.Tolerance.IsExact())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, config.Validate(cfg))
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeFile(t, "gomathex.yaml", "cache:\n  capacity: 64\n")
	t.Setenv("GOMATHEX_CACHE_CAPACITY", "8")
	t.Setenv("GOMATHEX_EVALUATION_TOLERANCE_INT_RANGE", "2")
	t.Setenv("GOMATHEX_LOG_LEVEL", "warn")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Cache.Capacity)
	assert.Equal(t, int64(2), cfg.Evaluation.Tolerance.IntRange)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"negative capacity", "cache:\n  capacity: -1\n", "cache.capacity must be greater than or equal to 0"},
		{"unknown level", "log:\n  level: verbose\n", "log.level must be one of"},
		{"unknown ext catalog", "catalogs:\n  ext: [datetime]\n", "catalogs.ext[0] must be one of"},
		{"negative tolerance", "evaluation:\n  tolerance:\n    proportion: -0.5\n", "evaluation.tolerance.proportion"},
		{"bad redis address", "data:\n  redis:\n    addr: nowhere\n", "data.redis.addr must be a host:port address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "gomathex.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Capacity = 16
	cfg.Evaluation.Concurrency = 3
	cfg.Evaluation.Tolerance = types.Tolerance{IntRange: 1}
	cfg.Parser.DisableFolding = true

	ev := evaluator.New(config.Options(cfg)...)
	opts := ev.Options()
	assert.True(t, opts.Caching)
	assert.Equal(t, 16, ev.Cache().Capacity())
	assert.Equal(t, 3, opts.Concurrency)
	assert.True(t, opts.DisableFolding)

	v, err := ev.EvaluateText(context.Background(), "x == 10", map[string]any{"x": 11})
	require.NoError(t, err)
	assert.Equal(t, types.Bool(true), v)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := config.NewLogger(&config.Log{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)
}
