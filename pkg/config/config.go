// Package config loads gomathex settings from a file and the environment.
//
// Settings are read with viper from a YAML, JSON or TOML file and can be
// overridden by environment variables prefixed with GOMATHEX, where dots in
// the key become underscores (cache.capacity is GOMATHEX_CACHE_CAPACITY).
//
//	cache:
//	  enabled: true
//	  capacity: 1024
//	evaluation:
//	  timeout: 2s
//	  tolerance:
//	    float_range: 0.001
//	catalogs:
//	  ext: [numeric, string]
//	  yaml: [./functions.yaml]
//	log:
//	  level: debug
//	  format: json
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sandrolain/gomathex/pkg/cache"
	"github.com/sandrolain/gomathex/pkg/evaluator"
	"github.com/sandrolain/gomathex/pkg/parser"
	"github.com/sandrolain/gomathex/pkg/types"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GOMATHEX"

// Config is the complete gomathex configuration.
type Config struct {
	Cache      *Cache
	Evaluation *Evaluation
	Parser     *Parser
	Catalogs   *Catalogs
	Data       *Data
	Log        *Log
}

// Cache configures the expression cache.
type Cache struct {
	Enabled  bool
	Capacity int `mapstructure:"capacity" validate:"gte=0"`
	Shards   int `mapstructure:"shards" validate:"gte=0,lte=4096"`
}

// Evaluation configures evaluation defaults.
type Evaluation struct {
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=0"`
	Tolerance   types.Tolerance
}

// Parser configures interpretation limits.
type Parser struct {
	MaxDepth       int `mapstructure:"max_depth" validate:"gte=0"`
	DisableFolding bool
}

// Catalogs lists the function catalogs to register.
type Catalogs struct {
	Ext  []string `mapstructure:"ext" validate:"dive,oneof=all numeric string crypto"`
	YAML []string `mapstructure:"yaml" validate:"dive,required"`
	WASM []string `mapstructure:"wasm" validate:"dive,required"`
}

// Data configures the data finders consulted for unbound parameters.
// Values are checked first, then SQLite, then Redis.
type Data struct {
	Values map[string]any
	SQLite *SQLite `mapstructure:"sqlite" validate:"omitempty"`
	Redis  *Redis  `mapstructure:"redis" validate:"omitempty"`
}

// SQLite configures the SQLite data finder.
type SQLite struct {
	Path  string `mapstructure:"path" validate:"required"`
	Table string `mapstructure:"table" validate:"required"`
}

// Redis configures the Redis data finder.
type Redis struct {
	Addr     string `mapstructure:"addr" validate:"required,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Prefix   string `mapstructure:"prefix"`
}

// Log configures the slog logger.
type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Load reads the configuration from path and the environment. With an empty
// path it looks for gomathex.{yaml,json,toml} in the working directory and in
// $HOME/.gomathex, and falls back to defaults and the environment when none
// exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gomathex")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".gomathex"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a validated Config from v. Environment overrides are
// enabled on v.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := build(v)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set. It ignores the
// environment.
func Default() *Config {
	return build(viper.New())
}

func build(v *viper.Viper) *Config {
	return &Config{
		Cache:      getCacheConfig(v),
		Evaluation: getEvaluationConfig(v),
		Parser:     getParserConfig(v),
		Catalogs:   getCatalogsConfig(v),
		Data:       getDataConfig(v),
		Log:        getLogConfig(v),
	}
}

func getCacheConfig(v *viper.Viper) *Cache {
	return &Cache{
		Enabled:  getBoolOrDefault(v, "cache.enabled", true),
		Capacity: getIntOrDefault(v, "cache.capacity", 1024),
		Shards:   getIntOrDefault(v, "cache.shards", cache.DefaultShards),
	}
}

func getEvaluationConfig(v *viper.Viper) *Evaluation {
	return &Evaluation{
		Timeout:     getDurationOrDefault(v, "evaluation.timeout", 0),
		Concurrency: getIntOrDefault(v, "evaluation.concurrency", 0),
		Tolerance: types.Tolerance{
			IntRange:   v.GetInt64("evaluation.tolerance.int_range"),
			FloatRange: v.GetFloat64("evaluation.tolerance.float_range"),
			Proportion: v.GetFloat64("evaluation.tolerance.proportion"),
		},
	}
}

func getParserConfig(v *viper.Viper) *Parser {
	return &Parser{
		MaxDepth:       getIntOrDefault(v, "parser.max_depth", parser.DefaultMaxDepth),
		DisableFolding: v.GetBool("parser.disable_folding"),
	}
}

func getCatalogsConfig(v *viper.Viper) *Catalogs {
	return &Catalogs{
		Ext:  v.GetStringSlice("catalogs.ext"),
		YAML: v.GetStringSlice("catalogs.yaml"),
		WASM: v.GetStringSlice("catalogs.wasm"),
	}
}

func getDataConfig(v *viper.Viper) *Data {
	d := &Data{Values: v.GetStringMap("data.values")}
	if v.IsSet("data.sqlite.path") {
		d.SQLite = &SQLite{
			Path:  v.GetString("data.sqlite.path"),
			Table: getStringOrDefault(v, "data.sqlite.table", "parameters"),
		}
	}
	if v.IsSet("data.redis.addr") {
		d.Redis = &Redis{
			Addr:     v.GetString("data.redis.addr"),
			Password: v.GetString("data.redis.password"),
			DB:       v.GetInt("data.redis.db"),
			Prefix:   v.GetString("data.redis.prefix"),
		}
	}
	return d
}

func getLogConfig(v *viper.Viper) *Log {
	return &Log{
		Level:  strings.ToLower(getStringOrDefault(v, "log.level", "info")),
		Format: strings.ToLower(getStringOrDefault(v, "log.format", "text")),
	}
}

// Options converts cfg into evaluator options. The logger, function table
// and data finder are wired by the caller.
func Options(cfg *Config) []evaluator.EvalOption {
	opts := []evaluator.EvalOption{
		evaluator.WithCaching(cfg.Cache.Enabled),
		evaluator.WithCacheCapacity(cfg.Cache.Capacity),
		evaluator.WithCacheShards(cfg.Cache.Shards),
		evaluator.WithTimeout(cfg.Evaluation.Timeout),
		evaluator.WithTolerance(cfg.Evaluation.Tolerance),
		evaluator.WithMaxDepth(cfg.Parser.MaxDepth),
	}
	if cfg.Evaluation.Concurrency > 0 {
		opts = append(opts, evaluator.WithConcurrency(cfg.Evaluation.Concurrency))
	}
	if cfg.Parser.DisableFolding {
		opts = append(opts, evaluator.WithoutFolding())
	}
	return opts
}
