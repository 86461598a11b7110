// Package config loads the crucible tool configuration from crucible.yaml,
// CRUCIBLE_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"crucible/options"
)

const (
	configFileName = "crucible"
	configFileType = "yaml"
	envPrefix      = "CRUCIBLE"

	KeyDialect   = "dialect"
	KeyDSN       = "dsn"
	KeyOutputDir = "output_dir"
	KeyPackage   = "package"
	KeyCoercions = "coercions"
	KeyLogLevel  = "log_level"
	KeyManifest  = "manifest"
)

// Config is the resolved tool configuration.
type Config struct {
	Dialect   string   `mapstructure:"dialect"`
	DSN       string   `mapstructure:"dsn"`
	OutputDir string   `mapstructure:"output_dir"`
	Package   string   `mapstructure:"package"`
	Coercions []string `mapstructure:"coercions"`
	LogLevel  string   `mapstructure:"log_level"`
	Manifest  string   `mapstructure:"manifest"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Dialect:   "sqlite",
		DSN:       "crucible.db",
		OutputDir: "./records",
		Package:   "records",
		LogLevel:  "info",
		Manifest:  "crucible.lock.yaml",
	}
}

// New returns a viper instance carrying the defaults and reading
// CRUCIBLE_* environment variables.
func New() *viper.Viper {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyDialect, d.Dialect)
	v.SetDefault(KeyDSN, d.DSN)
	v.SetDefault(KeyOutputDir, d.OutputDir)
	v.SetDefault(KeyPackage, d.Package)
	v.SetDefault(KeyCoercions, d.Coercions)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyManifest, d.Manifest)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads file, or crucible.yaml from dir when file is empty, into v and
// decodes the result. A missing crucible.yaml is not an error.
func Load(v *viper.Viper, file, dir string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// env values arrive as one string
	switch {
	case len(cfg.Coercions) == 0:
		cfg.Coercions = nil
	case len(cfg.Coercions) == 1 && strings.Contains(cfg.Coercions[0], ","):
		cfg.Coercions = strings.Split(cfg.Coercions[0], ",")
	}

	return cfg, nil
}

// Categories parses the configured coercion categories.
func (c Config) Categories() (options.CategoryEnum, error) {
	return options.ParseCategories(c.Coercions...)
}

// Level parses the configured log level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}

	return level, nil
}

// Logger builds a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
