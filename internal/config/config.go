// Package config loads datadance settings from defaults, an optional YAML
// file and DATADANCE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DATADANCE_LOG_LEVEL.
const EnvPrefix = "DATADANCE"

// Config is the resolved configuration.
type Config struct {
	Journal   JournalConfig
	Log       LogConfig
	Evaluator EvaluatorConfig
	Server    ServerConfig
}

// JournalConfig locates the run journal. An empty Path disables journaling.
type JournalConfig struct {
	Path string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // text | json
}

// EvaluatorConfig configures the CUE evaluator.
type EvaluatorConfig struct {
	// Prelude is CUE source made visible to every expression.
	Prelude string
}

// ServerConfig configures `datadance serve`.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
		},
	}
}

var keys = []string{
	"journal.path",
	"log.level",
	"log.format",
	"evaluator.prelude",
	"server.addr",
	"server.allowed_origins",
	"server.read_timeout",
	"server.write_timeout",
}

// Load resolves configuration. If path is empty, datadance.yaml is looked up
// in the working directory and a missing file is not an error; an explicit
// path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("datadance")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if v.IsSet("journal.path") {
		cfg.Journal.Path = v.GetString("journal.path")
	}
	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("log.format") {
		cfg.Log.Format = v.GetString("log.format")
	}
	if v.IsSet("evaluator.prelude") {
		cfg.Evaluator.Prelude = v.GetString("evaluator.prelude")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = splitOrigins(v.GetStringSlice("server.allowed_origins"))
	}
	if v.IsSet("server.read_timeout") {
		cfg.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	}
	if v.IsSet("server.write_timeout") {
		cfg.Server.WriteTimeout = v.GetDuration("server.write_timeout")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// splitOrigins flattens comma-separated entries, which is how a list arrives
// from an environment variable.
func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, origin := range strings.Split(entry, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", name, err)
	}
	return level, nil
}
