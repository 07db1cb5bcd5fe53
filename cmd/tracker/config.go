package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"

	"github.com/daviddao/tracker/pkg/store"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "http"

	formatText = "text"
	formatJSON = "json"
)

var errConfigInvalid = errors.New("invalid config")

// config holds every setting. Fields map one-to-one onto config file keys,
// TRACKER_* environment variables and flags.
type config struct {
	Transport string `json:"transport,omitempty"`
	Addr      string `json:"addr,omitempty"`
	Path      string `json:"path,omitempty"`
	Backend   string `json:"backend,omitempty"`
	Seed      string `json:"seed,omitempty"`
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`
}

func defaultConfig() config {
	return config{
		Transport: transportStdio,
		Addr:      "127.0.0.1:8080",
		Path:      "/mcp",
		Backend:   store.BackendMemory,
		LogLevel:  "info",
		LogFormat: formatText,
	}
}

// setting pairs a config field with its flag name and environment variable.
type setting struct {
	flag, env string
	dst       *string
}

func (c *config) settings() []setting {
	return []setting{
		{"transport", "TRACKER_TRANSPORT", &c.Transport},
		{"addr", "TRACKER_ADDR", &c.Addr},
		{"path", "TRACKER_PATH", &c.Path},
		{"backend", "TRACKER_BACKEND", &c.Backend},
		{"seed", "TRACKER_SEED", &c.Seed},
		{"log-level", "TRACKER_LOG_LEVEL", &c.LogLevel},
		{"log-format", "TRACKER_LOG_FORMAT", &c.LogFormat},
	}
}

// loadConfig layers defaults, the config file at path (if non-empty) and
// the environment.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	if path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return config{}, err
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	for _, f := range cfg.settings() {
		*f.dst = envOr(f.env, *f.dst)
	}
	return cfg, nil
}

func loadConfigFile(path string) (config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return config{}, fmt.Errorf("%w %s: invalid JSONC: %w", errConfigInvalid, path, err)
	}
	var cfg config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, nil
}

func mergeConfig(base, overlay config) config {
	dst := base.settings()
	for i, f := range overlay.settings() {
		if *f.dst != "" {
			*dst[i].dst = *f.dst
		}
	}
	return base
}

func (c config) validate() error {
	switch c.Transport {
	case transportStdio, transportHTTP:
	default:
		return fmt.Errorf("%w: transport %q (want %s or %s)", errConfigInvalid, c.Transport, transportStdio, transportHTTP)
	}
	switch c.Backend {
	case store.BackendMemory, store.BackendSQLite:
	default:
		return fmt.Errorf("%w: backend %q (want %s or %s)", errConfigInvalid, c.Backend, store.BackendMemory, store.BackendSQLite)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level: %w", errConfigInvalid, err)
	}
	switch c.LogFormat {
	case formatText, formatJSON:
	default:
		return fmt.Errorf("%w: log format %q (want %s or %s)", errConfigInvalid, c.LogFormat, formatText, formatJSON)
	}
	return nil
}

// addConfigFlags registers the flags shared by every subcommand.
func addConfigFlags(fs *flag.FlagSet) {
	def := defaultConfig()
	fs.String("config", "", "JSONC config file (env TRACKER_CONFIG)")
	fs.String("backend", def.Backend, "store backend: memory or sqlite")
	fs.String("seed", "", "seed file (.yaml, .yml, .json, .jsonc)")
	fs.String("log-level", def.LogLevel, "log level: debug, info, warn or error")
	fs.String("log-format", def.LogFormat, "log format: text or json")
}

// addServeFlags registers the transport flags.
func addServeFlags(fs *flag.FlagSet) {
	def := defaultConfig()
	fs.String("transport", def.Transport, "transport: stdio or http")
	fs.String("addr", def.Addr, "HTTP listen address")
	fs.String("path", def.Path, "HTTP endpoint path")
}

// resolveConfig loads the config file and environment, then applies the
// flags the user set explicitly.
func resolveConfig(fs *flag.FlagSet) (config, error) {
	path, _ := fs.GetString("config")
	if path == "" {
		path = envOr("TRACKER_CONFIG", "")
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return config{}, err
	}
	for _, f := range cfg.settings() {
		if fs.Changed(f.flag) {
			*f.dst, _ = fs.GetString(f.flag)
		}
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// newLogger builds the stderr logger described by cfg.
func newLogger(cfg config, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == formatJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
