package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	flag "github.com/spf13/pflag"

	"github.com/daviddao/tracker/pkg/store"
)

// app holds the streams shared by all subcommands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// errorf prints a prefixed error to stderr and returns exit code 1.
func (a *app) errorf(format string, args ...any) int {
	fmt.Fprintf(a.stderr, "tracker: "+format+"\n", args...)
	return 1
}

// newFlagSet returns a flag set that reports errors on stderr and
// carries the shared config flags.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	addConfigFlags(fs)
	return fs
}

// parse parses args into fs and resolves the config. done reports that the
// command should exit with code, e.g. after --help.
func (a *app) parse(fs *flag.FlagSet, args []string) (cfg config, code int, done bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return config{}, 0, true
		}
		return config{}, 1, true
	}
	cfg, err := resolveConfig(fs)
	if err != nil {
		return config{}, a.errorf("%v", err), true
	}
	return cfg, 0, false
}

// open builds the logger and a freshly seeded store for cfg.
func (a *app) open(cfg config) (store.Tracker, *slog.Logger, error) {
	logger, err := newLogger(cfg, a.stderr)
	if err != nil {
		return nil, nil, err
	}
	seed, err := loadSeed(cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.Backend, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	logger.Debug("store opened",
		"backend", cfg.Backend,
		"users", len(seed.Users),
		"projects", len(seed.Projects),
		"tickets", len(seed.Tickets),
	)
	return st, logger, nil
}

// loadSeed returns the built-in seed, or the one at path if set.
func loadSeed(path string) (store.Seed, error) {
	if path == "" {
		return store.DefaultSeed(), nil
	}
	return store.LoadSeed(path)
}

// printJSON writes v to stdout as indented JSON.
func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
