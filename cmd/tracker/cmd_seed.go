package main

import (
	"gopkg.in/yaml.v3"
)

// cmdSeed prints the seed the store would start with, in a form LoadSeed
// reads back.
func (a *app) cmdSeed(args []string) int {
	fs := a.newFlagSet("seed")
	format := fs.String("format", formatJSON, "output format: json or yaml")
	cfg, code, done := a.parse(fs, args)
	if done {
		return code
	}

	seed, err := loadSeed(cfg.Seed)
	if err != nil {
		return a.errorf("seed: %v", err)
	}

	switch *format {
	case formatJSON:
		a.printJSON(seed)
	case "yaml":
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(seed); err != nil {
			return a.errorf("seed: encode yaml: %v", err)
		}
		if err := enc.Close(); err != nil {
			return a.errorf("seed: encode yaml: %v", err)
		}
	default:
		return a.errorf("seed: unknown format %q (want json or yaml)", *format)
	}
	return 0
}
