package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// LoadSeed reads a seed document from path. YAML is used for .yaml and
// .yml files; anything else is parsed as JSON with comments and trailing
// commas allowed. Comment times must carry a zone (RFC 3339).
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return Seed{}, fmt.Errorf("read seed %s: %w", path, err)
	}

	var seed Seed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return Seed{}, fmt.Errorf("parse seed %s: %w", path, err)
		}
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Seed{}, fmt.Errorf("parse seed %s: invalid JSONC: %w", path, err)
		}
		if err := json.Unmarshal(standardized, &seed); err != nil {
			return Seed{}, fmt.Errorf("parse seed %s: %w", path, err)
		}
	}

	if err := seed.Validate(); err != nil {
		return Seed{}, fmt.Errorf("seed %s: %w", path, err)
	}
	return seed, nil
}
