// Package config loads the plugints.toml project file layered under the
// CLI's flags.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is a decoded plugints.toml. Absent sections keep their zero
// values; explicit CLI flags win over anything set here.
type Config struct {
	Project Project `toml:"project"`
	Resolve Resolve `toml:"resolve"`
	HTTP    HTTP    `toml:"http"`
}

// Project configures source loading and implicit compilation inputs.
type Project struct {
	// Root is the directory identities are fetched from. Defaults to the
	// current directory.
	Root string `toml:"root"`
	// Out is the directory emitted files are written to. Defaults to
	// writing next to each source.
	Out string `toml:"out"`
	// DefaultLib names a declaration unit loaded as an implicit dependency
	// of every unit.
	DefaultLib string `toml:"default_lib"`
	// ResolveAmbientRefs passes bare reference names to the resolver
	// unchanged instead of forcing them relative.
	ResolveAmbientRefs bool `toml:"resolve_ambient_refs"`
}

// Resolve configures specifier resolution.
type Resolve struct {
	// Paths maps specifier prefixes to replacement prefixes, longest
	// prefix first.
	Paths map[string]string `toml:"paths"`
	// Script names a Risor resolver script consulted before the path
	// rules.
	Script string `toml:"script"`
	// SyntheticAssets lists identities registered as placeholder units
	// during whole-program checks.
	SyntheticAssets []string `toml:"synthetic_assets"`
}

// HTTP configures network fetching for URL identities.
type HTTP struct {
	// Enabled routes URL identities to a network fetcher.
	Enabled bool `toml:"enabled"`
	// Cache is the path of a persistent SQLite source cache. Empty
	// disables persistence.
	Cache string `toml:"cache"`
	// LRUSize caps the in-memory source cache. Zero uses the default.
	LRUSize int `toml:"lru_size"`
}

// Load decodes the project file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Project: Project{Root: "."},
	}
}
