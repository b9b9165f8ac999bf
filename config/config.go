// Package config loads the shell's own startup configuration from TOML,
// grounded on the same BurntSushi/toml struct-tag + LoadConfig/ParseConfig
// shape used elsewhere in the example corpus for TOML-based tool config.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigRead      = errors.New("failed to read config file")
)

// ShellConfig is the shell's persistent startup configuration: option
// defaults, the rc file location, and environment to seed on launch
// (spec.md §2's invocation surface, supplemented per SPEC_FULL.md §2 to
// give the ambient config layer a concrete home).
type ShellConfig struct {
	Path string `toml:"-"` // path this config was loaded from

	Options OptionsConfig `toml:"options"`
	Startup StartupConfig `toml:"startup"`
	Env     map[string]string `toml:"env"`
}

// OptionsConfig maps directly onto interp.Options; kept as a separate type
// here so config has no import-time dependency on interp (config is loaded
// before an Interp exists).
type OptionsConfig struct {
	Errexit   bool `toml:"errexit"`
	Nounset   bool `toml:"nounset"`
	Pipefail  bool `toml:"pipefail"`
	Xtrace    bool `toml:"xtrace"`
	Noclobber bool `toml:"noclobber"`
	ExtGlob   bool `toml:"extglob"`
	NullGlob  bool `toml:"nullglob"`
	DotGlob   bool `toml:"dotglob"`
}

// StartupConfig names an rc-equivalent init script. The path is parsed and
// stored; the posh driver (cmd/posh) does not read or run it.
type StartupConfig struct {
	RCFile string `toml:"rc_file"`
}

// DefaultConfig returns the configuration a shell with no config file
// present should behave as.
func DefaultConfig() *ShellConfig {
	return &ShellConfig{
		Env: map[string]string{},
	}
}

// LoadConfig reads and parses path, applying defaults for anything the
// file leaves unset.
func LoadConfig(path string) (*ShellConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigRead, path, err)
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// ParseConfig parses a TOML configuration string.
func ParseConfig(data string) (*ShellConfig, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
