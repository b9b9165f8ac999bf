package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig("")
	if err != nil {
		t.Fatalf("ParseConfig(\"\"): %v", err)
	}
	if cfg.Options.Errexit || cfg.Options.Nounset {
		t.Errorf("expected all options false by default, got %+v", cfg.Options)
	}
	if cfg.Env == nil {
		t.Errorf("expected Env to default to an empty non-nil map")
	}
}

func TestParseConfigOptionsAndEnv(t *testing.T) {
	data := `
[options]
errexit = true
pipefail = true
nullglob = true

[startup]
rc_file = "~/.poshrc"

[env]
EDITOR = "vi"
LANG = "C"
`
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if !cfg.Options.Errexit || !cfg.Options.Pipefail || !cfg.Options.NullGlob {
		t.Errorf("Options = %+v, want errexit/pipefail/nullglob true", cfg.Options)
	}
	if cfg.Options.Nounset {
		t.Errorf("Nounset should remain false, got true")
	}
	if cfg.Startup.RCFile != "~/.poshrc" {
		t.Errorf("RCFile = %q", cfg.Startup.RCFile)
	}
	if cfg.Env["EDITOR"] != "vi" || cfg.Env["LANG"] != "C" {
		t.Errorf("Env = %+v", cfg.Env)
	}
}

func TestParseConfigInvalidTOML(t *testing.T) {
	if _, err := ParseConfig("this is not valid toml ["); err == nil {
		t.Fatalf("expected error for invalid TOML")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("LoadConfig missing file: err = %v, want wrapping ErrConfigNotFound", err)
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posh.toml")
	data := "[options]\nxtrace = true\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Options.Xtrace {
		t.Errorf("expected Xtrace true")
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}
