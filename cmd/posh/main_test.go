package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mpetrov/posh/config"
	"github.com/mpetrov/posh/interp"
)

func TestApplyConfigWiresOptionsAndEnv(t *testing.T) {
	it := interp.New(nil)
	cfg := config.DefaultConfig()
	cfg.Options.Errexit = true
	cfg.Options.Pipefail = true
	cfg.Env = map[string]string{"GREETING": "hi"}

	applyConfig(it, cfg)

	if !it.State.Opts.Errexit || !it.State.Opts.Pipefail {
		t.Errorf("Opts = %+v, want errexit/pipefail true", it.State.Opts)
	}
	if got, ok := it.State.Get("GREETING"); !ok || got != "hi" {
		t.Errorf("GREETING = %q, %v, want %q, true", got, ok, "hi")
	}
}

func TestRunSourceExecutesScript(t *testing.T) {
	it := interp.New(nil)
	var buf bytes.Buffer
	it.Stdout = &buf
	it.Stderr = &buf

	if err := runSource(it, "echo hello from posh\n"); err != nil {
		t.Fatalf("runSource: %v", err)
	}
	if strings.TrimRight(buf.String(), "\n") != "hello from posh" {
		t.Errorf("stdout = %q", buf.String())
	}
}

func TestRunSourceParseError(t *testing.T) {
	it := interp.New(nil)
	var buf bytes.Buffer
	it.Stdout = &buf
	it.Stderr = &buf

	if err := runSource(it, "if then\n"); err == nil {
		t.Fatalf("expected a parse error for malformed input")
	}
}
