// posh runs shell scripts and one-off commands through the interp package.
// An interactive REPL, line editing, and completion are out of scope
// (spec.md's Non-goals) — posh only drives run_command/run_script_file
// style execution.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mpetrov/posh/config"
	"github.com/mpetrov/posh/interp"
	"github.com/mpetrov/posh/lexer"
	"github.com/mpetrov/posh/parser"
)

var (
	command    = flag.String("c", "", "command to be executed")
	configPath = flag.String("config", "", "path to a TOML config file")
)

func main() {
	os.Exit(main1())
}

// main1 is split out from main so the testscript harness can register posh
// as an in-process subcommand (github.com/rogpeppe/go-internal/testscript's
// RunMain pattern, the same split the teacher's cmd/shfmt uses to testscript
// itself without forking a real binary per test).
func main1() int {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func run() error {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	args := flag.Args()
	it := interp.New(append([]string{"posh"}, args...))
	applyConfig(it, cfg)

	switch {
	case *command != "":
		return runSource(it, *command)
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		it.State.SetPositional(args[1:])
		return runSource(it, string(data))
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		return runSource(it, string(data))
	}
}

func applyConfig(it *interp.Interp, cfg *config.ShellConfig) {
	it.State.Opts.Errexit = cfg.Options.Errexit
	it.State.Opts.Nounset = cfg.Options.Nounset
	it.State.Opts.Pipefail = cfg.Options.Pipefail
	it.State.Opts.Xtrace = cfg.Options.Xtrace
	it.State.Opts.Noclobber = cfg.Options.Noclobber
	it.State.Opts.ExtGlob = cfg.Options.ExtGlob
	it.State.Opts.NullGlob = cfg.Options.NullGlob
	it.State.Opts.DotGlob = cfg.Options.DotGlob
	for k, v := range cfg.Env {
		it.State.Set(k, v)
	}
}

func runSource(it *interp.Interp, src string) error {
	res, err := lexer.Scan(src, lexer.Config{ExtGlob: it.State.Opts.ExtGlob})
	if err != nil {
		return err
	}
	list, err := parser.Parse(res)
	if err != nil {
		return err
	}
	status := it.Run(list)
	if status != 0 {
		os.Exit(status)
	}
	return nil
}
