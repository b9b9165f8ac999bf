package interp

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mpetrov/posh/ast"
	"github.com/mpetrov/posh/expand"
)

// Interp is one shell execution context: a variable/option store plus the
// expander wired around it, and the file descriptors commands inherit.
// A subshell (`(...)`, a pipeline stage, a command substitution) runs in a
// forked *Interp that shares nothing mutable with its parent but the
// initial variable snapshot (spec.md §6).
type Interp struct {
	State *ShellState
	Exp   *expand.Expander

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	jobs   *jobTable
	inBuf  *bufio.Reader
}

// in returns a buffered reader over Stdin, created lazily and reused across
// calls so `read`/`select` never drop bytes consumed past a line boundary.
func (it *Interp) in() *bufio.Reader {
	if it.inBuf == nil {
		it.inBuf = bufio.NewReader(it.Stdin)
	}
	return it.inBuf
}

// New builds a top-level interpreter seeded from the current process
// environment and argv (spec.md §2: the shell's own invocation argv becomes
// $0/$1..).
func New(args []string) *Interp {
	st := NewShellState(args)
	it := &Interp{
		State:  st,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		jobs:   newJobTable(),
	}
	it.Exp = &expand.Expander{
		Vars:  st,
		Cmd:   it,
		Arith: &expand.DefaultArith{Vars: st},
	}
	return it
}

// sub returns a child Interp for a subshell: a fresh ShellState copied from
// the parent's top scope (so later mutation in the child is invisible to
// the parent, the defining property of `(...)`/pipeline-stage isolation),
// sharing the same file descriptors unless the caller redirects them.
func (it *Interp) sub() *Interp {
	child := &Interp{
		State:  it.State.clone(),
		Stdin:  it.Stdin,
		Stdout: it.Stdout,
		Stderr: it.Stderr,
		jobs:   it.jobs,
	}
	child.Exp = &expand.Expander{
		Vars:  child.State,
		Cmd:   child,
		Arith: &expand.DefaultArith{Vars: child.State},
	}
	return child
}

// Run executes a parsed script to completion and returns the process exit
// status (spec.md §9).
func (it *Interp) Run(list *ast.CommandList) int {
	c := it.execCommandList(list)
	if c.kind == signalExit {
		return c.status
	}
	return it.State.LastStatus()
}

// RunCapture implements expand.CommandRunner: lex, parse, and run src in a
// subshell, capturing its stdout (`$(...)`/backtick command substitution).
func (it *Interp) RunCapture(src string) (string, error) {
	list, err := parseSource(src)
	if err != nil {
		return "", err
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return "", err
	}
	child := it.sub()
	child.Stdout = pw

	done := make(chan []byte, 1)
	go func() {
		buf, _ := io.ReadAll(pr)
		done <- buf
	}()

	child.execCommandList(list)
	pw.Close()
	out := <-done
	pr.Close()
	return string(out), nil
}

func (it *Interp) execCommandList(list *ast.CommandList) ctrl {
	return it.execCommandListCtx(list, false)
}

// execCondition runs a command list that serves as an if/while/until test.
// errexit never fires for it (spec.md §4.4: a conditional context's
// failure is the expected, handled outcome, not a script-ending error).
func (it *Interp) execCondition(list *ast.CommandList) ctrl {
	return it.execCommandListCtx(list, true)
}

func (it *Interp) execCommandListCtx(list *ast.CommandList, conditional bool) ctrl {
	var last ctrl
	for _, item := range list.Items {
		if item.List == nil {
			continue
		}
		if item.Terminator == ast.TermAmp {
			it.runBackground(item.List)
			continue
		}
		last = it.execAndOr(item.List, conditional)
		if !last.isNone() {
			return last
		}
	}
	return last
}

func (it *Interp) runBackground(list *ast.AndOrList) {
	child := it.sub()
	j := it.jobs.add(0, "background list")
	go func() {
		child.execAndOr(list, false)
		it.jobs.finish(j, child.State.LastStatus())
	}()
	it.State.SetLastBgPID(os.Getpid())
}

// execAndOr runs one `a && b || c` chain. errexit is only ever considered
// against the lexically last pipeline in the chain that actually ran: a
// pipeline short-circuited out of, or negated with `!`, is exempt even if
// its status was nonzero (spec.md §4.4), and conditional suppresses the
// check entirely for if/while/until test lists.
func (it *Interp) execAndOr(list *ast.AndOrList, conditional bool) ctrl {
	c := it.execPipeline(list.First)
	if !c.isNone() {
		return c
	}
	status := it.State.LastStatus()
	if c := it.checkErrexit(conditional, len(list.Rest) == 0, list.First.Negated); !c.isNone() {
		return c
	}
	for i, entry := range list.Rest {
		shouldRun := (entry.Op == ast.OpAnd) == (status == 0)
		if !shouldRun {
			continue
		}
		c = it.execPipeline(entry.Item)
		if !c.isNone() {
			return c
		}
		status = it.State.LastStatus()
		if c := it.checkErrexit(conditional, i == len(list.Rest)-1, entry.Item.Negated); !c.isNone() {
			return c
		}
	}
	return none()
}

func (it *Interp) checkErrexit(conditional, isLast, negated bool) ctrl {
	if conditional || !isLast || negated {
		return none()
	}
	if it.State.Opts.Errexit && it.State.LastStatus() != 0 {
		return ctrl{kind: signalExit, status: it.State.LastStatus()}
	}
	return none()
}

func (it *Interp) fail(format string, args ...interface{}) {
	fmt.Fprintf(it.Stderr, "posh: "+format+"\n", args...)
}
