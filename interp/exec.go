package interp

import (
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/mpetrov/posh/ast"
	"github.com/mpetrov/posh/pattern"
)

// execPipeline runs one `a | b | c` chain. Each stage is a fresh subshell
// connected by an os.Pipe; all stages run concurrently via errgroup so a
// slow consumer doesn't deadlock a fast producer's writes (spec.md §6's
// pipeline concurrency model — grounded on the teacher's io.Pipe/goroutine
// pair, generalized past two stages and given proper error propagation).
func (it *Interp) execPipeline(p *ast.Pipeline) ctrl {
	stages := p.Stages
	if len(stages) == 1 {
		c := it.execStage(stages[0], it.Stdin, it.Stdout, it.Stderr)
		it.applyNegation(p.Negated)
		return c
	}

	var g errgroup.Group
	readers := make([]*os.File, len(stages)-1)
	writers := make([]*os.File, len(stages)-1)
	for i := range readers {
		pr, pw, err := os.Pipe()
		if err != nil {
			it.fail("pipe: %v", err)
			it.State.SetLastStatus(1)
			return none()
		}
		readers[i] = pr
		writers[i] = pw
	}

	statuses := make([]int, len(stages))
	ctrls := make([]ctrl, len(stages))

	for i, st := range stages {
		i, st := i, st
		in := it.Stdin
		if i > 0 {
			in = readers[i-1]
		}
		out := io.Writer(it.Stdout)
		var outFile *os.File
		if i < len(stages)-1 {
			outFile = writers[i]
			out = outFile
		}
		g.Go(func() error {
			child := it.sub()
			ctrls[i] = child.execStage(st, in, out, it.Stderr)
			statuses[i] = child.State.LastStatus()
			if i > 0 {
				readers[i-1].Close()
			}
			if outFile != nil {
				outFile.Close()
			}
			return nil
		})
	}
	g.Wait()

	last := statuses[len(statuses)-1]
	if it.State.Opts.Pipefail {
		for _, s := range statuses {
			if s != 0 {
				last = s
			}
		}
	}
	it.State.SetLastStatus(last)
	it.applyNegation(p.Negated)
	for _, c := range ctrls {
		if !c.isNone() {
			return c
		}
	}
	return none()
}

func (it *Interp) applyNegation(negated bool) {
	if !negated {
		return
	}
	if it.State.LastStatus() == 0 {
		it.State.SetLastStatus(1)
	} else {
		it.State.SetLastStatus(0)
	}
}

func (it *Interp) execStage(st *ast.Stage, in *os.File, out io.Writer, errw io.Writer) ctrl {
	it.Stdin, it.Stdout, it.Stderr = in, out, errw
	return it.execCommand(st.Cmd)
}

// execCommand dispatches one Command node to its handler. This is the
// executor's single switch over the AST's command sum type (spec.md §3).
func (it *Interp) execCommand(cmd ast.Command) ctrl {
	switch x := cmd.(type) {
	case *ast.SimpleCommand:
		return it.execSimpleCommand(x)
	case *ast.Subshell:
		closers, err := it.applyRedirects(x.Redirects)
		defer closeAll(closers)
		if err != nil {
			it.State.SetLastStatus(1)
			return none()
		}
		child := it.sub()
		c := child.execCommandList(x.Body)
		it.State.SetLastStatus(child.State.LastStatus())
		return c
	case *ast.BraceGroup:
		closers, err := it.applyRedirects(x.Redirects)
		defer closeAll(closers)
		if err != nil {
			it.State.SetLastStatus(1)
			return none()
		}
		return it.execCommandList(x.Body)
	case *ast.IfConditional:
		return it.execIf(x)
	case *ast.WhileLoop:
		return it.execWhile(x)
	case *ast.ForLoop:
		return it.execFor(x)
	case *ast.CStyleForLoop:
		return it.execCStyleFor(x)
	case *ast.CaseConditional:
		return it.execCase(x)
	case *ast.SelectLoop:
		return it.execSelect(x)
	case *ast.ArithmeticEvaluation:
		n, err := it.Exp.Arith.Eval(x.Expr)
		if err != nil {
			it.fail("%v", err)
			it.State.SetLastStatus(1)
			return none()
		}
		it.State.SetLastStatus(boolToStatus(n == 0))
		return none()
	case *ast.FunctionDef:
		it.State.Funcs[x.Name] = &FuncDef{Name: x.Name, Body: x.Body}
		it.State.SetLastStatus(0)
		return none()
	case *ast.BreakStatement:
		level := x.Level
		if level < 1 {
			level = 1
		}
		return ctrl{kind: signalBreak, level: level}
	case *ast.ContinueStatement:
		level := x.Level
		if level < 1 {
			level = 1
		}
		return ctrl{kind: signalContinue, level: level}
	}
	it.fail("unhandled command node %T", cmd)
	it.State.SetLastStatus(1)
	return none()
}

func boolToStatus(isZero bool) int {
	if isZero {
		return 1
	}
	return 0
}

func (it *Interp) execIf(x *ast.IfConditional) ctrl {
	if c := it.execCondition(x.Cond); !c.isNone() {
		return c
	}
	if it.State.LastStatus() == 0 {
		return it.execCommandList(x.Then)
	}
	for _, elif := range x.Elifs {
		if c := it.execCondition(elif.Cond); !c.isNone() {
			return c
		}
		if it.State.LastStatus() == 0 {
			return it.execCommandList(elif.Body)
		}
	}
	if x.Else != nil {
		return it.execCommandList(x.Else)
	}
	it.State.SetLastStatus(0)
	return none()
}

func (it *Interp) execWhile(x *ast.WhileLoop) ctrl {
	for {
		c := it.execCondition(x.Cond)
		if !c.isNone() {
			return c
		}
		stop := (it.State.LastStatus() == 0) == x.Until
		if stop {
			it.State.SetLastStatus(0)
			return none()
		}
		bc := it.execCommandList(x.Body)
		if handled, prop := bc.consumeLoopLevel(); handled {
			if bc.kind == signalBreak {
				return none()
			}
			continue
		} else if !prop.isNone() {
			return prop
		}
	}
}

func (it *Interp) execFor(x *ast.ForLoop) ctrl {
	items := x.Items
	var values []string
	if x.HasIn {
		for _, w := range items {
			fs, err := it.Exp.ExpandWord(w, false)
			if err != nil {
				it.fail("%v", err)
				it.State.SetLastStatus(1)
				return none()
			}
			values = append(values, fs...)
		}
	} else {
		values = it.State.Positional()
	}
	for _, v := range values {
		it.State.Set(x.Var, v)
		bc := it.execCommandList(x.Body)
		if handled, prop := bc.consumeLoopLevel(); handled {
			if bc.kind == signalBreak {
				return none()
			}
			continue
		} else if !prop.isNone() {
			return prop
		}
	}
	it.State.SetLastStatus(0)
	return none()
}

func (it *Interp) execCStyleFor(x *ast.CStyleForLoop) ctrl {
	if x.Init != "" {
		if _, err := it.Exp.Arith.Eval(x.Init); err != nil {
			it.fail("%v", err)
		}
	}
	for {
		if x.Cond != "" {
			n, err := it.Exp.Arith.Eval(x.Cond)
			if err != nil {
				it.fail("%v", err)
				it.State.SetLastStatus(1)
				return none()
			}
			if n == 0 {
				break
			}
		}
		bc := it.execCommandList(x.Body)
		if handled, prop := bc.consumeLoopLevel(); handled {
			if bc.kind == signalBreak {
				break
			}
		} else if !prop.isNone() {
			return prop
		}
		if x.Update != "" {
			if _, err := it.Exp.Arith.Eval(x.Update); err != nil {
				it.fail("%v", err)
			}
		}
	}
	it.State.SetLastStatus(0)
	return none()
}

func (it *Interp) execCase(x *ast.CaseConditional) ctrl {
	subject, err := it.Exp.ExpandWordNoSplit(x.Subject)
	if err != nil {
		it.fail("%v", err)
		it.State.SetLastStatus(1)
		return none()
	}
	it.State.SetLastStatus(0)
	for idx, item := range x.Items {
		matched := false
		for _, patWord := range item.Patterns {
			patText, err := it.Exp.ExpandWordNoSplit(patWord)
			if err != nil {
				continue
			}
			m, err := pattern.Compile(patText, it.State.Opts.ExtGlob)
			if err == nil && m.Match(subject) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		c := it.execCommandList(item.Body)
		if !c.isNone() {
			return c
		}
		switch item.Terminator {
		case ast.CaseEnd:
			return none()
		case ast.CaseFallThrough:
			if idx+1 < len(x.Items) {
				fc := it.execCommandList(x.Items[idx+1].Body)
				return fc
			}
			return none()
		case ast.CaseContinue:
			continue
		}
	}
	return none()
}

func (it *Interp) execSelect(x *ast.SelectLoop) ctrl {
	var values []string
	for _, w := range x.Items {
		fs, err := it.Exp.ExpandWord(w, false)
		if err != nil {
			it.fail("%v", err)
			it.State.SetLastStatus(1)
			return none()
		}
		values = append(values, fs...)
	}
	for {
		for i, v := range values {
			fmtPrintf(it.Stderr, "%d) %s\n", i+1, v)
		}
		fmtPrintf(it.Stderr, "#? ")
		line, ok := readLine(it.in())
		if !ok {
			it.State.SetLastStatus(0)
			return none()
		}
		idx := atoiOr(line, 0)
		choice := ""
		if idx >= 1 && idx <= len(values) {
			choice = values[idx-1]
		}
		it.State.Set(x.Var, choice)
		it.State.Set("REPLY", line)
		bc := it.execCommandList(x.Body)
		if handled, prop := bc.consumeLoopLevel(); handled {
			if bc.kind == signalBreak {
				return none()
			}
			continue
		} else if !prop.isNone() {
			return prop
		}
	}
}

// execSimpleCommand handles the common case: expand assignments/argv,
// apply redirects, then dispatch to a function, a builtin, or an external
// process, in that lookup order (spec.md §6).
func (it *Interp) execSimpleCommand(x *ast.SimpleCommand) ctrl {
	closers, err := it.applyRedirects(x.Redirects)
	defer closeAll(closers)
	if err != nil {
		it.fail("%v", err)
		it.State.SetLastStatus(1)
		return none()
	}

	if len(x.Argv) == 0 {
		for _, a := range x.Assignments {
			if err := it.execAssignment(a); err != nil {
				it.fail("%v", err)
				it.State.SetLastStatus(1)
				return none()
			}
		}
		it.State.SetLastStatus(0)
		return none()
	}

	cmdName, _ := x.Argv[0].Lit()
	assignBuiltin := assignmentBuiltins[cmdName]

	var argv []string
	for i, w := range x.Argv {
		isRHS := assignBuiltin && i > 0 && isAssignmentOperand(w)
		fs, err := it.Exp.ExpandWord(w, isRHS)
		if err != nil {
			it.fail("%v", err)
			it.State.SetLastStatus(1)
			return none()
		}
		argv = append(argv, fs...)
	}
	if len(argv) == 0 {
		it.State.SetLastStatus(0)
		return none()
	}

	// Prefix assignments (`FOO=bar cmd`) apply only to the child process's
	// environment, not the shell's own variables, unless cmd turns out to
	// be empty (handled above) — spec.md §6.
	envOverrides := map[string]string{}
	for _, a := range x.Assignments {
		val := ""
		if a.Value != nil {
			v, err := it.Exp.ExpandWordNoSplit(a.Value)
			if err != nil {
				it.fail("%v", err)
				it.State.SetLastStatus(1)
				return none()
			}
			val = v
		}
		envOverrides[a.Name] = val
	}

	name := argv[0]
	// `return` unwinds the enclosing function call rather than just
	// setting an exit status like an ordinary builtin — a `return` in the
	// middle of a function body must skip everything after it, which only
	// a propagated ctrl can express (spec.md §9).
	if name == "return" {
		code := it.State.LastStatus()
		if len(argv) > 1 {
			code = atoiOr(argv[1], 0)
		}
		return ctrl{kind: signalReturn, status: code}
	}
	if fn, ok := it.State.Funcs[name]; ok {
		return it.callFunction(fn, argv[1:])
	}
	if isBuiltin(name) {
		status := it.runBuiltin(name, argv[1:])
		it.State.SetLastStatus(status)
		return none()
	}
	status := it.runExternal(argv, envOverrides)
	it.State.SetLastStatus(status)
	return none()
}

func (it *Interp) execAssignment(a *ast.Assignment) error {
	val := ""
	if a.Value != nil {
		v, err := it.Exp.ExpandWordNoSplit(a.Value)
		if err != nil {
			return err
		}
		val = v
	}
	if a.Append {
		cur, _ := it.State.Get(a.Name)
		val = cur + val
	}
	return it.State.Set(a.Name, val)
}

func (it *Interp) callFunction(fn *FuncDef, args []string) ctrl {
	body, ok := fn.Body.(ast.Command)
	if !ok {
		it.State.SetLastStatus(1)
		return none()
	}
	oldPos := it.State.Positional()
	it.State.SetPositional(args)
	it.State.PushScope()
	c := it.execCommand(body)
	it.State.PopScope()
	it.State.SetPositional(oldPos)
	if c.kind == signalReturn {
		it.State.SetLastStatus(c.status)
		return none()
	}
	return c
}

// runExternal execs a resolved-PATH program as a child process, the point
// where this shell hands control to the operating system (spec.md §6: the
// executor is not itself a reimplementation of every program on $PATH).
func (it *Interp) runExternal(argv []string, env map[string]string) int {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		it.fail("%s: command not found", argv[0])
		return 127
	}
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdin = it.Stdin
	cmd.Stdout = it.Stdout
	cmd.Stderr = it.Stderr
	it.attachProcessGroup(cmd)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		it.fail("%v", err)
		return 126
	}
	return 0
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i].Close()
	}
}
