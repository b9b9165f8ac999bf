package interp

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mpetrov/posh/ast"
)

// isBuiltin reports whether name is handled in-process rather than looked
// up on $PATH (spec.md §6's builtin/function/external lookup order).
func isBuiltin(name string) bool {
	switch name {
	case ":", "true", "false", "exit", "set", "shift", "unset",
		"echo", "printf", "pwd", "cd", "wait", "export", "readonly",
		"local", "return", "type", "eval", "source", ".", "test", "[",
		"command", "read", "trap", "jobs", "declare", "shopt":
		return true
	}
	return false
}

// assignmentBuiltins take NAME=value operands that must expand like a
// variable assignment's RHS, not like an ordinary word-split argv entry
// (spec.md §4.3's assignment-word subtlety).
var assignmentBuiltins = map[string]bool{
	"declare":  true,
	"export":   true,
	"local":    true,
	"readonly": true,
}

// isAssignmentOperand reports whether w's leading literal text has the
// shape NAME=... or NAME+=..., the form an assignment builtin's operand
// must take to be treated as a plain unsplit RHS rather than a flag or
// bare name (e.g. `declare -x` or `export NAME`).
func isAssignmentOperand(w *ast.Word) bool {
	if len(w.Parts) == 0 {
		return false
	}
	lit, ok := w.Parts[0].(*ast.Literal)
	if !ok || lit.Quote != ast.Unquoted {
		return false
	}
	text := lit.Text
	i := 0
	if i >= len(text) || !isAssignNameStart(text[i]) {
		return false
	}
	for i < len(text) && isAssignNameCont(text[i]) {
		i++
	}
	if i < len(text) && text[i] == '+' {
		i++
	}
	return i < len(text) && text[i] == '='
}

func isAssignNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isAssignNameCont(b byte) bool {
	return isAssignNameStart(b) || (b >= '0' && b <= '9')
}

// runBuiltin executes one recognized builtin and returns its exit status.
func (it *Interp) runBuiltin(name string, args []string) int {
	switch name {
	case ":", "true":
		return 0
	case "false":
		return 1
	case "exit":
		code := it.State.LastStatus()
		if len(args) > 0 {
			code = atoiOr(args[0], 0)
		}
		os.Exit(code)
		return code
	case "return":
		code := it.State.LastStatus()
		if len(args) > 0 {
			code = atoiOr(args[0], 0)
		}
		return code
	case "echo":
		return it.builtinEcho(args)
	case "printf":
		return it.builtinPrintf(args)
	case "pwd":
		dir, err := os.Getwd()
		if err != nil {
			it.fail("pwd: %v", err)
			return 1
		}
		fmt.Fprintln(it.Stdout, dir)
		return 0
	case "cd":
		return it.builtinCd(args)
	case "set":
		return it.builtinSet(args)
	case "shift":
		return it.builtinShift(args)
	case "unset":
		for _, a := range args {
			it.State.Unset(a)
		}
		return 0
	case "export":
		return it.builtinExport(args)
	case "readonly":
		for _, a := range args {
			name, val, hasVal := splitAssignArg(a)
			if hasVal {
				it.State.Set(name, val)
			}
			it.State.MarkReadonly(name)
		}
		return 0
	case "local":
		for _, a := range args {
			name, val, hasVal := splitAssignArg(a)
			if hasVal {
				it.State.SetLocal(name, val)
			} else if _, ok := it.State.Get(name); !ok {
				it.State.SetLocal(name, "")
			}
		}
		return 0
	case "declare":
		for _, a := range args {
			if strings.HasPrefix(a, "-") {
				continue
			}
			name, val, hasVal := splitAssignArg(a)
			if hasVal {
				it.State.Set(name, val)
			}
		}
		return 0
	case "type":
		return it.builtinType(args)
	case "eval":
		src := strings.Join(args, " ")
		list, err := parseSource(src)
		if err != nil {
			it.fail("eval: %v", err)
			return 1
		}
		it.execCommandList(list)
		return it.State.LastStatus()
	case "source", ".":
		return it.builtinSource(args)
	case "test", "[":
		return it.builtinTest(name, args)
	case "command":
		return it.builtinCommand(args)
	case "read":
		return it.builtinRead(args)
	case "trap":
		return it.builtinTrap(args)
	case "jobs":
		return it.builtinJobs()
	case "wait":
		return it.builtinWait(args)
	case "shopt":
		return it.builtinShopt(args)
	}
	it.fail("%s: not implemented", name)
	return 1
}

func splitAssignArg(a string) (name, val string, hasVal bool) {
	if i := strings.IndexByte(a, '='); i >= 0 {
		return a[:i], a[i+1:], true
	}
	return a, "", false
}

func (it *Interp) builtinEcho(args []string) int {
	noNewline := false
	interpretEscapes := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") && len(args[0]) > 1 {
		switch args[0] {
		case "-n":
			noNewline = true
		case "-e":
			interpretEscapes = true
		case "-E":
			interpretEscapes = false
		default:
			goto done
		}
		args = args[1:]
	}
done:
	out := strings.Join(args, " ")
	if interpretEscapes {
		out = interpretBackslashEscapes(out)
	}
	fmt.Fprint(it.Stdout, out)
	if !noNewline {
		fmt.Fprintln(it.Stdout)
	}
	return 0
}

func interpretBackslashEscapes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte(s[i])
			continue
		}
		i++
	}
	return sb.String()
}

func (it *Interp) builtinPrintf(args []string) int {
	if len(args) == 0 {
		return 1
	}
	format := interpretBackslashEscapes(args[0])
	rest := args[1:]
	out := make([]interface{}, len(rest))
	for i, a := range rest {
		out[i] = a
	}
	fmt.Fprintf(it.Stdout, format, out...)
	return 0
}

func (it *Interp) builtinCd(args []string) int {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	} else if home, ok := it.State.Get("HOME"); ok {
		dir = home
	}
	if err := os.Chdir(dir); err != nil {
		it.fail("cd: %v", err)
		return 1
	}
	wd, _ := os.Getwd()
	it.State.Set("PWD", wd)
	return 0
}

func (it *Interp) builtinSet(args []string) int {
	for _, a := range args {
		switch a {
		case "-e":
			it.State.Opts.Errexit = true
		case "+e":
			it.State.Opts.Errexit = false
		case "-u":
			it.State.Opts.Nounset = true
		case "+u":
			it.State.Opts.Nounset = false
		case "-x":
			it.State.Opts.Xtrace = true
		case "+x":
			it.State.Opts.Xtrace = false
		case "-o":
			// `set -o pipefail` handled as a combined two-token form below
		case "pipefail":
			it.State.Opts.Pipefail = true
		case "-m":
			it.State.Opts.Monitor = true
		case "--":
			// remaining args become positional parameters
		default:
			if !strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "+") {
				it.State.SetPositional(append([]string(nil), args[indexOf(args, a):]...))
				return 0
			}
		}
	}
	return 0
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return 0
}

func (it *Interp) builtinShopt(args []string) int {
	enable := true
	names := args
	if len(args) > 0 && (args[0] == "-s" || args[0] == "-u") {
		enable = args[0] == "-s"
		names = args[1:]
	}
	for _, n := range names {
		switch n {
		case "extglob":
			it.State.Opts.ExtGlob = enable
		case "nullglob":
			it.State.Opts.NullGlob = enable
		case "dotglob":
			it.State.Opts.DotGlob = enable
		case "noglob":
			it.State.Opts.NoGlob = enable
		}
	}
	return 0
}

func (it *Interp) builtinShift(args []string) int {
	n := 1
	if len(args) > 0 {
		n = atoiOr(args[0], 1)
	}
	pos := it.State.Positional()
	if n > len(pos) {
		return 1
	}
	it.State.SetPositional(pos[n:])
	return 0
}

func (it *Interp) builtinExport(args []string) int {
	for _, a := range args {
		name, val, hasVal := splitAssignArg(a)
		if hasVal {
			it.State.Set(name, val)
		}
		it.State.MarkExported(name)
	}
	return 0
}

func (it *Interp) builtinType(args []string) int {
	status := 0
	for _, name := range args {
		switch {
		case it.State.Funcs[name] != nil:
			fmt.Fprintf(it.Stdout, "%s is a function\n", name)
		case isBuiltin(name):
			fmt.Fprintf(it.Stdout, "%s is a shell builtin\n", name)
		default:
			if path, ok := lookPath(name); ok {
				fmt.Fprintf(it.Stdout, "%s is %s\n", name, path)
			} else {
				fmt.Fprintf(it.Stderr, "%s: not found\n", name)
				status = 1
			}
		}
	}
	return status
}

func (it *Interp) builtinSource(args []string) int {
	if len(args) == 0 {
		it.fail("source: filename required")
		return 1
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		it.fail("source: %v", err)
		return 1
	}
	list, err := parseSource(string(data))
	if err != nil {
		it.fail("source: %v", err)
		return 1
	}
	it.execCommandList(list)
	return it.State.LastStatus()
}

func (it *Interp) builtinCommand(args []string) int {
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		args = args[1:]
	}
	if len(args) == 0 {
		return 0
	}
	status := it.runExternal(args, nil)
	return status
}

func (it *Interp) builtinRead(args []string) int {
	raw := false
	var names []string
	for _, a := range args {
		switch a {
		case "-r":
			raw = true
		default:
			names = append(names, a)
		}
	}
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	line, ok := readLine(it.in())
	if !ok {
		return 1
	}
	if !raw {
		line = strings.ReplaceAll(line, "\\", "")
	}
	ifs := it.State.IFS()
	fields := strings.FieldsFunc(line, func(r rune) bool { return strings.ContainsRune(ifs, r) })
	for i, name := range names {
		if i < len(fields) {
			if i == len(names)-1 {
				it.State.Set(name, strings.Join(fields[i:], " "))
			} else {
				it.State.Set(name, fields[i])
			}
		} else {
			it.State.Set(name, "")
		}
	}
	return 0
}

func (it *Interp) builtinTrap(args []string) int {
	if len(args) == 0 {
		names := make([]string, 0, len(it.State.Traps))
		for n := range it.State.Traps {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(it.Stdout, "trap -- %q %s\n", it.State.Traps[n], n)
		}
		return 0
	}
	action := args[0]
	for _, sig := range args[1:] {
		it.State.Traps[sig] = action
	}
	return 0
}

func (it *Interp) builtinJobs() int {
	for _, j := range it.jobs.list() {
		state := "Running"
		if j.done {
			state = "Done"
		}
		fmt.Fprintf(it.Stdout, "[%d]  %s    %s\n", j.id, state, j.cmdStr)
	}
	return 0
}

func (it *Interp) builtinWait(args []string) int {
	status := 0
	for _, j := range it.jobs.list() {
		if len(args) > 0 {
			id, err := strconv.Atoi(strings.TrimPrefix(args[0], "%"))
			if err == nil && id != j.id {
				continue
			}
		}
		status = <-j.wait
		j.wait <- status // allow a second `wait` on the same job to observe it
	}
	return status
}

func lookPath(name string) (string, bool) {
	for _, dir := range strings.Split(os.Getenv("PATH"), ":") {
		if dir == "" {
			continue
		}
		full := dir + "/" + name
		if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
			return full, true
		}
	}
	return "", false
}
