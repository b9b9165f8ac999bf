// Package interp executes the parsed command tree: variable and option
// state, redirection, pipelines, job control, and the builtin table
// (spec.md §6/§7/§9).
package interp

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mpetrov/posh/expand"
)

// scope holds one level of variable bindings. ShellState keeps a stack of
// these so `local` inside a function shadows the caller's variables without
// destroying them (spec.md §6: function-local scope).
type scope struct {
	vars     map[string]string
	arrays   map[string]*expand.IndexedArray
	readonly map[string]bool
	exported map[string]bool
}

func newScope() *scope {
	return &scope{
		vars:     map[string]string{},
		arrays:   map[string]*expand.IndexedArray{},
		readonly: map[string]bool{},
		exported: map[string]bool{},
	}
}

// Options is the shell's boolean option set (`set -e`, `shopt -s nullglob`,
// ...), read by the expander through the Vars interface and by the
// executor directly (spec.md §7).
type Options struct {
	Errexit   bool
	Nounset   bool
	Pipefail  bool
	Xtrace    bool
	Noclobber bool
	ExtGlob   bool
	NullGlob  bool
	DotGlob   bool
	NoGlob    bool
	Verbose   bool
	Monitor   bool // job control (`set -m`)
}

// ShellState is the shell's variable/option/function store. It implements
// expand.Vars, so an *expand.Expander reads variables directly from it (the
// Interp is the expander's CommandRunner). Each subshell Interp gets its
// own ShellState; a function call pushes a scope onto the same one.
type ShellState struct {
	scopes    []*scope
	positional []string
	shellName  string // $0
	lastStatus int    // $?
	lastBgPID  int    // $!
	Opts       Options
	Funcs      map[string]*FuncDef
	Traps      map[string]string
	OutFile    *os.File
	ErrFile    *os.File
	InFile     *os.File
	interp     *Interp // back-reference to the owning Interp; New does not set it
}

// FuncDef is a named shell function, carried in interp rather than ast so
// the executor can attach closures (captured trap state, etc.) later
// without reaching back into the parser's types.
type FuncDef struct {
	Name string
	Body interface{} // an ast.Command, stored as interface{} to avoid import cycle in doc comments
}

func NewShellState(args []string) *ShellState {
	s := &ShellState{
		scopes:     []*scope{newScope()},
		shellName:  "posh",
		Funcs:      map[string]*FuncDef{},
		Traps:      map[string]string{},
		OutFile:    os.Stdout,
		ErrFile:    os.Stderr,
		InFile:     os.Stdin,
	}
	if len(args) > 0 { // args[0] is $0, the rest are $1..
		s.shellName = args[0]
		s.positional = args[1:]
	}
	s.top().vars["IFS"] = " \t\n"
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			s.top().vars[kv[:i]] = kv[i+1:]
			s.top().exported[kv[:i]] = true
		}
	}
	return s
}

func (s *ShellState) top() *scope { return s.scopes[len(s.scopes)-1] }

// clone returns an independent copy for a subshell: same bindings, but any
// further Set/Unset in the child never reaches the parent (spec.md §6).
func (s *ShellState) clone() *ShellState {
	c := &ShellState{
		positional: append([]string(nil), s.positional...),
		shellName:  s.shellName,
		lastStatus: s.lastStatus,
		lastBgPID:  s.lastBgPID,
		Opts:       s.Opts,
		Funcs:      map[string]*FuncDef{},
		Traps:      map[string]string{},
		OutFile:    s.OutFile,
		ErrFile:    s.ErrFile,
		InFile:     s.InFile,
	}
	for name, fn := range s.Funcs {
		c.Funcs[name] = fn
	}
	for name, body := range s.Traps {
		c.Traps[name] = body
	}
	for _, sc := range s.scopes {
		ns := newScope()
		for k, v := range sc.vars {
			ns.vars[k] = v
		}
		for k, v := range sc.arrays {
			cp := expand.NewIndexedArray()
			for _, i := range v.Indices() {
				val, _ := v.Get(i)
				cp.Set(i, val)
			}
			ns.arrays[k] = cp
		}
		for k, v := range sc.readonly {
			ns.readonly[k] = v
		}
		for k, v := range sc.exported {
			ns.exported[k] = v
		}
		c.scopes = append(c.scopes, ns)
	}
	return c
}

// PushScope enters a new function-local scope.
func (s *ShellState) PushScope() { s.scopes = append(s.scopes, newScope()) }

// PopScope leaves the innermost function-local scope.
func (s *ShellState) PopScope() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func (s *ShellState) findScope(name string) *scope {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if _, ok := s.scopes[i].vars[name]; ok {
			return s.scopes[i]
		}
		if _, ok := s.scopes[i].arrays[name]; ok {
			return s.scopes[i]
		}
	}
	return nil
}

// Get implements expand.Vars.
func (s *ShellState) Get(name string) (string, bool) {
	if sc := s.findScope(name); sc != nil {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
		if arr, ok := sc.arrays[name]; ok {
			if v, ok := arr.Get(0); ok {
				return v, true
			}
			return "", true
		}
	}
	return "", false
}

// GetArray implements expand.Vars.
func (s *ShellState) GetArray(name string) (*expand.IndexedArray, bool) {
	if sc := s.findScope(name); sc != nil {
		if arr, ok := sc.arrays[name]; ok {
			return arr, true
		}
	}
	return nil, false
}

// Set implements expand.Vars.
func (s *ShellState) Set(name, value string) error {
	if s.IsReadonly(name) {
		return &expand.ReadonlyVariableError{Name: name}
	}
	sc := s.findScope(name)
	if sc == nil {
		sc = s.top()
	}
	sc.vars[name] = value
	return nil
}

// SetLocal assigns name in the innermost scope regardless of any
// same-named variable further up the stack (`local NAME=value`).
func (s *ShellState) SetLocal(name, value string) {
	s.top().vars[name] = value
}

// SetArray replaces the named array in whichever scope already defines it,
// or the innermost scope if this is a fresh array.
func (s *ShellState) SetArray(name string, arr *expand.IndexedArray) {
	sc := s.findScope(name)
	if sc == nil {
		sc = s.top()
	}
	sc.arrays[name] = arr
	delete(sc.vars, name)
}

func (s *ShellState) Unset(name string) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		delete(s.scopes[i].vars, name)
		delete(s.scopes[i].arrays, name)
		delete(s.scopes[i].readonly, name)
		delete(s.scopes[i].exported, name)
	}
}

// IsReadonly implements expand.Vars.
func (s *ShellState) IsReadonly(name string) bool {
	for _, sc := range s.scopes {
		if sc.readonly[name] {
			return true
		}
	}
	return false
}

func (s *ShellState) MarkReadonly(name string) { s.top().readonly[name] = true }

func (s *ShellState) MarkExported(name string) { s.top().exported[name] = true }

func (s *ShellState) IsExported(name string) bool {
	for _, sc := range s.scopes {
		if sc.exported[name] {
			return true
		}
	}
	return false
}

// Positional implements expand.Vars ($1.. via $@/$*).
func (s *ShellState) Positional() []string { return s.positional }

func (s *ShellState) SetPositional(args []string) { s.positional = args }

// SpecialParam implements expand.Vars ($?, $$, $!, $-, $0, $#).
func (s *ShellState) SpecialParam(name string) (string, bool) {
	switch name {
	case "?":
		return fmt.Sprintf("%d", s.lastStatus), true
	case "$":
		return fmt.Sprintf("%d", os.Getpid()), true
	case "!":
		return fmt.Sprintf("%d", s.lastBgPID), true
	case "#":
		return fmt.Sprintf("%d", len(s.positional)), true
	case "0":
		return s.shellName, true
	case "-":
		return s.optionFlags(), true
	}
	return "", false
}

func (s *ShellState) optionFlags() string {
	var sb strings.Builder
	if s.Opts.Errexit {
		sb.WriteByte('e')
	}
	if s.Opts.Nounset {
		sb.WriteByte('u')
	}
	if s.Opts.Xtrace {
		sb.WriteByte('x')
	}
	if s.Opts.Monitor {
		sb.WriteByte('m')
	}
	if s.Opts.Verbose {
		sb.WriteByte('v')
	}
	return sb.String()
}

func (s *ShellState) SetLastStatus(code int) { s.lastStatus = code }
func (s *ShellState) LastStatus() int        { return s.lastStatus }
func (s *ShellState) SetLastBgPID(pid int)   { s.lastBgPID = pid }

// IFS implements expand.Vars.
func (s *ShellState) IFS() string {
	if v, ok := s.Get("IFS"); ok {
		return v
	}
	return " \t\n"
}

func (s *ShellState) NounsetEnabled() bool { return s.Opts.Nounset }
func (s *ShellState) ExtGlobEnabled() bool  { return s.Opts.ExtGlob }
func (s *ShellState) NullGlobEnabled() bool { return s.Opts.NullGlob }
func (s *ShellState) DotGlobEnabled() bool  { return s.Opts.DotGlob }
func (s *ShellState) NoGlobEnabled() bool   { return s.Opts.NoGlob }

// NamesWithPrefix implements expand.Vars (`${!prefix*}`).
func (s *ShellState) NamesWithPrefix(prefix string) []string {
	seen := map[string]bool{}
	for _, sc := range s.scopes {
		for name := range sc.vars {
			if strings.HasPrefix(name, prefix) {
				seen[name] = true
			}
		}
		for name := range sc.arrays {
			if strings.HasPrefix(name, prefix) {
				seen[name] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
