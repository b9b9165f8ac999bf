// Package expand implements the shell's word-expansion pipeline: tilde,
// parameter/command/arithmetic substitution, field splitting, filename
// generation, and quote removal, run in that fixed order (spec.md §5).
package expand

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mpetrov/posh/ast"
	"github.com/mpetrov/posh/pattern"
)

// IndexedArray is a sparse array: only assigned indices take space, and
// length()/indices() reflect exactly the defined set (spec.md §3/§8) —
// deliberately not the teacher's dense []string, since a dense backing
// store can't express "index 5 assigned, 0-4 never were" the way real
// bash arrays can.
type IndexedArray struct {
	entries map[int]string
}

func NewIndexedArray() *IndexedArray { return &IndexedArray{entries: map[int]string{}} }

func (a *IndexedArray) Set(i int, v string) { a.entries[i] = v }
func (a *IndexedArray) Get(i int) (string, bool) {
	v, ok := a.entries[i]
	return v, ok
}
func (a *IndexedArray) Unset(i int) { delete(a.entries, i) }

// Indices returns the defined indices in ascending order.
func (a *IndexedArray) Indices() []int {
	out := make([]int, 0, len(a.entries))
	for i := range a.entries {
		out = append(out, i)
	}
	sortInts(out)
	return out
}

func (a *IndexedArray) Length() int { return len(a.entries) }

// Append sets the next index past the current maximum.
func (a *IndexedArray) Append(v string) {
	max := -1
	for i := range a.entries {
		if i > max {
			max = i
		}
	}
	a.entries[max+1] = v
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Vars is the read/write variable store the expander consults. interp's
// ShellState implements it; expand never imports interp, avoiding the
// cyclic dependency every shell interpreter has between "run a command
// substitution" and "expand a command's words" (spec.md §6).
type Vars interface {
	Get(name string) (string, bool)
	GetArray(name string) (*IndexedArray, bool)
	Set(name, value string) error
	IsReadonly(name string) bool
	Positional() []string
	SpecialParam(name string) (string, bool)
	IFS() string
	NounsetEnabled() bool
	NamesWithPrefix(prefix string) []string
	ExtGlobEnabled() bool
	NullGlobEnabled() bool
	DotGlobEnabled() bool
	NoGlobEnabled() bool
}

// CommandRunner executes a command substitution's source in a subshell and
// captures its standard output (spec.md §4.3's `$(...)`/backtick forms;
// implemented by the interp package, not here).
type CommandRunner interface {
	RunCapture(src string) (string, error)
}

// ArithEvaluator evaluates an arithmetic expression for `$((...))`,
// `${arr[expr]}` subscripts, and C-style for-loop clauses.
type ArithEvaluator interface {
	Eval(src string) (int64, error)
}

// UnboundVariableError is raised when `set -u` is active and an expansion
// references a variable that was never assigned (spec.md §7).
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("%s: unbound variable", e.Name)
}

// ReadonlyVariableError is raised by an assignment-form expansion
// (`${v:=word}`) targeting a readonly variable.
type ReadonlyVariableError struct {
	Name string
}

func (e *ReadonlyVariableError) Error() string {
	return fmt.Sprintf("%s: readonly variable", e.Name)
}

// ExpansionError wraps any other expansion-time failure (bad substitution
// syntax, arithmetic error, `${v:?msg}`).
type ExpansionError struct {
	Message string
}

func (e *ExpansionError) Error() string { return e.Message }

// Expander runs the fixed-order expansion pipeline over parsed Words.
type Expander struct {
	Vars  Vars
	Cmd   CommandRunner
	Arith ArithEvaluator
}

// atom is one piece of a word's expanded content before splitting.
// splitBefore/splitAfter force a field break on that side of the atom
// regardless of adjacent content — the shape a quoted "$@" or
// "${arr[@]}" element needs when it sits strictly between two other
// positional elements, while still letting the first element merge with
// a preceding literal and the last merge with a following one (spec.md
// §4.3's affix semantics, §8's `"$@"` field-splitting testable property).
type atom struct {
	text        string
	quoted      bool
	splitBefore bool
	splitAfter  bool
}

// ExpandWord runs the full pipeline for one Word and returns the resulting
// argv fields. isAssignmentRHS suppresses field splitting and globbing,
// the behavior a NAME=value right-hand side gets even though nothing in
// the word's own text marks it as quoted (spec.md §4.3: this flag must be
// threaded explicitly by the caller, never inferred from the lexer's
// ASSIGNMENT_WORD retagging, which exists only for parser bookkeeping).
func (e *Expander) ExpandWord(w *ast.Word, isAssignmentRHS bool) ([]string, error) {
	atoms, err := e.expandParts(w.Parts, true)
	if err != nil {
		return nil, err
	}
	fields := splitAtoms(atoms, e.Vars.IFS(), isAssignmentRHS)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		expanded := f.text
		if f.globbable && !isAssignmentRHS && !e.Vars.NoGlobEnabled() && pattern.HasMeta(expanded) {
			matches, err := pattern.Expand(expanded, e.Vars.NullGlobEnabled(), e.Vars.DotGlobEnabled())
			if err != nil {
				return nil, &ExpansionError{Message: err.Error()}
			}
			// A single match identical to the pattern text means nothing
			// actually matched the filesystem and pattern.Expand returned
			// its no-match fallback verbatim (nullglob off) — that fallback
			// still carries globProtect's escape bytes, unlike a real
			// filesystem match, which is already a literal path.
			if len(matches) == 1 && matches[0] == expanded {
				out = append(out, unescapeGlobProtect(expanded))
				continue
			}
			out = append(out, matches...)
			continue
		}
		out = append(out, unescapeGlobProtect(expanded))
	}
	return out, nil
}

// ExpandWordNoSplit expands w but skips field splitting and globbing
// entirely, quote-removal only — what a heredoc delimiter check, a case
// pattern subject, or a `declare` operand needs.
func (e *Expander) ExpandWordNoSplit(w *ast.Word) (string, error) {
	atoms, err := e.expandParts(w.Parts, true)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, a := range atoms {
		sb.WriteString(a.text)
	}
	return sb.String(), nil
}

func (e *Expander) expandParts(parts []ast.WordPart, wordStart bool) ([]atom, error) {
	var out []atom
	for i, p := range parts {
		as, err := e.expandPart(p, wordStart && i == 0)
		if err != nil {
			return nil, err
		}
		out = append(out, as...)
	}
	return out, nil
}

func (e *Expander) expandPart(p ast.WordPart, atWordStart bool) ([]atom, error) {
	switch v := p.(type) {
	case *ast.Literal:
		text := v.Text
		if v.Quote == ast.Unquoted && atWordStart {
			text = expandTilde(text, e.Vars)
		}
		removed := removeQuotes(text, v.Quote)
		return []atom{{text: removed, quoted: v.Quote != ast.Unquoted}}, nil
	case *ast.VariableExpansion:
		return e.expandVariable(v)
	case *ast.ParameterExpansion:
		return e.expandParameter(v)
	case *ast.CommandSubstitution:
		out, err := e.Cmd.RunCapture(v.Source)
		if err != nil {
			return nil, err
		}
		out = strings.TrimRight(out, "\n")
		return []atom{{text: out, quoted: v.Quote != ast.Unquoted}}, nil
	case *ast.ArithmeticExpansion:
		n, err := e.Arith.Eval(v.Source)
		if err != nil {
			return nil, &ExpansionError{Message: err.Error()}
		}
		return []atom{{text: strconv.FormatInt(n, 10), quoted: v.Quote != ast.Unquoted}}, nil
	case *ast.ProcessSubstitution:
		// A process substitution expands to one empty quoted field; no
		// pipe is opened and no /dev/fd path is produced for it.
		return []atom{{text: "", quoted: true}}, nil
	}
	return nil, &ExpansionError{Message: "unsupported word part"}
}

// expandTilde implements the minimal tilde expansion spec.md §5 asks for:
// a leading bare `~` (or `~/rest`) resolves against $HOME; any `~user`
// form, the current user's name included, is left literal, since that
// requires an NSS/passwd lookup outside this shell's stated scope.
func expandTilde(text string, v Vars) string {
	if !strings.HasPrefix(text, "~") {
		return text
	}
	rest := text[1:]
	cut := strings.IndexByte(rest, '/')
	name, tail := rest, ""
	if cut >= 0 {
		name, tail = rest[:cut], rest[cut:]
	}
	if name != "" {
		return text // ~user: unsupported without passwd lookup, left literal
	}
	home, ok := v.Get("HOME")
	if !ok {
		home = os.Getenv("HOME")
	}
	return home + tail
}

// removeQuotes strips the quote-removal-stage syntax for one literal run:
// backslash escapes outside quotes and inside double quotes collapse to
// the escaped character (double quotes only honor the escape before
// `$ \` " newline`, per POSIX); single- and ANSI-C-quoted text is already
// final and passes through untouched.
func removeQuotes(text string, q ast.Quote) string {
	switch q {
	case ast.Single, ast.ANSIC:
		return text
	case ast.Double:
		var sb strings.Builder
		for i := 0; i < len(text); i++ {
			if text[i] == '\\' && i+1 < len(text) {
				switch text[i+1] {
				case '$', '`', '"', '\\', '\n':
					sb.WriteByte(text[i+1])
					i++
					continue
				}
			}
			sb.WriteByte(text[i])
		}
		return sb.String()
	default:
		var sb strings.Builder
		for i := 0; i < len(text); i++ {
			if text[i] == '\\' && i+1 < len(text) {
				sb.WriteByte(text[i+1])
				i++
				continue
			}
			sb.WriteByte(text[i])
		}
		return sb.String()
	}
}
