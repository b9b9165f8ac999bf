// Package ast defines the typed command tree produced by the parser
// (spec.md §3) together with the Word value type shared by the parser and
// the expander.
package ast

import "github.com/mpetrov/posh/token"

// Quote records the quoting context a WordPart was written in. It is the
// single invariant the whole expander depends on (spec.md §3): a part
// inside single quotes never expands, a part inside double quotes expands
// but never splits or globs, ANSI-C quoting pre-processes escapes, and an
// unquoted part gets the full treatment.
type Quote int

const (
	Unquoted Quote = iota
	Single
	Double
	ANSIC
)

// WordPart is one element of a Word's part list.
type WordPart interface {
	wordPart()
	Quoting() Quote
}

// Literal is raw text, copied verbatim modulo its quote context.
type Literal struct {
	Text  string
	Quote Quote
	Pos   token.Position
}

func (*Literal) wordPart()        {}
func (l *Literal) Quoting() Quote { return l.Quote }

// VariableExpansion is a bare `$name` or `${name}` reference, optionally
// indexed (`${arr[i]}`).
type VariableExpansion struct {
	Name     string
	Subscript *Word // nil unless indexed
	Quote    Quote
	Pos      token.Position
}

func (*VariableExpansion) wordPart()        {}
func (v *VariableExpansion) Quoting() Quote { return v.Quote }

// ParamOp identifies a `${...}` parameter-expansion operator.
type ParamOp int

const (
	ParamPlain       ParamOp = iota // ${v}
	ParamDefault                    // ${v:-word}
	ParamAssign                     // ${v:=word}
	ParamError                      // ${v:?word}
	ParamAlternate                  // ${v:+word}
	ParamSubstr                     // ${v:offset:length}
	ParamLength                     // ${#v}
	ParamRemoveShortPrefix          // ${v#pattern}
	ParamRemoveLongPrefix           // ${v##pattern}
	ParamRemoveShortSuffix          // ${v%pattern}
	ParamRemoveLongSuffix           // ${v%%pattern}
	ParamReplaceOnce                // ${v/pat/rep}
	ParamReplaceAll                 // ${v//pat/rep}
	ParamUpper                      // ${v^^}
	ParamLower                      // ${v,,}
	ParamIndirect                   // ${!v}
	ParamPrefixNames                // ${!prefix*} / ${!prefix@}
	ParamArrayLength                 // ${#arr[@]} / ${#arr[*]}
	ParamArraySlice                  // ${arr[@]:off:len}
)

// ParameterExpansion is a `${...}` form beyond plain variable reference.
type ParameterExpansion struct {
	Op        ParamOp
	Name      string
	Index     *Word // array subscript, may be "@" or "*" literally
	Argument  *Word // word operand (default, pattern, replacement, ...)
	Argument2 *Word // second operand, used by substr length and replace
	Quote     Quote
	Pos       token.Position
}

func (*ParameterExpansion) wordPart()        {}
func (p *ParameterExpansion) Quoting() Quote { return p.Quote }

// CommandSubstitution is `$(...)` or `` `...` ``; Source is the verbatim
// inner text, re-parsed lazily by the expander (spec.md §4.3).
type CommandSubstitution struct {
	Source   string
	Backtick bool
	Quote    Quote
	Pos      token.Position
}

func (*CommandSubstitution) wordPart()        {}
func (c *CommandSubstitution) Quoting() Quote { return c.Quote }

// ArithmeticExpansion is `$((...))`.
type ArithmeticExpansion struct {
	Source string
	Quote  Quote
	Pos    token.Position
}

func (*ArithmeticExpansion) wordPart()        {}
func (a *ArithmeticExpansion) Quoting() Quote { return a.Quote }

// ProcDirection is the direction of a process substitution.
type ProcDirection int

const (
	ProcIn  ProcDirection = iota // <(cmd)
	ProcOut                      // >(cmd)
)

// ProcessSubstitution is `<(cmd)` or `>(cmd)` (spec.md §9: modeled as a word
// part, the AST-node form, not a pre-pass literal rewrite).
type ProcessSubstitution struct {
	Direction ProcDirection
	Source    string
	Pos       token.Position
}

func (*ProcessSubstitution) wordPart()        {}
func (*ProcessSubstitution) Quoting() Quote   { return Unquoted }

// Word is an ordered sequence of parts; adjacent lexer tokens with no
// intervening whitespace combine into a single Word (spec.md §4.2).
type Word struct {
	Parts []WordPart
	Pos   token.Position
}

// Lit returns the word's text when every part is a Literal, whatever its
// quoting, and ok=false otherwise. Useful for keywords,
// heredoc delimiters, and other places that need a literal string before
// expansion ever runs.
func (w *Word) Lit() (string, bool) {
	var sb []byte
	for _, p := range w.Parts {
		l, ok := p.(*Literal)
		if !ok {
			return "", false
		}
		sb = append(sb, l.Text...)
	}
	return string(sb), true
}
