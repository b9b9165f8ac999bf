package parser

import (
	"fmt"

	"github.com/mpetrov/posh/token"
)

// ParseError is the taxonomy entry for grammar failures (spec.md §7). It
// carries a machine-checkable Position plus a short Suggestion a REPL
// collaborator can surface alongside the message; Suggestion is empty when
// none applies.
type ParseError struct {
	Message    string
	Position   token.Position
	Suggestion string
}

func (e *ParseError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("%s: %s", e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Position, e.Message, e.Suggestion)
}

func (p *Parser) errorf(pos token.Position, suggestion, format string, args ...interface{}) error {
	return &ParseError{Message: fmt.Sprintf(format, args...), Position: pos, Suggestion: suggestion}
}

func (p *Parser) unexpected(want string) error {
	t := p.cur()
	return p.errorf(t.Position, fmt.Sprintf("expected %s", want),
		"unexpected token %s", t.String())
}
