package interp

import (
	"github.com/mpetrov/posh/ast"
	"github.com/mpetrov/posh/lexer"
	"github.com/mpetrov/posh/parser"
)

// parseSource runs the full lex/parse pipeline over one chunk of shell
// source, the step every command substitution, `eval`, and script-file
// entry point needs (spec.md §2).
func parseSource(src string) (*ast.CommandList, error) {
	res, err := lexer.Scan(src, lexer.Config{})
	if err != nil {
		return nil, err
	}
	return parser.Parse(res)
}
