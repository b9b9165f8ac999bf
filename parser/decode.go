package parser

import (
	"strings"

	"github.com/mpetrov/posh/ast"
	"github.com/mpetrov/posh/lexer"
	"github.com/mpetrov/posh/token"
)

// decodeText turns the raw text of a WORD fragment or a double-quoted
// STRING run into a WordPart sequence, recognizing every form spec.md §4.3
// requires: bare $name and special parameters, ${...} with its operators,
// and — since the lexer only splits $(...)/`...`/$((...)) out of unquoted
// text, leaving them embedded verbatim inside a double-quoted run — those
// three forms too when they turn up inline. quote is the Quote every part
// produced here is tagged with; decodeText is never called on single- or
// ANSI-C-quoted text, which the parser turns into one Literal verbatim
// (spec.md §3: those two quote kinds never expand).
func decodeText(src string, pos token.Position, quote ast.Quote) ([]ast.WordPart, error) {
	var parts []ast.WordPart
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			parts = append(parts, &ast.Literal{Text: lit.String(), Quote: quote, Pos: pos})
			lit.Reset()
		}
	}

	i := 0
	for i < len(src) {
		b := src[i]
		switch {
		case b == '\\' && i+1 < len(src):
			lit.WriteByte(b)
			lit.WriteByte(src[i+1])
			i += 2
		case b == '`':
			end, err := findBacktickEnd(src, i+1)
			if err != nil {
				return nil, err
			}
			flushLit()
			parts = append(parts, &ast.CommandSubstitution{
				Source: src[i+1 : end-1], Backtick: true, Quote: quote, Pos: pos,
			})
			i = end
		case b == '$' && i+1 < len(src):
			np, nextI, err := decodeDollar(src, i, pos, quote)
			if err != nil {
				return nil, err
			}
			if np == nil {
				lit.WriteByte(b)
				i++
				continue
			}
			flushLit()
			parts = append(parts, np)
			i = nextI
		default:
			lit.WriteByte(b)
			i++
		}
	}
	flushLit()
	if len(parts) == 0 {
		parts = append(parts, &ast.Literal{Text: "", Quote: quote, Pos: pos})
	}
	return parts, nil
}

// decodeDollar decodes the $-form starting at src[i] ('$' itself). It
// returns a nil part (caller treats '$' as a literal byte) when src[i+1]
// isn't the start of any recognized form, which happens at a trailing '$'
// or one followed by a character with no expansion meaning.
func decodeDollar(src string, i int, pos token.Position, quote ast.Quote) (ast.WordPart, int, error) {
	rest := src[i+1:]
	switch {
	case strings.HasPrefix(rest, "(("):
		end, err := balancedFrom(src, i+3, '(', ')', 2)
		if err != nil {
			return nil, 0, err
		}
		return &ast.ArithmeticExpansion{Source: src[i+3 : end-2], Quote: quote, Pos: pos}, end, nil
	case strings.HasPrefix(rest, "("):
		end, err := balancedFrom(src, i+2, '(', ')', 1)
		if err != nil {
			return nil, 0, err
		}
		return &ast.CommandSubstitution{Source: src[i+2 : end-1], Quote: quote, Pos: pos}, end, nil
	case strings.HasPrefix(rest, "{"):
		end, err := balancedFrom(src, i+2, '{', '}', 1)
		if err != nil {
			return nil, 0, err
		}
		inner := src[i+2 : end-1]
		part, err := decodeBraceParam(inner, pos, quote)
		if err != nil {
			return nil, 0, err
		}
		return part, end, nil
	case rest[0] == '@' || rest[0] == '*' || rest[0] == '#' || rest[0] == '?' ||
		rest[0] == '$' || rest[0] == '!' || rest[0] == '-':
		return &ast.VariableExpansion{Name: string(rest[0]), Quote: quote, Pos: pos}, i + 2, nil
	case rest[0] >= '0' && rest[0] <= '9':
		return &ast.VariableExpansion{Name: string(rest[0]), Quote: quote, Pos: pos}, i + 2, nil
	case isNameStart(rest[0]):
		j := 1
		for j < len(rest) && isNameCont(rest[j]) {
			j++
		}
		return &ast.VariableExpansion{Name: rest[:j], Quote: quote, Pos: pos}, i + 1 + j, nil
	default:
		return nil, 0, nil
	}
}

// decodeBraceParam parses the inside of a ${...} (with the braces already
// stripped) into either a plain VariableExpansion or an operator-bearing
// ParameterExpansion (spec.md §3's ParamOp list).
func decodeBraceParam(inner string, pos token.Position, quote ast.Quote) (ast.WordPart, error) {
	if inner == "" {
		return nil, &ParseError{Message: "empty parameter expansion", Position: pos}
	}

	if inner[0] == '#' && inner != "#" {
		name, idx, rest := scanParamName(inner[1:])
		if rest == "" {
			if idx != nil {
				return &ast.ParameterExpansion{Op: ast.ParamArrayLength, Name: name, Index: idx, Quote: quote, Pos: pos}, nil
			}
			return &ast.ParameterExpansion{Op: ast.ParamLength, Name: name, Quote: quote, Pos: pos}, nil
		}
	}

	if inner[0] == '!' && inner != "!" {
		name, idx, rest := scanParamName(inner[1:])
		if rest == "*" || rest == "@" {
			return &ast.ParameterExpansion{Op: ast.ParamPrefixNames, Name: name, Quote: quote, Pos: pos}, nil
		}
		if rest == "" && idx == nil {
			return &ast.ParameterExpansion{Op: ast.ParamIndirect, Name: name, Quote: quote, Pos: pos}, nil
		}
	}

	name, idx, rest := scanParamName(inner)
	if rest == "" {
		return &ast.VariableExpansion{Name: name, Subscript: idx, Quote: quote, Pos: pos}, nil
	}

	mk := func(op ast.ParamOp, arg, arg2 string) (ast.WordPart, error) {
		w1, err := wordFromText(arg, pos, quote)
		if err != nil {
			return nil, err
		}
		var w2 *ast.Word
		if arg2 != "" || op == ast.ParamSubstr || op == ast.ParamReplaceOnce || op == ast.ParamReplaceAll {
			w2, err = wordFromText(arg2, pos, quote)
			if err != nil {
				return nil, err
			}
		}
		return &ast.ParameterExpansion{Op: op, Name: name, Index: idx, Argument: w1, Argument2: w2, Quote: quote, Pos: pos}, nil
	}

	switch {
	case strings.HasPrefix(rest, ":-"):
		return mk(ast.ParamDefault, rest[2:], "")
	case strings.HasPrefix(rest, ":="):
		return mk(ast.ParamAssign, rest[2:], "")
	case strings.HasPrefix(rest, ":?"):
		return mk(ast.ParamError, rest[2:], "")
	case strings.HasPrefix(rest, ":+"):
		return mk(ast.ParamAlternate, rest[2:], "")
	case strings.HasPrefix(rest, "-"):
		return mk(ast.ParamDefault, rest[1:], "")
	case strings.HasPrefix(rest, "="):
		return mk(ast.ParamAssign, rest[1:], "")
	case strings.HasPrefix(rest, "?"):
		return mk(ast.ParamError, rest[1:], "")
	case strings.HasPrefix(rest, "+"):
		return mk(ast.ParamAlternate, rest[1:], "")
	case strings.HasPrefix(rest, ":"):
		off, length, ok := strings.Cut(rest[1:], ":")
		if idx != nil && (name == "@" || name == "*") {
			if ok {
				return mk(ast.ParamArraySlice, off, length)
			}
			return mk(ast.ParamArraySlice, off, "")
		}
		if ok {
			return mk(ast.ParamSubstr, off, length)
		}
		return mk(ast.ParamSubstr, off, "")
	case strings.HasPrefix(rest, "##"):
		return mk(ast.ParamRemoveLongPrefix, rest[2:], "")
	case strings.HasPrefix(rest, "#"):
		return mk(ast.ParamRemoveShortPrefix, rest[1:], "")
	case strings.HasPrefix(rest, "%%"):
		return mk(ast.ParamRemoveLongSuffix, rest[2:], "")
	case strings.HasPrefix(rest, "%"):
		return mk(ast.ParamRemoveShortSuffix, rest[1:], "")
	case strings.HasPrefix(rest, "//"):
		pat, rep, _ := strings.Cut(rest[2:], "/")
		return mk(ast.ParamReplaceAll, pat, rep)
	case strings.HasPrefix(rest, "/"):
		pat, rep, _ := strings.Cut(rest[1:], "/")
		return mk(ast.ParamReplaceOnce, pat, rep)
	case rest == "^^":
		return &ast.ParameterExpansion{Op: ast.ParamUpper, Name: name, Index: idx, Quote: quote, Pos: pos}, nil
	case rest == "^":
		return &ast.ParameterExpansion{Op: ast.ParamUpper, Name: name, Index: idx, Quote: quote, Pos: pos}, nil
	case rest == ",,":
		return &ast.ParameterExpansion{Op: ast.ParamLower, Name: name, Index: idx, Quote: quote, Pos: pos}, nil
	case rest == ",":
		return &ast.ParameterExpansion{Op: ast.ParamLower, Name: name, Index: idx, Quote: quote, Pos: pos}, nil
	default:
		return nil, &ParseError{Message: "unsupported parameter expansion operator: " + rest, Position: pos}
	}
}

// scanParamName splits a ${...} body's leading name (and optional [index])
// away from whatever operator text trails it.
func scanParamName(s string) (name string, idx *ast.Word, rest string) {
	if s == "" {
		return "", nil, ""
	}
	if s[0] == '@' || s[0] == '*' || s[0] == '#' || s[0] == '?' || s[0] == '$' || s[0] == '!' || s[0] == '-' {
		return s[:1], nil, s[1:]
	}
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9') {
		i++
	}
	if i > 0 && (i == len(s) || !isNameCont(s[i])) {
		name = s[:i]
		rest = s[i:]
	} else {
		j := 0
		for j < len(s) && isNameCont(s[j]) {
			j++
		}
		name = s[:j]
		rest = s[j:]
	}
	if strings.HasPrefix(rest, "[") {
		depth := 1
		k := 1
		for k < len(rest) && depth > 0 {
			switch rest[k] {
			case '[':
				depth++
			case ']':
				depth--
			}
			k++
		}
		subSrc := rest[1 : k-1]
		w, err := wordFromText(subSrc, token.Position{}, ast.Unquoted)
		if err == nil {
			idx = w
		}
		rest = rest[k:]
	}
	return name, idx, rest
}

func wordFromText(s string, pos token.Position, quote ast.Quote) (*ast.Word, error) {
	parts, err := decodeText(s, pos, quote)
	if err != nil {
		return nil, err
	}
	return &ast.Word{Parts: parts, Pos: pos}, nil
}

func findBacktickEnd(src string, pos int) (int, error) {
	for pos < len(src) {
		switch src[pos] {
		case '\\':
			pos += 2
		case '`':
			return pos + 1, nil
		default:
			pos++
		}
	}
	return 0, &ParseError{Message: "unterminated command substitution"}
}

// balancedFrom mirrors the lexer's scanBalanced over already-extracted word
// text, which never contains single-quoted runs of its own (those were
// consumed whole by the lexer already) but can still nest double quotes,
// backticks and further $-forms.
func balancedFrom(src string, pos int, open, close byte, depth int) (int, error) {
	r, err := lexer.ScanBalancedForParser(src, pos, open, close, depth)
	if err != nil {
		return 0, &ParseError{Message: err.Error()}
	}
	return r, nil
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameCont(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}
