// Package parser turns the lexer's token stream and heredoc body map into
// the typed command tree defined by package ast (spec.md §4.2). Unlike the
// teacher's fused lexer+parser, scanning and parsing are two separate
// passes here: the lexer already produced a flat []token.Token plus a
// heredoc-delimiter keyed body map, and Parse below walks that list with an
// ordinary recursive-descent reader.
package parser

import (
	"strconv"

	"github.com/mpetrov/posh/ast"
	"github.com/mpetrov/posh/lexer"
	"github.com/mpetrov/posh/token"
)

// Parser holds the cursor over a finished lexer.Result.
type Parser struct {
	toks     []token.Token
	heredocs map[string]lexer.HeredocBody
	pos      int
}

// Parse consumes a complete lexer.Result and returns the program's top-level
// CommandList.
func Parse(res *lexer.Result) (*ast.CommandList, error) {
	// No production consumes `[`/`]` as brackets (the test command's `[`
	// is an ordinary command name), so they are read as plain words.
	toks := append([]token.Token(nil), res.Tokens...)
	for i := range toks {
		if toks[i].Type == token.LBRACKET || toks[i].Type == token.RBRACKET {
			toks[i].Type = token.WORD
		}
	}
	p := &Parser{toks: toks, heredocs: res.Heredocs}
	list, err := p.parseCommandList(false)
	if err != nil {
		return nil, err
	}
	if p.cur().Type != token.EOF {
		return nil, p.unexpected("end of input")
	}
	return list, nil
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Type: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekType(n int) token.Type {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return token.EOF
	}
	return p.toks[idx].Type
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) at(types ...token.Type) bool {
	c := p.cur().Type
	for _, t := range types {
		if c == t {
			return true
		}
	}
	return false
}

func (p *Parser) expect(t token.Type, want string) (token.Token, error) {
	if p.cur().Type != t {
		return token.Token{}, p.unexpected(want)
	}
	return p.advance(), nil
}

func (p *Parser) skipNewlines() {
	for p.cur().Type == token.NEWLINE {
		p.advance()
	}
}

// isClauseEnd reports whether the current token can't start another
// pipeline in the enclosing CommandList — i.e. parsing should stop here and
// let the caller consume its own closing keyword/token.
func (p *Parser) isClauseEnd(inCompound bool) bool {
	switch p.cur().Type {
	case token.EOF:
		return true
	case token.FI, token.THEN, token.ELIF, token.ELSE, token.DO, token.DONE, token.ESAC, token.RBRACE, token.RPAREN:
		return inCompound
	case token.SEMI_SEMI, token.SEMI_AMP, token.SEMI_SEMI_AMP:
		// Only meaningful inside a case item's body, where they terminate
		// it in place of ';'/newline; parseCase consumes them itself.
		return inCompound
	}
	return false
}

// parseCommandList parses `{ newline } [and-or { term and-or } [term] ]`
// (spec.md §3's CommandList), stopping at a token isClauseEnd recognizes.
func (p *Parser) parseCommandList(inCompound bool) (*ast.CommandList, error) {
	start := p.cur().Position
	list := &ast.CommandList{Position: start}
	p.skipNewlines()
	for !p.isClauseEnd(inCompound) {
		item, err := p.parseAndOr()
		if err != nil {
			return nil, err
		}
		li := ast.ListItem{List: item, Terminator: ast.TermNone}
		switch p.cur().Type {
		case token.SEMICOLON:
			p.advance()
			li.Terminator = ast.TermSemicolon
		case token.AMP:
			p.advance()
			li.Terminator = ast.TermAmp
		case token.NEWLINE:
			li.Terminator = ast.TermNewline
		}
		list.Items = append(list.Items, li)
		p.skipNewlines()
	}
	return list, nil
}

func (p *Parser) parseAndOr() (*ast.AndOrList, error) {
	start := p.cur().Position
	first, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	list := &ast.AndOrList{First: first, Position: start}
	for p.at(token.AND_AND, token.OR_OR) {
		op := ast.OpAnd
		if p.cur().Type == token.OR_OR {
			op = ast.OpOr
		}
		p.advance()
		p.skipNewlines()
		next, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		list.Rest = append(list.Rest, ast.AndOrEntry{Op: op, Item: next})
	}
	return list, nil
}

func (p *Parser) parsePipeline() (*ast.Pipeline, error) {
	start := p.cur().Position
	pl := &ast.Pipeline{Position: start}
	if p.cur().Type == token.BANG {
		p.advance()
		pl.Negated = true
	}
	for {
		stageStart := p.cur().Position
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		pl.Stages = append(pl.Stages, &ast.Stage{Cmd: cmd, Position: stageStart})
		if p.at(token.PIPE, token.PIPE_AMP) {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	// A trailing '&' is consumed by the enclosing CommandList as the list
	// item's terminator (ast.TermAmp), not read here: background-ness is
	// a property of where the pipeline sits in its list, not of the
	// pipeline's own grammar.
	return pl, nil
}

// parseCommand dispatches on the current token to one compound-command form
// or a simple command, then attaches any trailing redirections that follow
// a compound command's closing keyword (spec.md §3).
func (p *Parser) parseCommand() (ast.Command, error) {
	switch p.cur().Type {
	case token.LBRACE:
		return p.parseBraceGroup()
	case token.LPAREN:
		return p.parseSubshell()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile(false)
	case token.UNTIL:
		return p.parseWhile(true)
	case token.FOR:
		return p.parseFor()
	case token.CASE:
		return p.parseCase()
	case token.SELECT:
		return p.parseSelect()
	case token.DOUBLE_LPAREN:
		return p.parseArithEval()
	case token.BREAK:
		return p.parseBreakContinue(true)
	case token.CONTINUE:
		return p.parseBreakContinue(false)
	case token.FUNCTION:
		return p.parseFunctionDefKeyword()
	case token.WORD, token.ASSIGNMENT_WORD, token.STRING, token.COMMAND_SUB,
		token.ARITH_EXPANSION, token.PROCESS_SUB_IN, token.PROCESS_SUB_OUT:
		if p.looksLikeFunctionDef() {
			return p.parseFunctionDefNamed()
		}
		return p.parseSimpleCommand()
	default:
		return nil, p.unexpected("a command")
	}
}

func isWordPartToken(t token.Type) bool {
	switch t {
	case token.WORD, token.STRING, token.COMMAND_SUB, token.ARITH_EXPANSION,
		token.PROCESS_SUB_IN, token.PROCESS_SUB_OUT:
		return true
	}
	return false
}

func isRedirOp(t token.Type) bool {
	switch t {
	case token.LESS, token.GREAT, token.DGREAT, token.DLESS, token.DLESSDASH,
		token.TLESS, token.LESSAND, token.GREATAND, token.LESSGREAT, token.CLOBBER:
		return true
	}
	return false
}

// buildWord glues together every word-part token adjacent to the one
// currently under the cursor into a single ast.Word (spec.md §4.2).
func (p *Parser) buildWord() (*ast.Word, error) {
	first := p.cur()
	if !isWordPartToken(first.Type) && first.Type != token.ASSIGNMENT_WORD {
		return nil, p.unexpected("a word")
	}
	var parts []ast.WordPart
	first = p.advance()
	ps, err := p.tokenToParts(first)
	if err != nil {
		return nil, err
	}
	parts = append(parts, ps...)
	for isWordPartToken(p.cur().Type) && p.cur().AdjacentToPrevious {
		t := p.advance()
		ps, err := p.tokenToParts(t)
		if err != nil {
			return nil, err
		}
		parts = append(parts, ps...)
	}
	return &ast.Word{Parts: parts, Pos: first.Position}, nil
}

func (p *Parser) tokenToParts(t token.Token) ([]ast.WordPart, error) {
	switch t.Type {
	case token.WORD, token.ASSIGNMENT_WORD:
		return decodeText(t.Value, t.Position, ast.Unquoted)
	case token.STRING:
		if t.Value == "" {
			return []ast.WordPart{&ast.Literal{Text: "", Quote: ast.Double, Pos: t.Position}}, nil
		}
		marker, rest := t.Value[0], t.Value[1:]
		switch marker {
		case lexer.MarkerSingle:
			return []ast.WordPart{&ast.Literal{Text: rest, Quote: ast.Single, Pos: t.Position}}, nil
		case lexer.MarkerANSI:
			return []ast.WordPart{&ast.Literal{Text: rest, Quote: ast.ANSIC, Pos: t.Position}}, nil
		default: // lexer.MarkerDouble
			return decodeText(rest, t.Position, ast.Double)
		}
	case token.COMMAND_SUB:
		return []ast.WordPart{&ast.CommandSubstitution{Source: t.Value, Quote: ast.Unquoted, Pos: t.Position}}, nil
	case token.ARITH_EXPANSION:
		return []ast.WordPart{&ast.ArithmeticExpansion{Source: t.Value, Quote: ast.Unquoted, Pos: t.Position}}, nil
	case token.PROCESS_SUB_IN:
		return []ast.WordPart{&ast.ProcessSubstitution{Direction: ast.ProcIn, Source: t.Value, Pos: t.Position}}, nil
	case token.PROCESS_SUB_OUT:
		return []ast.WordPart{&ast.ProcessSubstitution{Direction: ast.ProcOut, Source: t.Value, Pos: t.Position}}, nil
	}
	return nil, p.unexpected("a word")
}

// parseAssignment turns one ASSIGNMENT_WORD token (spelled NAME=value,
// NAME+=value, or NAME[i]=value — the subscript, if any, lives in the raw
// text before '=' and is re-split here) into an *ast.Assignment, consuming
// any further adjacent word-part tokens as the value's continuation.
func (p *Parser) parseAssignment() (*ast.Assignment, error) {
	t, err := p.expect(token.ASSIGNMENT_WORD, "an assignment")
	if err != nil {
		return nil, err
	}
	eq := indexUnescapedEq(t.Value)
	lhs, rhsFirst := t.Value[:eq], t.Value[eq+1:]
	name := lhs
	var idx *ast.Word
	append_ := false
	if len(lhs) > 0 && lhs[len(lhs)-1] == '+' {
		append_ = true
		name = lhs[:len(lhs)-1]
	}
	if br := indexByte(name, '['); br >= 0 && name[len(name)-1] == ']' {
		subSrc := name[br+1 : len(name)-1]
		w, err := wordFromText(subSrc, t.Position, ast.Unquoted)
		if err == nil {
			idx = w
		}
		name = name[:br]
	}

	var valParts []ast.WordPart
	if rhsFirst != "" {
		ps, err := decodeText(rhsFirst, t.Position, ast.Unquoted)
		if err != nil {
			return nil, err
		}
		valParts = append(valParts, ps...)
	}
	for isWordPartToken(p.cur().Type) && p.cur().AdjacentToPrevious {
		nt := p.advance()
		ps, err := p.tokenToParts(nt)
		if err != nil {
			return nil, err
		}
		valParts = append(valParts, ps...)
	}
	var val *ast.Word
	if rhsFirst != "" || len(valParts) > 0 {
		val = &ast.Word{Parts: valParts, Pos: t.Position}
	}
	return &ast.Assignment{Name: name, Index: idx, Append: append_, Value: val, Pos: t.Position}, nil
}

func indexUnescapedEq(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '=' {
			return i
		}
	}
	return -1
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// parseSimpleCommand reads leading assignments, then argv words, then
// redirections, in any interleaving (spec.md §3: redirects and assignments
// may be scattered through a simple command's words).
func (p *Parser) parseSimpleCommand() (*ast.SimpleCommand, error) {
	start := p.cur().Position
	sc := &ast.SimpleCommand{Position: start}
	for {
		switch {
		case p.cur().Type == token.ASSIGNMENT_WORD:
			a, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			sc.Assignments = append(sc.Assignments, a)
		case isRedirOp(p.cur().Type):
			r, err := p.parseRedirect(0, false)
			if err != nil {
				return nil, err
			}
			sc.Redirects = append(sc.Redirects, r)
		case p.cur().Type == token.WORD && isFDRedirPrefix(p.cur()) && isRedirOp(p.peekType(1)):
			fd, _ := strconv.Atoi(p.cur().Value)
			p.advance()
			r, err := p.parseRedirect(fd, true)
			if err != nil {
				return nil, err
			}
			sc.Redirects = append(sc.Redirects, r)
		case isWordPartToken(p.cur().Type):
			w, err := p.buildWord()
			if err != nil {
				return nil, err
			}
			sc.Argv = append(sc.Argv, w)
		default:
			if len(sc.Assignments) == 0 && len(sc.Argv) == 0 && len(sc.Redirects) == 0 {
				return nil, p.unexpected("a command")
			}
			return sc, nil
		}
	}
}

// isFDRedirPrefix reports whether t is a bare all-digit WORD immediately
// followed (no gap) by a redirection operator, the `N<`/`N>` form spec.md
// §4.1 requires the parser — not the lexer — to recognize via adjacency.
func isFDRedirPrefix(t token.Token) bool {
	if t.Type != token.WORD || t.Value == "" {
		return false
	}
	for i := 0; i < len(t.Value); i++ {
		if t.Value[i] < '0' || t.Value[i] > '9' {
			return false
		}
	}
	return true
}

func (p *Parser) parseRedirect(fd int, hasFd bool) (*ast.Redirection, error) {
	opTok := p.advance()
	pos := opTok.Position
	r := &ast.Redirection{Fd: fd, HasFd: hasFd, Pos: pos}
	switch opTok.Type {
	case token.LESS:
		r.Kind = ast.Input
	case token.GREAT:
		r.Kind = ast.Output
	case token.DGREAT:
		r.Kind = ast.Append
	case token.LESSGREAT:
		r.Kind = ast.ReadWrite
	case token.CLOBBER:
		r.Kind = ast.NoClobberOverride
	case token.TLESS:
		r.Kind = ast.HereString
	case token.DLESS, token.DLESSDASH:
		if opTok.Type == token.DLESSDASH {
			r.Kind = ast.HereDocStripped
		} else {
			r.Kind = ast.HereDoc
		}
		delimTok, err := p.expect(token.WORD, "a heredoc delimiter")
		if err != nil {
			return nil, err
		}
		body := p.heredocs[delimTok.Value]
		r.HeredocContent = body.Content
		r.HeredocQuoted = body.Quoted
		return r, nil
	case token.LESSAND:
		r.Kind = ast.DupIn
		return p.finishDupRedirect(r)
	case token.GREATAND:
		r.Kind = ast.DupOut
		return p.finishDupRedirect(r)
	default:
		return nil, p.unexpected("a redirection operator")
	}
	w, err := p.buildWord()
	if err != nil {
		return nil, err
	}
	r.Target = w
	return r, nil
}

// finishDupRedirect handles `N<&M`, `N<&-`, `N>&M`, `N>&-`: a target that's
// either a bare word (dup to fd M, or close on "-") rather than the general
// filename target every other redirection operator takes.
func (p *Parser) finishDupRedirect(r *ast.Redirection) (*ast.Redirection, error) {
	if p.cur().Type == token.WORD && p.cur().Value == "-" {
		p.advance()
		if r.Kind == ast.DupIn {
			r.Kind = ast.CloseIn
		} else {
			r.Kind = ast.CloseOut
		}
		return r, nil
	}
	w, err := p.buildWord()
	if err != nil {
		return nil, err
	}
	r.Target = w
	return r, nil
}

func (p *Parser) parseBraceGroup() (*ast.BraceGroup, error) {
	start, err := p.expect(token.LBRACE, "'{'")
	if err != nil {
		return nil, err
	}
	body, err := p.parseCommandList(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}
	bg := &ast.BraceGroup{Body: body, Position: start.Position}
	if err := p.parseTrailingRedirects(&bg.Redirects); err != nil {
		return nil, err
	}
	return bg, nil
}

func (p *Parser) parseSubshell() (*ast.Subshell, error) {
	start, err := p.expect(token.LPAREN, "'('")
	if err != nil {
		return nil, err
	}
	body, err := p.parseCommandList(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	s := &ast.Subshell{Body: body, Position: start.Position}
	if err := p.parseTrailingRedirects(&s.Redirects); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Parser) parseTrailingRedirects(dst *[]*ast.Redirection) error {
	for {
		switch {
		case isRedirOp(p.cur().Type):
			r, err := p.parseRedirect(0, false)
			if err != nil {
				return err
			}
			*dst = append(*dst, r)
		case p.cur().Type == token.WORD && isFDRedirPrefix(p.cur()) && isRedirOp(p.peekType(1)):
			fd, _ := strconv.Atoi(p.cur().Value)
			p.advance()
			r, err := p.parseRedirect(fd, true)
			if err != nil {
				return err
			}
			*dst = append(*dst, r)
		default:
			return nil
		}
	}
}

func (p *Parser) parseIf() (*ast.IfConditional, error) {
	start, err := p.expect(token.IF, "'if'")
	if err != nil {
		return nil, err
	}
	cond, err := p.parseCommandList(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN, "'then'"); err != nil {
		return nil, err
	}
	then, err := p.parseCommandList(true)
	if err != nil {
		return nil, err
	}
	iff := &ast.IfConditional{Cond: cond, Then: then, Position: start.Position}
	for p.cur().Type == token.ELIF {
		p.advance()
		c, err := p.parseCommandList(true)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.THEN, "'then'"); err != nil {
			return nil, err
		}
		b, err := p.parseCommandList(true)
		if err != nil {
			return nil, err
		}
		iff.Elifs = append(iff.Elifs, ast.Elif{Cond: c, Body: b})
	}
	if p.cur().Type == token.ELSE {
		p.advance()
		e, err := p.parseCommandList(true)
		if err != nil {
			return nil, err
		}
		iff.Else = e
	}
	if _, err := p.expect(token.FI, "'fi'"); err != nil {
		return nil, err
	}
	return iff, nil
}

func (p *Parser) parseWhile(until bool) (*ast.WhileLoop, error) {
	start := p.advance() // WHILE or UNTIL
	cond, err := p.parseCommandList(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DO, "'do'"); err != nil {
		return nil, err
	}
	body, err := p.parseCommandList(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DONE, "'done'"); err != nil {
		return nil, err
	}
	w := &ast.WhileLoop{Cond: cond, Body: body, Until: until, Position: start.Position}
	if err := p.parseTrailingRedirects(&w.Redirects); err != nil {
		return nil, err
	}
	return w, nil
}

func (p *Parser) parseFor() (ast.Command, error) {
	start, err := p.expect(token.FOR, "'for'")
	if err != nil {
		return nil, err
	}
	if p.cur().Type == token.DOUBLE_LPAREN {
		return p.parseCStyleFor(start.Position)
	}
	nameTok, err := p.expect(token.WORD, "a loop variable name")
	if err != nil {
		return nil, err
	}
	fl := &ast.ForLoop{Var: nameTok.Value, Position: start.Position}
	p.skipNewlines()
	if p.cur().Type == token.IN {
		p.advance()
		fl.HasIn = true
		for isWordPartToken(p.cur().Type) {
			w, err := p.buildWord()
			if err != nil {
				return nil, err
			}
			fl.Items = append(fl.Items, w)
		}
		p.consumeListTerminator()
	} else {
		p.consumeListTerminator()
	}
	if _, err := p.expect(token.DO, "'do'"); err != nil {
		return nil, err
	}
	body, err := p.parseCommandList(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DONE, "'done'"); err != nil {
		return nil, err
	}
	fl.Body = body
	if err := p.parseTrailingRedirects(&fl.Redirects); err != nil {
		return nil, err
	}
	return fl, nil
}

func (p *Parser) parseCStyleFor(pos token.Position) (*ast.CStyleForLoop, error) {
	if _, err := p.expect(token.DOUBLE_LPAREN, "'(('"); err != nil {
		return nil, err
	}
	cf := &ast.CStyleForLoop{Position: pos}
	if p.cur().Type == token.ARITH_EXPANSION {
		// lexLparen packs the whole init;cond;update triple into one
		// ARITH_EXPANSION token the same way `((expr))` does.
		full := p.advance().Value
		parts := splitArithClauses(full)
		if len(parts) == 3 {
			cf.Init, cf.Cond, cf.Update = parts[0], parts[1], parts[2]
		}
	}
	if _, err := p.expect(token.DOUBLE_RPAREN, "'))'"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if p.cur().Type == token.SEMICOLON {
		p.advance()
	}
	p.skipNewlines()
	if _, err := p.expect(token.DO, "'do'"); err != nil {
		return nil, err
	}
	body, err := p.parseCommandList(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DONE, "'done'"); err != nil {
		return nil, err
	}
	cf.Body = body
	if err := p.parseTrailingRedirects(&cf.Redirects); err != nil {
		return nil, err
	}
	return cf, nil
}

// splitArithClauses splits a C-style for's packed "init;cond;update" source
// on top-level semicolons (those not inside nested parens).
func splitArithClauses(s string) []string {
	var out []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ';':
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

func (p *Parser) consumeListTerminator() {
	for p.at(token.SEMICOLON, token.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) parseCase() (*ast.CaseConditional, error) {
	start, err := p.expect(token.CASE, "'case'")
	if err != nil {
		return nil, err
	}
	subject, err := p.buildWord()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if _, err := p.expect(token.IN, "'in'"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	cc := &ast.CaseConditional{Subject: subject, Position: start.Position}
	for p.cur().Type != token.ESAC {
		if p.cur().Type == token.LPAREN {
			p.advance()
		}
		item := ast.CaseItem{}
		for {
			pat, err := p.buildWord()
			if err != nil {
				return nil, err
			}
			item.Patterns = append(item.Patterns, pat)
			if p.cur().Type == token.PIPE {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RPAREN, "')'"); err != nil {
			return nil, err
		}
		p.skipNewlines()
		body, err := p.parseCommandList(true)
		if err != nil {
			return nil, err
		}
		item.Body = body
		switch p.cur().Type {
		case token.SEMI_SEMI:
			p.advance()
			item.Terminator = ast.CaseEnd
		case token.SEMI_AMP:
			p.advance()
			item.Terminator = ast.CaseFallThrough
		case token.SEMI_SEMI_AMP:
			p.advance()
			item.Terminator = ast.CaseContinue
		default:
			item.Terminator = ast.CaseEnd
		}
		p.skipNewlines()
		cc.Items = append(cc.Items, item)
	}
	if _, err := p.expect(token.ESAC, "'esac'"); err != nil {
		return nil, err
	}
	return cc, nil
}

func (p *Parser) parseSelect() (*ast.SelectLoop, error) {
	start, err := p.expect(token.SELECT, "'select'")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.WORD, "a loop variable name")
	if err != nil {
		return nil, err
	}
	sl := &ast.SelectLoop{Var: nameTok.Value, Position: start.Position}
	p.skipNewlines()
	if p.cur().Type == token.IN {
		p.advance()
		for isWordPartToken(p.cur().Type) {
			w, err := p.buildWord()
			if err != nil {
				return nil, err
			}
			sl.Items = append(sl.Items, w)
		}
	}
	p.consumeListTerminator()
	if _, err := p.expect(token.DO, "'do'"); err != nil {
		return nil, err
	}
	body, err := p.parseCommandList(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DONE, "'done'"); err != nil {
		return nil, err
	}
	sl.Body = body
	if err := p.parseTrailingRedirects(&sl.Redirects); err != nil {
		return nil, err
	}
	return sl, nil
}

func (p *Parser) parseArithEval() (*ast.ArithmeticEvaluation, error) {
	start, err := p.expect(token.DOUBLE_LPAREN, "'(('")
	if err != nil {
		return nil, err
	}
	expr := ""
	if p.cur().Type == token.ARITH_EXPANSION {
		expr = p.advance().Value
	}
	if _, err := p.expect(token.DOUBLE_RPAREN, "'))'"); err != nil {
		return nil, err
	}
	return &ast.ArithmeticEvaluation{Expr: expr, Position: start.Position}, nil
}

func (p *Parser) parseBreakContinue(isBreak bool) (ast.Command, error) {
	start := p.advance()
	level := 1
	if p.cur().Type == token.WORD {
		if n, err := strconv.Atoi(p.cur().Value); err == nil && n > 0 {
			level = n
			p.advance()
		}
	}
	if isBreak {
		return &ast.BreakStatement{Level: level, Position: start.Position}, nil
	}
	return &ast.ContinueStatement{Level: level, Position: start.Position}, nil
}

// looksLikeFunctionDef reports whether the upcoming tokens spell `name ( )`
// with nothing else between the parens, bash/POSIX's alternate function
// definition syntax (spec.md §4.2 supplemented form; `function name [()]`
// is handled directly off the FUNCTION keyword instead).
func (p *Parser) looksLikeFunctionDef() bool {
	return p.cur().Type == token.WORD &&
		p.peekType(1) == token.LPAREN &&
		p.peekType(2) == token.RPAREN
}

func (p *Parser) parseFunctionDefNamed() (*ast.FunctionDef, error) {
	nameTok := p.advance()
	pos := nameTok.Position
	p.advance() // (
	p.advance() // )
	p.skipNewlines()
	body, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDef{Name: nameTok.Value, Body: body, Position: pos}, nil
}

func (p *Parser) parseFunctionDefKeyword() (*ast.FunctionDef, error) {
	start, err := p.expect(token.FUNCTION, "'function'")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.WORD, "a function name")
	if err != nil {
		return nil, err
	}
	if p.cur().Type == token.LPAREN && p.peekType(1) == token.RPAREN {
		p.advance()
		p.advance()
	}
	p.skipNewlines()
	body, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDef{Name: nameTok.Value, Body: body, Position: start.Position}, nil
}
