// Package printer renders a parsed command tree back to shell source,
// giving the round-trip property spec.md §8 asks for: parse(print(parse(src)))
// reproduces the same tree. Indentation width can be pulled from a project's
// .editorconfig, mirroring cmd/shfmt's own use of mvdan.cc/editorconfig.
package printer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"mvdan.cc/editorconfig"

	"github.com/mpetrov/posh/ast"
)

// Config controls the printer's formatting choices.
type Config struct {
	IndentSize int // 0 means "use tabs"
}

// EditorConfigOptions resolves an indent width the way cmd/shfmt's
// propsOptions does: an editorconfig "indent_style = space" section indents
// with "indent_size" spaces, or 8 when no size is set; any other style
// falls back to tabs (IndentSize == 0).
// Takes the two resolved property strings/ints directly rather than an
// editorconfig.Section, so a caller that already has them some other way
// doesn't need to go through ResolveEditorConfig's file lookup.
func EditorConfigOptions(indentStyle string, indentSize int) Config {
	if indentStyle != "space" {
		return Config{IndentSize: 0}
	}
	if indentSize <= 0 {
		indentSize = 8
	}
	return Config{IndentSize: indentSize}
}

// ecQuery caches discovered .editorconfig files the same way cmd/shfmt's
// package-level ecQuery does, so repeated lookups under one directory tree
// don't re-walk and re-parse the same .editorconfig file.
var ecQuery = editorconfig.Query{
	FileCache:   make(map[string]*editorconfig.File),
	RegexpCache: make(map[string]*regexp.Regexp),
}

// ResolveEditorConfig finds the nearest .editorconfig governing path (if
// any) and resolves it into a Config, the printer's equivalent of
// cmd/shfmt's propsOptions — a missing .editorconfig is not an error, it
// just yields the tab-indent default.
func ResolveEditorConfig(path string) (Config, error) {
	props, err := ecQuery.Find(path, []string{"shell"})
	if err != nil {
		return Config{}, fmt.Errorf("editorconfig lookup for %s: %w", path, err)
	}
	return EditorConfigOptions(props.Get("indent_style"), props.IndentSize()), nil
}

type printer struct {
	cfg   Config
	w     io.Writer
	level int
	err   error
}

// Fprint renders list to w using cfg's indentation.
func Fprint(w io.Writer, list *ast.CommandList, cfg Config) error {
	p := &printer{cfg: cfg, w: w}
	p.commandList(list)
	return p.err
}

func (p *printer) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) indent() {
	if p.cfg.IndentSize == 0 {
		p.write(strings.Repeat("\t", p.level))
		return
	}
	p.write(strings.Repeat(" ", p.cfg.IndentSize*p.level))
}

func (p *printer) commandList(list *ast.CommandList) {
	for i, item := range list.Items {
		if i > 0 {
			p.write("\n")
			p.indent()
		} else {
			p.indent()
		}
		p.andOrList(item.List)
		switch item.Terminator {
		case ast.TermSemicolon:
			// The last item's ';' is left out: a closing "; then", "; do"
			// or "; }" written by the caller already ends the list.
			if i < len(list.Items)-1 {
				p.write(";")
			}
		case ast.TermAmp:
			p.write(" &")
		}
	}
}

func (p *printer) andOrList(l *ast.AndOrList) {
	p.pipeline(l.First)
	for _, e := range l.Rest {
		if e.Op == ast.OpAnd {
			p.write(" && ")
		} else {
			p.write(" || ")
		}
		p.pipeline(e.Item)
	}
}

func (p *printer) pipeline(pl *ast.Pipeline) {
	if pl.Negated {
		p.write("! ")
	}
	for i, st := range pl.Stages {
		if i > 0 {
			p.write(" | ")
		}
		p.command(st.Cmd)
	}
}

func (p *printer) command(cmd ast.Command) {
	switch x := cmd.(type) {
	case *ast.SimpleCommand:
		p.simpleCommand(x)
	case *ast.Subshell:
		p.write("(")
		p.level++
		p.commandList(x.Body)
		p.level--
		p.write(")")
		p.redirects(x.Redirects)
	case *ast.BraceGroup:
		p.write("{ ")
		p.commandList(x.Body)
		p.write("; }")
		p.redirects(x.Redirects)
	case *ast.IfConditional:
		p.write("if ")
		p.commandList(x.Cond)
		p.write("; then\n")
		p.level++
		p.commandList(x.Then)
		p.level--
		for _, elif := range x.Elifs {
			p.write("\n")
			p.indent()
			p.write("elif ")
			p.commandList(elif.Cond)
			p.write("; then\n")
			p.level++
			p.commandList(elif.Body)
			p.level--
		}
		if x.Else != nil {
			p.write("\n")
			p.indent()
			p.write("else\n")
			p.level++
			p.commandList(x.Else)
			p.level--
		}
		p.write("\n")
		p.indent()
		p.write("fi")
	case *ast.WhileLoop:
		kw := "while"
		if x.Until {
			kw = "until"
		}
		p.write(kw + " ")
		p.commandList(x.Cond)
		p.write("; do\n")
		p.level++
		p.commandList(x.Body)
		p.level--
		p.write("\n")
		p.indent()
		p.write("done")
	case *ast.ForLoop:
		p.write("for " + x.Var)
		if x.HasIn {
			p.write(" in ")
			p.wordList(x.Items)
		}
		p.write("; do\n")
		p.level++
		p.commandList(x.Body)
		p.level--
		p.write("\n")
		p.indent()
		p.write("done")
	case *ast.CStyleForLoop:
		fmt.Fprintf(p.w, "for ((%s; %s; %s)); do\n", x.Init, x.Cond, x.Update)
		p.level++
		p.commandList(x.Body)
		p.level--
		p.write("\n")
		p.indent()
		p.write("done")
	case *ast.CaseConditional:
		p.write("case ")
		p.word(x.Subject)
		p.write(" in\n")
		p.level++
		for _, item := range x.Items {
			p.indent()
			for i, pat := range item.Patterns {
				if i > 0 {
					p.write(" | ")
				}
				p.word(pat)
			}
			p.write(")\n")
			p.level++
			p.commandList(item.Body)
			p.level--
			p.write("\n")
			p.indent()
			switch item.Terminator {
			case ast.CaseFallThrough:
				p.write(";&\n")
			case ast.CaseContinue:
				p.write(";;&\n")
			default:
				p.write(";;\n")
			}
		}
		p.level--
		p.indent()
		p.write("esac")
	case *ast.SelectLoop:
		p.write("select " + x.Var + " in ")
		p.wordList(x.Items)
		p.write("; do\n")
		p.level++
		p.commandList(x.Body)
		p.level--
		p.write("\n")
		p.indent()
		p.write("done")
	case *ast.ArithmeticEvaluation:
		fmt.Fprintf(p.w, "((%s))", x.Expr)
	case *ast.FunctionDef:
		fmt.Fprintf(p.w, "%s() ", x.Name)
		p.command(x.Body)
	case *ast.BreakStatement:
		if x.Level > 1 {
			fmt.Fprintf(p.w, "break %d", x.Level)
		} else {
			p.write("break")
		}
	case *ast.ContinueStatement:
		if x.Level > 1 {
			fmt.Fprintf(p.w, "continue %d", x.Level)
		} else {
			p.write("continue")
		}
	}
}

func (p *printer) simpleCommand(sc *ast.SimpleCommand) {
	parts := make([]string, 0, len(sc.Assignments)+len(sc.Argv))
	for _, a := range sc.Assignments {
		parts = append(parts, p.assignmentText(a))
	}
	for _, w := range sc.Argv {
		parts = append(parts, p.wordText(w))
	}
	p.write(strings.Join(parts, " "))
	p.redirects(sc.Redirects)
}

func (p *printer) assignmentText(a *ast.Assignment) string {
	op := "="
	if a.Append {
		op = "+="
	}
	val := ""
	if a.Value != nil {
		val = p.wordText(a.Value)
	}
	return a.Name + op + val
}

func (p *printer) redirects(rs []*ast.Redirection) {
	for _, r := range rs {
		p.write(" ")
		p.redirect(r)
	}
}

func (p *printer) redirect(r *ast.Redirection) {
	if r.HasFd {
		fmt.Fprintf(p.w, "%d", r.Fd)
	}
	switch r.Kind {
	case ast.Input:
		p.write("<")
	case ast.Output:
		p.write(">")
	case ast.Append:
		p.write(">>")
	case ast.HereDoc:
		p.write("<<")
	case ast.HereDocStripped:
		p.write("<<-")
	case ast.HereString:
		p.write("<<<")
	case ast.DupIn:
		p.write("<&")
	case ast.DupOut:
		p.write(">&")
	case ast.CloseIn:
		p.write("<&-")
		return
	case ast.CloseOut:
		p.write(">&-")
		return
	case ast.ReadWrite:
		p.write("<>")
	case ast.NoClobberOverride:
		p.write(">|")
	}
	if r.Target != nil {
		p.write(p.wordText(r.Target))
	}
}

func (p *printer) word(w *ast.Word) { p.write(p.wordText(w)) }

func (p *printer) wordList(ws []*ast.Word) {
	texts := make([]string, len(ws))
	for i, w := range ws {
		texts[i] = p.wordText(w)
	}
	p.write(strings.Join(texts, " "))
}

// wordText reconstructs one Word's surface form from its parts. Quote
// context round-trips through the same marker bytes the lexer embeds in a
// STRING token, so a quoted part re-prints with its original quote marks.
func (p *printer) wordText(w *ast.Word) string {
	var sb strings.Builder
	for _, part := range w.Parts {
		sb.WriteString(partText(part))
	}
	return sb.String()
}

func partText(part ast.WordPart) string {
	switch v := part.(type) {
	case *ast.Literal:
		return quoteWrap(v.Text, v.Quote)
	case *ast.VariableExpansion:
		if v.Subscript != nil {
			return quoteWrap(fmt.Sprintf("${%s[%s]}", v.Name, partsText(v.Subscript.Parts)), v.Quote)
		}
		return quoteWrap("$"+v.Name, v.Quote)
	case *ast.ParameterExpansion:
		return quoteWrap(paramExpansionText(v), v.Quote)
	case *ast.CommandSubstitution:
		if v.Backtick {
			return "`" + v.Source + "`"
		}
		return "$(" + v.Source + ")"
	case *ast.ArithmeticExpansion:
		return "$((" + v.Source + "))"
	case *ast.ProcessSubstitution:
		if v.Direction == ast.ProcIn {
			return "<(" + v.Source + ")"
		}
		return ">(" + v.Source + ")"
	}
	return ""
}

func partsText(parts []ast.WordPart) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(partText(p))
	}
	return sb.String()
}

func quoteWrap(s string, q ast.Quote) string {
	switch q {
	case ast.Single:
		return "'" + s + "'"
	case ast.Double:
		return `"` + s + `"`
	case ast.ANSIC:
		return "$'" + s + "'"
	default:
		return s
	}
}

func paramExpansionText(v *ast.ParameterExpansion) string {
	inner := v.Name
	arg := ""
	if v.Argument != nil {
		arg = partsText(v.Argument.Parts)
	}
	arg2 := ""
	if v.Argument2 != nil {
		arg2 = partsText(v.Argument2.Parts)
	}
	switch v.Op {
	case ast.ParamPlain:
		// handled by VariableExpansion normally; kept for completeness
	case ast.ParamDefault:
		inner += ":-" + arg
	case ast.ParamAssign:
		inner += ":=" + arg
	case ast.ParamError:
		inner += ":?" + arg
	case ast.ParamAlternate:
		inner += ":+" + arg
	case ast.ParamSubstr:
		inner += ":" + arg
		if arg2 != "" {
			inner += ":" + arg2
		}
	case ast.ParamLength:
		inner = "#" + inner
	case ast.ParamRemoveShortPrefix:
		inner += "#" + arg
	case ast.ParamRemoveLongPrefix:
		inner += "##" + arg
	case ast.ParamRemoveShortSuffix:
		inner += "%" + arg
	case ast.ParamRemoveLongSuffix:
		inner += "%%" + arg
	case ast.ParamReplaceOnce:
		inner += "/" + arg + "/" + arg2
	case ast.ParamReplaceAll:
		inner += "//" + arg + "/" + arg2
	case ast.ParamUpper:
		inner += "^^"
	case ast.ParamLower:
		inner += ",,"
	case ast.ParamIndirect:
		inner = "!" + inner
	case ast.ParamPrefixNames:
		inner = "!" + inner + "*"
	case ast.ParamArrayLength:
		inner = "#" + inner + "[@]"
	case ast.ParamArraySlice:
		inner += "[@]:" + arg
		if arg2 != "" {
			inner += ":" + arg2
		}
	}
	return "${" + inner + "}"
}
