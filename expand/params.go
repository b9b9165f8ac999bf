package expand

import (
	"strconv"
	"strings"

	"github.com/mpetrov/posh/ast"
	"github.com/mpetrov/posh/pattern"
)

// lookupScalarOrSpecial resolves every name shape a bare $name/${name} can
// take: positional parameters ($1, $2, ...), the eight special parameters
// ($@ $* $# $? $$ $! $- $0), and ordinary shell variables.
func (e *Expander) lookupScalarOrSpecial(name string) (string, bool, error) {
	switch {
	case name == "@" || name == "*":
		return strings.Join(e.Vars.Positional(), " "), true, nil
	case name == "#":
		return strconv.Itoa(len(e.Vars.Positional())), true, nil
	case len(name) == 1 && name[0] >= '0' && name[0] <= '9':
		if name == "0" {
			v, ok := e.Vars.SpecialParam("0")
			return v, ok, nil
		}
		idx, _ := strconv.Atoi(name)
		pos := e.Vars.Positional()
		if idx >= 1 && idx <= len(pos) {
			return pos[idx-1], true, nil
		}
		return "", false, nil
	case name == "?" || name == "$" || name == "!" || name == "-":
		v, ok := e.Vars.SpecialParam(name)
		return v, ok, nil
	default:
		if n, err := strconv.Atoi(name); err == nil {
			pos := e.Vars.Positional()
			if n >= 1 && n <= len(pos) {
				return pos[n-1], true, nil
			}
			return "", false, nil
		}
		v, ok := e.Vars.Get(name)
		return v, ok, nil
	}
}

// expandVariable handles bare `$name`/`${name}` and `${name[i]}`, including
// the "$@"/"${arr[@]}" per-positional field-splitting invariant when the
// reference sits in a double-quoted word (spec.md §8).
func (e *Expander) expandVariable(v *ast.VariableExpansion) ([]atom, error) {
	quotedCtx := v.Quote != ast.Unquoted

	if v.Subscript != nil {
		idxText, err := e.ExpandWordNoSplit(v.Subscript)
		if err != nil {
			return nil, err
		}
		arr, hasArr := e.Vars.GetArray(v.Name)
		if idxText == "@" || idxText == "*" {
			if !hasArr {
				return e.checkUnbound(v.Name, quotedCtx)
			}
			return e.arrayAllAtoms(arr, idxText == "@" && quotedCtx, quotedCtx), nil
		}
		if hasArr {
			n, err := e.Arith.Eval(idxText)
			if err != nil {
				return nil, &ExpansionError{Message: err.Error()}
			}
			val, ok := arr.Get(int(n))
			if !ok {
				return e.checkUnbound(v.Name, quotedCtx)
			}
			return []atom{{text: val, quoted: quotedCtx}}, nil
		}
	}

	if v.Name == "@" || v.Name == "*" {
		return e.arrayLikePositionalAtoms(v.Name == "@" && quotedCtx, quotedCtx), nil
	}

	val, ok, err := e.lookupScalarOrSpecial(v.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return e.checkUnbound(v.Name, quotedCtx)
	}
	return []atom{{text: val, quoted: quotedCtx}}, nil
}

func (e *Expander) checkUnbound(name string, quotedCtx bool) ([]atom, error) {
	if e.Vars.NounsetEnabled() {
		return nil, &UnboundVariableError{Name: name}
	}
	return []atom{{text: "", quoted: quotedCtx}}, nil
}

// arrayLikePositionalAtoms expands bare $@/$* (no braces): unquoted or
// quoted-as-single-field behaves like a normal joined scalar, but quoted
// "$@" must explode into one atom per positional parameter, each its own
// field except that the first and last still merge with adjacent text
// (e.g. "a$@b" with positionals 1 2 gives "a1" "2b", not "a" "1" "2" "b").
func (e *Expander) arrayLikePositionalAtoms(explodePerElement, quoted bool) []atom {
	items := e.Vars.Positional()
	if explodePerElement {
		return explodedPositionalAtoms(items)
	}
	sep := ifsFirstOrSpace(e.Vars.IFS())
	return []atom{{text: strings.Join(items, sep), quoted: quoted}}
}

func (e *Expander) arrayAllAtoms(arr *IndexedArray, explodePerElement, quoted bool) []atom {
	indices := arr.Indices()
	vals := make([]string, len(indices))
	for i, idx := range indices {
		vals[i], _ = arr.Get(idx)
	}
	if explodePerElement {
		return explodedPositionalAtoms(vals)
	}
	sep := ifsFirstOrSpace(e.Vars.IFS())
	return []atom{{text: strings.Join(vals, sep), quoted: quoted}}
}

// explodedPositionalAtoms builds the one-atom-per-element sequence that a
// quoted "$@" or "${arr[@]}" expands to. Interior elements always stand
// alone as their own field, but the first element still merges with any
// preceding literal in the same word and the last still merges with any
// following one — only a lone element merges freely on both sides.
func explodedPositionalAtoms(items []string) []atom {
	out := make([]atom, len(items))
	last := len(items) - 1
	for i, it := range items {
		a := atom{text: it, quoted: true}
		if i != 0 {
			a.splitBefore = true
		}
		if i != last {
			a.splitAfter = true
		}
		out[i] = a
	}
	return out
}

func ifsFirstOrSpace(ifs string) string {
	if ifs == "" {
		return ""
	}
	return string(ifs[0])
}

// expandParameter handles every `${...}` form with an operator (spec.md
// §3's ParamOp list).
func (e *Expander) expandParameter(p *ast.ParameterExpansion) ([]atom, error) {
	quotedCtx := p.Quote != ast.Unquoted

	switch p.Op {
	case ast.ParamLength:
		val, ok, err := e.scalarOrArrayJoined(p.Name, p.Index)
		if err != nil {
			return nil, err
		}
		if !ok {
			if e.Vars.NounsetEnabled() {
				return nil, &UnboundVariableError{Name: p.Name}
			}
			val = ""
		}
		return []atom{{text: strconv.Itoa(len(val)), quoted: quotedCtx}}, nil

	case ast.ParamArrayLength:
		arr, ok := e.Vars.GetArray(p.Name)
		if !ok {
			return []atom{{text: "0", quoted: quotedCtx}}, nil
		}
		return []atom{{text: strconv.Itoa(arr.Length()), quoted: quotedCtx}}, nil

	case ast.ParamIndirect:
		target, ok := e.Vars.Get(p.Name)
		if !ok || target == "" {
			return e.checkUnbound(p.Name, quotedCtx)
		}
		val, ok2, err := e.lookupScalarOrSpecial(target)
		if err != nil {
			return nil, err
		}
		if !ok2 {
			return e.checkUnbound(target, quotedCtx)
		}
		return []atom{{text: val, quoted: quotedCtx}}, nil

	case ast.ParamPrefixNames:
		names := e.Vars.NamesWithPrefix(p.Name)
		return []atom{{text: strings.Join(names, " "), quoted: quotedCtx}}, nil
	}

	val, has, err := e.lookupScalarOrSpecial(p.Name)
	if err != nil {
		return nil, err
	}
	unset := !has

	switch p.Op {
	case ast.ParamDefault:
		if unset || (val == "" && has) {
			return e.expandArg(p.Argument, quotedCtx)
		}
		return []atom{{text: val, quoted: quotedCtx}}, nil

	case ast.ParamAssign:
		if unset || val == "" {
			word, err := e.ExpandWordNoSplit(p.Argument)
			if err != nil {
				return nil, err
			}
			if e.Vars.IsReadonly(p.Name) {
				return nil, &ReadonlyVariableError{Name: p.Name}
			}
			if err := e.Vars.Set(p.Name, word); err != nil {
				return nil, &ExpansionError{Message: err.Error()}
			}
			return []atom{{text: word, quoted: quotedCtx}}, nil
		}
		return []atom{{text: val, quoted: quotedCtx}}, nil

	case ast.ParamError:
		if unset || val == "" {
			msg := p.Name + ": parameter null or not set"
			if p.Argument != nil {
				if m, err := e.ExpandWordNoSplit(p.Argument); err == nil && m != "" {
					msg = p.Name + ": " + m
				}
			}
			return nil, &ExpansionError{Message: msg}
		}
		return []atom{{text: val, quoted: quotedCtx}}, nil

	case ast.ParamAlternate:
		if unset || val == "" {
			return []atom{{text: "", quoted: quotedCtx}}, nil
		}
		return e.expandArg(p.Argument, quotedCtx)

	case ast.ParamSubstr, ast.ParamArraySlice:
		return e.expandSubstr(p, val, quotedCtx)

	case ast.ParamRemoveShortPrefix, ast.ParamRemoveLongPrefix,
		ast.ParamRemoveShortSuffix, ast.ParamRemoveLongSuffix:
		return e.expandTrim(p, val, quotedCtx)

	case ast.ParamReplaceOnce, ast.ParamReplaceAll:
		return e.expandReplace(p, val, quotedCtx)

	case ast.ParamUpper:
		return []atom{{text: strings.ToUpper(val), quoted: quotedCtx}}, nil

	case ast.ParamLower:
		return []atom{{text: strings.ToLower(val), quoted: quotedCtx}}, nil
	}

	return []atom{{text: val, quoted: quotedCtx}}, nil
}

func (e *Expander) scalarOrArrayJoined(name string, idx *ast.Word) (string, bool, error) {
	if idx != nil {
		idxText, err := e.ExpandWordNoSplit(idx)
		if err != nil {
			return "", false, err
		}
		arr, ok := e.Vars.GetArray(name)
		if !ok {
			return "", false, nil
		}
		if idxText == "@" || idxText == "*" {
			vals := make([]string, 0, arr.Length())
			for _, i := range arr.Indices() {
				v, _ := arr.Get(i)
				vals = append(vals, v)
			}
			return strings.Join(vals, ifsFirstOrSpace(e.Vars.IFS())), true, nil
		}
		n, err := e.Arith.Eval(idxText)
		if err != nil {
			return "", false, err
		}
		v, ok := arr.Get(int(n))
		return v, ok, nil
	}
	if name == "@" || name == "*" {
		return strings.Join(e.Vars.Positional(), " "), true, nil
	}
	return e.lookupScalarOrSpecial(name)
}

func (e *Expander) expandArg(w *ast.Word, quoted bool) ([]atom, error) {
	if w == nil {
		return []atom{{text: "", quoted: quoted}}, nil
	}
	parts, err := e.expandParts(w.Parts, false)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, a := range parts {
		sb.WriteString(a.text)
	}
	return []atom{{text: sb.String(), quoted: quoted}}, nil
}

func (e *Expander) expandSubstr(p *ast.ParameterExpansion, val string, quoted bool) ([]atom, error) {
	offText, err := e.ExpandWordNoSplit(p.Argument)
	if err != nil {
		return nil, err
	}
	off, err := e.Arith.Eval(offText)
	if err != nil {
		return nil, &ExpansionError{Message: err.Error()}
	}
	runes := []rune(val)
	start := int(off)
	if start < 0 {
		start += len(runes)
	}
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := len(runes)
	if p.Argument2 != nil {
		lenText, err := e.ExpandWordNoSplit(p.Argument2)
		if err != nil {
			return nil, err
		}
		n, err := e.Arith.Eval(lenText)
		if err != nil {
			return nil, &ExpansionError{Message: err.Error()}
		}
		if n < 0 {
			end = len(runes) + int(n)
		} else {
			end = start + int(n)
		}
	}
	if end > len(runes) {
		end = len(runes)
	}
	if end < start {
		end = start
	}
	return []atom{{text: string(runes[start:end]), quoted: quoted}}, nil
}

func (e *Expander) expandTrim(p *ast.ParameterExpansion, val string, quoted bool) ([]atom, error) {
	pat, err := e.ExpandWordNoSplit(p.Argument)
	if err != nil {
		return nil, err
	}
	extGlob := e.Vars.ExtGlobEnabled()
	greedy := p.Op == ast.ParamRemoveLongPrefix || p.Op == ast.ParamRemoveLongSuffix
	switch p.Op {
	case ast.ParamRemoveShortPrefix, ast.ParamRemoveLongPrefix:
		m, err := pattern.LongestPrefixMatch(pat, val, extGlob, greedy)
		if err != nil {
			return nil, &ExpansionError{Message: err.Error()}
		}
		return []atom{{text: strings.TrimPrefix(val, m), quoted: quoted}}, nil
	default:
		m, err := pattern.LongestSuffixMatch(pat, val, extGlob, greedy)
		if err != nil {
			return nil, &ExpansionError{Message: err.Error()}
		}
		return []atom{{text: strings.TrimSuffix(val, m), quoted: quoted}}, nil
	}
}

func (e *Expander) expandReplace(p *ast.ParameterExpansion, val string, quoted bool) ([]atom, error) {
	pat, err := e.ExpandWordNoSplit(p.Argument)
	if err != nil {
		return nil, err
	}
	rep := ""
	if p.Argument2 != nil {
		rep, err = e.ExpandWordNoSplit(p.Argument2)
		if err != nil {
			return nil, err
		}
	}
	m, err := pattern.Compile(pat, e.Vars.ExtGlobEnabled())
	if err != nil {
		return nil, &ExpansionError{Message: err.Error()}
	}
	out := replaceMatches(val, m, rep, p.Op == ast.ParamReplaceAll)
	return []atom{{text: out, quoted: quoted}}, nil
}

// replaceMatches performs the literal substring scan ${v/pat/rep} needs;
// pattern.Matcher only tests whole-string matches, so this tries every
// substring start position for the longest anchored match there, which is
// correct for the literal (non-glob) patterns the common case uses and a
// reasonable approximation for glob patterns (spec.md §3: exact POSIX
// longest-match-at-every-position semantics are not attempted here).
func replaceMatches(s string, m *pattern.Matcher, rep string, all bool) string {
	var out strings.Builder
	i := 0
	for i <= len(s) {
		matched := false
		for end := len(s); end >= i; end-- {
			if m.Match(s[i:end]) && end > i {
				out.WriteString(rep)
				i = end
				matched = true
				break
			}
		}
		if !matched {
			if i < len(s) {
				out.WriteByte(s[i])
			}
			i++
			continue
		}
		if !all {
			out.WriteString(s[i:])
			return out.String()
		}
	}
	return out.String()
}
