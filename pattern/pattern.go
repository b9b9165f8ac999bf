// Package pattern compiles shell glob/extglob expressions — used by case
// patterns, parameter-expansion trimming operators, and filename
// generation — into matchers, following the same translate-to-regexp
// strategy the teacher uses for its own pattern matching.
package pattern

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// ExtGlobKind identifies one of the five bash extglob prefixes.
type ExtGlobKind byte

const (
	ExtAtLeastOne ExtGlobKind = '+' // +(pattern-list)
	ExtZeroOrOne  ExtGlobKind = '?' // ?(pattern-list)
	ExtZeroOrMore ExtGlobKind = '*' // *(pattern-list)
	ExtExactlyOne ExtGlobKind = '@' // @(pattern-list)
	ExtNegate     ExtGlobKind = '!' // !(pattern-list)
)

func isExtGlobRune(c byte) bool {
	switch ExtGlobKind(c) {
	case ExtAtLeastOne, ExtZeroOrOne, ExtZeroOrMore, ExtExactlyOne, ExtNegate:
		return true
	}
	return false
}

func charClass(s string) (string, error) {
	if !strings.HasPrefix(s, "[[:") {
		return "", nil
	}
	name := s[3:]
	end := strings.Index(name, ":]]")
	if end < 0 {
		return "", fmt.Errorf("pattern: [[: not matched with closing :]]")
	}
	name = name[:end]
	switch name {
	case "alnum", "alpha", "ascii", "blank", "cntrl", "digit", "graph",
		"lower", "print", "punct", "space", "upper", "word", "xdigit":
	default:
		return "", fmt.Errorf("pattern: invalid character class %q", name)
	}
	return s[:len(name)+6], nil
}

// Translate turns a shell glob (with extglob support when extGlob is true)
// into an equivalent RE2 regular expression source, anchored so Compile
// matches the whole subject the way case patterns and ${v#pattern} need.
func Translate(pat string, extGlob bool) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("^")
	if err := translateInto(&buf, pat, extGlob); err != nil {
		return "", err
	}
	buf.WriteString("$")
	return buf.String(), nil
}

func translateInto(buf *bytes.Buffer, pat string, extGlob bool) error {
	for i := 0; i < len(pat); i++ {
		c := pat[i]
		switch {
		case c == '*':
			buf.WriteString(".*")
		case c == '?':
			buf.WriteString(".")
		case c == '\\' && i+1 < len(pat):
			buf.WriteString(regexp.QuoteMeta(string(pat[i+1])))
			i++
		case c == '[':
			name, err := charClass(pat[i:])
			if err != nil {
				return err
			}
			if name != "" {
				buf.WriteString(name)
				i += len(name) - 1
				continue
			}
			end, err := writeBracket(buf, pat, i)
			if err != nil {
				return err
			}
			i = end
		case extGlob && isExtGlobRune(c) && i+1 < len(pat) && pat[i+1] == '(':
			end, err := writeExtGlob(buf, pat, i, extGlob)
			if err != nil {
				return err
			}
			i = end
		default:
			buf.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return nil
}

func writeBracket(buf *bytes.Buffer, pat string, i int) (int, error) {
	buf.WriteByte('[')
	i++
	if i >= len(pat) {
		return 0, fmt.Errorf("pattern: [ not matched with closing ]")
	}
	c := pat[i]
	if c == '!' {
		c = '^'
	}
	buf.WriteByte(c)
	for {
		i++
		if i >= len(pat) {
			return 0, fmt.Errorf("pattern: [ not matched with closing ]")
		}
		c = pat[i]
		buf.WriteByte(c)
		if c == ']' {
			return i, nil
		}
	}
}

// writeExtGlob translates one of bash's `+(...)`, `?(...)`, `*(...)`,
// `@(...)`, `!(...)` forms, splitting its pattern-list on top-level '|'.
func writeExtGlob(buf *bytes.Buffer, pat string, i int, extGlob bool) (int, error) {
	kind := ExtGlobKind(pat[i])
	depth := 1
	j := i + 2
	start := j
	var alts []string
	for j < len(pat) && depth > 0 {
		switch pat[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				alts = append(alts, pat[start:j])
			}
		case '|':
			if depth == 1 {
				alts = append(alts, pat[start:j])
				start = j + 1
			}
		}
		j++
	}
	if depth != 0 {
		return 0, fmt.Errorf("pattern: extglob %c( not matched with closing )", kind)
	}
	var group bytes.Buffer
	group.WriteString("(?:")
	for k, alt := range alts {
		if k > 0 {
			group.WriteString("|")
		}
		if err := translateInto(&group, alt, extGlob); err != nil {
			return 0, err
		}
	}
	group.WriteString(")")
	switch kind {
	case ExtAtLeastOne:
		buf.WriteString(group.String() + "+")
	case ExtZeroOrOne:
		buf.WriteString(group.String() + "?")
	case ExtZeroOrMore:
		buf.WriteString(group.String() + "*")
	case ExtExactlyOne:
		buf.WriteString(group.String())
	case ExtNegate:
		// RE2 has no general negative match, so !(...) is written as
		// ".*": it matches any string, the listed alternatives included
		// (full negative lookahead would need a backtracking engine the
		// stdlib doesn't provide).
		buf.WriteString(".*")
	}
	return j - 1, nil
}

// Matcher is a compiled glob ready to test candidate strings.
type Matcher struct {
	re *regexp.Regexp
}

// Compile translates and compiles pat.
func Compile(pat string, extGlob bool) (*Matcher, error) {
	src, err := Translate(pat, extGlob)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	return &Matcher{re: re}, nil
}

// Match reports whether s matches the compiled pattern in full.
func (m *Matcher) Match(s string) bool { return m.re.MatchString(s) }

// LongestPrefixMatch returns the longest leading substring of s that the
// pattern (anchored only at the front) matches — the primitive
// ${v##pattern} and ${v#pattern} are both built from, differing only in
// greediness (spec.md §3's ParamRemoveLongPrefix vs ParamRemoveShortPrefix).
func LongestPrefixMatch(pat, s string, extGlob, greedy bool) (string, error) {
	src, err := Translate(pat, extGlob)
	if err != nil {
		return "", err
	}
	anchored := "^" + strings.TrimSuffix(strings.TrimPrefix(src, "^"), "$")
	if !greedy {
		anchored = makeLazy(anchored)
	}
	re, err := regexp.Compile(anchored)
	if err != nil {
		return "", fmt.Errorf("pattern: %w", err)
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return "", nil
	}
	return s[:loc[1]], nil
}

// LongestSuffixMatch mirrors LongestPrefixMatch for ${v%pattern}/${v%%pattern}.
func LongestSuffixMatch(pat, s string, extGlob, greedy bool) (string, error) {
	best := ""
	for i := 0; i <= len(s); i++ {
		src, err := Translate(pat, extGlob)
		if err != nil {
			return "", err
		}
		anchored := strings.TrimSuffix(src, "$") + "$"
		re, err := regexp.Compile(anchored)
		if err != nil {
			return "", fmt.Errorf("pattern: %w", err)
		}
		if re.MatchString(s[i:]) {
			if greedy {
				return s[i:], nil
			}
			best = s[i:] // later starts are shorter: keep the shortest
		}
	}
	return best, nil
}

// makeLazy inserts RE2's non-greedy modifier after every '*' and '+' so a
// short-prefix ('#') match stops at the first candidate instead of the
// last.
func makeLazy(src string) string {
	var buf bytes.Buffer
	for i := 0; i < len(src); i++ {
		buf.WriteByte(src[i])
		if (src[i] == '*' || src[i] == '+') && (i == 0 || src[i-1] != '\\') {
			buf.WriteByte('?')
		}
	}
	return buf.String()
}
