package expand

import "strings"

// field is one post-split, pre-glob candidate word.
type field struct {
	text      string
	globbable bool // at least one unquoted atom contributed to this field
}

// splitAtoms implements spec.md §5 step 4 (IFS field splitting) over an
// expanded word's atom stream. Quoted atoms never split internally;
// splitBefore/splitAfter force a field break on that side regardless of
// what's adjacent, which is how an exploded `"$@"`/`"${arr[@]}"` atom
// stands alone except at its head/tail, where it still merges with
// neighboring literal text. Unquoted atom text splits on runs of IFS
// bytes, collapsing consecutive separators the way the shell's default
// whitespace IFS does (a non-whitespace custom IFS character that POSIX
// would split on per-occurrence instead of collapsing is a documented
// simplification — see DESIGN.md). isAssignmentRHS/heredoc-delimiter
// callers pass noSplit true and get the whole atom stream joined into a
// single field.
func splitAtoms(atoms []atom, ifs string, noSplit bool) []field {
	if noSplit {
		var sb strings.Builder
		for _, a := range atoms {
			sb.WriteString(a.text)
		}
		return []field{{text: sb.String(), globbable: false}}
	}

	isIFS := func(b byte) bool { return strings.IndexByte(ifs, b) >= 0 }

	var fields []field
	var cur strings.Builder
	curUnquoted := false
	curTouched := false

	flush := func() {
		if curTouched {
			fields = append(fields, field{text: cur.String(), globbable: curUnquoted})
		}
		cur.Reset()
		curUnquoted = false
		curTouched = false
	}

	for _, a := range atoms {
		if a.splitBefore {
			flush()
		}
		if a.quoted {
			cur.WriteString(globProtect(a.text))
			curTouched = true
		} else {
			s := a.text
			i := 0
			for i < len(s) {
				if isIFS(s[i]) {
					flush()
					for i < len(s) && isIFS(s[i]) {
						i++
					}
					continue
				}
				j := i
				for j < len(s) && !isIFS(s[j]) {
					j++
				}
				cur.WriteString(s[i:j])
				curUnquoted = true
				curTouched = true
				i = j
			}
		}
		if a.splitAfter {
			flush()
		}
	}
	flush()
	return fields
}

// globProtect escapes the bytes filename generation treats specially so a
// quoted atom's literal '*'/'?'/'[' can share a field with an unquoted
// atom that legitimately wants those bytes to glob, without itself being
// reinterpreted as a wildcard.
func globProtect(s string) string {
	if !strings.ContainsAny(s, "*?[\\") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// unescapeGlobProtect reverses globProtect for a field that ultimately
// isn't run through filename generation (spec.md §5 step 4 only applies
// when the field actually contains a metacharacter from unquoted text).
func unescapeGlobProtect(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '*', '?', '[', '\\':
				sb.WriteByte(s[i+1])
				i++
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
