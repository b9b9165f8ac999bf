package pattern

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// HasMeta reports whether word contains any byte filename generation
// treats specially, the quick check the expander uses to skip globbing
// entirely for the common case of a plain word (spec.md §5 Expander step
// 4: "only run when the word contains unquoted glob metacharacters").
func HasMeta(word string) bool {
	return strings.ContainsAny(word, "*?[")
}

// Expand runs filename generation for one expanded, split word against the
// current working directory, returning the matches in sorted order (POSIX
// readdir order isn't guaranteed, so this shell follows the teacher's lead
// of sorting for reproducible test output). A pattern with no matches
// expands to itself unless nullglob suppresses that (spec.md §5). A word
// that is not a well-formed pattern (such as a lone `[`) is left as it is.
func Expand(word string, nullglob, dotglob bool) ([]string, error) {
	pat := word
	if dotglob {
		pat = dotglobify(pat)
	}
	matches, err := doublestar.FilepathGlob(pat, doublestar.WithFailOnIOErrors())
	if err == doublestar.ErrBadPattern {
		return []string{word}, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	if !dotglob {
		matches = filterLeadingDot(word, matches)
	}
	if len(matches) == 0 && !nullglob {
		return []string{word}, nil
	}
	return matches, nil
}

// filterLeadingDot drops matches whose base name starts with '.' unless
// the corresponding path segment of the pattern itself started with '.',
// matching POSIX glob's default of hiding dotfiles (doublestar has no
// built-in dotglob toggle, so this shell applies the rule itself).
func filterLeadingDot(pat string, matches []string) []string {
	patSegs := strings.Split(filepath.ToSlash(pat), "/")
	out := matches[:0]
	for _, m := range matches {
		segs := strings.Split(filepath.ToSlash(m), "/")
		hidden := false
		for i, s := range segs {
			if !strings.HasPrefix(s, ".") {
				continue
			}
			if i < len(patSegs) && strings.HasPrefix(patSegs[i], ".") {
				continue
			}
			hidden = true
			break
		}
		if !hidden {
			out = append(out, m)
		}
	}
	return out
}

// dotglobify rewrites each path segment starting with a bare '*' into a
// doublestar brace alternation that also matches dot-files, approximating
// bash's `shopt -s dotglob`.
func dotglobify(pat string) string {
	segs := strings.Split(pat, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, "*") {
			segs[i] = "{" + s + ",.?*" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}

// Exists reports whether path names something in the filesystem, used by
// the executor for `[ -e ]`-style tests that ride along with pattern
// matching rather than through a dedicated stat wrapper.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
