package pattern

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandFileGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", ".hidden.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	pat := filepath.Join(dir, "*.txt")
	matches, err := Expand(pat, false, false)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches (dotglob off), want 2: %v", len(matches), matches)
	}

	matchesDot, err := Expand(pat, false, true)
	if err != nil {
		t.Fatalf("Expand (dotglob): %v", err)
	}
	if len(matchesDot) != 3 {
		t.Fatalf("got %d matches (dotglob on), want 3: %v", len(matchesDot), matchesDot)
	}
}

func TestExpandNullglob(t *testing.T) {
	dir := t.TempDir()
	pat := filepath.Join(dir, "*.nomatch")
	matches, err := Expand(pat, false, false)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(matches) != 1 || matches[0] != pat {
		t.Fatalf("got %v, want pattern returned literally (nullglob off)", matches)
	}

	matchesNull, err := Expand(pat, true, false)
	if err != nil {
		t.Fatalf("Expand (nullglob): %v", err)
	}
	if len(matchesNull) != 0 {
		t.Fatalf("got %v, want no matches (nullglob on)", matchesNull)
	}
}
