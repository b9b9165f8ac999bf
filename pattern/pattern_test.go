package pattern

import "testing"

func TestMatchBasic(t *testing.T) {
	tests := []struct {
		pat, s string
		want   bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "main.py", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"[abc]x", "ax", true},
		{"[abc]x", "dx", false},
		{"[[:digit:]]", "5", true},
		{"[[:digit:]]", "x", false},
	}
	for _, tt := range tests {
		m, err := Compile(tt.pat, false)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tt.pat, err)
		}
		if got := m.Match(tt.s); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pat, tt.s, got, tt.want)
		}
	}
}

func TestExtGlob(t *testing.T) {
	m, err := Compile("+(ab)c", true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !m.Match("ababc") {
		t.Errorf("expected +(ab)c to match ababc")
	}
	if m.Match("c") {
		t.Errorf("expected +(ab)c to require at least one repetition")
	}
}

func TestLongestPrefixMatch(t *testing.T) {
	s := "aXcXc"
	got, err := LongestPrefixMatch("a*c", s, false, true)
	if err != nil {
		t.Fatalf("LongestPrefixMatch: %v", err)
	}
	// Greedy longest match of "a*c" against "aXcXc" consumes through the
	// final 'c', i.e. the whole string.
	if got != s {
		t.Errorf("LongestPrefixMatch(greedy) = %q, want %q", got, s)
	}
}

func TestHasMeta(t *testing.T) {
	if !HasMeta("*.txt") {
		t.Errorf("expected HasMeta true for *.txt")
	}
	if HasMeta("plain") {
		t.Errorf("expected HasMeta false for plain")
	}
}
