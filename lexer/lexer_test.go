package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mpetrov/posh/token"
)

func tokenTypes(t *testing.T, src string) []token.Type {
	t.Helper()
	res, err := Scan(src, Config{})
	if err != nil {
		t.Fatalf("Scan(%q): %v", src, err)
	}
	var out []token.Type
	for _, tok := range res.Tokens {
		if tok.Type == token.EOF {
			continue
		}
		out = append(out, tok.Type)
	}
	return out
}

func TestScanSimplePipeline(t *testing.T) {
	got := tokenTypes(t, "echo hi | grep h\n")
	want := []token.Type{token.WORD, token.WORD, token.PIPE, token.WORD, token.WORD, token.NEWLINE}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// TestAssignmentRetagUsesFirstToken guards the fix for a bug where
// retagging looked at a word's last emitted token instead of its first:
// X=$(cmd) must still retag X as an ASSIGNMENT_WORD even though the word's
// last fragment is a COMMAND_SUB with no '=' in it.
func TestAssignmentRetagUsesFirstToken(t *testing.T) {
	res, err := Scan("X=$(cmd)\n", Config{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Tokens) == 0 || res.Tokens[0].Type != token.ASSIGNMENT_WORD {
		t.Fatalf("first token = %+v, want ASSIGNMENT_WORD", res.Tokens[0])
	}
}

// TestStandaloneKeywordWord guards the fix for maybeApplyKeyword looking at
// the wrong adjacency flag: a bare "if" word at command position must retag
// to the IF keyword.
func TestStandaloneKeywordWord(t *testing.T) {
	got := tokenTypes(t, "if true; then echo y; fi\n")
	if len(got) == 0 || got[0] != token.IF {
		t.Fatalf("first token type = %v, want IF", got[0])
	}
}

func TestScanAndOrTokenShape(t *testing.T) {
	got := tokenTypes(t, "true && false || true\n")
	want := []token.Type{
		token.WORD, token.AND_AND, token.WORD, token.OR_OR, token.WORD, token.NEWLINE,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
}

func TestHeredocBody(t *testing.T) {
	res, err := Scan("cat <<EOF\nhello\nEOF\n", Config{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	body, ok := res.Heredocs["EOF"]
	if !ok {
		t.Fatalf("no heredoc body recorded for delimiter EOF")
	}
	if body.Content != "hello\n" {
		t.Errorf("heredoc content = %q, want %q", body.Content, "hello\n")
	}
}
