package token

import "testing"

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{WORD, "WORD"},
		{PIPE, "|"},
		{DOUBLE_LPAREN, "(("},
		{SEMI_SEMI_AMP, ";;&"},
		{IF, "if"},
		{Type(999), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Type(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestKeywordsRoundTripNames(t *testing.T) {
	for word, typ := range Keywords {
		if word == "!" {
			continue
		}
		if got := typ.String(); got != word {
			t.Errorf("Keywords[%q] = %v, whose String() = %q", word, typ, got)
		}
	}
}

func TestPositionString(t *testing.T) {
	p := Position{Line: 3, Column: 7, Offset: 40}
	if got, want := p.String(), "3:7"; got != want {
		t.Errorf("Position.String() = %q, want %q", got, want)
	}
}

func TestTokenString(t *testing.T) {
	tok := Token{Type: WORD, Value: "foo"}
	if got, want := tok.String(), "WORD(foo)"; got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
	bare := Token{Type: SEMICOLON}
	if got, want := bare.String(), ";"; got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
}

func TestAdjacentToPreviousField(t *testing.T) {
	tok := Token{Type: WORD, Value: "2", AdjacentToPrevious: true}
	if !tok.AdjacentToPrevious {
		t.Errorf("expected AdjacentToPrevious to be settable/readable")
	}
}
