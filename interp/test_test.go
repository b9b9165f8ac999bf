package interp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEvalTestUnary(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"-z", ""}, true},
		{[]string{"-z", "x"}, false},
		{[]string{"-n", "x"}, true},
		{[]string{"-e", file}, true},
		{[]string{"-e", filepath.Join(dir, "nope")}, false},
		{[]string{"-f", file}, true},
		{[]string{"-d", dir}, true},
		{[]string{"-d", file}, false},
		{[]string{"-s", file}, true},
	}
	for _, tt := range tests {
		got, err := evalTest(tt.args)
		if err != nil {
			t.Errorf("evalTest(%v): %v", tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("evalTest(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestEvalTestBinary(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"foo", "=", "foo"}, true},
		{[]string{"foo", "!=", "bar"}, true},
		{[]string{"3", "-eq", "3"}, true},
		{[]string{"3", "-lt", "4"}, true},
		{[]string{"4", "-gt", "3"}, true},
		{[]string{"3", "-ge", "3"}, true},
	}
	for _, tt := range tests {
		got, err := evalTest(tt.args)
		if err != nil {
			t.Errorf("evalTest(%v): %v", tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("evalTest(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestEvalTestNegationAndChains(t *testing.T) {
	got, err := evalTest([]string{"!", "-z", "x"})
	if err != nil || !got {
		t.Errorf("evalTest(! -z x) = %v, %v, want true, nil", got, err)
	}

	got, err = evalTest([]string{"-n", "a", "-a", "-n", "b"})
	if err != nil || !got {
		t.Errorf("evalTest(-n a -a -n b) = %v, %v, want true, nil", got, err)
	}

	got, err = evalTest([]string{"-z", "a", "-o", "-n", "b"})
	if err != nil || !got {
		t.Errorf("evalTest(-z a -o -n b) = %v, %v, want true, nil", got, err)
	}
}

func TestBuiltinTestBracketForm(t *testing.T) {
	it := New(nil)
	if status := it.builtinTest("[", []string{"1", "-eq", "1", "]"}); status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
	if status := it.builtinTest("[", []string{"1", "-eq", "2", "]"}); status != 1 {
		t.Errorf("status = %d, want 1", status)
	}
	if status := it.builtinTest("[", []string{"missing-bracket"}); status != 2 {
		t.Errorf("status = %d, want 2 for malformed [ without trailing ]", status)
	}
}

func TestTestBuiltinViaScript(t *testing.T) {
	out, status := runScript(t, "if [ 1 -lt 2 ]; then echo yes; fi\n")
	if status != 0 || out != "yes\n" {
		t.Errorf("out = %q, status = %d", out, status)
	}
}
