package expand

import "testing"

func TestDefaultArithEval(t *testing.T) {
	v := newFakeVars()
	v.scalars["x"] = "4"
	a := &DefaultArith{Vars: v}

	tests := []struct {
		src  string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 % 3", 1},
		{"2 ** 5", 32},
		{"x + 1", 5},
		{"1 == 1", 1},
		{"1 == 2", 0},
		{"1 ? 2 : 3", 2},
		{"0 ? 2 : 3", 3},
	}
	for _, tt := range tests {
		got, err := a.Eval(tt.src)
		if err != nil {
			t.Errorf("Eval(%q): %v", tt.src, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Eval(%q) = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestDefaultArithAssignment(t *testing.T) {
	v := newFakeVars()
	a := &DefaultArith{Vars: v}
	if _, err := a.Eval("y = 5"); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	got, err := a.Eval("y += 2")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 7 {
		t.Errorf("y after += 2 = %d, want 7", got)
	}
}
