package interp

import (
	"bytes"
	"strings"
	"testing"
)

func runScript(t *testing.T, src string) (stdout string, status int) {
	t.Helper()
	it := New(nil)
	var buf bytes.Buffer
	it.Stdout = &buf
	it.Stderr = &buf
	list, err := parseSource(src)
	if err != nil {
		t.Fatalf("parseSource(%q): %v", src, err)
	}
	status = it.Run(list)
	return buf.String(), status
}

func TestEchoAndExitStatus(t *testing.T) {
	out, status := runScript(t, "echo hello world\n")
	if strings.TrimRight(out, "\n") != "hello world" {
		t.Errorf("stdout = %q", out)
	}
	if status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
}

func TestIfElse(t *testing.T) {
	out, _ := runScript(t, "if false; then echo a; else echo b; fi\n")
	if strings.TrimRight(out, "\n") != "b" {
		t.Errorf("stdout = %q, want %q", out, "b")
	}
}

func TestForLoop(t *testing.T) {
	out, _ := runScript(t, "for i in 1 2 3; do echo $i; done\n")
	if strings.TrimRight(out, "\n") != "1\n2\n3" {
		t.Errorf("stdout = %q", out)
	}
}

func TestCaseContinueMatching(t *testing.T) {
	out, _ := runScript(t, "case x in\nx) echo one ;;&\nx) echo two ;;\nesac\n")
	if strings.TrimRight(out, "\n") != "one\ntwo" {
		t.Errorf("stdout = %q", out)
	}
}

func TestBreakUnwindsOneLoopLevel(t *testing.T) {
	src := "for i in 1 2 3; do\n" +
		"  if [ $i = 2 ]; then break; fi\n" +
		"  echo $i\n" +
		"done\n"
	out, _ := runScript(t, src)
	if strings.TrimRight(out, "\n") != "1" {
		t.Errorf("stdout = %q, want %q", out, "1")
	}
}

func TestArithmeticExpansion(t *testing.T) {
	out, _ := runScript(t, "echo $((2 + 3 * 4))\n")
	if strings.TrimRight(out, "\n") != "14" {
		t.Errorf("stdout = %q, want %q", out, "14")
	}
}

func TestVariableAssignmentAndExpansion(t *testing.T) {
	out, _ := runScript(t, "x=hi; echo $x there\n")
	if strings.TrimRight(out, "\n") != "hi there" {
		t.Errorf("stdout = %q", out)
	}
}

func TestFunctionCallAndReturn(t *testing.T) {
	src := "greet() { echo hi $1; return 3; }\n" +
		"greet world\n" +
		"echo $?\n"
	out, _ := runScript(t, src)
	if strings.TrimRight(out, "\n") != "hi world\n3" {
		t.Errorf("stdout = %q", out)
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	out, _ := runScript(t, "false && echo a; true || echo b; echo done\n")
	if strings.TrimRight(out, "\n") != "done" {
		t.Errorf("stdout = %q, want just %q", out, "done")
	}
}

// TestErrexitSkipsWhileCondition covers spec.md §4.4: errexit must not fire
// just because a while-loop's own termination test finally returns nonzero.
func TestErrexitSkipsWhileCondition(t *testing.T) {
	src := "set -e\n" +
		"i=0\n" +
		"while [ $i -lt 3 ]; do echo $i; i=$((i+1)); done\n" +
		"echo done\n"
	out, status := runScript(t, src)
	if strings.TrimRight(out, "\n") != "0\n1\n2\ndone" {
		t.Errorf("stdout = %q", out)
	}
	if status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
}

// TestErrexitSkipsIfCondition mirrors TestErrexitSkipsWhileCondition for an
// if-condition that evaluates false.
func TestErrexitSkipsIfCondition(t *testing.T) {
	src := "set -e\nif false; then echo a; else echo b; fi\necho done\n"
	out, status := runScript(t, src)
	if strings.TrimRight(out, "\n") != "b\ndone" {
		t.Errorf("stdout = %q", out)
	}
	if status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
}

// TestErrexitSkipsAndOrShortCircuit covers the other half of spec.md §4.4:
// a command whose failure is short-circuited out of by && (or negated by
// !) doesn't end the shell even though it's the last status set.
func TestErrexitSkipsAndOrShortCircuit(t *testing.T) {
	src := "set -e\nfalse && echo a\n! true\necho done\n"
	out, status := runScript(t, src)
	if strings.TrimRight(out, "\n") != "done" {
		t.Errorf("stdout = %q", out)
	}
	if status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
}

// TestErrexitFiresOnPlainFailure ensures the conditional-context exemption
// didn't swallow errexit's ordinary case: a plain failing statement still
// ends the shell.
func TestErrexitFiresOnPlainFailure(t *testing.T) {
	src := "set -e\nfalse\necho unreachable\n"
	out, status := runScript(t, src)
	if strings.Contains(out, "unreachable") {
		t.Errorf("stdout = %q, errexit should have stopped the script", out)
	}
	if status != 1 {
		t.Errorf("status = %d, want 1", status)
	}
}

// TestDeclareAssignmentRHSNotSplit covers spec.md §4.3's assignment-word
// subtlety: declare/export/local/readonly's NAME=value operand expands its
// value without word splitting, unlike a plain argv word.
func TestDeclareAssignmentRHSNotSplit(t *testing.T) {
	out, _ := runScript(t, `x="1 2"; declare v=$x; echo "[$v]"`+"\n")
	if strings.TrimRight(out, "\n") != "[1 2]" {
		t.Errorf("stdout = %q, want %q", out, "[1 2]")
	}
}

// TestPlainAssignmentArgStillSplits makes sure the assignment-RHS carve-out
// is scoped to the four builtins and doesn't change ordinary argv splitting:
// a function call's "a=$x" operand still splits into two arguments.
func TestPlainAssignmentArgStillSplits(t *testing.T) {
	src := `x="1 2"; f() { echo $#; }; f a=$x` + "\n"
	out, _ := runScript(t, src)
	if strings.TrimRight(out, "\n") != "2" {
		t.Errorf("stdout = %q, want %q", out, "2")
	}
}
