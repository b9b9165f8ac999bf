package parser

import (
	"testing"

	"github.com/mpetrov/posh/ast"
	"github.com/mpetrov/posh/lexer"
)

func mustParse(t *testing.T, src string) *ast.CommandList {
	t.Helper()
	res, err := lexer.Scan(src, lexer.Config{})
	if err != nil {
		t.Fatalf("Scan(%q): %v", src, err)
	}
	list, err := Parse(res)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return list
}

func TestParseSimplePipeline(t *testing.T) {
	list := mustParse(t, "echo hi | grep h\n")
	if len(list.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(list.Items))
	}
	pl := list.Items[0].List.First
	if len(pl.Stages) != 2 {
		t.Fatalf("got %d pipeline stages, want 2", len(pl.Stages))
	}
}

// TestCaseItemTerminators guards the isClauseEnd fix: a case item's body
// must stop at ';;'/';&'/';;&' instead of erroring out looking for another
// command.
func TestCaseItemTerminators(t *testing.T) {
	src := "case $x in\n" +
		"a) echo one ;;\n" +
		"b) echo two ;;&\n" +
		"*) echo three ;;\n" +
		"esac\n"
	list := mustParse(t, src)
	cmd := list.Items[0].List.First.Stages[0].Cmd
	cc, ok := cmd.(*ast.CaseConditional)
	if !ok {
		t.Fatalf("got %T, want *ast.CaseConditional", cmd)
	}
	if len(cc.Items) != 3 {
		t.Fatalf("got %d case items, want 3", len(cc.Items))
	}
	if cc.Items[1].Terminator != ast.CaseContinue {
		t.Errorf("second item terminator = %v, want CaseContinue", cc.Items[1].Terminator)
	}
}

func TestParseIfElif(t *testing.T) {
	src := "if false; then echo a; elif true; then echo b; else echo c; fi\n"
	list := mustParse(t, src)
	cmd := list.Items[0].List.First.Stages[0].Cmd
	ifc, ok := cmd.(*ast.IfConditional)
	if !ok {
		t.Fatalf("got %T, want *ast.IfConditional", cmd)
	}
	if len(ifc.Elifs) != 1 {
		t.Fatalf("got %d elifs, want 1", len(ifc.Elifs))
	}
	if ifc.Else == nil {
		t.Fatalf("expected an else clause")
	}
}

func TestParseAssignmentWithCommandSub(t *testing.T) {
	list := mustParse(t, "X=$(echo hi)\n")
	cmd := list.Items[0].List.First.Stages[0].Cmd
	sc, ok := cmd.(*ast.SimpleCommand)
	if !ok {
		t.Fatalf("got %T, want *ast.SimpleCommand", cmd)
	}
	if len(sc.Assignments) != 1 || sc.Assignments[0].Name != "X" {
		t.Fatalf("assignments = %+v", sc.Assignments)
	}
}
