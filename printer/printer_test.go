package printer_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mpetrov/posh/lexer"
	"github.com/mpetrov/posh/parser"
	"github.com/mpetrov/posh/printer"
)

// printThenReparse exercises spec.md §8's round-trip property: printing a
// parsed tree and reparsing the result should reproduce an equivalent tree,
// here checked by printing twice and comparing (a fixed point).
func printThenReparse(t *testing.T, src string) string {
	t.Helper()
	res, err := lexer.Scan(src, lexer.Config{})
	if err != nil {
		t.Fatalf("lexer.Scan(%q): %v", src, err)
	}
	list, err := parser.Parse(res)
	if err != nil {
		t.Fatalf("parser.Parse(%q): %v", src, err)
	}
	var sb strings.Builder
	if err := printer.Fprint(&sb, list, printer.Config{}); err != nil {
		t.Fatalf("Fprint: %v", err)
	}
	out := sb.String()

	res2, err := lexer.Scan(out, lexer.Config{})
	if err != nil {
		t.Fatalf("lexer.Scan(printed %q): %v", out, err)
	}
	list2, err := parser.Parse(res2)
	if err != nil {
		t.Fatalf("parser.Parse(printed %q): %v", out, err)
	}
	var sb2 strings.Builder
	if err := printer.Fprint(&sb2, list2, printer.Config{}); err != nil {
		t.Fatalf("Fprint (second pass): %v", err)
	}
	out2 := sb2.String()
	if out != out2 {
		t.Fatalf("printer output not a fixed point:\nfirst:  %q\nsecond: %q", out, out2)
	}
	return out
}

func TestRoundTripSimpleCommand(t *testing.T) {
	out := printThenReparse(t, "echo hello world\n")
	if !strings.Contains(out, "echo hello world") {
		t.Errorf("printed output = %q", out)
	}
}

func TestRoundTripPipeline(t *testing.T) {
	out := printThenReparse(t, "cat file.txt | grep foo | wc -l\n")
	if !strings.Contains(out, "cat file.txt | grep foo | wc -l") {
		t.Errorf("printed output = %q", out)
	}
}

func TestRoundTripIfElse(t *testing.T) {
	printThenReparse(t, "if true; then echo a; else echo b; fi\n")
}

func TestRoundTripForLoop(t *testing.T) {
	out := printThenReparse(t, "for i in 1 2 3; do echo $i; done\n")
	if !strings.Contains(out, "for i in 1 2 3") {
		t.Errorf("printed output = %q", out)
	}
}

func TestRoundTripAssignmentAndQuotes(t *testing.T) {
	out := printThenReparse(t, `x="hi there" ; echo $x`+"\n")
	if !strings.Contains(out, `x="hi there"`) {
		t.Errorf("printed output = %q", out)
	}
}

func TestRoundTripRedirects(t *testing.T) {
	out := printThenReparse(t, "echo hi > out.txt 2>&1\n")
	if !strings.Contains(out, ">out.txt") || !strings.Contains(out, "2>&1") {
		t.Errorf("printed output = %q", out)
	}
}

func TestEditorConfigOptions(t *testing.T) {
	if cfg := printer.EditorConfigOptions("tab", 0); cfg.IndentSize != 0 {
		t.Errorf("tab style: IndentSize = %d, want 0", cfg.IndentSize)
	}
	if cfg := printer.EditorConfigOptions("space", 4); cfg.IndentSize != 4 {
		t.Errorf("space style with size 4: IndentSize = %d, want 4", cfg.IndentSize)
	}
	if cfg := printer.EditorConfigOptions("space", 0); cfg.IndentSize != 8 {
		t.Errorf("space style with no size: IndentSize = %d, want default 8", cfg.IndentSize)
	}
}

func TestResolveEditorConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	ecPath := filepath.Join(dir, ".editorconfig")
	data := "root = true\n\n[*.sh]\nindent_style = space\nindent_size = 2\n"
	if err := os.WriteFile(ecPath, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	scriptPath := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(scriptPath, []byte("echo hi\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := printer.ResolveEditorConfig(scriptPath)
	if err != nil {
		t.Fatalf("ResolveEditorConfig: %v", err)
	}
	if cfg.IndentSize != 2 {
		t.Errorf("IndentSize = %d, want 2 (from .editorconfig)", cfg.IndentSize)
	}
}

func TestResolveEditorConfigNoFile(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(scriptPath, []byte("echo hi\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := printer.ResolveEditorConfig(scriptPath)
	if err != nil {
		t.Fatalf("ResolveEditorConfig: %v", err)
	}
	if cfg.IndentSize != 0 {
		t.Errorf("IndentSize = %d, want 0 (tab default) with no .editorconfig present", cfg.IndentSize)
	}
}
