package interp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mpetrov/posh/ast"
)

func TestEffectiveFdDefaults(t *testing.T) {
	tests := []struct {
		name string
		kind ast.RedirKind
		want int
	}{
		{"input", ast.Input, 0},
		{"output", ast.Output, 1},
		{"append", ast.Append, 1},
		{"heredoc", ast.HereDoc, 0},
		{"herestring", ast.HereString, 0},
		{"dupin", ast.DupIn, 0},
		{"dupout", ast.DupOut, 1},
		{"closein", ast.CloseIn, 0},
		{"closeout", ast.CloseOut, 1},
		{"readwrite", ast.ReadWrite, 0},
		{"noclobber", ast.NoClobberOverride, 1},
	}
	for _, tt := range tests {
		r := &ast.Redirection{Kind: tt.kind, HasFd: false}
		if got := effectiveFd(r); got != tt.want {
			t.Errorf("%s: effectiveFd = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestEffectiveFdExplicitPrefix(t *testing.T) {
	// An explicit "2>" must never be overridden by the operator's default,
	// even though ">" alone defaults to fd 1.
	r := &ast.Redirection{Kind: ast.Output, HasFd: true, Fd: 2}
	if got := effectiveFd(r); got != 2 {
		t.Errorf("effectiveFd = %d, want 2", got)
	}
}

func TestOutputRedirectWritesFileAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	_, status := runScript(t, "echo hi > "+path+"\n")
	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.TrimRight(string(data), "\n") != "hi" {
		t.Errorf("file content = %q, want %q", data, "hi")
	}
}

func TestAppendRedirect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("first\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, status := runScript(t, "echo second >> "+path+"\n")
	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestNoclobberBlocksExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exists.txt")
	if err := os.WriteFile(path, []byte("orig\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	it := New(nil)
	it.State.Opts.Noclobber = true
	var buf strings.Builder
	it.Stdout = &buf
	it.Stderr = &buf
	list, err := parseSource("echo clobbered > " + path + "\n")
	if err != nil {
		t.Fatalf("parseSource: %v", err)
	}
	it.Run(list)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "orig\n" {
		t.Errorf("noclobber should have blocked the write, file now = %q", data)
	}
}

func TestHereString(t *testing.T) {
	out, _ := runScript(t, "cat <<< hello\n")
	if strings.TrimRight(out, "\n") != "hello" {
		t.Errorf("stdout = %q, want %q", out, "hello")
	}
}

func TestInputRedirect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(path, []byte("from file\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out, _ := runScript(t, "read line < "+path+"; echo $line\n")
	if strings.TrimRight(out, "\n") != "from file" {
		t.Errorf("stdout = %q, want %q", out, "from file")
	}
}
