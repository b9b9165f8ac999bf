package interp

import (
	"os"
	"os/exec"
	"testing"

	"github.com/creack/pty"
)

func TestJobTableAddFinishList(t *testing.T) {
	jt := newJobTable()
	j := jt.add(0, "sleep 1 &")
	if j.id != 1 {
		t.Fatalf("first job id = %d, want 1", j.id)
	}
	j2 := jt.add(0, "another &")
	if j2.id != 2 {
		t.Fatalf("second job id = %d, want 2", j2.id)
	}

	jobs := jt.list()
	if len(jobs) != 2 {
		t.Fatalf("list() returned %d jobs, want 2", len(jobs))
	}

	jt.finish(j, 7)
	if !j.done || j.status != 7 {
		t.Errorf("job after finish: done=%v status=%d, want true/7", j.done, j.status)
	}
	select {
	case got := <-j.wait:
		if got != 7 {
			t.Errorf("wait channel delivered %d, want 7", got)
		}
	default:
		t.Errorf("expected finish to have sent on the wait channel")
	}
}

// TestIsInteractiveTerminalOnPTY grounds the terminal-detection helper
// against a real pseudo-terminal rather than a bare file, the only way to
// observe term.IsTerminal returning true without an actual controlling tty.
func TestIsInteractiveTerminalOnPTY(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty.Open: %v (no pty support in this environment)", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	if !isInteractiveTerminal(tty) {
		t.Errorf("expected the pty slave to report as an interactive terminal")
	}

	notATTY, err := os.CreateTemp(t.TempDir(), "not-a-tty")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer notATTY.Close()
	if isInteractiveTerminal(notATTY) {
		t.Errorf("expected a plain regular file not to report as a terminal")
	}
}

func TestAttachProcessGroupSetsSetpgid(t *testing.T) {
	it := New(nil)
	cmd := exec.Command("true")
	it.attachProcessGroup(cmd)
	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setpgid {
		t.Errorf("expected attachProcessGroup to set Setpgid")
	}
}
