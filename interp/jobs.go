package interp

import (
	"os"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// job is one backgrounded or stopped pipeline, tracked so `jobs`/`wait`
// have something to report on (spec.md §6's job-control surface).
type job struct {
	id     int
	pgid   int
	cmdStr string
	done   bool
	status int
	wait   chan int // closed-by-send once the background list finishes
}

type jobTable struct {
	mu   sync.Mutex
	jobs []*job
	next int
}

func newJobTable() *jobTable { return &jobTable{next: 1} }

func (t *jobTable) add(pgid int, cmdStr string) *job {
	t.mu.Lock()
	defer t.mu.Unlock()
	j := &job{id: t.next, pgid: pgid, cmdStr: cmdStr, wait: make(chan int, 1)}
	t.next++
	t.jobs = append(t.jobs, j)
	return j
}

func (t *jobTable) finish(j *job, status int) {
	t.mu.Lock()
	j.done = true
	j.status = status
	t.mu.Unlock()
	j.wait <- status
}

func (t *jobTable) list() []*job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

func (t *jobTable) markDone(pgid, status int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.pgid == pgid {
			j.done = true
			j.status = status
		}
	}
}

// attachProcessGroup puts cmd in a new process group of its own
// (Setpgid), the same SysProcAttr the teacher's handler_unix.go sets for
// every external command.
func (it *Interp) attachProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// isInteractiveTerminal reports whether f is attached to a terminal.
func isInteractiveTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// foregroundPgid reports the process group currently owning the terminal
// that f refers to.
func foregroundPgid(f *os.File) (int, error) {
	return unix.IoctlGetInt(int(f.Fd()), unix.TIOCGPGRP)
}
