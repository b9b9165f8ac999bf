package interp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

func fmtPrintf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}

// readLine reads one line from r for the `select` builtin prompt loop and
// the `read` builtin, stripping the trailing newline; ok is false at EOF.
// Callers should hold onto the same *bufio.Reader across calls (Interp.in)
// so bytes read past a line boundary aren't dropped between invocations.
func readLine(br *bufio.Reader) (string, bool) {
	line, err := br.ReadString('\n')
	if line == "" && err != nil {
		return "", false
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line, true
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
