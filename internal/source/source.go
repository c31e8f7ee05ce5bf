// Package source assembles rune streams for extraction from files and stdin.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Stdin is the name used for standard input.
const Stdin = "-"

// LineJoiner reads lines from an io.Reader and re-joins them with a single
// '\n' after every line, including the last. Carriage returns that end a
// line are dropped, so CRLF input reads the same as LF input.
type LineJoiner struct {
	r       *bufio.Reader
	pending bool // a '\r' was read and not yet emitted
	last    rune
	started bool
	done    bool
}

// NewLineJoiner wraps r.
func NewLineJoiner(r io.Reader) *LineJoiner {
	return &LineJoiner{r: bufio.NewReader(r)}
}

// ReadRune implements io.RuneReader.
func (j *LineJoiner) ReadRune() (rune, int, error) {
	if j.done {
		return 0, 0, io.EOF
	}
	for {
		r, size, err := j.r.ReadRune()
		if err != nil {
			if err != io.EOF {
				return 0, 0, err
			}
			if j.pending {
				// A '\r' without '\n' is content.
				j.pending = false
				return j.emit('\r', 1)
			}
			j.done = true
			if j.started && j.last != '\n' {
				j.last = '\n'
				return '\n', 1, nil
			}
			return 0, 0, io.EOF
		}

		if j.pending {
			j.pending = false
			if r == '\n' {
				return j.emit('\n', 1)
			}
			if err := j.r.UnreadRune(); err != nil {
				return 0, 0, err
			}
			return j.emit('\r', 1)
		}
		if r == '\r' {
			j.pending = true
			continue
		}
		return j.emit(r, size)
	}
}

func (j *LineJoiner) emit(r rune, size int) (rune, int, error) {
	j.started = true
	j.last = r
	return r, size, nil
}

// Open opens the named input. An empty name or "-" means stdin; the returned
// closer then leaves stdin open.
func Open(name string) (io.ReadCloser, error) {
	if name == "" || name == Stdin {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", name, err)
	}
	return f, nil
}

// DisplayName returns how an input is named in output and logs.
func DisplayName(name string) string {
	if name == "" || name == Stdin {
		return "<stdin>"
	}
	return name
}
