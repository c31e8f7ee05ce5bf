package fence

import (
	"errors"
	"io"
	"iter"
	"strings"
)

// Finder pulls runes from a reader and yields literals one at a time,
// in the manner of bufio.Scanner. It is forward-only and cannot be restarted.
//
//	f := fence.NewFinder(bufio.NewReader(os.Stdin))
//	for f.Scan() {
//		fmt.Println(f.Text())
//	}
//	if err := f.Err(); err != nil {
//		...
//	}
type Finder struct {
	src   io.RuneReader
	m     *Machine
	lit   string
	err   error
	done  bool
	runes int
}

// NewFinder returns a Finder reading from r.
func NewFinder(r io.RuneReader, opts ...Option) *Finder {
	return &Finder{src: r, m: New(opts...)}
}

// Scan advances to the next literal. It returns false when the input is
// exhausted or a read fails. A fence still open at that point yields nothing.
func (f *Finder) Scan() bool {
	f.lit = ""
	if f.done {
		return false
	}
	for {
		r, _, err := f.src.ReadRune()
		if err != nil {
			f.done = true
			if !errors.Is(err, io.EOF) {
				f.err = err
			}
			return false
		}
		f.runes++
		if lit, ok := f.m.Push(r); ok {
			f.lit = lit
			return true
		}
	}
}

// Text returns the literal produced by the last successful Scan.
func (f *Finder) Text() string {
	return f.lit
}

// Err returns the first non-EOF read error.
func (f *Finder) Err() error {
	return f.err
}

// Runes returns the number of runes consumed so far.
func (f *Finder) Runes() int {
	return f.runes
}

// Dangling reports whether the input ended inside an open fence, and how many
// runes of that unfinished literal were dropped.
func (f *Finder) Dangling() (int, bool) {
	if !f.done || !f.m.Open() {
		return 0, false
	}
	return f.m.Buffered(), true
}

// All returns the remaining literals as an iterator. Check Err after ranging.
func (f *Finder) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for f.Scan() {
			if !yield(f.Text()) {
				return
			}
		}
	}
}

// Strings adapts a rune sequence into a lazy sequence of literals.
func Strings(runes iter.Seq[rune], opts ...Option) iter.Seq[string] {
	return func(yield func(string) bool) {
		m := New(opts...)
		for r := range runes {
			if lit, ok := m.Push(r); ok {
				if !yield(lit) {
					return
				}
			}
		}
	}
}

// FindAll returns every literal in s.
func FindAll(s string, opts ...Option) []string {
	var out []string
	f := NewFinder(strings.NewReader(s), opts...)
	for f.Scan() {
		out = append(out, f.Text())
	}
	return out
}
