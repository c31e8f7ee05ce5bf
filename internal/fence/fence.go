// Package fence extracts fenced string literals from a rune stream.
//
// A fence is a run of N identical quote runes. The length N is fixed when the
// opening run ends, and the literal closes only when a run of exactly N quote
// runes appears again. Shorter interior runs are kept as content, so
//
//	"""triple "super" test"""
//
// yields the single literal `triple "super" test`.
//
// An escape rune keeps the following rune from being read as a fence. Outside
// a literal the escape is dropped; inside a literal both the escape and the
// protected rune are kept verbatim. Escapes are never decoded.
package fence

// Default delimiters.
const (
	DefaultQuote  = '"'
	DefaultEscape = '\\'
)

// state is one of searching, countingOpen, inside or countingClose.
// Counters only exist in the variants where they mean something.
type state interface {
	isState()
}

type searching struct {
	escaped bool
}

type countingOpen struct {
	count int
}

type inside struct {
	fence   int
	escaped bool
}

type countingClose struct {
	fence     int
	remaining int
}

func (searching) isState()     {}
func (countingOpen) isState()  {}
func (inside) isState()        {}
func (countingClose) isState() {}

// Machine is the fence-counting automaton. It is fed one rune at a time with
// Push and hands back a literal whenever a fence closes. A Machine is not safe
// for concurrent use; create one per input stream.
type Machine struct {
	delims Delimiters
	state  state
	buf    []rune
}

// New returns a Machine in the searching state.
func New(opts ...Option) *Machine {
	m := &Machine{delims: buildDelimiters(opts)}
	m.Reset()
	return m
}

// Reset drops any open literal and returns to the searching state.
func (m *Machine) Reset() {
	m.state = searching{}
	m.buf = m.buf[:0]
}

// Delimiters reports the quote and escape runes in use.
func (m *Machine) Delimiters() Delimiters {
	return m.delims
}

// Open reports whether a fence is currently open.
func (m *Machine) Open() bool {
	switch m.state.(type) {
	case searching:
		return false
	default:
		return true
	}
}

// Buffered returns the number of runes held for the literal being read.
func (m *Machine) Buffered() int {
	return len(m.buf)
}

// Push advances the machine by one rune. It returns the completed literal and
// true when r closes a fence. At most one literal completes per rune.
func (m *Machine) Push(r rune) (string, bool) {
	return m.step(r)
}

// step dispatches r to the handler of the current state. Handlers that change
// state without consuming r call step again so the new state sees the same rune.
func (m *Machine) step(r rune) (string, bool) {
	switch s := m.state.(type) {
	case searching:
		return m.search(s, r)
	case countingOpen:
		return m.countOpen(s, r)
	case inside:
		return m.inside(s, r)
	case countingClose:
		return m.countClose(s, r)
	}
	panic("fence: unknown state")
}

func (m *Machine) search(s searching, r rune) (string, bool) {
	switch {
	case s.escaped:
		m.state = searching{}
	case r == m.delims.Quote:
		m.state = countingOpen{}
		return m.step(r)
	case r == m.delims.Escape:
		m.state = searching{escaped: true}
	}
	return "", false
}

func (m *Machine) countOpen(s countingOpen, r rune) (string, bool) {
	if r == m.delims.Quote {
		m.state = countingOpen{count: s.count + 1}
		return "", false
	}
	m.state = inside{fence: s.count}
	return m.step(r)
}

func (m *Machine) inside(s inside, r rune) (string, bool) {
	switch {
	case s.escaped:
		m.buf = append(m.buf, r)
		m.state = inside{fence: s.fence}
	case r == m.delims.Escape:
		m.buf = append(m.buf, r)
		m.state = inside{fence: s.fence, escaped: true}
	case r == m.delims.Quote:
		m.state = countingClose{fence: s.fence, remaining: s.fence}
		return m.step(r)
	default:
		m.buf = append(m.buf, r)
	}
	return "", false
}

func (m *Machine) countClose(s countingClose, r rune) (string, bool) {
	if r == m.delims.Quote {
		s.remaining--
		if s.remaining > 0 {
			m.state = s
			return "", false
		}
		lit := string(m.buf)
		m.buf = m.buf[:0]
		m.state = searching{}
		return lit, true
	}

	// The run was too short to close: it was content.
	for i := 0; i < s.fence-s.remaining; i++ {
		m.buf = append(m.buf, m.delims.Quote)
	}
	m.state = inside{fence: s.fence}
	return m.step(r)
}
