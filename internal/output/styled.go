package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Colors follow the terminal palette used for highlighted literals.
var (
	sourceColor  = lipgloss.Color("#2196F3")
	indexColor   = lipgloss.Color("#d6dae0")
	literalColor = lipgloss.Color("#8BC34A")
)

// styledWriter prints "source:index  literal" with the literal highlighted.
type styledWriter struct {
	w       io.Writer
	source  lipgloss.Style
	index   lipgloss.Style
	literal lipgloss.Style
}

func newStyledWriter(w io.Writer) *styledWriter {
	return &styledWriter{
		w:       w,
		source:  lipgloss.NewStyle().Foreground(sourceColor),
		index:   lipgloss.NewStyle().Foreground(indexColor),
		literal: lipgloss.NewStyle().Foreground(literalColor).Bold(true),
	}
}

func (s *styledWriter) Write(r Record) error {
	_, err := fmt.Fprintf(s.w, "%s%s  %s\n",
		s.source.Render(r.Source),
		s.index.Render(fmt.Sprintf(":%d", r.Index)),
		s.literal.Render(r.Literal),
	)
	return err
}

func (s *styledWriter) Close() error { return nil }
