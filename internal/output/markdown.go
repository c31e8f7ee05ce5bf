package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownWriter lists literals as code spans grouped under a heading per
// source. Output is buffered so it can be rendered as a whole on Close.
type markdownWriter struct {
	w      io.Writer
	render bool
	sb     strings.Builder
	source string
	any    bool
}

func (m *markdownWriter) Write(r Record) error {
	if !m.any || r.Source != m.source {
		if m.any {
			m.sb.WriteString("\n")
		}
		fmt.Fprintf(&m.sb, "## %s\n\n", r.Source)
		m.source = r.Source
		m.any = true
	}
	fmt.Fprintf(&m.sb, "%d. %s\n", r.Index+1, CodeSpan(r.Literal))
	return nil
}

func (m *markdownWriter) Close() error {
	md := m.sb.String()
	if m.render && md != "" {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStylePath("notty"),
			glamour.WithWordWrap(0),
		)
		if err != nil {
			return fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		md, err = renderer.Render(md)
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
	}
	_, err := io.WriteString(m.w, md)
	return err
}

// CodeSpan wraps s in a backtick fence one longer than the longest backtick
// run inside it. Line breaks become spaces, as they would inside a rendered
// code span anyway.
func CodeSpan(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")

	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", longest+1)

	// A space on both sides is stripped by markdown, so it keeps a leading or
	// trailing backtick from merging into the fence.
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") ||
		(len(s) > 1 && s[0] == ' ' && s[len(s)-1] == ' ' && strings.TrimSpace(s) != "") {
		s = " " + s + " "
	}
	return fence + s + fence
}
