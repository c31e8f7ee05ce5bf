// Package output writes extracted literals in the supported formats.
package output

import (
	"fmt"
	"io"

	"stringfinder/internal/logging"
)

// Record is one extracted literal.
type Record struct {
	Source  string `json:"source" yaml:"source"`
	Index   int    `json:"index" yaml:"index"`
	Literal string `json:"literal" yaml:"literal"`
}

// Writer accepts records in order. Close flushes formats that need the whole
// sequence before writing; it does not close the underlying io.Writer.
type Writer interface {
	Write(Record) error
	Close() error
}

// Options tune individual formats.
type Options struct {
	// NullSeparated ends text records with NUL instead of newline.
	NullSeparated bool
	// Render passes markdown output through a terminal renderer.
	Render bool
}

// New returns a Writer for the named format.
func New(format string, w io.Writer, opts Options) (Writer, error) {
	logging.Get(logging.CategoryOutput).Debug("Writer %q (null=%v render=%v)", format, opts.NullSeparated, opts.Render)
	switch format {
	case "", "text":
		sep := "\n"
		if opts.NullSeparated {
			sep = "\x00"
		}
		return &textWriter{w: w, sep: sep}, nil
	case "json":
		return newJSONWriter(w), nil
	case "yaml":
		return &yamlWriter{w: w}, nil
	case "mangle":
		return &mangleWriter{w: w}, nil
	case "markdown":
		return &markdownWriter{w: w, render: opts.Render}, nil
	case "styled":
		return newStyledWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// textWriter prints each literal followed by a separator.
type textWriter struct {
	w   io.Writer
	sep string
}

func (t *textWriter) Write(r Record) error {
	_, err := io.WriteString(t.w, r.Literal+t.sep)
	return err
}

func (t *textWriter) Close() error { return nil }
