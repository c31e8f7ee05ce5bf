package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/mangle/ast"
	"gopkg.in/yaml.v3"
)

// jsonWriter emits JSON Lines.
type jsonWriter struct {
	enc *json.Encoder
}

func newJSONWriter(w io.Writer) *jsonWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &jsonWriter{enc: enc}
}

func (j *jsonWriter) Write(r Record) error {
	return j.enc.Encode(r)
}

func (j *jsonWriter) Close() error { return nil }

// yamlWriter collects records and writes a single sequence on Close.
type yamlWriter struct {
	w       io.Writer
	records []Record
}

func (y *yamlWriter) Write(r Record) error {
	y.records = append(y.records, r)
	return nil
}

func (y *yamlWriter) Close() error {
	records := y.records
	if records == nil {
		records = []Record{}
	}
	enc := yaml.NewEncoder(y.w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// LiteralPredicate is the predicate name of emitted Mangle facts.
const LiteralPredicate = "literal"

// Fact builds the Mangle atom literal(Source, Index, Literal).
func Fact(r Record) ast.Atom {
	return ast.NewAtom(LiteralPredicate,
		ast.String(r.Source),
		ast.Number(int64(r.Index)),
		ast.String(r.Literal),
	)
}

// mangleWriter emits one Datalog fact per record.
type mangleWriter struct {
	w io.Writer
}

func (m *mangleWriter) Write(r Record) error {
	_, err := fmt.Fprintf(m.w, "%s.\n", Fact(r).String())
	return err
}

func (m *mangleWriter) Close() error { return nil }
