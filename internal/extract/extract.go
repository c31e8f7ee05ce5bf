// Package extract runs the fence automaton over one or more inputs.
//
// Each input gets its own fence.Machine. Several inputs are read in parallel,
// but every single input is scanned sequentially, rune by rune.
package extract

import (
	"context"
	"fmt"
	"io"
	"time"

	"stringfinder/internal/fence"
	"stringfinder/internal/logging"
	"stringfinder/internal/source"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Input is a named character source, opened when its pass starts.
type Input struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileInput reads the named file, or stdin for "-".
func FileInput(path string) Input {
	return Input{
		Name: source.DisplayName(path),
		Open: func() (io.ReadCloser, error) { return source.Open(path) },
	}
}

// ReaderInput reads from r. r is not closed.
func ReaderInput(name string, r io.Reader) Input {
	return Input{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

// Result is the outcome of one pass over one input.
type Result struct {
	Source   string
	Literals []string
	Runes    int
	// Dangling is set when the input ended inside an open fence; the
	// DanglingRunes buffered for it were dropped.
	Dangling      bool
	DanglingRunes int
}

// Report groups the results of one run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Delimiters fence.Delimiters
	Results    []Result
}

// LiteralCount returns the number of literals across all results.
func (r *Report) LiteralCount() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Literals)
	}
	return n
}

// Runner extracts literals with a fixed pair of delimiters.
type Runner struct {
	delims      fence.Delimiters
	concurrency int
}

// NewRunner returns a Runner. concurrency below 1 is treated as 1.
func NewRunner(delims fence.Delimiters, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{delims: delims, concurrency: concurrency}
}

// Run extracts every input and returns results in input order. The first
// input that fails cancels the others.
func (r *Runner) Run(ctx context.Context, inputs []Input) (*Report, error) {
	report := &Report{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		Delimiters: r.delims,
		Results:    make([]Result, len(inputs)),
	}
	rlog := logging.WithRequestID(logging.CategoryExtract, report.RunID)
	rlog.Info("Run started: %d input(s), concurrency %d", len(inputs), r.concurrency)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)
	for i, in := range inputs {
		eg.Go(func() error {
			res, err := r.Stream(egCtx, in, func(string) error { return nil })
			if err != nil {
				return err
			}
			report.Results[i] = res
			logResult(report.RunID, res)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		rlog.Error("Run failed: %v", err)
		return nil, err
	}

	report.Duration = time.Since(report.StartedAt)
	rlog.Info("Run finished: %d literal(s) in %v", report.LiteralCount(), report.Duration)
	return report, nil
}

// RunStream extracts inputs one after another, calling fn for each literal as
// soon as its fence closes. Use it when output should keep up with input,
// such as a pipe on stdin.
func (r *Runner) RunStream(ctx context.Context, inputs []Input, fn func(source string, index int, literal string) error) (*Report, error) {
	report := &Report{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		Delimiters: r.delims,
		Results:    make([]Result, 0, len(inputs)),
	}
	rlog := logging.WithRequestID(logging.CategoryExtract, report.RunID)
	rlog.Info("Streaming run started: %d input(s)", len(inputs))

	for _, in := range inputs {
		idx := 0
		res, err := r.Stream(ctx, in, func(lit string) error {
			err := fn(in.Name, idx, lit)
			idx++
			return err
		})
		if err != nil {
			rlog.Error("Run failed: %v", err)
			return nil, err
		}
		report.Results = append(report.Results, res)
		logResult(report.RunID, res)
	}

	report.Duration = time.Since(report.StartedAt)
	rlog.Info("Run finished: %d literal(s) in %v", report.LiteralCount(), report.Duration)
	return report, nil
}

// Stream extracts a single input, calling fn for each literal as soon as its
// fence closes. The returned Result includes every literal passed to fn.
// Returning an error from fn stops the pass.
func (r *Runner) Stream(ctx context.Context, in Input, fn func(string) error) (Result, error) {
	res := Result{Source: in.Name}
	timer := logging.StartTimer(logging.CategoryExtract, "extract "+in.Name)
	defer timer.StopWithThreshold(SlowInputThreshold)

	rc, err := in.Open()
	if err != nil {
		return res, err
	}
	defer rc.Close()
	logging.ExtractDebug("%s: opened", in.Name)

	f := fence.NewFinder(newContextReader(ctx, source.NewLineJoiner(rc)), fence.WithDelimiters(r.delims))
	for f.Scan() {
		lit := f.Text()
		res.Literals = append(res.Literals, lit)
		if err := fn(lit); err != nil {
			return res, err
		}
	}
	res.Runes = f.Runes()
	if err := f.Err(); err != nil {
		return res, fmt.Errorf("failed to read %s: %w", in.Name, err)
	}

	if n, open := f.Dangling(); open {
		res.Dangling = true
		res.DanglingRunes = n
	}
	logging.Extract("%s: %d literal(s) from %d rune(s)", in.Name, len(res.Literals), res.Runes)
	return res, nil
}

// logResult records one finished input under its run ID.
func logResult(runID string, res Result) {
	rlog := logging.WithRequestID(logging.CategoryExtract, runID).
		WithField("source", res.Source).
		WithField("literals", len(res.Literals))
	if res.Dangling {
		rlog.Warn("input ended inside an open fence, %d rune(s) dropped", res.DanglingRunes)
		return
	}
	rlog.Debug("input done")
}

// SlowInputThreshold is how long a single input may take before its pass is
// logged as a warning.
const SlowInputThreshold = 2 * time.Second

// checkEvery is how many runes pass between context checks.
const checkEvery = 4096

// contextReader stops a rune stream once its context is done.
type contextReader struct {
	ctx   context.Context
	src   io.RuneReader
	count int
}

func newContextReader(ctx context.Context, src io.RuneReader) *contextReader {
	return &contextReader{ctx: ctx, src: src}
}

func (c *contextReader) ReadRune() (rune, int, error) {
	if c.count%checkEvery == 0 {
		if err := c.ctx.Err(); err != nil {
			return 0, 0, err
		}
	}
	c.count++
	return c.src.ReadRune()
}
