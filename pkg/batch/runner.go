// Package batch summarizes a single document or every supported document in
// a folder, writing the detailed and short results next to each input.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kcaldas/synopsis/pkg/condense"
	"github.com/kcaldas/synopsis/pkg/fileops"
	"github.com/kcaldas/synopsis/pkg/logging"
)

// Summarizer condenses one document's text.
type Summarizer interface {
	Summarize(ctx context.Context, source, text string) (*condense.Result, error)
}

// Loader extracts text from a file.
type Loader interface {
	Load(path string) (string, error)
}

// Outcome records what happened to one input.
type Outcome struct {
	Input   string
	Outputs fileops.Outputs
	Skipped string // reason, empty when processed
	Rounds  int
	Elapsed time.Duration
	Err     error
}

// Report summarizes a run.
type Report struct {
	Outcomes []Outcome
}

// Processed counts inputs that produced outputs.
func (r Report) Processed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Skipped == "" && o.Err == nil {
			n++
		}
	}
	return n
}

// Err joins every per-document failure.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Runner drives summaries over files.
type Runner struct {
	summarizer Summarizer
	loader     Loader
	namer      *fileops.Namer
	files      fileops.Manager
	supported  func(path string) bool
	logger     logging.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFileManager overrides the file access layer.
func WithFileManager(m fileops.Manager) Option {
	return func(r *Runner) {
		if m != nil {
			r.files = m
		}
	}
}

// NewRunner wires a runner. supported filters folder entries by name.
func NewRunner(summarizer Summarizer, loader Loader, namer *fileops.Namer, supported func(string) bool, opts ...Option) *Runner {
	r := &Runner{
		summarizer: summarizer,
		loader:     loader,
		namer:      namer,
		files:      fileops.NewFileOpsManager(),
		supported:  supported,
		logger:     logging.NewOperationLogger("batch", "summarize"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run summarizes target, a file or a folder. Failures of individual
// documents are logged and do not stop a folder run.
func (r *Runner) Run(ctx context.Context, target string) (Report, error) {
	info, err := os.Stat(target)
	if err != nil {
		return Report{}, fmt.Errorf("stat %s: %w", target, err)
	}

	var inputs []string
	if info.IsDir() {
		inputs, err = r.collect(target)
		if err != nil {
			return Report{}, err
		}
		r.logger.Info("folder scanned", "path", target, "documents", len(inputs))
	} else {
		inputs = []string{target}
	}

	var report Report
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome := r.process(ctx, input)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Err != nil && errors.Is(outcome.Err, ctx.Err()) {
			return report, outcome.Err
		}
	}
	return report, report.Err()
}

// collect lists the folder's supported files in lexical order. Subfolders
// are not descended into.
func (r *Runner) collect(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", dir, err)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !r.supported(path) {
			r.logger.Debug("skipping unsupported file", "path", path)
			continue
		}
		if fileops.IsOutput(path) {
			r.logger.Debug("skipping previous output", "path", path)
			continue
		}
		inputs = append(inputs, path)
	}
	return inputs, nil
}

func (r *Runner) process(ctx context.Context, input string) Outcome {
	outcome := Outcome{Input: input}

	outputs, err := r.namer.For(input)
	if err != nil {
		outcome.Err = fmt.Errorf("%s: %w", input, err)
		return outcome
	}
	outcome.Outputs = outputs

	if fileops.AnyExists(r.files, outputs) {
		outcome.Skipped = "output exists"
		r.logger.Info("skipping, output exists", "path", input)
		return outcome
	}

	start := time.Now()
	r.logger.Info("summarizing", "path", input)

	text, err := r.loader.Load(input)
	if err != nil {
		outcome.Err = err
		logging.LogError(ctx, r.logger, "load failed", err, "path", input)
		return outcome
	}

	result, err := r.summarizer.Summarize(ctx, input, text)
	if err != nil {
		outcome.Err = fmt.Errorf("%s: %w", input, err)
		logging.LogError(ctx, r.logger, "summarize failed", err, "path", input)
		return outcome
	}

	for _, artifact := range []struct{ path, text string }{
		{outputs.Detailed, result.Detailed},
		{outputs.Short, result.Short},
	} {
		if err := r.files.WriteNew(artifact.path, []byte(artifact.text)); err != nil {
			outcome.Err = err
			logging.LogErrorWithOperation(ctx, r.logger, "persist", "write failed", err, "path", artifact.path)
			return outcome
		}
	}

	outcome.Rounds = result.Rounds
	outcome.Elapsed = time.Since(start)
	r.logger.Info("document done", "path", input, "rounds", result.Rounds,
		"seconds", outcome.Elapsed.Seconds(), "detailed", outputs.Detailed, "short", outputs.Short)
	return outcome
}
