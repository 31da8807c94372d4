// Package pipeline runs the five transformation stages over one source
// archive and composes their progress into a single monotonic value.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"epubfit/internal/archive"
	"epubfit/internal/logging"
	"epubfit/internal/processor"
	"epubfit/internal/profile"
	"epubfit/internal/textrules"
)

// OutputPrefix is prepended to the source base name to form the output name.
const OutputPrefix = "repacked-"

// Source is the byte-source abstraction: the archive bytes and the name they
// were supplied under.
type Source struct {
	Name string
	Data []byte
}

// Options configures an Orchestrator.
type Options struct {
	// Workers bounds per-image concurrency; 0 means runtime.NumCPU().
	Workers int
	Logger  *slog.Logger
}

// Result is the output of a successful run.
type Result struct {
	RunID      string
	ProfileID  string
	OutputName string
	Archive    []byte
	Entries    int
	Log        []string
	Warnings   []*textrules.Warning
	Resize     processor.Summary
	Quantize   processor.Summary
	Elapsed    time.Duration
}

// RunError reports a run that ended without output.
type RunError struct {
	RunID string
	Stage string
	Log   []string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Orchestrator executes runs against an immutable profile table.
type Orchestrator struct {
	table  *profile.Table
	opts   processor.Options
	logger *slog.Logger
}

// New returns an orchestrator bound to table.
func New(table *profile.Table, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		table:  table,
		opts:   processor.Options{Workers: opts.Workers},
		logger: logger,
	}
}

// Table returns the profile table the orchestrator was built with.
func (o *Orchestrator) Table() *profile.Table {
	return o.table
}

// OutputName derives the name of the repackaged archive from a source name.
func OutputName(sourceName string) string {
	base := path.Base(strings.ReplaceAll(sourceName, "\\", "/"))
	if base == "." || base == "/" {
		base = "book.epub"
	}
	return OutputPrefix + base
}

// Run transforms src with the profile named profileID. Updates are sent on
// updates as they happen; a nil channel disables them. Unpack and Repack
// failures, an unknown profile and cancellation end the run with a
// *RunError. Per-image failures never do.
func (o *Orchestrator) Run(ctx context.Context, runID string, src Source, profileID string, updates chan<- Update) (*Result, error) {
	start := time.Now()
	state := newRunState(ctx, runID, updates)
	logger := o.logger.With(slog.String("run_id", runID), slog.String("profile", profileID))

	fail := func(err error) (*Result, error) {
		stage := state.stageName()
		state.Logf("Error: %v", err)
		state.finish()
		logger.Error("run failed", slog.String("stage", stage), logging.Error(err))
		return nil, &RunError{RunID: runID, Stage: stage, Log: state.Log(), Err: err}
	}

	p, err := o.table.Lookup(profileID)
	if err != nil {
		return fail(err)
	}

	res := &Result{RunID: runID, ProfileID: p.ID, OutputName: OutputName(src.Name)}
	state.Logf("Processing %s with profile %s.", src.Name, p.Name)

	state.enter(StageUnpack)
	logger.Debug("stage started", slog.String("stage", "Unpack"), slog.Int("bytes", len(src.Data)))
	entries, err := archive.Unpack(ctx, src.Data, state.Progress)
	if err != nil {
		return fail(err)
	}
	state.entries = entries
	state.Logf("Unpacked %d files.", len(entries))

	state.enter(StageTemplate)
	state.entries, res.Warnings, err = textrules.Apply(ctx, state.entries, p, state)
	if err != nil {
		return fail(err)
	}

	state.enter(StageResize)
	state.entries, res.Resize, err = processor.Resize(ctx, state.entries, p, o.opts, state)
	if err != nil {
		return fail(err)
	}
	logger.Debug("stage finished", slog.String("stage", "Resize"),
		slog.Int("transformed", res.Resize.Transformed), slog.Int("errors", res.Resize.Errors))

	state.enter(StageQuantize)
	state.entries, res.Quantize, err = processor.Quantize(ctx, state.entries, p, o.opts, state)
	if err != nil {
		return fail(err)
	}
	logger.Debug("stage finished", slog.String("stage", "Quantize"),
		slog.Int("transformed", res.Quantize.Transformed), slog.Int("errors", res.Quantize.Errors))

	state.enter(StageRepack)
	state.Logf("Repacking EPUB...")
	var buf bytes.Buffer
	if err := archive.Repack(ctx, &buf, state.entries, state.Progress); err != nil {
		return fail(err)
	}

	res.Archive = buf.Bytes()
	res.Entries = len(state.entries)
	res.Elapsed = time.Since(start)
	state.Logf("Processing complete! Output: %s (%.1f KB)", res.OutputName, float64(len(res.Archive))/1024)
	state.finish()
	res.Log = state.Log()

	logger.Info("run complete",
		slog.Int("entries", res.Entries),
		slog.Int("bytes", len(res.Archive)),
		slog.Duration("elapsed", res.Elapsed))
	return res, nil
}
