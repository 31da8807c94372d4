// Package processor holds the raster image stages of the pipeline: the
// resizer and the grayscale quantizer. Both fan selected images out over a
// bounded worker pool and fold each result back into its input position, so
// the output order never depends on completion order. A failing image is
// kept as-is and never aborts its stage.
package processor

import (
	"context"
	"slices"
	"sync"

	"epubfit/internal/archive"
)

type job struct {
	index int
	entry archive.Entry
}

type transformFunc func(ctx context.Context, e archive.Entry) Outcome

// run applies fn to every entry whose index is in selected. Progress is
// reported from the calling goroutine as each image completes.
func run(ctx context.Context, entries []archive.Entry, selected []int, fn transformFunc, opts Options, rep Reporter) ([]archive.Entry, Summary, error) {
	out := slices.Clone(entries)
	summary := Summary{Candidates: len(selected)}
	if len(selected) == 0 {
		return out, summary, nil
	}

	jobs := make(chan job)
	results := make(chan Outcome)

	workers := opts.workers(len(selected))
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, fn)
		}()
	}

	go func() {
		defer close(jobs)
		for _, idx := range selected {
			select {
			case jobs <- job{index: idx, entry: entries[idx]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for res := range results {
		original := entries[res.Index]
		summary.add(res, len(original.Content))
		if res.Kind == Transformed {
			out[res.Index] = original.WithContent(res.Data)
		}
		logOutcome(rep, res)

		done++
		rep.Progress(float64(done) / float64(len(selected)) * 100)
	}

	if err := ctx.Err(); err != nil {
		return nil, summary, err
	}
	return out, summary, nil
}

func worker(ctx context.Context, jobs <-chan job, results chan<- Outcome, fn transformFunc) {
	for j := range jobs {
		if ctx.Err() != nil {
			continue
		}
		res := fn(ctx, j.entry)
		res.Index = j.index
		res.Path = j.entry.Path
		results <- res
	}
}

func logOutcome(rep Reporter, res Outcome) {
	for _, note := range res.Notes {
		rep.Logf("%s", note)
	}
	switch {
	case res.Err != nil:
		rep.Logf("Error processing %s: %v. Keeping original.", res.Path, res.Err.Err)
	case res.Kind == Kept && res.Reason != "":
		rep.Logf(" -> %s: skipped (%s)", res.Path, res.Reason)
	}
}

// selectEntries returns the indexes of entries accepted by keep.
func selectEntries(entries []archive.Entry, keep func(archive.Entry) bool) []int {
	var idx []int
	for i, e := range entries {
		if keep(e) {
			idx = append(idx, i)
		}
	}
	return idx
}
