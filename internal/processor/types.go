package processor

import (
	"runtime"

	"epubfit/internal/archive"
)

// Options tunes the per-image worker pool.
type Options struct {
	// Workers bounds concurrent image transforms; 0 means runtime.NumCPU().
	Workers int
}

func (o Options) workers(jobs int) int {
	n := o.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Reporter receives stage log lines and stage-local progress in [0,100].
type Reporter interface {
	Logf(format string, args ...any)
	Progress(percent float64)
}

// OutcomeKind tags the result of one image transform.
type OutcomeKind int

const (
	// Kept means the original bytes were retained.
	Kept OutcomeKind = iota
	// Transformed means the entry now carries new bytes.
	Transformed
)

func (k OutcomeKind) String() string {
	if k == Transformed {
		return "transformed"
	}
	return "kept"
}

// Outcome is the tagged per-image result: Transformed(newBytes) or
// Kept(originalBytes, reason). A failure is a Kept outcome with Err set.
type Outcome struct {
	Index  int
	Path   string
	Kind   OutcomeKind
	Data   []byte
	Reason string
	Err    *ItemError
	Notes  []string
}

func transformed(e archive.Entry, data []byte, notes ...string) Outcome {
	return Outcome{Path: e.Path, Kind: Transformed, Data: data, Notes: notes}
}

func kept(e archive.Entry, reason string) Outcome {
	return Outcome{Path: e.Path, Kind: Kept, Data: e.Content, Reason: reason}
}

func failed(e archive.Entry, err *ItemError) Outcome {
	return Outcome{Path: e.Path, Kind: Kept, Data: e.Content, Reason: err.Error(), Err: err}
}

// Summary aggregates the outcomes of one stage.
type Summary struct {
	Candidates  int
	Transformed int
	Kept        int
	Errors      int
	BytesSaved  int64
}

func (s *Summary) add(o Outcome, originalSize int) {
	switch o.Kind {
	case Transformed:
		s.Transformed++
		s.BytesSaved += int64(originalSize - len(o.Data))
	default:
		s.Kept++
	}
	if o.Err != nil {
		s.Errors++
	}
}
