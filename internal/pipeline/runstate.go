package pipeline

import (
	"context"
	"fmt"
	"slices"

	"epubfit/internal/archive"
)

// Update is one incremental event of a run. Message is empty for
// progress-only updates.
type Update struct {
	RunID    string
	Stage    string
	Progress float64
	Message  string
	Done     bool
}

// RunState is the private working state of a single run: the entry list,
// a monotonic progress value and an append-only log. It is never shared
// between runs.
type RunState struct {
	done    <-chan struct{}
	id      string
	stage   int
	entries []archive.Entry

	progress float64
	log      []string
	updates  chan<- Update
}

func newRunState(ctx context.Context, id string, updates chan<- Update) *RunState {
	return &RunState{done: ctx.Done(), id: id, updates: updates}
}

// Logf appends a line to the run log.
func (s *RunState) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.log = append(s.log, msg)
	s.emit(Update{Message: msg})
}

// Progress records stage-local progress. The global value never decreases.
func (s *RunState) Progress(local float64) {
	g := GlobalProgress(s.stage, local)
	if g <= s.progress {
		return
	}
	s.progress = g
	s.emit(Update{})
}

// Log returns a copy of the run log.
func (s *RunState) Log() []string {
	return slices.Clone(s.log)
}

func (s *RunState) enter(stage int) {
	s.stage = stage
	s.Progress(0)
}

func (s *RunState) finish() {
	s.progress = 100
	s.emit(Update{Done: true})
}

func (s *RunState) stageName() string {
	if s.stage < len(Stages) {
		return Stages[s.stage].Name
	}
	return ""
}

func (s *RunState) emit(u Update) {
	if s.updates == nil {
		return
	}
	u.RunID = s.id
	u.Stage = s.stageName()
	u.Progress = s.progress
	select {
	case s.updates <- u:
	case <-s.done:
	}
}
