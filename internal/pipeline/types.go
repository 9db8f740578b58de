package pipeline

import "time"

// Stage names one step of a run. The values double as error labels.
type Stage string

const (
	// StageExpandMacro runs the preprocessor over the real input.
	StageExpandMacro Stage = "expand-macro"
	// StageExpand parses the intermediate text and rewrites kernels.
	StageExpand Stage = "drai-expand"
	// StageWriteOutput writes the final text.
	StageWriteOutput Stage = "write-output"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one unit.
type Event struct {
	Unit    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Batch runs call OnEvent from
// several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, unit string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Unit: unit, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

// Timings holds stage durations of one run.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
