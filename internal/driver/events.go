package driver

import "time"

// Stage describes a phase of analyzing one file.
type Stage string

const (
	// StageLoad reads the tree document and program text.
	StageLoad Stage = "load"
	// StageDecode builds the syntax tree.
	StageDecode Stage = "decode"
	// StageTranslate lowers the tree to IR.
	StageTranslate Stage = "translate"
	// StageAnalyze runs the pass pipeline.
	StageAnalyze Stage = "analyze"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is in the event's stage.
	StatusWorking Status = "working"
	// StatusDone indicates the file is finished.
	StatusDone Status = "done"
	// StatusCached indicates the file was served from the disk cache.
	StatusCached Status = "cached"
	// StatusError indicates analysis of the file failed.
	StatusError Status = "error"
)

// Event reports progress for a file. The final event of a file, the one with
// a finished status, carries its diagnostic counts.
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Err      error
	Elapsed  time.Duration
	Errors   int
	Warnings int
}

// Finished reports whether no further events follow for the file.
func (e Event) Finished() bool {
	switch e.Status {
	case StatusDone, StatusCached, StatusError:
		return true
	}
	return false
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use.
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

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
