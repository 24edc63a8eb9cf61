package driver

// Status captures progress state for one file.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is being rewritten.
	StatusWorking Status = "working"
	// StatusClean indicates the file needed no changes.
	StatusClean Status = "clean"
	// StatusFixed indicates the file was (or would be) rewritten.
	StatusFixed Status = "fixed"
	// StatusError indicates processing failed for the file.
	StatusError Status = "error"
)

// Event reports progress for one file.
type Event struct {
	File   string
	Status Status
	Err    error
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use: workers report from their own goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}

// ChannelSink forwards events into a channel, for the progress UI. The
// channel must be drained until the run finishes or workers block.
type ChannelSink struct {
	Ch chan Event
}

func (s ChannelSink) OnEvent(ev Event) { s.Ch <- ev }
