package pump

import (
	"context"
	"time"

	"github.com/vk/framewire/internal/command"
)

// Record describes one command execution as observed by the pump.
type Record struct {
	Seq         uint64
	Tick        uint64
	EnqueueTick uint64
	Origin      Origin
	Variant     string
	FrameDelay  int
	Delay       time.Duration
	EnqueuedAt  time.Time
	ExecutedAt  time.Time

	// Command is the executed command value, for payload snapshots.
	Command command.Command
}

// Recorder observes executions. Implementations must not block the
// tick; failures are theirs to log and swallow.
type Recorder interface {
	Record(ctx context.Context, rec Record)
}

// MultiRecorder fans one execution record out to several recorders in
// order.
type MultiRecorder []Recorder

// Record implements Recorder.
func (m MultiRecorder) Record(ctx context.Context, rec Record) {
	for _, r := range m {
		r.Record(ctx, rec)
	}
}
