package journal

import (
	"context"

	"github.com/google/uuid"

	"github.com/vk/framewire/internal/ctxlog"
	"github.com/vk/framewire/internal/pump"
)

// Recorder adapts the Store to the pump's Recorder interface. Failures
// are logged and swallowed; recording must never disturb execution.
type Recorder struct {
	store *Store
}

// NewRecorder wraps a Store for use as a pump recorder.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// Record implements pump.Recorder.
func (r *Recorder) Record(ctx context.Context, rec pump.Record) {
	logger := ctxlog.FromContext(ctx)

	payload, err := EncodePayload(rec.Command)
	if err != nil {
		logger.Warn("Journal payload not encodable; storing entry without it.",
			"variant", rec.Variant, "error", err)
		payload = nil
	}

	entry := Entry{
		ID:          uuid.NewString(),
		Seq:         rec.Seq,
		Tick:        rec.Tick,
		EnqueueTick: rec.EnqueueTick,
		Origin:      string(rec.Origin),
		Variant:     rec.Variant,
		FrameDelay:  rec.FrameDelay,
		Delay:       rec.Delay,
		EnqueuedAt:  rec.EnqueuedAt,
		ExecutedAt:  rec.ExecutedAt,
		Payload:     payload,
	}

	if err := r.store.Append(ctx, entry); err != nil {
		logger.Error("🔥 Failed to append journal entry.", "variant", rec.Variant, "error", err)
	}
}
