package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/framewire/internal/pump"
)

type boostCmd struct {
	Level   int    `cbor:"level"`
	Subject string `cbor:"subject"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndRecent_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	payload, err := EncodePayload(&boostCmd{Level: 3, Subject: "shadows"})
	require.NoError(t, err)

	enqueued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	want := Entry{
		ID:          uuid.NewString(),
		Seq:         7,
		Tick:        12,
		EnqueueTick: 9,
		Origin:      "dispatch",
		Variant:     "journal.boostCmd",
		FrameDelay:  3,
		Delay:       250 * time.Millisecond,
		EnqueuedAt:  enqueued,
		ExecutedAt:  enqueued.Add(50 * time.Millisecond),
		Payload:     payload,
	}
	require.NoError(t, store.Append(ctx, want))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, want, entries[0])

	var decoded boostCmd
	require.NoError(t, DecodePayload(entries[0].Payload, &decoded))
	assert.Equal(t, boostCmd{Level: 3, Subject: "shadows"}, decoded)
}

func TestRecent_MostRecentFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for seq := uint64(1); seq <= 5; seq++ {
		require.NoError(t, store.Append(ctx, Entry{
			ID:      uuid.NewString(),
			Seq:     seq,
			Origin:  "push",
			Variant: "journal.boostCmd",
		}))
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(5), entries[0].Seq)
	assert.Equal(t, uint64(4), entries[1].Seq)
	assert.Equal(t, uint64(3), entries[2].Seq)
}

func TestRecorder_AppendsPumpRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	recorder := NewRecorder(store)

	executed := time.Date(2025, 6, 1, 12, 0, 1, 0, time.UTC)
	recorder.Record(ctx, pump.Record{
		Seq:         42,
		Tick:        100,
		EnqueueTick: 97,
		Origin:      pump.OriginDispatch,
		Variant:     "journal.boostCmd",
		FrameDelay:  3,
		EnqueuedAt:  executed.Add(-50 * time.Millisecond),
		ExecutedAt:  executed,
		Command:     &boostCmd{Level: 1, Subject: "bloom"},
	})

	entries, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, uint64(42), got.Seq)
	assert.Equal(t, uint64(100), got.Tick)
	assert.Equal(t, "dispatch", got.Origin)

	var decoded boostCmd
	require.NoError(t, DecodePayload(got.Payload, &decoded))
	assert.Equal(t, "bloom", decoded.Subject)
}

func TestEncodePayload_Deterministic(t *testing.T) {
	first, err := EncodePayload(&boostCmd{Level: 2, Subject: "vignette"})
	require.NoError(t, err)
	second, err := EncodePayload(&boostCmd{Level: 2, Subject: "vignette"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
