// Package journal is the execution flight recorder: one SQLite row per
// executed command, with a deterministic CBOR snapshot of the command
// value as the payload.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vk/framewire/internal/ctxlog"
)

// Entry is one recorded command execution.
type Entry struct {
	ID          string
	Seq         uint64
	Tick        uint64
	EnqueueTick uint64
	Origin      string
	Variant     string
	FrameDelay  int
	Delay       time.Duration
	EnqueuedAt  time.Time
	ExecutedAt  time.Time
	Payload     []byte
}

// Store persists journal entries in SQLite.
type Store struct {
	db *sql.DB
}

// migrations is applied in order on Open. Statements must stay
// idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		enqueue_tick INTEGER NOT NULL,
		origin TEXT NOT NULL,
		variant TEXT NOT NULL,
		frame_delay INTEGER NOT NULL,
		delay_ns INTEGER NOT NULL,
		enqueued_at_ns INTEGER NOT NULL,
		executed_at_ns INTEGER NOT NULL,
		payload BLOB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_executions_tick ON executions(tick)`,
	`CREATE INDEX IF NOT EXISTS idx_executions_variant ON executions(variant)`,
}

// Open opens (creating if needed) the journal database at path and
// applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	// WAL keeps appends cheap while the console reads recent entries.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal migration failed: %w", err)
		}
	}

	ctxlog.FromContext(ctx).Debug("Journal opened.", "path", path)
	return &Store{db: db}, nil
}

// Append writes one entry.
func (s *Store) Append(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (
			id, seq, tick, enqueue_tick, origin, variant,
			frame_delay, delay_ns, enqueued_at_ns, executed_at_ns, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Seq, e.Tick, e.EnqueueTick, e.Origin, e.Variant,
		e.FrameDelay, int64(e.Delay), e.EnqueuedAt.UnixNano(), e.ExecutedAt.UnixNano(), e.Payload,
	)
	if err != nil {
		return fmt.Errorf("appending journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, most recent execution first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, tick, enqueue_tick, origin, variant,
		       frame_delay, delay_ns, enqueued_at_ns, executed_at_ns, payload
		FROM executions
		ORDER BY seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var delayNS, enqueuedNS, executedNS int64
		if err := rows.Scan(
			&e.ID, &e.Seq, &e.Tick, &e.EnqueueTick, &e.Origin, &e.Variant,
			&e.FrameDelay, &delayNS, &enqueuedNS, &executedNS, &e.Payload,
		); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.Delay = time.Duration(delayNS)
		e.EnqueuedAt = time.Unix(0, enqueuedNS).UTC()
		e.ExecutedAt = time.Unix(0, executedNS).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
