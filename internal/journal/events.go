package journal

import (
	"context"
	"fmt"
	"time"
)

// Event kinds.
const (
	KindInsert        = "insert"
	KindUpdate        = "update"
	KindMove          = "move"
	KindMoveFailed    = "move_failed"
	KindMoveRecovered = "move_recovered"
	KindDelete        = "delete"
	KindNormalize     = "normalize"
	KindExport        = "export"
)

// Event is one entry of the audit history.
type Event struct {
	ID       int64     `json:"id"`
	At       time.Time `json:"at"`
	Kind     string    `json:"kind"`
	Category string    `json:"category,omitempty"`
	RecordID string    `json:"record_id,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Record appends e to the history. A zero At is stamped with the current time.
func (db *DB) Record(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO events (at, kind, category, record_id, detail)
		VALUES (?, ?, ?, ?, ?)
	`, e.At.UTC(), e.Kind, e.Category, e.RecordID, e.Detail)
	if err != nil {
		return fmt.Errorf("journal: record event: %w", err)
	}
	return nil
}

// History returns the most recent events first, optionally restricted to
// one category. limit <= 0 means 50.
func (db *DB) History(ctx context.Context, limit int, category string) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, at, kind, category, record_id, detail
		FROM events
		WHERE ? = '' OR category = ?
		ORDER BY id DESC
		LIMIT ?
	`, category, category, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: history: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.At, &e.Kind, &e.Category, &e.RecordID, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
