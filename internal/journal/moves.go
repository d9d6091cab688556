package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/biblioteca/internal/models"
)

// PendingMove is the durable marker of a cross-category move that has not
// reached its destination store yet.
type PendingMove struct {
	ID          string
	RecordID    string
	Origin      string
	Destination string
	// Record is the edited record bound for Destination.
	Record models.Record
	// Original is the row as it stood in Origin before the move.
	Original  models.Record
	CreatedAt time.Time
}

// BeginMove stores a marker holding the record before and after its edit
// and returns the marker id.
func (db *DB) BeginMove(ctx context.Context, before, after models.Record, origin, destination string) (string, error) {
	payload, err := json.Marshal(after.Map())
	if err != nil {
		return "", fmt.Errorf("journal: encode record: %w", err)
	}
	original, err := json.Marshal(before.Map())
	if err != nil {
		return "", fmt.Errorf("journal: encode original: %w", err)
	}
	id := uuid.NewString()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO pending_moves (id, record_id, origin, destination, payload, original, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, after.ID, origin, destination, string(payload), string(original), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("journal: begin move: %w", err)
	}
	return id, nil
}

// CompleteMove removes the marker.
func (db *DB) CompleteMove(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM pending_moves WHERE id = ?`, id); err != nil {
		return fmt.Errorf("journal: complete move: %w", err)
	}
	return nil
}

// PendingMoves returns every open marker, oldest first.
func (db *DB) PendingMoves(ctx context.Context) ([]PendingMove, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, record_id, origin, destination, payload, original, created_at
		FROM pending_moves
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("journal: pending moves: %w", err)
	}
	defer rows.Close()

	var out []PendingMove
	for rows.Next() {
		var (
			m                 PendingMove
			payload, original string
		)
		if err := rows.Scan(&m.ID, &m.RecordID, &m.Origin, &m.Destination, &payload, &original, &m.CreatedAt); err != nil {
			return nil, err
		}
		var err error
		if m.Record, err = decodeRecord(payload); err != nil {
			return nil, fmt.Errorf("journal: decode move %s: %w", m.ID, err)
		}
		if m.Original, err = decodeRecord(original); err != nil {
			return nil, fmt.Errorf("journal: decode move %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func decodeRecord(payload string) (models.Record, error) {
	var values map[string]string
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return models.Record{}, err
	}
	return models.RecordFromMap(values), nil
}
