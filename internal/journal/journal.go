package journal

import (
	"context"

	"github.com/starford/biblioteca/internal/models"
)

// Journal defines the operations the catalog needs from the journal.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type Journal interface {
	BeginMove(ctx context.Context, before, after models.Record, origin, destination string) (string, error)
	CompleteMove(ctx context.Context, id string) error
	PendingMoves(ctx context.Context) ([]PendingMove, error)
	Record(ctx context.Context, e Event) error
	History(ctx context.Context, limit int, category string) ([]Event, error)
}

// Verify *DB satisfies Journal at compile time.
var _ Journal = (*DB)(nil)
