package journal

import (
	"context"
	"os"
	"testing"

	"github.com/starford/biblioteca/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "biblioteca-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pending_moves`).Scan(&count); err != nil {
		t.Fatalf("pending_moves table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM events`).Scan(&count); err != nil {
		t.Fatalf("events table missing: %v", err)
	}
}

func TestMoveLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	before := models.Record{ID: "00003", Title: "Morte e Vida", Category: "Livro"}
	rec := models.Record{ID: "00003", Title: "Morte e Vida Severina", Category: "Folhetos", Number: models.ParseNumber("1,5")}

	id, err := db.BeginMove(ctx, before, rec, "Livro", "Folhetos")
	if err != nil {
		t.Fatalf("BeginMove: %v", err)
	}

	pending, err := db.PendingMoves(ctx)
	if err != nil {
		t.Fatalf("PendingMoves: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	m := pending[0]
	if m.ID != id || m.RecordID != "00003" || m.Origin != "Livro" || m.Destination != "Folhetos" {
		t.Errorf("marker = %+v", m)
	}
	if m.Record.Title != rec.Title || m.Record.Number.String() != "1.5" {
		t.Errorf("payload = %+v", m.Record)
	}
	if m.Original.Title != "Morte e Vida" || m.Original.Category != "Livro" {
		t.Errorf("original = %+v", m.Original)
	}
	if m.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	if err := db.CompleteMove(ctx, id); err != nil {
		t.Fatalf("CompleteMove: %v", err)
	}
	pending, _ = db.PendingMoves(ctx)
	if len(pending) != 0 {
		t.Errorf("pending after complete = %d", len(pending))
	}
}

func TestHistory(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.Record(ctx, Event{Kind: KindInsert, Category: "Livro", RecordID: "00001"})
	_ = db.Record(ctx, Event{Kind: KindInsert, Category: "Outros", RecordID: "00001"})
	_ = db.Record(ctx, Event{Kind: KindDelete, Category: "Livro", RecordID: "00001"})

	all, err := db.History(ctx, 0, "")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Kind != KindDelete {
		t.Errorf("most recent first: got %q", all[0].Kind)
	}

	livro, _ := db.History(ctx, 10, "Livro")
	if len(livro) != 2 {
		t.Errorf("Livro events = %d, want 2", len(livro))
	}

	one, _ := db.History(ctx, 1, "")
	if len(one) != 1 {
		t.Errorf("limit ignored: %d", len(one))
	}
}
