package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEmptyDatabaseLoadsEmptySnapshot(t *testing.T) {
	db := tempDB(t)
	snap, err := db.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Items) != 0 || len(snap.Members) != 0 || len(snap.Librarians) != 0 {
		t.Fatalf("want empty snapshot, got %+v", snap)
	}
}

func TestSnapshotSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)
	want := populated(t).Snapshot()

	if err := db.SaveSnapshot(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A second save replaces rather than appends.
	if err := db.SaveSnapshot(ctx, want); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := db.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Items) != len(want.Items) {
		t.Fatalf("items: want %d, got %d", len(want.Items), len(got.Items))
	}
	if len(got.Members) != 2 || len(got.Librarians) != 1 {
		t.Fatalf("people: got %d members, %d librarians", len(got.Members), len(got.Librarians))
	}
	if b := got.Members[0].Borrowed; len(b) != 2 || b[0].ID != "isbn-dune" || b[1].ID != "MAG0001" {
		t.Fatalf("holdings lost borrow order: %+v", b)
	}
	if got.Counters["MBR"] != 2 || got.Counters["VID"] != 1 {
		t.Fatalf("counters: %+v", got.Counters)
	}

	reg := NewRegistry()
	if err := reg.Restore(got); err != nil {
		t.Fatalf("restore loaded snapshot: %v", err)
	}
	if holder, ok := reg.HolderOf(KindBook, "isbn-dune"); !ok || holder.ID != "MBR0001" {
		t.Fatalf("holder of dune: %v %v", holder, ok)
	}
}

func TestEventJournal(t *testing.T) {
	ctx := context.Background()
	db := tempDB(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 123, time.UTC)

	first := Event{ID: uuid.New(), Type: EventItemCheckedOut, ItemKind: "Book", ItemID: "isbn-1", PersonID: "MBR0001", OccurredAt: at}
	second := Event{ID: uuid.New(), Type: EventReturnFailed, ItemKind: "Book", ItemID: "isbn-1", PersonID: "MBR0002", Reason: "not_in_borrowed_list", OccurredAt: at.Add(time.Minute)}
	for _, e := range []Event{first, second} {
		if err := db.AppendEvent(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := db.AppendEvent(ctx, first); err == nil {
		t.Fatalf("duplicate event id accepted")
	}

	events, err := db.Events(ctx, 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 events, got %d", len(events))
	}
	if events[0].ID != second.ID || events[0].Reason != "not_in_borrowed_list" {
		t.Fatalf("newest first: got %+v", events[0])
	}
	if !events[1].OccurredAt.Equal(at) {
		t.Fatalf("timestamp: want %v, got %v", at, events[1].OccurredAt)
	}

	latest, err := db.Events(ctx, 1)
	if err != nil {
		t.Fatalf("events limit: %v", err)
	}
	if len(latest) != 1 || latest[0].ID != second.ID {
		t.Fatalf("limit 1: got %+v", latest)
	}
}

func TestSchemaTooNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	if _, err := db.db.Exec(`UPDATE meta SET value=? WHERE key='schema_version'`, schemaVersion+1); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := NewDatabase(path); !errors.Is(err, ErrSchemaTooNew) {
		t.Fatalf("want ErrSchemaTooNew, got %v", err)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lib.db")
	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	db.Close()

	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if _, err := db.LoadSnapshot(context.Background()); err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
}
