package library

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Store persists registry snapshots and the event journal. Database is the
// SQLite implementation.
type Store interface {
	SaveSnapshot(ctx context.Context, s Snapshot) error
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	AppendEvent(ctx context.Context, e Event) error
	Events(ctx context.Context, limit int) ([]Event, error)
	Close() error
}

// LibraryManager is a thin façade over the Registry and an optional Store,
// keeping CLI code simple.
type LibraryManager struct {
	reg    *Registry
	store  Store
	logger *slog.Logger
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath and
// restores the registry from it. An empty dbPath keeps everything in memory.
// Extra recorders receive every registry event alongside the journal.
func NewLibraryManager(dbPath string, logger *slog.Logger, recorders ...Recorder) (*LibraryManager, error) {
	var store Store
	if dbPath != "" {
		db, err := NewDatabase(dbPath)
		if err != nil {
			return nil, err
		}
		store = db
	}
	return NewLibraryManagerWithStore(context.Background(), store, logger, recorders...)
}

// NewLibraryManagerWithStore is NewLibraryManager for an already opened store.
// store may be nil.
func NewLibraryManagerWithStore(ctx context.Context, store Store, logger *slog.Logger, recorders ...Recorder) (*LibraryManager, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	lm := &LibraryManager{store: store, logger: logger}

	rs := append([]Recorder{}, recorders...)
	if store != nil {
		rs = append(rs, NewJournalRecorder(store, logger))
	}
	lm.reg = NewRegistry(WithLogger(logger), WithRecorder(Recorders(rs...)))

	if store != nil {
		snap, err := store.LoadSnapshot(ctx)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		if err := lm.reg.Restore(snap); err != nil {
			store.Close()
			return nil, err
		}
		for _, r := range recorders {
			if m, ok := r.(*Metrics); ok {
				m.SyncOnLoan(snap)
			}
		}
	}
	return lm, nil
}

// Close closes the underlying store, if any.
func (lm *LibraryManager) Close() error {
	if lm.store == nil {
		return nil
	}
	return lm.store.Close()
}

func (lm *LibraryManager) Registry() *Registry { return lm.reg }
func (lm *LibraryManager) Persistent() bool    { return lm.store != nil }

// Save writes the current registry state to the store.
func (lm *LibraryManager) Save(ctx context.Context) error {
	if lm.store == nil {
		return nil
	}
	snap := lm.reg.Snapshot()
	if err := lm.store.SaveSnapshot(ctx, snap); err != nil {
		lm.logger.Error("save snapshot", "err", err)
		return fmt.Errorf("save snapshot: %w", err)
	}
	lm.logger.Debug("snapshot saved", "items", len(snap.Items), "members", len(snap.Members))
	return nil
}

// Events returns the newest journal entries. Without a store there is no journal.
func (lm *LibraryManager) Events(ctx context.Context, limit int) ([]Event, error) {
	if lm.store == nil {
		return nil, nil
	}
	return lm.store.Events(ctx, limit)
}

// Seed adds catalog items that are not already present: books are matched by
// ISBN, videos and magazines by title. It returns how many were added.
func (lm *LibraryManager) Seed(c Catalog) int {
	seen := make(map[ItemKind]map[string]bool, len(ItemKinds))
	for _, kind := range ItemKinds {
		seen[kind] = make(map[string]bool)
		for _, it := range lm.reg.Items(kind) {
			seen[kind][seedKey(it)] = true
		}
	}

	added := 0
	for _, it := range c.Items() {
		if seen[it.Kind()][seedKey(it)] {
			continue
		}
		lm.reg.AddItem(it)
		seen[it.Kind()][seedKey(it)] = true
		added++
	}
	lm.logger.Info("catalog seeded", "added", added, "skipped", c.Len()-added)
	return added
}

func seedKey(it *Item) string {
	if it.Kind() == KindBook {
		return it.ID()
	}
	return it.Title
}

// ------------------ Utilities ------------------

// PrettyItem formats an item for lists.
func PrettyItem(it *Item, holder string) string {
	return fmt.Sprintf("%-15s %-30s %-6d %-18s %-10t %-20s", it.ID(), truncate(it.Title, 30), it.Year, truncate(it.Genre, 18), it.Available(), holder)
}

// PrettyPerson formats a member or librarian for lists.
func PrettyPerson(p Person) string {
	c := p.Contact()
	return fmt.Sprintf("%-8s %-30s %-30s", p.Identifier(), truncate(c.FullName(), 30), truncate(c.Email, 30))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// JournalRecorder appends registry events to a Store. Write failures are
// logged; the lending operation that produced the event has already happened.
type JournalRecorder struct {
	store  Store
	logger *slog.Logger
}

func NewJournalRecorder(store Store, logger *slog.Logger) *JournalRecorder {
	return &JournalRecorder{store: store, logger: logger}
}

func (j *JournalRecorder) Record(e Event) {
	if err := j.store.AppendEvent(context.Background(), e); err != nil {
		j.logger.Error("journal append", "event", e.Type, "err", err)
	}
}
