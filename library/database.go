package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Database stores registry snapshots and the event journal in SQLite. It
// implements Store.
type Database struct {
	db *sql.DB

	appendEventStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.appendEventStmt != nil {
		d.appendEventStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current > schemaVersion {
		return fmt.Errorf("%w: found %d, want %d", ErrSchemaTooNew, current, schemaVersion)
	}
	if current == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
            kind TEXT NOT NULL,
            id TEXT NOT NULL,
            title TEXT NOT NULL,
            year INTEGER NOT NULL,
            genre TEXT NOT NULL,
            available BOOLEAN NOT NULL DEFAULT 1,
            author TEXT NOT NULL DEFAULT '',
            format TEXT NOT NULL DEFAULT '',
            duration INTEGER NOT NULL DEFAULT 0,
            publisher TEXT NOT NULL DEFAULT '',
            PRIMARY KEY (kind, id)
        );`,
		`CREATE TABLE IF NOT EXISTS people (
            id TEXT PRIMARY KEY,
            role TEXT NOT NULL,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS holdings (
            member_id TEXT NOT NULL REFERENCES people(id),
            position INTEGER NOT NULL,
            item_kind TEXT NOT NULL,
            item_id TEXT NOT NULL,
            PRIMARY KEY (member_id, position),
            UNIQUE (item_kind, item_id),
            FOREIGN KEY (item_kind, item_id) REFERENCES items(kind, id)
        );`,
		`CREATE TABLE IF NOT EXISTS counters (
            prefix TEXT PRIMARY KEY,
            value INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS events (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            type TEXT NOT NULL,
            item_kind TEXT NOT NULL DEFAULT '',
            item_id TEXT NOT NULL DEFAULT '',
            person_id TEXT NOT NULL DEFAULT '',
            reason TEXT NOT NULL DEFAULT '',
            occurred_at TEXT NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.appendEventStmt, err = d.db.Prepare(`INSERT INTO events(id,type,item_kind,item_id,person_id,reason,occurred_at) VALUES(?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// SaveSnapshot replaces the stored state with s in one transaction.
func (d *Database) SaveSnapshot(ctx context.Context, s Snapshot) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"holdings", "people", "items", "counters"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, it := range s.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items(kind,id,title,year,genre,available,author,format,duration,publisher) VALUES(?,?,?,?,?,?,?,?,?,?)`,
			it.Kind, it.ID, it.Title, it.Year, it.Genre, it.Available, it.Author, it.Format, it.Duration, it.Publisher); err != nil {
			return fmt.Errorf("save item %s: %w", it.ID, err)
		}
	}
	for _, m := range s.Members {
		if err := insertPerson(ctx, tx, RoleMember, m.PersonRecord); err != nil {
			return err
		}
		for pos, ref := range m.Borrowed {
			if _, err := tx.ExecContext(ctx, `INSERT INTO holdings(member_id,position,item_kind,item_id) VALUES(?,?,?,?)`,
				m.ID, pos, ref.Kind, ref.ID); err != nil {
				return fmt.Errorf("save holding %s/%s: %w", m.ID, ref.ID, err)
			}
		}
	}
	for _, l := range s.Librarians {
		if err := insertPerson(ctx, tx, RoleLibrarian, l); err != nil {
			return err
		}
	}
	for prefix, v := range s.Counters {
		if _, err := tx.ExecContext(ctx, `INSERT INTO counters(prefix,value) VALUES(?,?)`, prefix, v); err != nil {
			return fmt.Errorf("save counter %s: %w", prefix, err)
		}
	}
	return tx.Commit()
}

func insertPerson(ctx context.Context, tx *sql.Tx, role Role, p PersonRecord) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO people(id,role,first_name,last_name,email) VALUES(?,?,?,?,?)`,
		p.ID, role.String(), p.FirstName, p.LastName, p.Email)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", role, p.ID, err)
	}
	return nil
}

// LoadSnapshot reads the stored state. An empty database yields an empty snapshot.
func (d *Database) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	s := Snapshot{Counters: map[string]int{}, TakenAt: time.Now().UTC()}

	rows, err := d.db.QueryContext(ctx, `SELECT kind,id,title,year,genre,available,author,format,duration,publisher FROM items ORDER BY kind,id`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load items: %w", err)
	}
	for rows.Next() {
		var it ItemRecord
		if err := rows.Scan(&it.Kind, &it.ID, &it.Title, &it.Year, &it.Genre, &it.Available, &it.Author, &it.Format, &it.Duration, &it.Publisher); err != nil {
			rows.Close()
			return Snapshot{}, err
		}
		s.Items = append(s.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	holdings, err := d.loadHoldings(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	rows, err = d.db.QueryContext(ctx, `SELECT id,role,first_name,last_name,email FROM people ORDER BY id`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load people: %w", err)
	}
	for rows.Next() {
		var (
			p    PersonRecord
			role string
		)
		if err := rows.Scan(&p.ID, &role, &p.FirstName, &p.LastName, &p.Email); err != nil {
			rows.Close()
			return Snapshot{}, err
		}
		if role == RoleLibrarian.String() {
			s.Librarians = append(s.Librarians, p)
		} else {
			s.Members = append(s.Members, MemberRecord{PersonRecord: p, Borrowed: holdings[p.ID]})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	rows, err = d.db.QueryContext(ctx, `SELECT prefix,value FROM counters`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load counters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			prefix string
			v      int
		)
		if err := rows.Scan(&prefix, &v); err != nil {
			return Snapshot{}, err
		}
		s.Counters[prefix] = v
	}
	return s, rows.Err()
}

func (d *Database) loadHoldings(ctx context.Context) (map[string][]ItemRef, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT member_id,item_kind,item_id FROM holdings ORDER BY member_id,position`)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]ItemRef)
	for rows.Next() {
		var (
			memberID string
			ref      ItemRef
		)
		if err := rows.Scan(&memberID, &ref.Kind, &ref.ID); err != nil {
			return nil, err
		}
		out[memberID] = append(out[memberID], ref)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Event journal
// ---------------------------------------------------------------------------

// AppendEvent adds e to the journal.
func (d *Database) AppendEvent(ctx context.Context, e Event) error {
	_, err := d.appendEventStmt.ExecContext(ctx, e.ID.String(), string(e.Type), e.ItemKind, e.ItemID, e.PersonID, e.Reason,
		e.OccurredAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append event %s: %w", e.Type, err)
	}
	return nil
}

// Events returns the most recent journal entries, newest first. limit <= 0
// returns everything.
func (d *Database) Events(ctx context.Context, limit int) ([]Event, error) {
	q := `SELECT id,type,item_kind,item_id,person_id,reason,occurred_at FROM events ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e        Event
			id, at   string
			typeName string
		)
		if err := rows.Scan(&id, &typeName, &e.ItemKind, &e.ItemID, &e.PersonID, &e.Reason, &at); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("event %q: %w", id, err)
		}
		if e.OccurredAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("event %q: %w", id, err)
		}
		e.Type = EventType(typeName)
		events = append(events, e)
	}
	return events, rows.Err()
}
