package library

import (
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Snapshot is the full registry state in a storage-friendly shape.
type Snapshot struct {
	Items      []ItemRecord   `json:"items"`
	Members    []MemberRecord `json:"members"`
	Librarians []PersonRecord `json:"librarians"`
	Counters   map[string]int `json:"counters"`
	TakenAt    time.Time      `json:"taken_at"`
}

type ItemRecord struct {
	Kind      string `json:"kind"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Genre     string `json:"genre"`
	Available bool   `json:"available"`
	Author    string `json:"author,omitempty"`
	Format    string `json:"format,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Publisher string `json:"publisher,omitempty"`
}

type PersonRecord struct {
	ID string `json:"id"`
	Profile
}

type MemberRecord struct {
	PersonRecord
	Borrowed []ItemRef `json:"borrowed,omitempty"`
}

// ItemRef points at an item by kind and id.
type ItemRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Snapshot copies the current state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{Counters: r.seq.Counters(), TakenAt: r.now().UTC()}
	for _, kind := range ItemKinds {
		for _, it := range sortedItems(r.items[kind]) {
			s.Items = append(s.Items, recordOf(it))
		}
	}
	for _, m := range sortedPeople(r.members) {
		rec := MemberRecord{PersonRecord: PersonRecord{ID: m.ID, Profile: m.Profile}}
		for _, it := range m.borrowed {
			rec.Borrowed = append(rec.Borrowed, ItemRef{Kind: it.Kind().String(), ID: it.ID()})
		}
		s.Members = append(s.Members, rec)
	}
	for _, l := range sortedPeople(r.librarians) {
		s.Librarians = append(s.Librarians, PersonRecord{ID: l.ID, Profile: l.Profile})
	}
	return s
}

// Restore replaces the registry contents with s. The snapshot is checked
// first: every unavailable item must be held by exactly one member and every
// held item must exist and be unavailable. On error the registry is unchanged.
func (r *Registry) Restore(s Snapshot) error {
	items := map[ItemKind]map[string]*Item{KindBook: {}, KindVideo: {}, KindMagazine: {}}
	counters := make(map[string]int, len(s.Counters))
	for k, v := range s.Counters {
		counters[k] = v
	}
	bump := func(id string) {
		if prefix, n, err := ParseID(id); err == nil && n > counters[prefix] {
			counters[prefix] = n
		}
	}

	for _, rec := range s.Items {
		it, err := itemFromRecord(rec)
		if err != nil {
			return err
		}
		if _, dup := items[it.Kind()][it.ID()]; dup {
			return fmt.Errorf("%w: duplicate %s %q", ErrCorruptSnapshot, it.Kind(), it.ID())
		}
		items[it.Kind()][it.ID()] = it
		if it.Kind() != KindBook {
			bump(it.ID())
		}
	}

	held := make(map[*Item]string)
	members := make(map[string]*Member, len(s.Members))
	for _, rec := range s.Members {
		if rec.ID == "" {
			return fmt.Errorf("%w: member without id", ErrCorruptSnapshot)
		}
		if _, dup := members[rec.ID]; dup {
			return fmt.Errorf("%w: duplicate member %q", ErrCorruptSnapshot, rec.ID)
		}
		m := &Member{Profile: rec.Profile, ID: rec.ID}
		for _, ref := range rec.Borrowed {
			kind, err := ParseItemKind(ref.Kind)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
			}
			it, ok := items[kind][ref.ID]
			if !ok {
				return fmt.Errorf("%w: %s holds unknown %s %q", ErrCorruptSnapshot, rec.ID, kind, ref.ID)
			}
			if it.Available() {
				return fmt.Errorf("%w: %s holds available %s %q", ErrCorruptSnapshot, rec.ID, kind, ref.ID)
			}
			if other, dup := held[it]; dup {
				return fmt.Errorf("%w: %s %q held by both %s and %s", ErrCorruptSnapshot, kind, ref.ID, other, rec.ID)
			}
			held[it] = rec.ID
			m.borrowed = append(m.borrowed, it)
		}
		members[m.ID] = m
		bump(m.ID)
	}
	for _, kind := range ItemKinds {
		for id, it := range items[kind] {
			if _, ok := held[it]; !it.Available() && !ok {
				return fmt.Errorf("%w: %s %q checked out but held by nobody", ErrCorruptSnapshot, kind, id)
			}
		}
	}

	librarians := make(map[string]*Librarian, len(s.Librarians))
	for _, rec := range s.Librarians {
		if rec.ID == "" {
			return fmt.Errorf("%w: librarian without id", ErrCorruptSnapshot)
		}
		if _, dup := librarians[rec.ID]; dup {
			return fmt.Errorf("%w: duplicate librarian %q", ErrCorruptSnapshot, rec.ID)
		}
		if _, dup := members[rec.ID]; dup {
			return fmt.Errorf("%w: %q is both a member and a librarian", ErrCorruptSnapshot, rec.ID)
		}
		librarians[rec.ID] = &Librarian{Profile: rec.Profile, ID: rec.ID}
		bump(rec.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items, r.members, r.librarians = items, members, librarians
	r.seq.Advance(counters)
	r.logger.Info("registry restored", "items", len(s.Items), "members", len(members), "librarians", len(librarians))
	return nil
}

func recordOf(it *Item) ItemRecord {
	rec := ItemRecord{
		Kind:      it.Kind().String(),
		ID:        it.ID(),
		Title:     it.Title,
		Year:      it.Year,
		Genre:     it.Genre,
		Available: it.Available(),
	}
	switch v := it.Variant().(type) {
	case Book:
		rec.Author = v.Author
	case Video:
		rec.Format, rec.Duration = v.Format, v.Duration
	case Magazine:
		rec.Publisher = v.Publisher
	}
	return rec
}

func itemFromRecord(rec ItemRecord) (*Item, error) {
	kind, err := ParseItemKind(rec.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: %s %q without id", ErrCorruptSnapshot, kind, rec.Title)
	}
	var it *Item
	switch kind {
	case KindBook:
		it = NewBook(rec.Title, rec.Year, rec.Genre, rec.Author, rec.ID)
	case KindVideo:
		it = NewVideo(rec.Title, rec.Year, rec.Genre, rec.Format, rec.Duration)
	case KindMagazine:
		it = NewMagazine(rec.Title, rec.Year, rec.Genre, rec.Publisher)
	}
	it.assignID(rec.ID)
	it.available = rec.Available
	return it, nil
}

// ExportJSON writes s as indented JSON.
func ExportJSON(w io.Writer, s Snapshot) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ImportJSON reads a snapshot written by ExportJSON.
func ImportJSON(rd io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(rd).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
