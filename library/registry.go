package library

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry owns every item and person and is the only entry point for
// lending. Checkout and return resolve the item and the member, then hand the
// transition to Member, which hands it to Item.
//
// All Registry methods are safe for concurrent use. The *Item and *Member
// values it returns are live: their availability and held sequences change
// under the registry lock, so concurrent readers should go through
// HolderOf, BorrowedBy and Snapshot rather than the values' own accessors.
// Callers must not change a registered person's ID.
type Registry struct {
	mu sync.Mutex

	items      map[ItemKind]map[string]*Item
	members    map[string]*Member
	librarians map[string]*Librarian

	seq    *Sequence
	rec    Recorder
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithRecorder sends every registry event to r.
func WithRecorder(r Recorder) Option { return func(reg *Registry) { reg.rec = r } }

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option { return func(reg *Registry) { reg.now = now } }

// WithLogger sets the structured logger. The default discards.
func WithLogger(l *slog.Logger) Option { return func(reg *Registry) { reg.logger = l } }

// WithSequence injects the id generator, e.g. one shared between registries.
func WithSequence(s *Sequence) Option { return func(reg *Registry) { reg.seq = s } }

func NewRegistry(opts ...Option) *Registry {
	reg := &Registry{
		items: map[ItemKind]map[string]*Item{
			KindBook:     {},
			KindVideo:    {},
			KindMagazine: {},
		},
		members:    make(map[string]*Member),
		librarians: make(map[string]*Librarian),
		seq:        NewSequence(),
		rec:        Recorders(),
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// ------------------ Inventory ------------------

// AddItem stores it under its id, generating a VID/MAG id first if it has
// none. An item whose id is already present replaces the previous one; if the
// previous one is lent out, the holder keeps the loan on the replacement.
func (r *Registry) AddItem(it *Item) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := it.Kind()
	switch {
	case kind == KindVideo && !it.hasID():
		it.assignID(r.seq.Next(PrefixVideo))
	case kind == KindVideo:
		r.claim(PrefixVideo, it.ID())
	case kind == KindMagazine && !it.hasID():
		it.assignID(r.seq.Next(PrefixMagazine))
	case kind == KindMagazine:
		r.claim(PrefixMagazine, it.ID())
	}

	prev, exists := r.items[kind][it.ID()]
	var holder *Member
	if exists && prev != it {
		holder = r.holderOf(prev)
	}
	switch {
	case exists && prev == it:
	case holder != nil:
		holder.swap(prev, it)
		it.available = false
		r.logger.Warn("item replaced while lent", "item_kind", kind.String(), "item_id", it.ID(),
			"previous_title", prev.Title, "member_id", holder.ID)
	default:
		if exists {
			r.logger.Warn("item replaced", "item_kind", kind.String(), "item_id", it.ID(), "previous_title", prev.Title)
		}
		if !it.available && r.holderOf(it) == nil {
			it.available = true
		}
	}
	r.items[kind][it.ID()] = it

	r.emit(EventItemAdded, kind, it.ID(), "", nil)
	r.logger.Info("item added", "item_kind", kind.String(), "item_id", it.ID(), "title", it.Title)

	return fmt.Sprintf("%s '%s' added successfully.", kind, it.Title)
}

// FindItem looks an item up by kind and id.
func (r *Registry) FindItem(kind ItemKind, id string) (*Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[kind][id]
	return it, ok
}

func (r *Registry) FindBook(isbn string) (*Item, bool)   { return r.FindItem(KindBook, isbn) }
func (r *Registry) FindVideo(id string) (*Item, bool)    { return r.FindItem(KindVideo, id) }
func (r *Registry) FindMagazine(id string) (*Item, bool) { return r.FindItem(KindMagazine, id) }

// Items lists one kind of item sorted by id.
func (r *Registry) Items(kind ItemKind) []*Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedItems(r.items[kind])
}

func (r *Registry) Books() []*Item     { return r.Items(KindBook) }
func (r *Registry) Videos() []*Item    { return r.Items(KindVideo) }
func (r *Registry) Magazines() []*Item { return r.Items(KindMagazine) }

// HolderOf returns the member currently holding the item, if any.
func (r *Registry) HolderOf(kind ItemKind, id string) (*Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[kind][id]
	if !ok || it.Available() {
		return nil, false
	}
	m := r.holderOf(it)
	return m, m != nil
}

// BorrowedBy returns a copy of a member's held sequence in borrow order.
func (r *Registry) BorrowedBy(memberID string) ([]*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok {
		return nil, &LendingError{Err: ErrMemberNotFound, MemberID: memberID}
	}
	return m.Borrowed(), nil
}

func (r *Registry) holderOf(it *Item) *Member {
	for _, m := range r.members {
		if m.Holds(it) {
			return m
		}
	}
	return nil
}

// ------------------ Circulation ------------------

// CheckoutItem lends an item to a member. A missing item is reported before
// a missing member.
func (r *Registry) CheckoutItem(kind ItemKind, id, memberID string) (Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, m, err := r.resolve(kind, id, memberID)
	if err == nil {
		var rc Receipt
		rc, err = m.Borrow(it)
		if err == nil {
			r.emit(EventItemCheckedOut, kind, id, memberID, nil)
			r.logger.Info("item checked out", "item_kind", kind.String(), "item_id", id, "member_id", memberID)
			return rc, nil
		}
	}
	r.emit(EventCheckoutFailed, kind, id, memberID, err)
	r.logger.Debug("checkout rejected", "item_kind", kind.String(), "item_id", id, "member_id", memberID, "reason", Reason(err))
	return Receipt{}, err
}

// ReturnItem takes an item back from the member holding it. Like
// CheckoutItem, a missing item is reported before a missing member.
func (r *Registry) ReturnItem(kind ItemKind, id, memberID string) (Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, m, err := r.resolve(kind, id, memberID)
	if err == nil {
		var rc Receipt
		rc, err = m.ReturnItem(it)
		if err == nil {
			r.emit(EventItemReturned, kind, id, memberID, nil)
			r.logger.Info("item returned", "item_kind", kind.String(), "item_id", id, "member_id", memberID)
			return rc, nil
		}
	}
	r.emit(EventReturnFailed, kind, id, memberID, err)
	r.logger.Debug("return rejected", "item_kind", kind.String(), "item_id", id, "member_id", memberID, "reason", Reason(err))
	return Receipt{}, err
}

func (r *Registry) CheckoutBook(isbn, memberID string) (Receipt, error) {
	return r.CheckoutItem(KindBook, isbn, memberID)
}

func (r *Registry) CheckoutVideo(id, memberID string) (Receipt, error) {
	return r.CheckoutItem(KindVideo, id, memberID)
}

func (r *Registry) CheckoutMagazine(id, memberID string) (Receipt, error) {
	return r.CheckoutItem(KindMagazine, id, memberID)
}

func (r *Registry) ReturnBook(isbn, memberID string) (Receipt, error) {
	return r.ReturnItem(KindBook, isbn, memberID)
}

func (r *Registry) ReturnVideo(id, memberID string) (Receipt, error) {
	return r.ReturnItem(KindVideo, id, memberID)
}

func (r *Registry) ReturnMagazine(id, memberID string) (Receipt, error) {
	return r.ReturnItem(KindMagazine, id, memberID)
}

func (r *Registry) resolve(kind ItemKind, id, memberID string) (*Item, *Member, error) {
	it, ok := r.items[kind][id]
	if !ok {
		return nil, nil, &LendingError{Err: ErrItemNotFound, Kind: kind, ItemID: id, MemberID: memberID}
	}
	m, ok := r.members[memberID]
	if !ok {
		return nil, nil, &LendingError{Err: ErrMemberNotFound, Kind: kind, ItemID: id, Title: it.Title, MemberID: memberID}
	}
	return it, m, nil
}

// ------------------ People ------------------

// RegisterMember assigns an MBR id if m has none, or if its id already
// belongs to another member, and stores it.
func (r *Registry) RegisterMember(m *Member) *Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerMember(m)
	return m
}

// RegisterLibrarian is RegisterMember for librarians.
func (r *Registry) RegisterLibrarian(l *Librarian) *Librarian {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLibrarian(l)
	return l
}

func (r *Registry) registerMember(m *Member) {
	switch prev, taken := r.members[m.ID]; {
	case m.ID == "":
		m.ID = r.seq.Next(PrefixMember)
	case taken && prev != m:
		r.logger.Warn("member id taken, assigning a new one", "member_id", m.ID)
		m.ID = r.seq.Next(PrefixMember)
	default:
		r.claim(PrefixMember, m.ID)
	}
	r.members[m.ID] = m
	r.emit(EventPersonRegistered, 0, "", m.ID, nil)
	r.logger.Info("member registered", "member_id", m.ID, "name", m.FullName())
}

func (r *Registry) registerLibrarian(l *Librarian) {
	switch prev, taken := r.librarians[l.ID]; {
	case l.ID == "":
		l.ID = r.seq.Next(PrefixLibrarian)
	case taken && prev != l:
		r.logger.Warn("librarian id taken, assigning a new one", "librarian_id", l.ID)
		l.ID = r.seq.Next(PrefixLibrarian)
	default:
		r.claim(PrefixLibrarian, l.ID)
	}
	r.librarians[l.ID] = l
	r.emit(EventPersonRegistered, 0, "", l.ID, nil)
	r.logger.Info("librarian registered", "librarian_id", l.ID, "name", l.FullName())
}

// claim moves the prefix's counter past a caller-chosen id so generated ids
// never collide with it. Ids in another format are left alone.
func (r *Registry) claim(prefix, id string) {
	if p, n, err := ParseID(id); err == nil && p == prefix {
		r.seq.Advance(map[string]int{prefix: n})
	}
}

func (r *Registry) FindMember(id string) (*Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	return m, ok
}

func (r *Registry) FindLibrarian(id string) (*Librarian, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.librarians[id]
	return l, ok
}

// FindMemberByProfile returns the lowest-numbered member matching p.
func (r *Registry) FindMemberByProfile(p Profile) (*Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range sortedPeople(r.members) {
		if m.Profile.Matches(p) {
			return m, true
		}
	}
	return nil, false
}

// FindLibrarianByProfile returns the lowest-numbered librarian matching p.
func (r *Registry) FindLibrarianByProfile(p Profile) (*Librarian, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range sortedPeople(r.librarians) {
		if l.Profile.Matches(p) {
			return l, true
		}
	}
	return nil, false
}

// LoginMember finds the member with this profile, registering a new one if
// nobody matches. created reports which happened.
func (r *Registry) LoginMember(p Profile) (m *Member, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range sortedPeople(r.members) {
		if existing.Profile.Matches(p) {
			return existing, false
		}
	}
	m = NewMember(p.FirstName, p.LastName, p.Email)
	r.registerMember(m)
	return m, true
}

// LoginLibrarian is LoginMember for librarians.
func (r *Registry) LoginLibrarian(p Profile) (l *Librarian, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range sortedPeople(r.librarians) {
		if existing.Profile.Matches(p) {
			return existing, false
		}
	}
	l = NewLibrarian(p.FirstName, p.LastName, p.Email)
	r.registerLibrarian(l)
	return l, true
}

func (r *Registry) Members() []*Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedPeople(r.members)
}

func (r *Registry) Librarians() []*Librarian {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedPeople(r.librarians)
}

// ------------------ Helpers ------------------

func (r *Registry) emit(t EventType, kind ItemKind, itemID, personID string, err error) {
	e := newEvent(t, r.now())
	if kind != 0 {
		e.ItemKind = kind.String()
	}
	e.ItemID, e.PersonID, e.Reason = itemID, personID, Reason(err)
	r.rec.Record(e)
}

func sortedItems(m map[string]*Item) []*Item {
	out := make([]*Item, 0, len(m))
	for _, it := range m {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func sortedPeople[P Person](m map[string]P) []P {
	out := make([]P, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier() < out[j].Identifier() })
	return out
}
