package library

import (
	"strings"
)

// Profile is the identity a person gives at the desk.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (p Profile) FullName() string { return p.FirstName + " " + p.LastName }

// Matches compares profiles the way the desk does: surrounding whitespace is
// ignored, everything else is exact.
func (p Profile) Matches(o Profile) bool {
	return strings.TrimSpace(p.FirstName) == strings.TrimSpace(o.FirstName) &&
		strings.TrimSpace(p.LastName) == strings.TrimSpace(o.LastName) &&
		strings.TrimSpace(p.Email) == strings.TrimSpace(o.Email)
}

// Person is implemented by Member and Librarian only.
type Person interface {
	Role() Role
	Identifier() string
	Contact() Profile
	person()
}

// Member borrows items. The held sequence is kept in borrow order and is only
// changed by Borrow and ReturnItem.
type Member struct {
	Profile
	ID string

	borrowed []*Item
}

func NewMember(first, last, email string) *Member {
	return &Member{Profile: Profile{FirstName: first, LastName: last, Email: email}}
}

func (m *Member) Role() Role         { return RoleMember }
func (m *Member) Identifier() string { return m.ID }
func (m *Member) Contact() Profile   { return m.Profile }
func (m *Member) person()            {}

// Borrow checks the item out to m.
func (m *Member) Borrow(it *Item) (Receipt, error) {
	if !it.Available() {
		err := ErrNotAvailable
		if m.Holds(it) {
			err = ErrAlreadyCheckedOut
		}
		return Receipt{}, m.failure(err, it)
	}
	r, err := it.Checkout()
	if err != nil {
		return Receipt{}, err
	}
	m.borrowed = append(m.borrowed, it)
	return r, nil
}

// ReturnItem gives back an item m currently holds.
func (m *Member) ReturnItem(it *Item) (Receipt, error) {
	i := m.indexOf(it)
	if i < 0 {
		return Receipt{}, m.failure(ErrNotInBorrowedList, it)
	}
	r, err := it.Return()
	if err != nil {
		return Receipt{}, err
	}
	m.borrowed = append(m.borrowed[:i:i], m.borrowed[i+1:]...)
	return r, nil
}

// Holds reports whether it is in m's held sequence.
func (m *Member) Holds(it *Item) bool { return m.indexOf(it) >= 0 }

// Borrowed returns a copy of the held sequence in borrow order.
func (m *Member) Borrowed() []*Item {
	out := make([]*Item, len(m.borrowed))
	copy(out, m.borrowed)
	return out
}

// ListBorrowed renders the held sequence for display.
func (m *Member) ListBorrowed() string {
	if len(m.borrowed) == 0 {
		return "No items currently borrowed."
	}
	return "Borrowed Items:\n" + listItems(m.borrowed)
}

func (m *Member) indexOf(it *Item) int {
	for i, held := range m.borrowed {
		if held == it {
			return i
		}
	}
	return -1
}

// swap replaces a held item with its replacement in place, keeping borrow order.
func (m *Member) swap(old, replacement *Item) {
	if i := m.indexOf(old); i >= 0 {
		m.borrowed[i] = replacement
	}
}

func (m *Member) failure(err error, it *Item) *LendingError {
	e := itemError(err, it)
	e.MemberID = m.ID
	return e
}

// Librarian is a person with registration privileges over the inventory.
type Librarian struct {
	Profile
	ID string

	// Never populated by any registry operation.
	registered []*Item
}

func NewLibrarian(first, last, email string) *Librarian {
	return &Librarian{Profile: Profile{FirstName: first, LastName: last, Email: email}}
}

func (l *Librarian) Role() Role         { return RoleLibrarian }
func (l *Librarian) Identifier() string { return l.ID }
func (l *Librarian) Contact() Profile   { return l.Profile }
func (l *Librarian) person()            {}

func (l *Librarian) RegisteredItems() []*Item {
	out := make([]*Item, len(l.registered))
	copy(out, l.registered)
	return out
}

func (l *Librarian) ListRegistered() string {
	if len(l.registered) == 0 {
		return "No items registered yet."
	}
	return "Items Registered:\n" + listItems(l.registered)
}

func listItems(items []*Item) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it.String())
	}
	return strings.Join(lines, "\n")
}
