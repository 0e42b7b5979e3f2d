package library

import (
	"fmt"
	"strings"
)

// ItemKind identifies which variant of Item a value holds.
type ItemKind int

const (
	KindBook ItemKind = iota + 1
	KindVideo
	KindMagazine
)

// ItemKinds lists every variant in display order.
var ItemKinds = []ItemKind{KindBook, KindVideo, KindMagazine}

func (k ItemKind) String() string {
	switch k {
	case KindBook:
		return "Book"
	case KindVideo:
		return "Video"
	case KindMagazine:
		return "Magazine"
	default:
		return "Unknown"
	}
}

// ParseItemKind accepts the singular or plural, any case ("book", "Videos").
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "book":
		return KindBook, nil
	case "video":
		return KindVideo, nil
	case "magazine":
		return KindMagazine, nil
	}
	return 0, fmt.Errorf("unknown item kind %q", s)
}

// Role tags a Person.
type Role int

const (
	RoleMember Role = iota + 1
	RoleLibrarian
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "Member"
	case RoleLibrarian:
		return "Librarian"
	default:
		return "Unknown"
	}
}

// Action is the transition a Receipt confirms.
type Action string

const (
	ActionCheckout Action = "checked out"
	ActionReturn   Action = "returned"
)

// Receipt is the success outcome of a checkout or return.
type Receipt struct {
	Action Action
	Kind   ItemKind
	ItemID string
	Title  string
}

// String renders the confirmation shown to the person at the desk.
func (r Receipt) String() string {
	label := "ID"
	if r.Kind == KindBook {
		label = "ISBN"
	}
	return fmt.Sprintf("You have successfully %s\n%s\n%s: %s", r.Action, r.Title, label, r.ItemID)
}
