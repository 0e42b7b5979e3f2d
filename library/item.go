package library

import (
	"fmt"
	"strings"
)

// Variant holds the per-kind metadata of an Item. The set of variants is
// closed: only Book, Video and Magazine implement it.
type Variant interface {
	Kind() ItemKind
	describe(sb *strings.Builder)
}

// Book metadata. The ISBN doubles as the item's key in the registry.
type Book struct {
	Author string `json:"author" yaml:"author"`
	ISBN   string `json:"isbn" yaml:"isbn"`
}

// Video metadata. Duration is in minutes.
type Video struct {
	Format   string `json:"format" yaml:"format"`
	Duration int    `json:"duration" yaml:"duration"`
}

// Magazine metadata.
type Magazine struct {
	Publisher string `json:"publisher" yaml:"publisher"`
}

func (Book) Kind() ItemKind     { return KindBook }
func (Video) Kind() ItemKind    { return KindVideo }
func (Magazine) Kind() ItemKind { return KindMagazine }

func (b Book) describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Author: %s\nISBN: %s", b.Author, b.ISBN)
}

func (v Video) describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Format: %s | Duration: %d mins", v.Format, v.Duration)
}

func (m Magazine) describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Publisher: %s", m.Publisher)
}

// Item is a lendable entity. Availability only changes through Checkout and
// Return, which in turn are only reached through Member.Borrow and
// Member.ReturnItem.
type Item struct {
	Title string
	Year  int
	Genre string

	variant   Variant
	id        string
	available bool
}

// NewBook creates an available book keyed by its ISBN.
func NewBook(title string, year int, genre, author, isbn string) *Item {
	return &Item{Title: title, Year: year, Genre: genre, variant: Book{Author: author, ISBN: isbn}, id: isbn, available: true}
}

// NewVideo creates an available video. Its VID id is assigned when it is
// added to a Registry.
func NewVideo(title string, year int, genre, format string, duration int) *Item {
	return &Item{Title: title, Year: year, Genre: genre, variant: Video{Format: format, Duration: duration}, available: true}
}

// NewMagazine creates an available magazine. Its MAG id is assigned when it
// is added to a Registry.
func NewMagazine(title string, year int, genre, publisher string) *Item {
	return &Item{Title: title, Year: year, Genre: genre, variant: Magazine{Publisher: publisher}, available: true}
}

func (it *Item) Kind() ItemKind     { return it.variant.Kind() }
func (it *Item) Variant() Variant   { return it.variant }
func (it *Item) ID() string         { return it.id }
func (it *Item) Available() bool    { return it.available }
func (it *Item) String() string     { return fmt.Sprintf("%s (%s)", it.Title, it.Kind()) }
func (it *Item) hasID() bool        { return it.id != "" }
func (it *Item) assignID(id string) { it.id = id }

// Checkout marks the item as lent out.
func (it *Item) Checkout() (Receipt, error) {
	if !it.available {
		return Receipt{}, itemError(ErrAlreadyCheckedOut, it)
	}
	it.available = false
	return it.receipt(ActionCheckout), nil
}

// Return marks the item as back on the shelf.
func (it *Item) Return() (Receipt, error) {
	if it.available {
		return Receipt{}, itemError(ErrNotCheckedOut, it)
	}
	it.available = true
	return it.receipt(ActionReturn), nil
}

// Describe renders every field of the item, one group per line.
func (it *Item) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%d | %s\n", it.Title, it.Year, it.Genre)
	it.variant.describe(&sb)
	if it.Kind() != KindBook {
		fmt.Fprintf(&sb, "\nID: %s", it.id)
	}
	return sb.String()
}

func (it *Item) receipt(a Action) Receipt {
	return Receipt{Action: a, Kind: it.Kind(), ItemID: it.id, Title: it.Title}
}
