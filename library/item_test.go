package library

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookCheckoutAndReturn(t *testing.T) {
	book := NewBook("Test Book", 2023, "Fiction", "Test Author", "1234567890")
	require.True(t, book.Available())
	assert.Equal(t, "1234567890", book.ID())
	assert.Equal(t, KindBook, book.Kind())

	_, err := book.Return()
	require.ErrorIs(t, err, ErrNotCheckedOut)
	assert.Equal(t, "Test Book was not checked out", err.Error())

	rc, err := book.Checkout()
	require.NoError(t, err)
	assert.False(t, book.Available())
	assert.Equal(t, Receipt{Action: ActionCheckout, Kind: KindBook, ItemID: "1234567890", Title: "Test Book"}, rc)
	assert.Equal(t, "You have successfully checked out\nTest Book\nISBN: 1234567890", rc.String())

	_, err = book.Checkout()
	require.ErrorIs(t, err, ErrAlreadyCheckedOut)
	assert.False(t, book.Available(), "failed checkout must not change state")

	rc, err = book.Return()
	require.NoError(t, err)
	assert.True(t, book.Available())
	assert.Equal(t, ActionReturn, rc.Action)
}

func TestCheckoutReturnRoundTripKeepsFields(t *testing.T) {
	items := []*Item{
		NewBook("Dune", 1965, "Science Fiction", "Frank Herbert", "9780441013593"),
		NewVideo("Alien", 1979, "Horror", "DVD", 117),
		NewMagazine("Wired", 2024, "Technology", "Conde Nast"),
	}
	for _, it := range items {
		t.Run(it.Kind().String(), func(t *testing.T) {
			before := *it
			_, err := it.Checkout()
			require.NoError(t, err)
			_, err = it.Return()
			require.NoError(t, err)
			assert.Equal(t, before, *it)
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		item *Item
		want string
	}{
		{
			name: "book",
			item: NewBook("Test Book", 2023, "Fiction", "Test Author", "1234567890"),
			want: "Test Book\n2023 | Fiction\nAuthor: Test Author\nISBN: 1234567890",
		},
		{
			name: "video",
			item: func() *Item { v := NewVideo("Test Video", 2023, "Action", "DVD", 120); v.assignID("VID0001"); return v }(),
			want: "Test Video\n2023 | Action\nFormat: DVD | Duration: 120 mins\nID: VID0001",
		},
		{
			name: "magazine",
			item: func() *Item { m := NewMagazine("Test Magazine", 2023, "Science", "Test Publisher"); m.assignID("MAG0002"); return m }(),
			want: "Test Magazine\n2023 | Science\nPublisher: Test Publisher\nID: MAG0002",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Describe())
			_, _ = tt.item.Checkout()
			assert.Equal(t, tt.want, tt.item.Describe(), "describe does not depend on availability")
		})
	}
}

func TestVariantTypeSwitch(t *testing.T) {
	v := NewVideo("Test Video", 2023, "Action", "Blu-ray", 95)
	video, ok := v.Variant().(Video)
	require.True(t, ok)
	assert.Equal(t, Video{Format: "Blu-ray", Duration: 95}, video)
	assert.Empty(t, v.ID(), "videos get their id from the registry")
}

func TestLendingErrorMessages(t *testing.T) {
	it := NewBook("Emma", 1815, "Romance", "Jane Austen", "isbn-emma")
	tests := []struct {
		err  error
		want string
		tag  string
	}{
		{ErrItemNotFound, `Book "isbn-emma" not found`, "item_not_found"},
		{ErrAlreadyCheckedOut, "Emma has already been checked out", "already_checked_out"},
		{ErrNotCheckedOut, "Emma was not checked out", "not_checked_out"},
		{ErrNotInBorrowedList, "Emma is not in your borrowed list", "not_in_borrowed_list"},
		{ErrNotAvailable, "Emma is not available for borrowing", "not_available"},
	}
	for _, tt := range tests {
		err := itemError(tt.err, it)
		assert.Equal(t, tt.want, err.Error())
		assert.True(t, errors.Is(err, tt.err))
		assert.Equal(t, tt.tag, Reason(err))
	}
	assert.Equal(t, `member "MBR0009" not found`, (&LendingError{Err: ErrMemberNotFound, MemberID: "MBR0009"}).Error())
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "unknown", Reason(errors.New("boom")))
}

func TestParseItemKind(t *testing.T) {
	for in, want := range map[string]ItemKind{"book": KindBook, "Videos": KindVideo, " MAGAZINE ": KindMagazine} {
		got, err := ParseItemKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseItemKind("cassette")
	assert.Error(t, err)
}
