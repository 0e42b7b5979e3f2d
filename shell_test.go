package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"lending-library/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runShell(t *testing.T, mgr *library.LibraryManager, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, newShell(in, &out, mgr, false).run(context.Background()))
	return out.String()
}

func memoryManager(t *testing.T) *library.LibraryManager {
	t.Helper()
	mgr, err := library.NewLibraryManager("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestShellLendingSession(t *testing.T) {
	mgr := memoryManager(t)
	out := runShell(t, mgr,
		"add book", "Book One", "2020", "Fiction", "Author", "ISBN1",
		"add video", "Test Video", "2023", "Action", "DVD", "120",
		"register member", "John", "Doe", "john@example.com",
		"register member", "Ann", "Lee", "ann@example.com",
		"checkout", "book", "ISBN1", "MBR0001",
		"checkout", "book", "ISBN1", "MBR0001",
		"checkout", "book", "ISBN1", "MBR0002",
		"borrowed", "MBR0001",
		"return", "book", "ISBN1", "MBR0002",
		"return", "book", "ISBN1", "MBR0001",
		"Describe", "video", "VID0001",
		"exit",
	)

	for _, want := range []string{
		"Book 'Book One' added successfully.",
		"Video ID: VID0001",
		"Member 'John Doe' registered successfully with ID MBR0001",
		"You have successfully checked out\nBook One\nISBN: ISBN1",
		"Error: Book One has already been checked out",
		"Error: Book One is not available for borrowing\nIt is currently checked out by John Doe (MBR0001)",
		"John Doe (MBR0001)\nBorrowed Items:\n- Book One (Book)",
		"Error: Book One is not in your borrowed list",
		"You have successfully returned\nBook One\nISBN: ISBN1",
		"Format: DVD | Duration: 120 mins\nID: VID0001\nAvailable",
		"Goodbye!",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "> ", "no prompts for piped input")

	book, ok := mgr.Registry().FindBook("ISBN1")
	require.True(t, ok)
	assert.True(t, book.Available())
}

func TestShellLogin(t *testing.T) {
	mgr := memoryManager(t)
	out := runShell(t, mgr,
		"login member", "John", "Doe", "john@example.com",
		"login member", "John", "Doe", "john@example.com",
		"login librarian", "Jane", "Smith", "jane@example.com",
		"list librarians",
	)
	assert.Contains(t, out, "New member registered: MBR0001")
	assert.Contains(t, out, "Logged in as existing member: MBR0001")
	assert.Contains(t, out, "New librarian registered: LBR0001")
	assert.Contains(t, out, "jane@example.com")
	assert.Len(t, mgr.Registry().Members(), 1)
}

func TestShellRejectsBadInput(t *testing.T) {
	mgr := memoryManager(t)
	out := runShell(t, mgr,
		"frobnicate",
		"add book", "",
		"add video", "Clip", "soon",
		"checkout", "cassette",
		"checkout", "book", "nope", "MBR0001",
		"register member", "John", "", "john@example.com",
		"list books",
		"list members",
		"save",
	)
	assert.Contains(t, out, "Unknown command.")
	assert.Contains(t, out, "Error: title cannot be empty")
	assert.Contains(t, out, "Invalid number: soon")
	assert.Contains(t, out, `Error: Book "nope" not found`)
	assert.Contains(t, out, "Error: please fill in all fields.")
	assert.Contains(t, out, "No books in library.")
	assert.Contains(t, out, "No members registered.")
	assert.Contains(t, out, "No database attached")
	assert.Empty(t, mgr.Registry().Videos())
}

func TestShellAutosaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.db")
	mgr, err := library.NewLibraryManager(path, nil)
	require.NoError(t, err)
	runShell(t, mgr,
		"add magazine", "Wired", "2024", "Technology", "Conde Nast",
		"register member", "John", "Doe", "john@example.com",
		"checkout", "magazine", "MAG0001", "MBR0001",
	)
	require.NoError(t, mgr.Close())

	reopened, err := library.NewLibraryManager(path, nil)
	require.NoError(t, err)
	defer reopened.Close()
	holder, ok := reopened.Registry().HolderOf(library.KindMagazine, "MAG0001")
	require.True(t, ok)
	assert.Equal(t, "MBR0001", holder.ID)

	var out bytes.Buffer
	in := strings.NewReader("events\n")
	require.NoError(t, newShell(in, &out, reopened, false).run(context.Background()))
	assert.Contains(t, out.String(), "ItemCheckedOut")
}
