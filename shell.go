package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lending-library/library"
)

// shell is the line-oriented desk. Prompts are only printed when a person is
// typing; piped input gets answers only.
type shell struct {
	sc          *bufio.Scanner
	out         io.Writer
	mgr         *library.LibraryManager
	reg         *library.Registry
	interactive bool
}

func newShell(in io.Reader, out io.Writer, mgr *library.LibraryManager, interactive bool) *shell {
	return &shell{
		sc:          bufio.NewScanner(in),
		out:         out,
		mgr:         mgr,
		reg:         mgr.Registry(),
		interactive: interactive,
	}
}

const shellHelp = `Available commands:
  Inventory: add book, add video, add magazine, describe
  People: register member, register librarian, login member, login librarian
  Lists: list books, list videos, list magazines, list members, list librarians
  Circulation: checkout, return, borrowed
  System: save, events, help, exit`

func (sh *shell) run(ctx context.Context) error {
	if sh.interactive {
		fmt.Fprintln(sh.out, "Welcome to the Library Lending Desk!")
		fmt.Fprintln(sh.out, shellHelp)
	}

	for {
		if sh.interactive {
			fmt.Fprint(sh.out, "\n> ")
		}
		if !sh.sc.Scan() {
			break
		}
		cmd := strings.Join(strings.Fields(strings.ToLower(sh.sc.Text())), " ")

		switch cmd {
		case "":
			continue
		case "add book":
			sh.handleAddBook(ctx)
		case "add video":
			sh.handleAddVideo(ctx)
		case "add magazine":
			sh.handleAddMagazine(ctx)
		case "describe":
			sh.handleDescribe()
		case "register member":
			sh.handleRegister(ctx, library.RoleMember)
		case "register librarian":
			sh.handleRegister(ctx, library.RoleLibrarian)
		case "login member":
			sh.handleLogin(ctx, library.RoleMember)
		case "login librarian":
			sh.handleLogin(ctx, library.RoleLibrarian)
		case "list books":
			sh.handleListItems(library.KindBook)
		case "list videos":
			sh.handleListItems(library.KindVideo)
		case "list magazines":
			sh.handleListItems(library.KindMagazine)
		case "list members":
			sh.handleListPeople(library.RoleMember)
		case "list librarians":
			sh.handleListPeople(library.RoleLibrarian)
		case "checkout":
			sh.handleCirculation(ctx, library.ActionCheckout)
		case "return":
			sh.handleCirculation(ctx, library.ActionReturn)
		case "borrowed":
			sh.handleBorrowed()
		case "save":
			sh.handleSave(ctx)
		case "events":
			sh.handleEvents(ctx)
		case "help":
			fmt.Fprintln(sh.out, shellHelp)
		case "exit", "quit":
			fmt.Fprintln(sh.out, "Goodbye!")
			return sh.mgr.Save(ctx)
		default:
			fmt.Fprintln(sh.out, "Unknown command. Type 'help' to see the available commands.")
		}
	}
	if err := sh.sc.Err(); err != nil {
		return err
	}
	return sh.mgr.Save(ctx)
}

func (sh *shell) ask(prompt string) (string, bool) {
	if sh.interactive {
		fmt.Fprint(sh.out, prompt)
	}
	if !sh.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.sc.Text()), true
}

func (sh *shell) askInt(prompt string) (int, bool) {
	s, ok := sh.ask(prompt)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintf(sh.out, "Invalid number: %s\n", s)
		return 0, false
	}
	return n, true
}

// askCommon reads the fields every item has.
func (sh *shell) askCommon() (title string, year int, genre string, ok bool) {
	if title, ok = sh.ask("Title: "); !ok {
		return
	}
	if title == "" {
		fmt.Fprintln(sh.out, "Error: title cannot be empty")
		return "", 0, "", false
	}
	if year, ok = sh.askInt("Year: "); !ok {
		return
	}
	genre, ok = sh.ask("Genre: ")
	return
}

func (sh *shell) askKind() (library.ItemKind, bool) {
	s, ok := sh.ask("Kind (book, video, magazine): ")
	if !ok {
		return 0, false
	}
	kind, err := library.ParseItemKind(s)
	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
		return 0, false
	}
	return kind, true
}

// mutated persists after every change when a database is attached.
func (sh *shell) mutated(ctx context.Context) {
	if err := sh.mgr.Save(ctx); err != nil {
		fmt.Fprintf(sh.out, "Warning: could not save: %v\n", err)
	}
}

// ------------------ Inventory ------------------

func (sh *shell) handleAddBook(ctx context.Context) {
	title, year, genre, ok := sh.askCommon()
	if !ok {
		return
	}
	author, ok := sh.ask("Author: ")
	if !ok {
		return
	}
	isbn, ok := sh.ask("ISBN: ")
	if !ok {
		return
	}
	if isbn == "" {
		fmt.Fprintln(sh.out, "Error: ISBN cannot be empty")
		return
	}
	fmt.Fprintln(sh.out, sh.reg.AddItem(library.NewBook(title, year, genre, author, isbn)))
	sh.mutated(ctx)
}

func (sh *shell) handleAddVideo(ctx context.Context) {
	title, year, genre, ok := sh.askCommon()
	if !ok {
		return
	}
	format, ok := sh.ask("Format: ")
	if !ok {
		return
	}
	duration, ok := sh.askInt("Duration (minutes): ")
	if !ok {
		return
	}
	it := library.NewVideo(title, year, genre, format, duration)
	fmt.Fprintln(sh.out, sh.reg.AddItem(it))
	fmt.Fprintf(sh.out, "Video ID: %s\n", it.ID())
	sh.mutated(ctx)
}

func (sh *shell) handleAddMagazine(ctx context.Context) {
	title, year, genre, ok := sh.askCommon()
	if !ok {
		return
	}
	publisher, ok := sh.ask("Publisher: ")
	if !ok {
		return
	}
	it := library.NewMagazine(title, year, genre, publisher)
	fmt.Fprintln(sh.out, sh.reg.AddItem(it))
	fmt.Fprintf(sh.out, "Magazine ID: %s\n", it.ID())
	sh.mutated(ctx)
}

func (sh *shell) handleDescribe() {
	kind, ok := sh.askKind()
	if !ok {
		return
	}
	id, ok := sh.ask("ID: ")
	if !ok {
		return
	}
	it, found := sh.reg.FindItem(kind, id)
	if !found {
		fmt.Fprintf(sh.out, "%s %s not found.\n", kind, id)
		return
	}
	fmt.Fprintln(sh.out, it.Describe())
	if holder, held := sh.reg.HolderOf(kind, id); held {
		fmt.Fprintf(sh.out, "Checked out by %s (%s)\n", holder.FullName(), holder.ID)
	} else {
		fmt.Fprintln(sh.out, "Available")
	}
}

func (sh *shell) handleListItems(kind library.ItemKind) {
	items := sh.reg.Items(kind)
	if len(items) == 0 {
		fmt.Fprintf(sh.out, "No %ss in library.\n", strings.ToLower(kind.String()))
		return
	}
	fmt.Fprintf(sh.out, "%-15s %-30s %-6s %-18s %-10s %-20s\n", "ID", "Title", "Year", "Genre", "Available", "Borrower")
	fmt.Fprintln(sh.out, strings.Repeat("-", 104))
	for _, it := range items {
		holder := "None"
		if m, held := sh.reg.HolderOf(kind, it.ID()); held {
			holder = fmt.Sprintf("%s (%s)", m.FullName(), m.ID)
		}
		fmt.Fprintln(sh.out, library.PrettyItem(it, holder))
	}
}

// ------------------ People ------------------

func (sh *shell) askProfile() (library.Profile, bool) {
	var p library.Profile
	var ok bool
	if p.FirstName, ok = sh.ask("First name: "); !ok {
		return p, false
	}
	if p.LastName, ok = sh.ask("Last name: "); !ok {
		return p, false
	}
	if p.Email, ok = sh.ask("Email: "); !ok {
		return p, false
	}
	if p.FirstName == "" || p.LastName == "" || p.Email == "" {
		fmt.Fprintln(sh.out, "Error: please fill in all fields.")
		return p, false
	}
	return p, true
}

func (sh *shell) handleRegister(ctx context.Context, role library.Role) {
	p, ok := sh.askProfile()
	if !ok {
		return
	}
	var id string
	switch role {
	case library.RoleMember:
		id = sh.reg.RegisterMember(library.NewMember(p.FirstName, p.LastName, p.Email)).ID
	case library.RoleLibrarian:
		id = sh.reg.RegisterLibrarian(library.NewLibrarian(p.FirstName, p.LastName, p.Email)).ID
	}
	fmt.Fprintf(sh.out, "%s '%s' registered successfully with ID %s\n", role, p.FullName(), id)
	sh.mutated(ctx)
}

func (sh *shell) handleLogin(ctx context.Context, role library.Role) {
	p, ok := sh.askProfile()
	if !ok {
		return
	}
	var (
		person  library.Person
		created bool
	)
	switch role {
	case library.RoleMember:
		person, created = sh.reg.LoginMember(p)
	case library.RoleLibrarian:
		person, created = sh.reg.LoginLibrarian(p)
	}
	if created {
		fmt.Fprintf(sh.out, "New %s registered: %s\n", strings.ToLower(role.String()), person.Identifier())
		sh.mutated(ctx)
		return
	}
	fmt.Fprintf(sh.out, "Logged in as existing %s: %s\n", strings.ToLower(role.String()), person.Identifier())
}

func (sh *shell) handleListPeople(role library.Role) {
	var people []library.Person
	switch role {
	case library.RoleMember:
		for _, m := range sh.reg.Members() {
			people = append(people, m)
		}
	case library.RoleLibrarian:
		for _, l := range sh.reg.Librarians() {
			people = append(people, l)
		}
	}
	if len(people) == 0 {
		fmt.Fprintf(sh.out, "No %ss registered.\n", strings.ToLower(role.String()))
		return
	}
	fmt.Fprintf(sh.out, "%-8s %-30s %-30s\n", "ID", "Name", "Email")
	fmt.Fprintln(sh.out, strings.Repeat("-", 70))
	for _, p := range people {
		fmt.Fprintln(sh.out, library.PrettyPerson(p))
	}
}

// ------------------ Circulation ------------------

func (sh *shell) handleCirculation(ctx context.Context, action library.Action) {
	kind, ok := sh.askKind()
	if !ok {
		return
	}
	id, ok := sh.ask("Item ID: ")
	if !ok {
		return
	}
	memberID, ok := sh.ask("Member ID: ")
	if !ok {
		return
	}

	var (
		rc  library.Receipt
		err error
	)
	if action == library.ActionCheckout {
		rc, err = sh.reg.CheckoutItem(kind, id, memberID)
	} else {
		rc, err = sh.reg.ReturnItem(kind, id, memberID)
	}
	if err != nil {
		sh.printLendingError(err)
		return
	}
	fmt.Fprintln(sh.out, rc)
	sh.mutated(ctx)
}

func (sh *shell) printLendingError(err error) {
	var le *library.LendingError
	if !errors.As(err, &le) {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.out, "Error: %v\n", le)
	if errors.Is(err, library.ErrNotAvailable) {
		if holder, held := sh.reg.HolderOf(le.Kind, le.ItemID); held {
			fmt.Fprintf(sh.out, "It is currently checked out by %s (%s)\n", holder.FullName(), holder.ID)
		}
	}
}

// handleBorrowed shows what a member holds, the view librarians use at the desk.
func (sh *shell) handleBorrowed() {
	memberID, ok := sh.ask("Member ID: ")
	if !ok {
		return
	}
	m, found := sh.reg.FindMember(memberID)
	if !found {
		fmt.Fprintf(sh.out, "Error: member %s not found\n", memberID)
		return
	}
	items, err := sh.reg.BorrowedBy(memberID)
	if err != nil {
		sh.printLendingError(err)
		return
	}
	fmt.Fprintf(sh.out, "%s (%s)\n", m.FullName(), m.ID)
	if len(items) == 0 {
		fmt.Fprintln(sh.out, "No items currently borrowed.")
		return
	}
	fmt.Fprintln(sh.out, "Borrowed Items:")
	for _, it := range items {
		fmt.Fprintf(sh.out, "- %s\n", it)
	}
}

// ------------------ System ------------------

func (sh *shell) handleSave(ctx context.Context) {
	if !sh.mgr.Persistent() {
		fmt.Fprintln(sh.out, "No database attached; start with --db to keep state.")
		return
	}
	if err := sh.mgr.Save(ctx); err != nil {
		fmt.Fprintf(sh.out, "Error saving: %v\n", err)
		return
	}
	fmt.Fprintln(sh.out, "Saved.")
}

func (sh *shell) handleEvents(ctx context.Context) {
	events, err := sh.mgr.Events(ctx, 20)
	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
		return
	}
	printEvents(sh.out, events)
}
