package prompt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/daviddao/tracker/pkg/clock"
	"github.com/daviddao/tracker/pkg/model"
	"github.com/daviddao/tracker/pkg/store"
)

func newTestStore(t *testing.T) store.Tracker {
	t.Helper()
	now := time.Date(2026, time.February, 3, 4, 5, 6, 0, time.UTC)
	s := store.NewMemory(store.DefaultSeed(), store.WithClock(clock.New(func() time.Time { return now })))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProjectSummary_Seed(t *testing.T) {
	s := newTestStore(t)
	got, err := ProjectSummary(s, "P001")
	if err != nil {
		t.Fatal(err)
	}
	want := "Project: Website Redesign (ID: P001)\n" +
		"Tasks:\n" +
		"- [pending] Design homepage UI (ID: T001, Assignee: U001)\n" +
		"- [in-progress] Implement login backend (ID: T002, Assignee: U003)"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
	if lines := strings.Split(got, "\n"); lines[1] != "Tasks:" {
		t.Fatalf("second line = %q, want Tasks:", lines[1])
	}
}

func TestProjectSummary_NoTasks(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateProject("Empty")
	if err != nil {
		t.Fatal(err)
	}
	got, err := ProjectSummary(s, id)
	if err != nil {
		t.Fatal(err)
	}
	if want := "Project: Empty (ID: " + id + ")\nTasks:"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestProjectSummary_NotFound(t *testing.T) {
	got, err := ProjectSummary(newTestStore(t), "P999")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Project with ID P999 not found."; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTicketDetails_WithComments(t *testing.T) {
	got, err := TicketDetails(newTestStore(t), "TK001")
	if err != nil {
		t.Fatal(err)
	}
	want := "Ticket: Bug: login API returns error 500 (ID: TK001)\n" +
		"Status: open\n" +
		"Reporter: U003\n" +
		"Assignee: U005\n" +
		"Description: When user tries to login with valid credentials, API crashes.\n" +
		"Comments:\n" +
		"- U005 at 2025-11-30T11:45:00: Looking into the stack trace\n"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTicketDetails_Unassigned(t *testing.T) {
	got, err := TicketDetails(newTestStore(t), "TK002")
	if err != nil {
		t.Fatal(err)
	}
	want := "Ticket: Feature Request: Add \"Remember Me\" to login (ID: TK002)\n" +
		"Status: in-review\n" +
		"Reporter: U002\n" +
		"Assignee: unassigned\n" +
		"Description: User should stay logged in if they select remember-me option.\n" +
		"No comments yet.\n"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTicketDetails_NewComment(t *testing.T) {
	s := newTestStore(t)
	if ok, err := s.AddTicketComment("TK002", "U001", "On it"); err != nil || !ok {
		t.Fatalf("AddTicketComment = %v, %v", ok, err)
	}
	got, err := TicketDetails(s, "TK002")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, "Comments:\n- U001 at 2026-02-03T04:05:06: On it\n") {
		t.Fatalf("unexpected comments block:\n%s", got)
	}
}

func TestTicketDetails_NotFound(t *testing.T) {
	got, err := TicketDetails(newTestStore(t), "TK999")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Ticket with ID TK999 not found."; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// brokenStore fails every lookup.
type brokenStore struct {
	store.Tracker
}

var errBroken = errors.New("disk on fire")

func (brokenStore) GetProject(string) (*model.Project, bool, error) { return nil, false, errBroken }
func (brokenStore) GetTicket(string) (*model.Ticket, bool, error)   { return nil, false, errBroken }

func TestStoreErrorsPropagate(t *testing.T) {
	if _, err := ProjectSummary(brokenStore{}, "P001"); !errors.Is(err, errBroken) {
		t.Fatalf("ProjectSummary err = %v, want %v", err, errBroken)
	}
	if _, err := TicketDetails(brokenStore{}, "TK001"); !errors.Is(err, errBroken) {
		t.Fatalf("TicketDetails err = %v, want %v", err, errBroken)
	}
}
