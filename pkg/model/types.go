// Package model defines the core domain types for tracker.
//
// Tracker holds two independent kinds of work records:
//
//   - Projects own an ordered set of tasks. A task has a free-form status
//     label, an assignee and a comment thread.
//
//   - Tickets are standalone issue records with a reporter, an optional
//     assignee, a free-form status and a comment thread.
//
// User identifiers appear in assignee, reporter and comment author fields
// but are never checked against the user collection. Status values are
// labels, not states: any string may follow any other.
package model

import "time"

// ID prefixes per entity kind. Generated IDs are prefix + a decimal number.
const (
	PrefixProject = "P"
	PrefixTask    = "T"
	PrefixTicket  = "TK"
)

// Well-known status labels. The store never validates against these.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusOpen       = "open"
	StatusInReview   = "in-review"
)

// User is a person that can be referenced by ID. Users are immutable.
type User struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Comment is an immutable note appended to a task or ticket.
type Comment struct {
	User    string    `json:"user" yaml:"user"`
	Comment string    `json:"comment" yaml:"comment"`
	Time    time.Time `json:"time" yaml:"time"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Status   string    `json:"status" yaml:"status"`
	Assignee string    `json:"assignee" yaml:"assignee"`
	Comments []Comment `json:"comments" yaml:"comments"`
}

// Project is a named container of tasks. Tasks are kept in insertion order
// and encode as an object keyed by task ID (see encoding.go).
type Project struct {
	ID    string
	Name  string
	Tasks []Task
}

// Task returns the task with the given ID.
func (p *Project) Task(id string) (*Task, bool) {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i], true
		}
	}
	return nil, false
}

// Ticket is a standalone issue or feature request. Assignee is nil until
// the ticket is assigned.
type Ticket struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Reporter    string    `json:"reporter" yaml:"reporter"`
	Status      string    `json:"status" yaml:"status"`
	Assignee    *string   `json:"assignee" yaml:"assignee"`
	Comments    []Comment `json:"comments" yaml:"comments"`
}

// ProjectSummary is the list_projects row for one project.
type ProjectSummary struct {
	ID   string `json:"project_id"`
	Name string `json:"name"`
}

// TicketSummary is the list_tickets row for one ticket.
type TicketSummary struct {
	ID     string `json:"ticket_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	t.Comments = cloneComments(t.Comments)
	return t
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	tasks := make([]Task, len(p.Tasks))
	for i, t := range p.Tasks {
		tasks[i] = t.Clone()
	}
	p.Tasks = tasks
	return p
}

// Clone returns a deep copy of t.
func (t Ticket) Clone() Ticket {
	if t.Assignee != nil {
		a := *t.Assignee
		t.Assignee = &a
	}
	t.Comments = cloneComments(t.Comments)
	return t
}

// cloneComments always returns a non-nil slice so empty threads encode as [].
func cloneComments(in []Comment) []Comment {
	out := make([]Comment, len(in))
	copy(out, in)
	return out
}
