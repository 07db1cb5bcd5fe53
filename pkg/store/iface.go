// iface.go defines the Tracker interface for dependency injection and testing.
//
// Both *Memory and *SQLite satisfy this interface. The MCP server and the
// prompt renderers accept Tracker, so either backend can sit behind them.
package store

import (
	"fmt"

	"github.com/daviddao/tracker/pkg/clock"
	"github.com/daviddao/tracker/pkg/model"
)

// Tracker defines the full set of store operations.
//
// Lookups report a missing record through the found result and mutations
// through the ok result; neither is an error. The error result is reserved
// for backend failures and is always nil for *Memory.
type Tracker interface {
	// Close releases backend resources.
	Close() error

	// --- Projects & tasks ---

	// ListProjects returns one summary per project in insertion order.
	ListProjects() ([]model.ProjectSummary, error)

	// GetProject returns a copy of the project and its tasks.
	GetProject(id string) (project *model.Project, found bool, err error)

	// CreateProject creates an empty project and returns its ID.
	CreateProject(name string) (string, error)

	// AddTask creates a pending task in the project and returns its ID.
	// found is false if the project does not exist.
	AddTask(projectID, title, assignee string) (taskID string, found bool, err error)

	// UpdateTaskStatus overwrites a task's status with any string.
	UpdateTaskStatus(projectID, taskID, status string) (ok bool, err error)

	// AddTaskComment appends a timestamped comment to a task.
	AddTaskComment(projectID, taskID, user, comment string) (ok bool, err error)

	// --- Tickets ---

	// ListTickets returns one summary per ticket in insertion order.
	ListTickets() ([]model.TicketSummary, error)

	// GetTicket returns a copy of the ticket.
	GetTicket(id string) (ticket *model.Ticket, found bool, err error)

	// CreateTicket creates an open, unassigned ticket and returns its ID.
	CreateTicket(title, description, reporter string) (string, error)

	// AssignTicket overwrites a ticket's assignee.
	AssignTicket(ticketID, assignee string) (ok bool, err error)

	// UpdateTicketStatus overwrites a ticket's status with any string.
	UpdateTicketStatus(ticketID, status string) (ok bool, err error)

	// AddTicketComment appends a timestamped comment to a ticket.
	AddTicketComment(ticketID, user, comment string) (ok bool, err error)

	// --- Users ---

	// ListUsers returns every user in insertion order.
	ListUsers() ([]model.User, error)
}

// Compile-time checks that both backends implement Tracker.
var (
	_ Tracker = (*Memory)(nil)
	_ Tracker = (*SQLite)(nil)
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Option configures a store backend.
type Option func(*options)

type options struct {
	clock *clock.Clock
}

// WithClock sets the clock used for identifiers and comment timestamps.
func WithClock(c *clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.New(nil)
	}
	return o
}

// Open constructs the named backend and loads seed into it.
func Open(backend string, seed Seed, opts ...Option) (Tracker, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	switch backend {
	case BackendMemory, "":
		return NewMemory(seed, opts...), nil
	case BackendSQLite:
		return NewSQLite(seed, opts...)
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", backend, BackendMemory, BackendSQLite)
	}
}
