package store

import (
	"sync"

	"github.com/daviddao/tracker/pkg/clock"
	"github.com/daviddao/tracker/pkg/model"
)

// Memory keeps all tracker state in process memory. Every map is paired
// with an order slice so listings come back in insertion order. A single
// RWMutex guards all of it. Records handed out are copies.
type Memory struct {
	mu    sync.RWMutex
	clock *clock.Clock

	users        map[string]model.User
	userOrder    []string
	projects     map[string]*model.Project
	projectOrder []string
	tickets      map[string]*model.Ticket
	ticketOrder  []string
}

// NewMemory returns a store loaded with seed. The seed is copied, so the
// caller may reuse it.
func NewMemory(seed Seed, opts ...Option) *Memory {
	o := buildOptions(opts)
	m := &Memory{
		clock:    o.clock,
		users:    make(map[string]model.User, len(seed.Users)),
		projects: make(map[string]*model.Project, len(seed.Projects)),
		tickets:  make(map[string]*model.Ticket, len(seed.Tickets)),
	}
	for _, u := range seed.Users {
		if _, ok := m.users[u.ID]; !ok {
			m.userOrder = append(m.userOrder, u.ID)
		}
		m.users[u.ID] = u
	}
	for _, p := range seed.Projects {
		m.putProject(p.Clone())
	}
	for _, t := range seed.Tickets {
		m.putTicket(t.Clone())
	}
	return m
}

// Close is a no-op; Memory holds no external resources.
func (m *Memory) Close() error { return nil }

func (m *Memory) putProject(p model.Project) {
	if _, ok := m.projects[p.ID]; !ok {
		m.projectOrder = append(m.projectOrder, p.ID)
	}
	m.projects[p.ID] = &p
}

func (m *Memory) putTicket(t model.Ticket) {
	if _, ok := m.tickets[t.ID]; !ok {
		m.ticketOrder = append(m.ticketOrder, t.ID)
	}
	m.tickets[t.ID] = &t
}

// task looks up a live task. Callers must hold m.mu.
func (m *Memory) task(projectID, taskID string) (*model.Task, bool) {
	p, ok := m.projects[projectID]
	if !ok {
		return nil, false
	}
	return p.Task(taskID)
}

func (m *Memory) newComment(user, text string) model.Comment {
	return model.Comment{User: user, Comment: text, Time: m.clock.Now()}
}

// ---------------------------------------------------------------------------
// Projects & tasks
// ---------------------------------------------------------------------------

// ListProjects returns one summary per project in insertion order.
func (m *Memory) ListProjects() ([]model.ProjectSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ProjectSummary, 0, len(m.projectOrder))
	for _, id := range m.projectOrder {
		out = append(out, model.ProjectSummary{ID: id, Name: m.projects[id].Name})
	}
	return out, nil
}

// GetProject returns a copy of the project.
func (m *Memory) GetProject(id string) (*model.Project, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, false, nil
	}
	c := p.Clone()
	return &c, true, nil
}

// CreateProject creates an empty project.
func (m *Memory) CreateProject(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.clock.NextID(model.PrefixProject, func(id string) bool {
		_, taken := m.projects[id]
		return taken
	})
	m.putProject(model.Project{ID: id, Name: name, Tasks: []model.Task{}})
	return id, nil
}

// AddTask appends a pending task to the project.
func (m *Memory) AddTask(projectID, title, assignee string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return "", false, nil
	}
	id := m.clock.NextID(model.PrefixTask, func(id string) bool {
		_, taken := p.Task(id)
		return taken
	})
	p.Tasks = append(p.Tasks, model.Task{
		ID:       id,
		Title:    title,
		Status:   model.StatusPending,
		Assignee: assignee,
		Comments: []model.Comment{},
	})
	return id, true, nil
}

// UpdateTaskStatus overwrites the task's status.
func (m *Memory) UpdateTaskStatus(projectID, taskID, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.task(projectID, taskID)
	if !ok {
		return false, nil
	}
	t.Status = status
	return true, nil
}

// AddTaskComment appends a comment to the task.
func (m *Memory) AddTaskComment(projectID, taskID, user, comment string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.task(projectID, taskID)
	if !ok {
		return false, nil
	}
	t.Comments = append(t.Comments, m.newComment(user, comment))
	return true, nil
}

// ---------------------------------------------------------------------------
// Tickets
// ---------------------------------------------------------------------------

// ListTickets returns one summary per ticket in insertion order.
func (m *Memory) ListTickets() ([]model.TicketSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.TicketSummary, 0, len(m.ticketOrder))
	for _, id := range m.ticketOrder {
		t := m.tickets[id]
		out = append(out, model.TicketSummary{ID: id, Title: t.Title, Status: t.Status})
	}
	return out, nil
}

// GetTicket returns a copy of the ticket.
func (m *Memory) GetTicket(id string) (*model.Ticket, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, false, nil
	}
	c := t.Clone()
	return &c, true, nil
}

// CreateTicket creates an open, unassigned ticket.
func (m *Memory) CreateTicket(title, description, reporter string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.clock.NextID(model.PrefixTicket, func(id string) bool {
		_, taken := m.tickets[id]
		return taken
	})
	m.putTicket(model.Ticket{
		ID:          id,
		Title:       title,
		Description: description,
		Reporter:    reporter,
		Status:      model.StatusOpen,
		Comments:    []model.Comment{},
	})
	return id, nil
}

// AssignTicket overwrites the ticket's assignee.
func (m *Memory) AssignTicket(ticketID, assignee string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
	if !ok {
		return false, nil
	}
	t.Assignee = &assignee
	return true, nil
}

// UpdateTicketStatus overwrites the ticket's status.
func (m *Memory) UpdateTicketStatus(ticketID, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
	if !ok {
		return false, nil
	}
	t.Status = status
	return true, nil
}

// AddTicketComment appends a comment to the ticket.
func (m *Memory) AddTicketComment(ticketID, user, comment string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
	if !ok {
		return false, nil
	}
	t.Comments = append(t.Comments, m.newComment(user, comment))
	return true, nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// ListUsers returns every user in insertion order.
func (m *Memory) ListUsers() ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		out = append(out, m.users[id])
	}
	return out, nil
}
