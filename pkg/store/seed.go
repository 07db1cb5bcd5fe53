package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/daviddao/tracker/pkg/model"
)

// Seed is the data a store starts with. Slice order is insertion order.
type Seed struct {
	Users    []model.User    `json:"users" yaml:"users"`
	Projects []model.Project `json:"projects" yaml:"projects"`
	Tickets  []model.Ticket  `json:"tickets" yaml:"tickets"`
}

var errEmptyID = errors.New("empty id")

// Validate reports missing or duplicate identifiers.
func (s Seed) Validate() error {
	users := make(map[string]bool, len(s.Users))
	for i, u := range s.Users {
		if u.ID == "" {
			return fmt.Errorf("seed user #%d: %w", i, errEmptyID)
		}
		if users[u.ID] {
			return fmt.Errorf("seed user %s: duplicate id", u.ID)
		}
		users[u.ID] = true
	}

	projects := make(map[string]bool, len(s.Projects))
	for i, p := range s.Projects {
		if p.ID == "" {
			return fmt.Errorf("seed project #%d: %w", i, errEmptyID)
		}
		if projects[p.ID] {
			return fmt.Errorf("seed project %s: duplicate id", p.ID)
		}
		projects[p.ID] = true

		tasks := make(map[string]bool, len(p.Tasks))
		for j, t := range p.Tasks {
			if t.ID == "" {
				return fmt.Errorf("seed project %s task #%d: %w", p.ID, j, errEmptyID)
			}
			if tasks[t.ID] {
				return fmt.Errorf("seed project %s task %s: duplicate id", p.ID, t.ID)
			}
			tasks[t.ID] = true
		}
	}

	tickets := make(map[string]bool, len(s.Tickets))
	for i, t := range s.Tickets {
		if t.ID == "" {
			return fmt.Errorf("seed ticket #%d: %w", i, errEmptyID)
		}
		if tickets[t.ID] {
			return fmt.Errorf("seed ticket %s: duplicate id", t.ID)
		}
		tickets[t.ID] = true
	}
	return nil
}

func seedTime(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

// DefaultSeed returns the demo data the service starts with.
func DefaultSeed() Seed {
	return Seed{
		Users: []model.User{
			{ID: "U001", Name: "Alice"},
			{ID: "U002", Name: "Bob"},
			{ID: "U003", Name: "Charlie"},
			{ID: "U004", Name: "Diana"},
			{ID: "U005", Name: "Eve"},
		},
		Projects: []model.Project{
			{
				ID:   "P001",
				Name: "Website Redesign",
				Tasks: []model.Task{
					{
						ID:       "T001",
						Title:    "Design homepage UI",
						Status:   model.StatusPending,
						Assignee: "U001",
						Comments: []model.Comment{
							{User: "U002", Comment: "Remember to follow brand colors", Time: seedTime(2025, time.November, 30, 10, 15)},
						},
					},
					{
						ID:       "T002",
						Title:    "Implement login backend",
						Status:   model.StatusInProgress,
						Assignee: "U003",
						Comments: []model.Comment{},
					},
				},
			},
			{
				ID:   "P002",
				Name: "Marketing Campaign Nov-Dec",
				Tasks: []model.Task{
					{
						ID:       "T003",
						Title:    "Draft social media posts",
						Status:   model.StatusCompleted,
						Assignee: "U004",
						Comments: []model.Comment{
							{User: "U004", Comment: "Initial draft done", Time: seedTime(2025, time.November, 25, 16, 0)},
						},
					},
				},
			},
		},
		Tickets: []model.Ticket{
			{
				ID:          "TK001",
				Title:       "Bug: login API returns error 500",
				Description: "When user tries to login with valid credentials, API crashes.",
				Reporter:    "U003",
				Status:      model.StatusOpen,
				Assignee:    strPtr("U005"),
				Comments: []model.Comment{
					{User: "U005", Comment: "Looking into the stack trace", Time: seedTime(2025, time.November, 30, 11, 45)},
				},
			},
			{
				ID:          "TK002",
				Title:       `Feature Request: Add "Remember Me" to login`,
				Description: "User should stay logged in if they select remember-me option.",
				Reporter:    "U002",
				Status:      model.StatusInReview,
				Comments:    []model.Comment{},
			},
		},
	}
}
