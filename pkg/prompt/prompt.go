// Package prompt renders tracker records as plain-text prompts for
// language-model clients.
//
// Unknown identifiers are not errors: the renderers return a one-line
// "not found" message instead. The error result only carries store
// failures.
package prompt

import (
	"fmt"
	"strings"

	"github.com/daviddao/tracker/pkg/model"
	"github.com/daviddao/tracker/pkg/store"
)

// TimeLayout is the layout used for comment times.
const TimeLayout = "2006-01-02T15:04:05"

// Unassigned stands in for a ticket without an assignee.
const Unassigned = "unassigned"

// ProjectSummary renders a project header followed by one line per task.
func ProjectSummary(st store.Tracker, projectID string) (string, error) {
	p, found, err := st.GetProject(projectID)
	if err != nil {
		return "", fmt.Errorf("get project %s: %w", projectID, err)
	}
	if !found {
		return fmt.Sprintf("Project with ID %s not found.", projectID), nil
	}
	return FormatProject(p), nil
}

// FormatProject renders p. Lines are joined without a trailing newline.
func FormatProject(p *model.Project) string {
	lines := make([]string, 0, len(p.Tasks)+2)
	lines = append(lines, fmt.Sprintf("Project: %s (ID: %s)", p.Name, p.ID), "Tasks:")
	for _, t := range p.Tasks {
		lines = append(lines, fmt.Sprintf("- [%s] %s (ID: %s, Assignee: %s)", t.Status, t.Title, t.ID, t.Assignee))
	}
	return strings.Join(lines, "\n")
}

// TicketDetails renders every ticket field followed by its comments.
func TicketDetails(st store.Tracker, ticketID string) (string, error) {
	t, found, err := st.GetTicket(ticketID)
	if err != nil {
		return "", fmt.Errorf("get ticket %s: %w", ticketID, err)
	}
	if !found {
		return fmt.Sprintf("Ticket with ID %s not found.", ticketID), nil
	}
	return FormatTicket(t), nil
}

// FormatTicket renders t. Every line, including the last, ends in a newline.
func FormatTicket(t *model.Ticket) string {
	assignee := Unassigned
	if t.Assignee != nil {
		assignee = *t.Assignee
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ticket: %s (ID: %s)\n", t.Title, t.ID)
	fmt.Fprintf(&b, "Status: %s\n", t.Status)
	fmt.Fprintf(&b, "Reporter: %s\n", t.Reporter)
	fmt.Fprintf(&b, "Assignee: %s\n", assignee)
	fmt.Fprintf(&b, "Description: %s\n", t.Description)
	if len(t.Comments) == 0 {
		b.WriteString("No comments yet.\n")
		return b.String()
	}
	b.WriteString("Comments:\n")
	for _, c := range t.Comments {
		fmt.Fprintf(&b, "- %s at %s: %s\n", c.User, c.Time.Format(TimeLayout), c.Comment)
	}
	return b.String()
}
