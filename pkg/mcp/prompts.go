package mcp

import (
	"context"
	"fmt"

	"github.com/daviddao/tracker/pkg/prompt"
	"github.com/daviddao/tracker/pkg/store"
)

// promptTemplate is a text template over one record.
type promptTemplate struct {
	name        string
	description string
	argument    param
	render      func(st store.Tracker, id string) (string, error)
}

func trackerPrompts() []promptTemplate {
	return []promptTemplate{
		{
			name:        "project_summary",
			description: "Summarize a project and the status of each of its tasks.",
			argument:    projectIDParam,
			render:      prompt.ProjectSummary,
		},
		{
			name:        "ticket_details",
			description: "Describe a ticket with its assignee, description and comments.",
			argument:    ticketIDParam,
			render:      prompt.TicketDetails,
		},
	}
}

func (s *Server) handlePromptsList(_ context.Context, _ *request) (any, *rpcError) {
	descriptions := make([]promptDescription, 0, len(s.prompts))
	for _, p := range s.prompts {
		descriptions = append(descriptions, promptDescription{
			Name:        p.name,
			Description: p.description,
			Arguments: []promptArgument{{
				Name:        p.argument.name,
				Description: p.argument.description,
				Required:    true,
			}},
		})
	}
	return promptsListResult{Prompts: descriptions}, nil
}

func (s *Server) handlePromptsGet(_ context.Context, req *request) (any, *rpcError) {
	var params promptsGetParams
	if rpcErr := unmarshalParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	p, ok := s.promptsByName[params.Name]
	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: "unknown prompt: " + params.Name}
	}
	id, ok := params.Arguments[p.argument.name]
	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("missing required argument %q", p.argument.name)}
	}

	text, err := p.render(s.store, id)
	if err != nil {
		s.logger.Error("prompt failed", "prompt", p.name, "error", err)
		return nil, &rpcError{Code: codeInternalError, Message: fmt.Sprintf("%s: %v", p.name, err)}
	}
	return promptsGetResult{
		Description: p.description,
		Messages: []promptMessage{{
			Role:    "user",
			Content: contentBlock{Type: "text", Text: text},
		}},
	}, nil
}
