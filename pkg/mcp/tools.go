package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/daviddao/tracker/pkg/store"
)

// ErrUnknownTool is returned by CallTool for a name not in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// ParamError reports a missing or malformed tool argument.
type ParamError struct {
	Message string
}

func (e *ParamError) Error() string { return e.Message }

func invalidParams(format string, args ...any) error {
	return &ParamError{Message: fmt.Sprintf(format, args...)}
}

// param is a required string argument.
type param struct {
	name        string
	description string
}

// tool is one store operation exposed over MCP. Every argument is a
// required string; run receives them already validated.
type tool struct {
	name        string
	title       string
	description string
	params      []param
	readOnly    bool
	idempotent  bool
	// resultType is the JSON Schema type of the result value.
	resultType any
	run        func(st store.Tracker, args map[string]string) (any, error)
}

var (
	projectIDParam = param{"project_id", "Project identifier, e.g. P001"}
	taskIDParam    = param{"task_id", "Task identifier within the project, e.g. T001"}
	ticketIDParam  = param{"ticket_id", "Ticket identifier, e.g. TK001"}
	statusParam    = param{"status", "New status; any string is accepted"}
	userParam      = param{"user", "User identifier of the comment author"}
	commentParam   = param{"comment", "Comment text"}
)

// nullable marks a result that encodes as null when the record is absent.
func nullable(jsonType string) []string { return []string{jsonType, "null"} }

func trackerTools() []tool {
	return []tool{
		{
			name:        "list_projects",
			title:       "List projects",
			description: "List every project as {project_id, name}.",
			readOnly:    true,
			idempotent:  true,
			resultType:  "array",
			run: func(st store.Tracker, _ map[string]string) (any, error) {
				return st.ListProjects()
			},
		},
		{
			name:        "get_project",
			title:       "Get project",
			description: "Get a project with its tasks and their comments. Returns null if the project does not exist.",
			params:      []param{projectIDParam},
			readOnly:    true,
			idempotent:  true,
			resultType:  nullable("object"),
			run: func(st store.Tracker, args map[string]string) (any, error) {
				p, found, err := st.GetProject(args["project_id"])
				if err != nil || !found {
					return nil, err
				}
				return p, nil
			},
		},
		{
			name:        "create_project",
			title:       "Create project",
			description: "Create an empty project and return its ID.",
			params:      []param{{"name", "Project name"}},
			resultType:  "string",
			run: func(st store.Tracker, args map[string]string) (any, error) {
				return st.CreateProject(args["name"])
			},
		},
		{
			name:        "add_task",
			title:       "Add task",
			description: "Add a pending task to a project and return its ID. Returns null if the project does not exist.",
			params:      []param{projectIDParam, {"title", "Task title"}, {"assignee", "User identifier of the assignee"}},
			resultType:  nullable("string"),
			run: func(st store.Tracker, args map[string]string) (any, error) {
				id, found, err := st.AddTask(args["project_id"], args["title"], args["assignee"])
				if err != nil || !found {
					return nil, err
				}
				return id, nil
			},
		},
		{
			name:        "update_task_status",
			title:       "Update task status",
			description: "Set a task's status. Returns false if the project or task does not exist.",
			params:      []param{projectIDParam, taskIDParam, statusParam},
			idempotent:  true,
			resultType:  "boolean",
			run: func(st store.Tracker, args map[string]string) (any, error) {
				return st.UpdateTaskStatus(args["project_id"], args["task_id"], args["status"])
			},
		},
		{
			name:        "add_task_comment",
			title:       "Comment on task",
			description: "Append a timestamped comment to a task. Returns false if the project or task does not exist.",
			params:      []param{projectIDParam, taskIDParam, userParam, commentParam},
			resultType:  "boolean",
			run: func(st store.Tracker, args map[string]string) (any, error) {
				return st.AddTaskComment(args["project_id"], args["task_id"], args["user"], args["comment"])
			},
		},
		{
			name:        "list_tickets",
			title:       "List tickets",
			description: "List every ticket as {ticket_id, title, status}.",
			readOnly:    true,
			idempotent:  true,
			resultType:  "array",
			run: func(st store.Tracker, _ map[string]string) (any, error) {
				return st.ListTickets()
			},
		},
		{
			name:        "get_ticket",
			title:       "Get ticket",
			description: "Get a ticket with its comments. Returns null if the ticket does not exist.",
			params:      []param{ticketIDParam},
			readOnly:    true,
			idempotent:  true,
			resultType:  nullable("object"),
			run: func(st store.Tracker, args map[string]string) (any, error) {
				t, found, err := st.GetTicket(args["ticket_id"])
				if err != nil || !found {
					return nil, err
				}
				return t, nil
			},
		},
		{
			name:        "create_ticket",
			title:       "Create ticket",
			description: "Open an unassigned ticket and return its ID.",
			params: []param{
				{"title", "Ticket title"},
				{"description", "Ticket description"},
				{"reporter", "User identifier of the reporter"},
			},
			resultType: "string",
			run: func(st store.Tracker, args map[string]string) (any, error) {
				return st.CreateTicket(args["title"], args["description"], args["reporter"])
			},
		},
		{
			name:        "assign_ticket",
			title:       "Assign ticket",
			description: "Set a ticket's assignee. Returns false if the ticket does not exist.",
			params:      []param{ticketIDParam, {"assignee", "User identifier of the assignee"}},
			idempotent:  true,
			resultType:  "boolean",
			run: func(st store.Tracker, args map[string]string) (any, error) {
				return st.AssignTicket(args["ticket_id"], args["assignee"])
			},
		},
		{
			name:        "update_ticket_status",
			title:       "Update ticket status",
			description: "Set a ticket's status. Returns false if the ticket does not exist.",
			params:      []param{ticketIDParam, statusParam},
			idempotent:  true,
			resultType:  "boolean",
			run: func(st store.Tracker, args map[string]string) (any, error) {
				return st.UpdateTicketStatus(args["ticket_id"], args["status"])
			},
		},
		{
			name:        "add_ticket_comment",
			title:       "Comment on ticket",
			description: "Append a timestamped comment to a ticket. Returns false if the ticket does not exist.",
			params:      []param{ticketIDParam, userParam, commentParam},
			resultType:  "boolean",
			run: func(st store.Tracker, args map[string]string) (any, error) {
				return st.AddTicketComment(args["ticket_id"], args["user"], args["comment"])
			},
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func (t *tool) describe() toolDescription {
	input := objectSchema{
		Type:       "object",
		Properties: make(map[string]propertySchema, len(t.params)),
		Required:   make([]string, 0, len(t.params)),
	}
	for _, p := range t.params {
		input.Properties[p.name] = propertySchema{Type: "string", Description: p.description}
		input.Required = append(input.Required, p.name)
	}

	return toolDescription{
		Name:        t.name,
		Title:       t.title,
		Description: t.description,
		InputSchema: input,
		OutputSchema: &objectSchema{
			Type:       "object",
			Properties: map[string]propertySchema{"result": {Type: t.resultType}},
			Required:   []string{"result"},
		},
		Annotations: &toolAnnotations{
			ReadOnlyHint:    boolPtr(t.readOnly),
			DestructiveHint: boolPtr(false),
			IdempotentHint:  boolPtr(t.idempotent),
			OpenWorldHint:   boolPtr(false),
		},
	}
}

// decodeArguments checks that every declared parameter is present as a
// JSON string. Unknown arguments are ignored.
func decodeArguments(raw json.RawMessage, params []param) (map[string]string, error) {
	fields := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, invalidParams("arguments must be a JSON object: %v", err)
		}
	}

	args := make(map[string]string, len(params))
	for _, p := range params {
		value, ok := fields[p.name]
		if !ok || string(value) == "null" {
			return nil, invalidParams("missing required argument %q", p.name)
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, invalidParams("argument %q must be a string", p.name)
		}
		args[p.name] = s
	}
	return args, nil
}

// executeTool validates arguments and runs t against the store.
func (s *Server) executeTool(t *tool, raw json.RawMessage) (any, error) {
	args, err := decodeArguments(raw, t.params)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	value, err := t.run(s.store, args)
	s.logger.Debug("tool call", "tool", t.name, "duration", time.Since(start))
	if err != nil {
		s.logger.Error("tool failed", "tool", t.name, "error", err)
		return nil, fmt.Errorf("%s: %w", t.name, err)
	}
	return value, nil
}

func (s *Server) handleToolsList(_ context.Context, _ *request) (any, *rpcError) {
	descriptions := make([]toolDescription, 0, len(s.tools))
	for i := range s.tools {
		descriptions = append(descriptions, s.tools[i].describe())
	}
	return toolsListResult{Tools: descriptions}, nil
}

func (s *Server) handleToolsCall(_ context.Context, req *request) (any, *rpcError) {
	var params toolsCallParams
	if rpcErr := unmarshalParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	t, ok := s.toolsByName[params.Name]
	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: "unknown tool: " + params.Name}
	}

	value, err := s.executeTool(t, params.Arguments)
	var paramErr *ParamError
	switch {
	case errors.As(err, &paramErr):
		return nil, &rpcError{Code: codeInvalidParams, Message: paramErr.Message}
	case err != nil:
		// Store failures are tool errors, visible to the model.
		return toolsCallResult{
			Content: []contentBlock{{Type: "text", Text: err.Error()}},
			IsError: true,
		}, nil
	}

	text, err := json.Marshal(value)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: "encode result: " + err.Error()}
	}
	return toolsCallResult{
		Content:           []contentBlock{{Type: "text", Text: string(text)}},
		StructuredContent: map[string]any{"result": value},
	}, nil
}

// ToolInfo describes a tool for callers outside the protocol layer.
type ToolInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Arguments   []string `json:"arguments"`
	ReadOnly    bool     `json:"read_only"`
}

// Tools returns the tool catalog in registration order.
func (s *Server) Tools() []ToolInfo {
	infos := make([]ToolInfo, 0, len(s.tools))
	for _, t := range s.tools {
		args := make([]string, 0, len(t.params))
		for _, p := range t.params {
			args = append(args, p.name)
		}
		infos = append(infos, ToolInfo{Name: t.name, Description: t.description, Arguments: args, ReadOnly: t.readOnly})
	}
	return infos
}

// CallTool runs a tool without the protocol layer and returns its result
// value. Argument problems are reported as *ParamError.
func (s *Server) CallTool(name string, arguments json.RawMessage) (any, error) {
	t, ok := s.toolsByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return s.executeTool(t, arguments)
}
