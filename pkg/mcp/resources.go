package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/daviddao/tracker/pkg/model"
	"github.com/daviddao/tracker/pkg/store"
)

const usersURI = "users://all"

// resource is a fixed, read-only document.
type resource struct {
	description resourceDescription
	read        func(st store.Tracker) (string, error)
}

func trackerResources() []resource {
	return []resource{
		{
			description: resourceDescription{
				URI:         usersURI,
				Name:        "Users",
				Description: "Every known user, keyed by user ID.",
				MIMEType:    "application/json",
			},
			read: readUsers,
		},
	}
}

// readUsers renders users as {"<id>": {"name": "<name>"}} with keys in
// insertion order.
func readUsers(st store.Tracker) (string, error) {
	users, err := st.ListUsers()
	if err != nil {
		return "", err
	}
	return encodeUsers(users)
}

func encodeUsers(users []model.User) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, u := range users {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(u.ID)
		if err != nil {
			return "", err
		}
		value, err := json.Marshal(struct {
			Name string `json:"name"`
		}{u.Name})
		if err != nil {
			return "", err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func (s *Server) handleResourcesList(_ context.Context, _ *request) (any, *rpcError) {
	descriptions := make([]resourceDescription, 0, len(s.resources))
	for _, r := range s.resources {
		descriptions = append(descriptions, r.description)
	}
	return resourcesListResult{Resources: descriptions}, nil
}

func (s *Server) handleResourcesRead(_ context.Context, req *request) (any, *rpcError) {
	var params resourcesReadParams
	if rpcErr := unmarshalParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	for _, r := range s.resources {
		if r.description.URI != params.URI {
			continue
		}
		text, err := r.read(s.store)
		if err != nil {
			s.logger.Error("resource read failed", "uri", params.URI, "error", err)
			return nil, &rpcError{Code: codeInternalError, Message: fmt.Sprintf("read %s: %v", params.URI, err)}
		}
		return resourcesReadResult{Contents: []resourceContent{{
			URI:      params.URI,
			MIMEType: r.description.MIMEType,
			Text:     text,
		}}}, nil
	}
	return nil, &rpcError{Code: codeResourceNotFound, Message: "resource not found: " + params.URI}
}
