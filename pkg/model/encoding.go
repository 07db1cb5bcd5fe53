package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Projects encode their tasks as an object keyed by task ID, written in
// insertion order. Decoding reads keys in document order, so a round trip
// keeps the task order.

// taskBody is a task without its ID, which lives in the enclosing key.
type taskBody struct {
	Title    string    `json:"title" yaml:"title"`
	Status   string    `json:"status" yaml:"status"`
	Assignee string    `json:"assignee" yaml:"assignee"`
	Comments []Comment `json:"comments" yaml:"comments"`
}

func bodyOf(t Task) taskBody {
	comments := t.Comments
	if comments == nil {
		comments = []Comment{}
	}
	return taskBody{Title: t.Title, Status: t.Status, Assignee: t.Assignee, Comments: comments}
}

func (b taskBody) task(id string) Task {
	return Task{ID: id, Title: b.Title, Status: b.Status, Assignee: b.Assignee, Comments: b.Comments}
}

type projectJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Tasks json.RawMessage `json:"tasks"`
}

// MarshalJSON implements json.Marshaler.
func (p Project) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range p.Tasks {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(bodyOf(t))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return json.Marshal(projectJSON{ID: p.ID, Name: p.Name, Tasks: buf.Bytes()})
}

// UnmarshalJSON implements json.Unmarshaler. A missing or null tasks
// member decodes as an empty project.
func (p *Project) UnmarshalJSON(data []byte) error {
	var raw projectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tasks := []Task{}
	if len(raw.Tasks) > 0 && string(raw.Tasks) != "null" {
		dec := json.NewDecoder(bytes.NewReader(raw.Tasks))
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return fmt.Errorf("project %s: tasks must be an object keyed by task id", raw.ID)
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			id, _ := tok.(string)
			var body taskBody
			if err := dec.Decode(&body); err != nil {
				return fmt.Errorf("project %s: task %s: %w", raw.ID, id, err)
			}
			tasks = append(tasks, body.task(id))
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
	}
	*p = Project{ID: raw.ID, Name: raw.Name, Tasks: tasks}
	return nil
}

// MarshalYAML implements yaml.Marshaler with the same keyed task layout
// as the JSON form.
func (p Project) MarshalYAML() (any, error) {
	tasks := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, t := range p.Tasks {
		var val yaml.Node
		if err := val.Encode(bodyOf(t)); err != nil {
			return nil, err
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.ID}
		tasks.Content = append(tasks.Content, key, &val)
	}
	return struct {
		ID    string     `yaml:"id"`
		Name  string     `yaml:"name"`
		Tasks *yaml.Node `yaml:"tasks"`
	}{p.ID, p.Name, tasks}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Project) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ID    string    `yaml:"id"`
		Name  string    `yaml:"name"`
		Tasks yaml.Node `yaml:"tasks"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	tasks := []Task{}
	switch {
	case raw.Tasks.Kind == 0, raw.Tasks.Tag == "!!null":
	case raw.Tasks.Kind == yaml.MappingNode:
		for i := 0; i+1 < len(raw.Tasks.Content); i += 2 {
			id := raw.Tasks.Content[i].Value
			var body taskBody
			if err := raw.Tasks.Content[i+1].Decode(&body); err != nil {
				return fmt.Errorf("project %s: task %s: %w", raw.ID, id, err)
			}
			tasks = append(tasks, body.task(id))
		}
	default:
		return fmt.Errorf("project %s: tasks must be a mapping keyed by task id (line %d)", raw.ID, raw.Tasks.Line)
	}
	*p = Project{ID: raw.ID, Name: raw.Name, Tasks: tasks}
	return nil
}
