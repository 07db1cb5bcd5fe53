package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestProjectJSON_EmptyTasksIsObject(t *testing.T) {
	data, err := json.Marshal(Project{ID: "P1", Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"id":"P1","name":"x","tasks":{}}`; got != want {
		t.Fatalf("Project JSON = %s, want %s", got, want)
	}
}

func TestProjectJSON_TasksKeyedByID(t *testing.T) {
	p := Project{ID: "P1", Name: "x", Tasks: []Task{
		{ID: "T9", Title: "late", Status: StatusPending, Assignee: "U1"},
		{ID: "T1", Title: "early", Status: StatusCompleted, Assignee: "U2"},
	}}
	data, err := json.Marshal(&p)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"P1","name":"x","tasks":{` +
		`"T9":{"title":"late","status":"pending","assignee":"U1","comments":[]},` +
		`"T1":{"title":"early","status":"completed","assignee":"U2","comments":[]}}}`
	if string(data) != want {
		t.Fatalf("Project JSON =\n%s\nwant\n%s", data, want)
	}

	var generic struct {
		Tasks map[string]map[string]any `json:"tasks"`
	}
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatal(err)
	}
	if got := generic.Tasks["T1"]["title"]; got != "early" {
		t.Fatalf(`tasks["T1"].title = %v, want early`, got)
	}
}

func TestProjectJSON_RoundTripKeepsOrder(t *testing.T) {
	want := Project{ID: "P1", Name: "x", Tasks: []Task{
		{ID: "T9", Title: "late", Comments: []Comment{{User: "U1", Comment: "hi", Time: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}}},
		{ID: "T1", Title: "early", Comments: []Comment{}},
	}}
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	var got Project
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectJSON_RejectsTaskArray(t *testing.T) {
	var p Project
	if err := json.Unmarshal([]byte(`{"id":"P1","tasks":[{"id":"T1"}]}`), &p); err == nil {
		t.Fatal("expected error for array-shaped tasks")
	}
}

func TestProjectJSON_MissingTasks(t *testing.T) {
	var p Project
	if err := json.Unmarshal([]byte(`{"id":"P1","name":"x"}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Tasks == nil || len(p.Tasks) != 0 {
		t.Fatalf("Tasks = %#v, want empty non-nil slice", p.Tasks)
	}
}

func TestProjectYAML_RoundTripKeepsOrder(t *testing.T) {
	want := Project{ID: "P1", Name: "x", Tasks: []Task{
		{ID: "T9", Title: "late", Status: StatusPending, Comments: []Comment{}},
		{ID: "T1", Title: "early", Status: StatusOpen, Comments: []Comment{}},
	}}
	data, err := yaml.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	var got Project
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal:\n%s\n%v", data, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
