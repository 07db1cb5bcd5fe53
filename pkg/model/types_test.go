package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestProject_Task_Found(t *testing.T) {
	p := Project{ID: "P1", Tasks: []Task{{ID: "T1", Title: "a"}, {ID: "T2", Title: "b"}}}
	task, ok := p.Task("T2")
	if !ok {
		t.Fatal("Task(T2) not found")
	}
	if task.Title != "b" {
		t.Fatalf("Task(T2).Title = %q, want b", task.Title)
	}
	task.Status = StatusCompleted
	if p.Tasks[1].Status != StatusCompleted {
		t.Fatal("Task should return a pointer into the project's task slice")
	}
}

func TestProject_Task_NotFound(t *testing.T) {
	p := Project{ID: "P1"}
	if _, ok := p.Task("T1"); ok {
		t.Fatal("Task on empty project should report not found")
	}
}

func TestProjectClone_Independent(t *testing.T) {
	orig := Project{
		ID:   "P1",
		Name: "proj",
		Tasks: []Task{{
			ID:       "T1",
			Comments: []Comment{{User: "U1", Comment: "hi", Time: time.Unix(0, 0)}},
		}},
	}
	c := orig.Clone()
	c.Tasks[0].Status = "changed"
	c.Tasks[0].Comments[0].Comment = "changed"
	c.Tasks = append(c.Tasks, Task{ID: "T2"})

	if orig.Tasks[0].Status != "" {
		t.Fatal("clone shares task storage with original")
	}
	if orig.Tasks[0].Comments[0].Comment != "hi" {
		t.Fatal("clone shares comment storage with original")
	}
	if len(orig.Tasks) != 1 {
		t.Fatalf("original task count = %d, want 1", len(orig.Tasks))
	}
}

func TestTicketClone_Assignee(t *testing.T) {
	a := "U5"
	orig := Ticket{ID: "TK1", Assignee: &a}
	c := orig.Clone()
	*c.Assignee = "U9"
	if *orig.Assignee != "U5" {
		t.Fatalf("original assignee = %q, want U5", *orig.Assignee)
	}

	unassigned := Ticket{ID: "TK2"}.Clone()
	if unassigned.Assignee != nil {
		t.Fatal("clone of unassigned ticket should keep nil assignee")
	}
}

func TestClone_EmptyCommentsEncodeAsArray(t *testing.T) {
	data, err := json.Marshal(Ticket{ID: "TK1"}.Clone())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if got := string(raw["comments"]); got != "[]" {
		t.Fatalf("comments = %s, want []", got)
	}
	if got := string(raw["assignee"]); got != "null" {
		t.Fatalf("assignee = %s, want null", got)
	}
}

func TestSummaryJSONKeys(t *testing.T) {
	data, err := json.Marshal(ProjectSummary{ID: "P1", Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"project_id":"P1","name":"x"}`; got != want {
		t.Fatalf("ProjectSummary JSON = %s, want %s", got, want)
	}
	data, err = json.Marshal(TicketSummary{ID: "TK1", Title: "t", Status: "open"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"ticket_id":"TK1","title":"t","status":"open"}`; got != want {
		t.Fatalf("TicketSummary JSON = %s, want %s", got, want)
	}
}
