package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/daviddao/tracker/pkg/clock"
	"github.com/daviddao/tracker/pkg/model"

	_ "modernc.org/sqlite"
)

// Comment owner kinds in the comments table.
const (
	commentKindTask   = "task"
	commentKindTicket = "ticket"
)

// SQLite keeps tracker state in an in-process SQLite database. The
// database lives on one pinned :memory: connection, so it is as volatile
// as *Memory and vanishes on Close. Listings follow rowid order, which is
// insertion order because rows are never deleted.
type SQLite struct {
	// mu makes check-then-write sequences atomic. The single connection
	// already serializes statements.
	mu    sync.RWMutex
	db    *sql.DB
	clock *clock.Clock
}

// NewSQLite opens a fresh in-memory database and loads seed into it.
func NewSQLite(seed Seed, opts ...Option) (*SQLite, error) {
	o := buildOptions(opts)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Every new connection would see its own empty database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	s := &SQLite{db: db, clock: o.clock}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.load(seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("load seed: %w", err)
	}
	return s, nil
}

// Close closes the database connection, discarding all state.
func (s *SQLite) Close() error { return s.db.Close() }

// retryOnContention wraps retryOp from retry.go with the default config.
func retryOnContention(fn func() error) error {
	return retryOp(defaultRetryConfig, fn)
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		project_id TEXT NOT NULL REFERENCES projects(id),
		id         TEXT NOT NULL,
		title      TEXT NOT NULL,
		status     TEXT NOT NULL,
		assignee   TEXT NOT NULL,
		PRIMARY KEY (project_id, id)
	);

	CREATE TABLE IF NOT EXISTS tickets (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		reporter    TEXT NOT NULL,
		status      TEXT NOT NULL,
		assignee    TEXT
	);

	CREATE TABLE IF NOT EXISTS comments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		kind       TEXT NOT NULL,
		parent_id  TEXT NOT NULL,
		item_id    TEXT NOT NULL,
		author     TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_comments_item ON comments(kind, parent_id, item_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// load inserts seed rows in a single transaction.
func (s *SQLite) load(seed Seed) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, u := range seed.Users {
		if _, err := tx.Exec(`INSERT INTO users (id, name) VALUES (?, ?)`, u.ID, u.Name); err != nil {
			return fmt.Errorf("insert user %s: %w", u.ID, err)
		}
	}
	for _, p := range seed.Projects {
		if _, err := tx.Exec(`INSERT INTO projects (id, name) VALUES (?, ?)`, p.ID, p.Name); err != nil {
			return fmt.Errorf("insert project %s: %w", p.ID, err)
		}
		for _, t := range p.Tasks {
			if _, err := tx.Exec(
				`INSERT INTO tasks (project_id, id, title, status, assignee) VALUES (?, ?, ?, ?, ?)`,
				p.ID, t.ID, t.Title, t.Status, t.Assignee,
			); err != nil {
				return fmt.Errorf("insert task %s/%s: %w", p.ID, t.ID, err)
			}
			for _, c := range t.Comments {
				if err := insertComment(tx, commentKindTask, p.ID, t.ID, c); err != nil {
					return err
				}
			}
		}
	}
	for _, t := range seed.Tickets {
		if _, err := tx.Exec(
			`INSERT INTO tickets (id, title, description, reporter, status, assignee) VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Description, t.Reporter, t.Status, nullString(t.Assignee),
		); err != nil {
			return fmt.Errorf("insert ticket %s: %w", t.ID, err)
		}
		for _, c := range t.Comments {
			if err := insertComment(tx, commentKindTicket, "", t.ID, c); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// execer abstracts *sql.DB and *sql.Tx for insertComment.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertComment(e execer, kind, parentID, itemID string, c model.Comment) error {
	_, err := e.Exec(
		`INSERT INTO comments (kind, parent_id, item_id, author, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		kind, parentID, itemID, c.User, c.Comment, c.Time.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert %s comment on %s: %w", kind, itemID, err)
	}
	return nil
}

// exists reports whether query returns at least one row.
func (s *SQLite) exists(query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRow(query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// nextID draws identifiers until one is free according to query, which
// must select a row for a taken id passed as its last argument.
func (s *SQLite) nextID(prefix, query string, args ...any) (string, error) {
	var lookupErr error
	id := s.clock.NextID(prefix, func(id string) bool {
		taken, err := s.exists(query, append(args, id)...)
		if err != nil {
			lookupErr = err
			return false
		}
		return taken
	})
	if lookupErr != nil {
		return "", fmt.Errorf("check id %s: %w", id, lookupErr)
	}
	return id, nil
}

// updateOne runs an UPDATE and reports whether a row matched.
func (s *SQLite) updateOne(query string, args ...any) (bool, error) {
	var rows int64
	err := retryOnContention(func() error {
		res, err := s.db.Exec(query, args...)
		if err != nil {
			return err
		}
		rows, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ---------------------------------------------------------------------------
// Projects & tasks
// ---------------------------------------------------------------------------

// ListProjects returns one summary per project in insertion order.
func (s *SQLite) ListProjects() ([]model.ProjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id, name FROM projects ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []model.ProjectSummary{}
	for rows.Next() {
		var p model.ProjectSummary
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProject returns the project with its tasks and their comments.
func (s *SQLite) GetProject(id string) (*model.Project, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := model.Project{ID: id, Tasks: []model.Task{}}
	err := s.db.QueryRow(`SELECT name FROM projects WHERE id = ?`, id).Scan(&p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get project %s: %w", id, err)
	}

	rows, err := s.db.Query(
		`SELECT id, title, status, assignee FROM tasks WHERE project_id = ? ORDER BY rowid`, id,
	)
	if err != nil {
		return nil, false, fmt.Errorf("list tasks of %s: %w", id, err)
	}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.Assignee); err != nil {
			rows.Close()
			return nil, false, err
		}
		p.Tasks = append(p.Tasks, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	for i := range p.Tasks {
		comments, err := s.listComments(commentKindTask, id, p.Tasks[i].ID)
		if err != nil {
			return nil, false, err
		}
		p.Tasks[i].Comments = comments
	}
	return &p, true, nil
}

// CreateProject creates an empty project.
func (s *SQLite) CreateProject(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.nextID(model.PrefixProject, `SELECT 1 FROM projects WHERE id = ?`)
	if err != nil {
		return "", err
	}
	err = retryOnContention(func() error {
		_, err := s.db.Exec(`INSERT INTO projects (id, name) VALUES (?, ?)`, id, name)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert project: %w", err)
	}
	return id, nil
}

// AddTask appends a pending task to the project.
func (s *SQLite) AddTask(projectID, title, assignee string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, err := s.exists(`SELECT 1 FROM projects WHERE id = ?`, projectID)
	if err != nil {
		return "", false, fmt.Errorf("get project %s: %w", projectID, err)
	}
	if !found {
		return "", false, nil
	}
	id, err := s.nextID(model.PrefixTask, `SELECT 1 FROM tasks WHERE project_id = ? AND id = ?`, projectID)
	if err != nil {
		return "", false, err
	}
	err = retryOnContention(func() error {
		_, err := s.db.Exec(
			`INSERT INTO tasks (project_id, id, title, status, assignee) VALUES (?, ?, ?, ?, ?)`,
			projectID, id, title, model.StatusPending, assignee,
		)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("insert task: %w", err)
	}
	return id, true, nil
}

// UpdateTaskStatus overwrites the task's status.
func (s *SQLite) UpdateTaskStatus(projectID, taskID, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.updateOne(
		`UPDATE tasks SET status = ? WHERE project_id = ? AND id = ?`, status, projectID, taskID,
	)
	if err != nil {
		return false, fmt.Errorf("update task %s/%s: %w", projectID, taskID, err)
	}
	return ok, nil
}

// AddTaskComment appends a comment to the task.
func (s *SQLite) AddTaskComment(projectID, taskID, user, comment string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, err := s.exists(`SELECT 1 FROM tasks WHERE project_id = ? AND id = ?`, projectID, taskID)
	if err != nil {
		return false, fmt.Errorf("get task %s/%s: %w", projectID, taskID, err)
	}
	if !found {
		return false, nil
	}
	c := model.Comment{User: user, Comment: comment, Time: s.clock.Now()}
	if err := retryOnContention(func() error {
		return insertComment(s.db, commentKindTask, projectID, taskID, c)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Tickets
// ---------------------------------------------------------------------------

// ListTickets returns one summary per ticket in insertion order.
func (s *SQLite) ListTickets() ([]model.TicketSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id, title, status FROM tickets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	out := []model.TicketSummary{}
	for rows.Next() {
		var t model.TicketSummary
		if err := rows.Scan(&t.ID, &t.Title, &t.Status); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTicket returns the ticket with its comments.
func (s *SQLite) GetTicket(id string) (*model.Ticket, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := model.Ticket{ID: id}
	var assignee sql.NullString
	err := s.db.QueryRow(
		`SELECT title, description, reporter, status, assignee FROM tickets WHERE id = ?`, id,
	).Scan(&t.Title, &t.Description, &t.Reporter, &t.Status, &assignee)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get ticket %s: %w", id, err)
	}
	if assignee.Valid {
		t.Assignee = &assignee.String
	}

	t.Comments, err = s.listComments(commentKindTicket, "", id)
	if err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

// CreateTicket creates an open, unassigned ticket.
func (s *SQLite) CreateTicket(title, description, reporter string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.nextID(model.PrefixTicket, `SELECT 1 FROM tickets WHERE id = ?`)
	if err != nil {
		return "", err
	}
	err = retryOnContention(func() error {
		_, err := s.db.Exec(
			`INSERT INTO tickets (id, title, description, reporter, status, assignee)
			 VALUES (?, ?, ?, ?, ?, NULL)`,
			id, title, description, reporter, model.StatusOpen,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert ticket: %w", err)
	}
	return id, nil
}

// AssignTicket overwrites the ticket's assignee.
func (s *SQLite) AssignTicket(ticketID, assignee string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.updateOne(`UPDATE tickets SET assignee = ? WHERE id = ?`, assignee, ticketID)
	if err != nil {
		return false, fmt.Errorf("assign ticket %s: %w", ticketID, err)
	}
	return ok, nil
}

// UpdateTicketStatus overwrites the ticket's status.
func (s *SQLite) UpdateTicketStatus(ticketID, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.updateOne(`UPDATE tickets SET status = ? WHERE id = ?`, status, ticketID)
	if err != nil {
		return false, fmt.Errorf("update ticket %s: %w", ticketID, err)
	}
	return ok, nil
}

// AddTicketComment appends a comment to the ticket.
func (s *SQLite) AddTicketComment(ticketID, user, comment string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, err := s.exists(`SELECT 1 FROM tickets WHERE id = ?`, ticketID)
	if err != nil {
		return false, fmt.Errorf("get ticket %s: %w", ticketID, err)
	}
	if !found {
		return false, nil
	}
	c := model.Comment{User: user, Comment: comment, Time: s.clock.Now()}
	if err := retryOnContention(func() error {
		return insertComment(s.db, commentKindTicket, "", ticketID, c)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// ListUsers returns every user in insertion order.
func (s *SQLite) ListUsers() ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT id, name FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *SQLite) listComments(kind, parentID, itemID string) ([]model.Comment, error) {
	rows, err := s.db.Query(
		`SELECT author, body, created_at FROM comments
		 WHERE kind = ? AND parent_id = ? AND item_id = ? ORDER BY id ASC`,
		kind, parentID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments on %s: %w", itemID, err)
	}
	defer rows.Close()
	return scanComments(rows)
}

func scanComments(rows *sql.Rows) ([]model.Comment, error) {
	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		var createdStr string
		if err := rows.Scan(&c.User, &c.Comment, &createdStr); err != nil {
			return nil, err
		}
		var parseErr error
		c.Time, parseErr = time.Parse(time.RFC3339Nano, createdStr)
		if parseErr != nil {
			return nil, fmt.Errorf("parse comment time %q: %w", createdStr, parseErr)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
