package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"taskpad/internal/task"
)

// Store keeps tasks in an in-memory SQLite database. Nothing survives Close.
type Store struct {
	db *sql.DB
}

// Open creates a private in-memory database. An empty name gets a random one
// so that independent stores never share a cache.
func Open(name string) (*Store, error) {
	if name == "" {
		name = "taskpad-" + uuid.NewString()
	}
	db, err := sql.Open("sqlite", memoryDSN(name))
	if err != nil {
		return nil, err
	}
	// The database lives as long as its last connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
	created_at TEXT NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Insert(t task.Task) error {
	_, err := s.db.Exec(`INSERT INTO tasks (id, title, description, status, created_at) VALUES (?, ?, ?, ?, ?);`,
		t.ID, t.Title, t.Description, string(t.Status), formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *Store) Get(id string) (task.Task, bool, error) {
	row := s.db.QueryRow(`SELECT id, title, description, status, created_at FROM tasks WHERE id = ?;`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, false, nil
	}
	if err != nil {
		return task.Task{}, false, err
	}
	return t, true, nil
}

func (s *Store) Replace(t task.Task) (bool, error) {
	res, err := s.db.Exec(`UPDATE tasks SET title = ?, description = ?, status = ? WHERE id = ?;`,
		t.Title, t.Description, string(t.Status), t.ID)
	if err != nil {
		return false, fmt.Errorf("update task: %w", err)
	}
	return affected(res)
}

func (s *Store) Delete(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return affected(res)
}

func (s *Store) All() ([]task.Task, error) {
	rows, err := s.db.Query(`SELECT id, title, description, status, created_at FROM tasks ORDER BY seq;`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(r scanner) (task.Task, error) {
	var t task.Task
	var status, createdStr string
	if err := r.Scan(&t.ID, &t.Title, &t.Description, &status, &createdStr); err != nil {
		return task.Task{}, err
	}
	st, err := task.ParseStatus(status)
	if err != nil {
		return task.Task{}, fmt.Errorf("task %s: status %q: %w", t.ID, status, err)
	}
	t.Status = st
	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return task.Task{}, fmt.Errorf("task %s: bad created_at %q: %w", t.ID, createdStr, err)
	}
	t.CreatedAt = created
	return t, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Nanosecond precision keeps newest-first ordering exact for tasks created
// within the same second.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func memoryDSN(name string) string {
	if strings.HasPrefix(name, "file:") {
		return name
	}
	u := url.URL{
		Scheme: "file",
		Opaque: url.PathEscape(name),
	}
	q := u.Query()
	q.Set("mode", "memory")
	q.Set("cache", "shared")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
