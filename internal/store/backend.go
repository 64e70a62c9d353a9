package store

import "taskpad/internal/task"

// Backend holds the ordered collection. Store serializes every call, so
// implementations need no locking of their own.
type Backend interface {
	Insert(t task.Task) error
	Get(id string) (task.Task, bool, error)
	// Replace overwrites title, description and status of the record with
	// t.ID. It reports false when no such record exists.
	Replace(t task.Task) (bool, error)
	Delete(id string) (bool, error)
	// All returns the records in insertion order.
	All() ([]task.Task, error)
	Close() error
}

// Memory is a slice-backed Backend.
type Memory struct {
	tasks []task.Task
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Insert(t task.Task) error {
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *Memory) Get(id string) (task.Task, bool, error) {
	i := m.index(id)
	if i < 0 {
		return task.Task{}, false, nil
	}
	return m.tasks[i], true, nil
}

func (m *Memory) Replace(t task.Task) (bool, error) {
	i := m.index(t.ID)
	if i < 0 {
		return false, nil
	}
	cur := &m.tasks[i]
	cur.Title = t.Title
	cur.Description = t.Description
	cur.Status = t.Status
	return true, nil
}

func (m *Memory) Delete(id string) (bool, error) {
	i := m.index(id)
	if i < 0 {
		return false, nil
	}
	m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
	return true, nil
}

func (m *Memory) All() ([]task.Task, error) {
	out := make([]task.Task, len(m.tasks))
	copy(out, m.tasks)
	return out, nil
}

func (m *Memory) Close() error {
	m.tasks = nil
	return nil
}

func (m *Memory) index(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
