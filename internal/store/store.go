package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskpad/internal/task"
)

var ErrDuplicateID = errors.New("task id already exists")

// Store is the only place the task collection is mutated.
type Store struct {
	// writeMu is held from commit until listeners return, so events are
	// delivered in commit order. mu guards the backend alone.
	writeMu sync.Mutex
	mu      sync.Mutex
	backend Backend
	now     func() time.Time
	newID   func() string

	subsMu  sync.Mutex
	subs    map[int]Listener
	nextSub int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
		subs:    map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Create validates the form input and appends a new pending task.
func (s *Store) Create(title, description string) (task.Task, error) {
	title, err := task.ValidateTitle(title)
	if err != nil {
		return task.Task{}, err
	}
	return s.Add(task.Task{
		Title:       title,
		Description: task.NormalizeDescription(description),
		Status:      task.StatusPending,
	})
}

// Add appends t, filling in ID, CreatedAt and Status when they are zero.
// Input is assumed to be validated already.
func (s *Store) Add(t task.Task) (task.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.Status == "" {
		t.Status = task.StatusPending
	}
	if !t.Status.Valid() {
		s.mu.Unlock()
		return task.Task{}, fmt.Errorf("add %s: %w", t.ID, task.ErrInvalidStatus)
	}
	_, exists, err := s.backend.Get(t.ID)
	if err == nil && exists {
		err = fmt.Errorf("add %s: %w", t.ID, ErrDuplicateID)
	} else if err == nil {
		err = s.backend.Insert(t)
	}
	s.mu.Unlock()
	if err != nil {
		return task.Task{}, err
	}
	s.publish(Event{Kind: EventCreated, Task: t})
	return t, nil
}

// Edit validates the form input and updates the task with id. Status is
// left unchanged when empty.
func (s *Store) Edit(id, title, description string, status task.Status) (task.Task, error) {
	title, err := task.ValidateTitle(title)
	if err != nil {
		return task.Task{}, err
	}
	return s.Update(task.Task{
		ID:          id,
		Title:       title,
		Description: task.NormalizeDescription(description),
		Status:      status,
	})
}

// Update replaces the mutable fields of the stored record with t.ID. The
// stored ID and CreatedAt always win over whatever t carries.
func (s *Store) Update(t task.Task) (task.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if t.Status != "" && !t.Status.Valid() {
		return task.Task{}, fmt.Errorf("update %s: %w", t.ID, task.ErrInvalidStatus)
	}
	updated, err := s.modify(t.ID, func(cur task.Task) task.Task {
		cur.Title = t.Title
		cur.Description = t.Description
		if t.Status != "" {
			cur.Status = t.Status
		}
		return cur
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("update %s: %w", t.ID, err)
	}
	s.publish(Event{Kind: EventUpdated, Task: updated})
	return updated, nil
}

func (s *Store) ToggleStatus(id string) (task.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	updated, err := s.modify(id, func(cur task.Task) task.Task {
		cur.Status = cur.Status.Toggle()
		return cur
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("toggle %s: %w", id, err)
	}
	s.publish(Event{Kind: EventToggled, Task: updated})
	return updated, nil
}

func (s *Store) modify(id string, fn func(task.Task) task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok, err := s.backend.Get(id)
	if err != nil {
		return task.Task{}, err
	}
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	next := fn(cur)
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	if ok, err = s.backend.Replace(next); err != nil {
		return task.Task{}, err
	} else if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return next, nil
}

func (s *Store) Remove(id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	cur, ok, err := s.backend.Get(id)
	if err == nil && ok {
		ok, err = s.backend.Delete(id)
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("remove %s: %w", id, task.ErrNotFound)
	}
	s.publish(Event{Kind: EventDeleted, Task: cur})
	return nil
}

func (s *Store) Get(id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok, err := s.backend.Get(id)
	if err != nil {
		return task.Task{}, fmt.Errorf("get %s: %w", id, err)
	}
	if !ok {
		return task.Task{}, fmt.Errorf("get %s: %w", id, task.ErrNotFound)
	}
	return t, nil
}

// Snapshot returns a copy of the collection in insertion order.
func (s *Store) Snapshot() ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.All()
}

// List is the display view of the collection for query.
func (s *Store) List(query string) ([]task.Task, error) {
	all, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return task.View(all, query), nil
}
