package store

import (
	"slices"

	"taskpad/internal/task"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventToggled EventKind = "toggled"
	EventDeleted EventKind = "deleted"
)

// Event is published after a mutation has been committed. For deletions
// Task holds the record as it was before removal.
type Event struct {
	Kind EventKind
	Task task.Task
}

type Listener func(Event)

// Subscribe registers fn for every committed mutation and returns a func
// that removes it. Listeners run synchronously, one event at a time in
// commit order. They may read the store but must not mutate it.
func (s *Store) Subscribe(fn Listener) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) publish(e Event) {
	s.subsMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
}
