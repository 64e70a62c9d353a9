package ui

import (
	"errors"

	"taskpad/internal/store"
	"taskpad/internal/task"
)

// command is a user intent produced by a screen and applied by Model.dispatch.
type command interface {
	apply(s *store.Store) (task.Task, error)
	name() string
}

type createCmd struct {
	title       string
	description string
}

func (c createCmd) apply(s *store.Store) (task.Task, error) {
	return s.Create(c.title, c.description)
}

func (createCmd) name() string { return "create" }

type editCmd struct {
	id          string
	title       string
	description string
	status      task.Status
}

func (c editCmd) apply(s *store.Store) (task.Task, error) {
	return s.Edit(c.id, c.title, c.description, c.status)
}

func (editCmd) name() string { return "edit" }

type toggleCmd struct {
	id string
}

func (c toggleCmd) apply(s *store.Store) (task.Task, error) {
	return s.ToggleStatus(c.id)
}

func (toggleCmd) name() string { return "toggle" }

type deleteCmd struct {
	id string
}

func (c deleteCmd) apply(s *store.Store) (task.Task, error) {
	t, err := s.Get(c.id)
	if err != nil {
		return task.Task{}, err
	}
	return t, s.Remove(c.id)
}

func (deleteCmd) name() string { return "delete" }

func isValidation(err error) bool {
	return errors.Is(err, task.ErrEmptyTitle) ||
		errors.Is(err, task.ErrTitleTooLong) ||
		errors.Is(err, task.ErrInvalidStatus)
}
