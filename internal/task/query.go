package task

import (
	"cmp"
	"slices"
	"strings"
)

// View filters tasks by a case-insensitive substring of title or description
// and orders them pending first, newest first within a status. The input is
// never modified.
func View(tasks []Task, query string) []Task {
	out := Filter(tasks, query)
	SortForDisplay(out)
	return out
}

func Filter(tasks []Task, query string) []Task {
	needle := strings.ToLower(query)
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, needle) {
			out = append(out, t)
		}
	}
	return out
}

// Matches expects needle to be lower-cased already.
func Matches(t Task, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

func SortForDisplay(tasks []Task) {
	slices.SortStableFunc(tasks, compareForDisplay)
}

func compareForDisplay(a, b Task) int {
	if c := cmp.Compare(statusRank(a.Status), statusRank(b.Status)); c != 0 {
		return c
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}

func statusRank(s Status) int {
	if s == StatusCompleted {
		return 1
	}
	return 0
}

// StatusFilter narrows a view to one status. The zero value keeps everything.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPending   StatusFilter = "pending"
	FilterCompleted StatusFilter = "completed"
)

func ParseStatusFilter(v string) (StatusFilter, error) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(v))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPending:
		return FilterPending, nil
	case FilterCompleted:
		return FilterCompleted, nil
	}
	return "", ErrInvalidStatus
}

// Next cycles all -> pending -> completed -> all.
func (f StatusFilter) Next() StatusFilter {
	switch f {
	case FilterPending:
		return FilterCompleted
	case FilterCompleted:
		return FilterAll
	default:
		return FilterPending
	}
}

// FilterStatus keeps the relative order of tasks.
func FilterStatus(tasks []Task, f StatusFilter) []Task {
	if f == "" || f == FilterAll {
		return tasks
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if string(t.Status) == string(f) {
			out = append(out, t)
		}
	}
	return out
}
