package store_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"taskpad/internal/storage"
	"taskpad/internal/store"
	"taskpad/internal/task"
)

type StoreTestSuite struct {
	suite.Suite
	newBackend func() (store.Backend, error)

	store *store.Store
	clock time.Time
	ids   int
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newBackend: func() (store.Backend, error) {
		return store.NewMemory(), nil
	}})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newBackend: func() (store.Backend, error) {
		return storage.Open("")
	}})
}

func (s *StoreTestSuite) SetupTest() {
	backend, err := s.newBackend()
	s.Require().NoError(err)

	s.clock = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.ids = 0
	s.store = store.New(backend,
		store.WithClock(func() time.Time {
			s.clock = s.clock.Add(time.Minute)
			return s.clock
		}),
		store.WithIDGenerator(func() string {
			s.ids++
			return fmt.Sprintf("task-%d", s.ids)
		}),
	)
}

func (s *StoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *StoreTestSuite) mustCreate(title, description string) task.Task {
	s.T().Helper()
	t, err := s.store.Create(title, description)
	s.Require().NoError(err)
	return t
}

func (s *StoreTestSuite) all() []task.Task {
	s.T().Helper()
	all, err := s.store.Snapshot()
	s.Require().NoError(err)
	return all
}

func (s *StoreTestSuite) TestCreate() {
	before := s.clock
	created := s.mustCreate("  Buy milk ", "  2 litres\n")

	s.Equal("task-1", created.ID)
	s.Equal("Buy milk", created.Title)
	s.Equal("2 litres", created.Description)
	s.Equal(task.StatusPending, created.Status)
	s.False(created.CreatedAt.Before(before))

	got, err := s.store.Get(created.ID)
	s.Require().NoError(err)
	s.Equal(created.Title, got.Title)
	s.True(created.CreatedAt.Equal(got.CreatedAt))
}

func (s *StoreTestSuite) TestCreateAssignsUniqueIDs() {
	a := s.mustCreate("a", "")
	b := s.mustCreate("b", "")
	s.NotEqual(a.ID, b.ID)
}

func (s *StoreTestSuite) TestCreateRejectsInvalidTitle() {
	s.mustCreate("existing", "")

	_, err := s.store.Create("   ", "desc")
	s.ErrorIs(err, task.ErrEmptyTitle)

	_, err = s.store.Create(strings.Repeat("x", task.MaxTitleLength+1), "desc")
	s.ErrorIs(err, task.ErrTitleTooLong)

	s.Len(s.all(), 1)
}

func (s *StoreTestSuite) TestAddFillsMissingFields() {
	added, err := s.store.Add(task.Task{Title: "raw"})
	s.Require().NoError(err)
	s.NotEmpty(added.ID)
	s.False(added.CreatedAt.IsZero())
	s.Equal(task.StatusPending, added.Status)

	explicit := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	kept, err := s.store.Add(task.Task{ID: "fixed", Title: "given", Status: task.StatusCompleted, CreatedAt: explicit})
	s.Require().NoError(err)
	s.Equal("fixed", kept.ID)
	s.True(explicit.Equal(kept.CreatedAt))
	s.Equal(task.StatusCompleted, kept.Status)

	_, err = s.store.Add(task.Task{ID: "fixed", Title: "dup"})
	s.ErrorIs(err, store.ErrDuplicateID)
	s.Len(s.all(), 2)
}

func (s *StoreTestSuite) TestAddRejectsUnknownStatus() {
	s.mustCreate("existing", "")

	_, err := s.store.Add(task.Task{Title: "x", Status: task.Status("archived")})
	s.ErrorIs(err, task.ErrInvalidStatus)

	all := s.all()
	s.Require().Len(all, 1)
	for _, t := range all {
		s.True(t.Status.Valid(), "status %q", t.Status)
	}
}

func (s *StoreTestSuite) TestEditPreservesIdentity() {
	orig := s.mustCreate("Draft", "")

	updated, err := s.store.Edit(orig.ID, " Final ", "notes", "")
	s.Require().NoError(err)
	s.Equal(orig.ID, updated.ID)
	s.True(orig.CreatedAt.Equal(updated.CreatedAt))
	s.Equal("Final", updated.Title)
	s.Equal("notes", updated.Description)
	s.Equal(task.StatusPending, updated.Status)

	updated, err = s.store.Edit(orig.ID, "Final", "notes", task.StatusCompleted)
	s.Require().NoError(err)
	s.Equal(task.StatusCompleted, updated.Status)
}

func (s *StoreTestSuite) TestUpdateIgnoresIncomingCreatedAt() {
	orig := s.mustCreate("Draft", "")

	_, err := s.store.Update(task.Task{
		ID:        orig.ID,
		Title:     "Changed",
		Status:    task.StatusPending,
		CreatedAt: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	got, err := s.store.Get(orig.ID)
	s.Require().NoError(err)
	s.Equal("Changed", got.Title)
	s.True(orig.CreatedAt.Equal(got.CreatedAt))
}

func (s *StoreTestSuite) TestEditInvalid() {
	orig := s.mustCreate("Keep me", "body")

	_, err := s.store.Edit(orig.ID, "", "other", "")
	s.ErrorIs(err, task.ErrEmptyTitle)

	_, err = s.store.Edit(orig.ID, "ok", "other", task.Status("archived"))
	s.ErrorIs(err, task.ErrInvalidStatus)

	got, err := s.store.Get(orig.ID)
	s.Require().NoError(err)
	s.Equal("Keep me", got.Title)
	s.Equal("body", got.Description)
}

func (s *StoreTestSuite) TestUnknownIDLeavesCollectionUntouched() {
	s.mustCreate("only", "")
	before := s.all()

	_, err := s.store.Edit("missing", "x", "", "")
	s.ErrorIs(err, task.ErrNotFound)
	_, err = s.store.ToggleStatus("missing")
	s.ErrorIs(err, task.ErrNotFound)
	s.ErrorIs(s.store.Remove("missing"), task.ErrNotFound)
	_, err = s.store.Get("missing")
	s.ErrorIs(err, task.ErrNotFound)

	s.Equal(titlesOf(before), titlesOf(s.all()))
}

func (s *StoreTestSuite) TestToggleIsInvolution() {
	orig := s.mustCreate("Flip", "")

	once, err := s.store.ToggleStatus(orig.ID)
	s.Require().NoError(err)
	s.Equal(task.StatusCompleted, once.Status)
	s.True(orig.CreatedAt.Equal(once.CreatedAt))

	twice, err := s.store.ToggleStatus(orig.ID)
	s.Require().NoError(err)
	s.Equal(orig.Status, twice.Status)
	s.Equal(orig.ID, twice.ID)
}

func (s *StoreTestSuite) TestRemove() {
	gone := s.mustCreate("Gone", "")
	s.mustCreate("Stays", "")

	s.Require().NoError(s.store.Remove(gone.ID))

	list, err := s.store.List("")
	s.Require().NoError(err)
	s.Equal([]string{"Stays"}, titlesOf(list))

	_, err = s.store.ToggleStatus(gone.ID)
	s.ErrorIs(err, task.ErrNotFound)
	s.ErrorIs(s.store.Remove(gone.ID), task.ErrNotFound)
	s.Len(s.all(), 1)
}

func (s *StoreTestSuite) TestSnapshotIsInsertionOrderedCopy() {
	s.mustCreate("first", "")
	s.mustCreate("second", "")

	snap := s.all()
	s.Equal([]string{"first", "second"}, titlesOf(snap))

	snap[0].Title = "mutated"
	s.Equal([]string{"first", "second"}, titlesOf(s.all()))
}

func (s *StoreTestSuite) TestListScenario() {
	milk := s.mustCreate("Buy milk", "")
	s.mustCreate("Read docs", "")
	done := s.mustCreate("Done task", "")
	_, err := s.store.ToggleStatus(done.ID)
	s.Require().NoError(err)

	all, err := s.store.List("")
	s.Require().NoError(err)
	s.Equal([]string{"Read docs", "Buy milk", "Done task"}, titlesOf(all))

	buy, err := s.store.List("BUY")
	s.Require().NoError(err)
	s.Require().Len(buy, 1)
	s.Equal(milk.ID, buy[0].ID)

	none, err := s.store.List("zebra")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *StoreTestSuite) TestSubscribe() {
	var events []store.Event
	unsubscribe := s.store.Subscribe(func(e store.Event) {
		events = append(events, e)
	})

	t := s.mustCreate("watched", "")
	_, err := s.store.ToggleStatus(t.ID)
	s.Require().NoError(err)
	_, err = s.store.Edit(t.ID, "renamed", "", "")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Remove(t.ID))

	_, err = s.store.Create("", "")
	s.Error(err)

	unsubscribe()
	s.mustCreate("unwatched", "")

	kinds := make([]store.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	s.Equal([]store.EventKind{store.EventCreated, store.EventToggled, store.EventUpdated, store.EventDeleted}, kinds)
	s.Equal("renamed", events[3].Task.Title)
}

func (s *StoreTestSuite) TestEventsFollowCommitOrderAcrossGoroutines() {
	flip := s.mustCreate("flip", "")

	var mu sync.Mutex
	var statuses []task.Status
	s.store.Subscribe(func(e store.Event) {
		if e.Kind != store.EventToggled {
			return
		}
		mu.Lock()
		statuses = append(statuses, e.Task.Status)
		mu.Unlock()
	})

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := s.store.ToggleStatus(flip.ID)
				s.NoError(err)
			}
		}()
	}
	wg.Wait()

	s.Require().Len(statuses, workers*perWorker)
	want := task.StatusPending
	for i, got := range statuses {
		want = want.Toggle()
		s.Require().Equal(want, got, "event %d", i)
	}
}

func titlesOf(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestMemoryBackendDelete(t *testing.T) {
	m := store.NewMemory()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.Insert(task.Task{ID: id, Title: id}))
	}

	ok, err := m.Delete("b")
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := m.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, titlesOf(all))

	ok, err = m.Delete("b")
	require.NoError(t, err)
	assert.False(t, ok)
}
