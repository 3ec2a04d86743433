package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	dom "todoapp/internal/domain"
	"todoapp/internal/repo"

	"github.com/jackc/pgx/v5"
)

type fakeTodoRepo struct {
	createIn  dom.Todo
	createOut dom.Todo
	createErr error

	getOut dom.Todo
	getErr error

	updateIn    dom.TodoPatch
	updateOut   dom.Todo
	updateErr   error
	updateCalls int

	deleteN     int64
	deleteErr   error
	deleteCalls int
}

var _ repo.TodoRepo = (*fakeTodoRepo)(nil)

func (f *fakeTodoRepo) Create(_ context.Context, t dom.Todo) (dom.Todo, error) {
	f.createIn = t
	return f.createOut, f.createErr
}
func (f *fakeTodoRepo) GetByID(_ context.Context, _ int64) (dom.Todo, error) {
	return f.getOut, f.getErr
}
func (f *fakeTodoRepo) List(_ context.Context) ([]dom.Todo, error) {
	return nil, nil
}
func (f *fakeTodoRepo) Update(_ context.Context, _ int64, patch dom.TodoPatch) (dom.Todo, error) {
	f.updateCalls++
	f.updateIn = patch
	return f.updateOut, f.updateErr
}
func (f *fakeTodoRepo) Delete(_ context.Context, _ int64) (int64, error) {
	f.deleteCalls++
	return f.deleteN, f.deleteErr
}

// fakeAppender records appends on a channel so tests can wait for the
// detached logging goroutine.
type fakeAppender struct {
	err      error
	appended chan dom.Activity
}

func newFakeAppender() *fakeAppender {
	return &fakeAppender{appended: make(chan dom.Activity, 4)}
}

func (f *fakeAppender) Append(_ context.Context, a dom.Activity) (int64, error) {
	f.appended <- a
	return 1, f.err
}

func waitActivity(t *testing.T, f *fakeAppender) dom.Activity {
	t.Helper()
	select {
	case a := <-f.appended:
		return a
	case <-time.After(time.Second):
		t.Fatalf("no activity appended")
		return dom.Activity{}
	}
}

func expectNoActivity(t *testing.T, f *fakeAppender) {
	t.Helper()
	select {
	case a := <-f.appended:
		t.Fatalf("unexpected activity appended: %+v", a)
	case <-time.After(50 * time.Millisecond):
	}
}

func meta() dom.RequestMeta {
	return dom.RequestMeta{IP: "10.0.0.7", UserAgent: "curl/8.0"}
}

func TestTodoService_Create_EmptyTitle(t *testing.T) {
	t.Parallel()
	r := &fakeTodoRepo{}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := s.Create(context.Background(), title, "d", meta()); !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("title %q: want ErrEmptyTitle, got %v", title, err)
		}
	}
	if r.createIn.Title != "" {
		t.Fatalf("repo should not be called on invalid title")
	}
	expectNoActivity(t, app)
}

func TestTodoService_Create_LogsCreateActivity(t *testing.T) {
	t.Parallel()
	created := dom.Todo{ID: 1, Title: "Buy milk", Description: "", Completed: false,
		CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r := &fakeTodoRepo{createOut: created}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	out, err := s.Create(context.Background(), "  Buy milk  ", " ", meta())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if out.ID != 1 || out.Title != "Buy milk" || out.Description != "" || out.Completed {
		t.Fatalf("unexpected todo: %+v", out)
	}
	if r.createIn.Title != "Buy milk" || r.createIn.Description != "" {
		t.Fatalf("input not trimmed: %+v", r.createIn)
	}

	a := waitActivity(t, app)
	if a.Action != dom.ActionCreate {
		t.Fatalf("action: %s", a.Action)
	}
	if a.TodoID == nil || *a.TodoID != 1 {
		t.Fatalf("todo_id: %v", a.TodoID)
	}
	if a.Description != `Todo "Buy milk" was created` {
		t.Fatalf("description: %s", a.Description)
	}
	if a.OldValue != nil {
		t.Fatalf("old_value must be nil on create")
	}
	if a.NewValue == nil || !strings.Contains(*a.NewValue, `"title":"Buy milk"`) {
		t.Fatalf("new_value snapshot: %v", a.NewValue)
	}
	if a.UserIP == nil || *a.UserIP != "10.0.0.7" || a.UserAgent == nil || *a.UserAgent != "curl/8.0" {
		t.Fatalf("provenance not carried: %+v", a)
	}
}

func TestTodoService_Create_AppendFailureSwallowed(t *testing.T) {
	t.Parallel()
	r := &fakeTodoRepo{createOut: dom.Todo{ID: 3, Title: "x"}}
	app := newFakeAppender()
	app.err = errors.New("activities table on fire")
	s := NewTodoService(r, app, nil, nil)

	out, err := s.Create(context.Background(), "x", "", meta())
	if err != nil {
		t.Fatalf("create must not fail when logging fails: %v", err)
	}
	if out.ID != 3 {
		t.Fatalf("unexpected todo: %+v", out)
	}
	waitActivity(t, app) // append was attempted
}

func TestTodoService_Create_EmptyMetaStoredAsNil(t *testing.T) {
	t.Parallel()
	r := &fakeTodoRepo{createOut: dom.Todo{ID: 1, Title: "x"}}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	if _, err := s.Create(context.Background(), "x", "", dom.RequestMeta{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	a := waitActivity(t, app)
	if a.UserIP != nil || a.UserAgent != nil {
		t.Fatalf("empty provenance must be nil: %+v", a)
	}
}

func TestTodoService_Update_NotFound(t *testing.T) {
	t.Parallel()
	r := &fakeTodoRepo{getErr: pgx.ErrNoRows}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	title := "new"
	_, err := s.Update(context.Background(), 42, dom.TodoPatch{Title: &title}, meta())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	expectNoActivity(t, app)
}

func TestTodoService_Update_EmptyTitle(t *testing.T) {
	t.Parallel()
	r := &fakeTodoRepo{getOut: dom.Todo{ID: 1, Title: "old"}}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	title := "   "
	_, err := s.Update(context.Background(), 1, dom.TodoPatch{Title: &title}, meta())
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("want ErrEmptyTitle, got %v", err)
	}
	if r.updateCalls != 0 {
		t.Fatalf("repo update must not run")
	}
}

func TestTodoService_Update_NoChange(t *testing.T) {
	t.Parallel()
	cur := dom.Todo{ID: 1, Title: "Buy milk", Description: "today", Completed: false}
	r := &fakeTodoRepo{getOut: cur}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	title := "  Buy milk "
	desc := "today"
	completed := false
	_, err := s.Update(context.Background(), 1,
		dom.TodoPatch{Title: &title, Description: &desc, Completed: &completed}, meta())
	if !errors.Is(err, ErrNoChange) {
		t.Fatalf("want ErrNoChange, got %v", err)
	}
	if r.updateCalls != 0 {
		t.Fatalf("no-op update must not hit the store")
	}
	expectNoActivity(t, app)
}

func TestTodoService_Update_CompletedOnly(t *testing.T) {
	t.Parallel()
	cur := dom.Todo{ID: 1, Title: "Buy milk", Description: "", Completed: false}
	updated := cur
	updated.Completed = true
	r := &fakeTodoRepo{getOut: cur, updateOut: updated}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	completed := true
	out, err := s.Update(context.Background(), 1, dom.TodoPatch{Completed: &completed}, meta())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !out.Completed {
		t.Fatalf("unexpected todo: %+v", out)
	}
	if r.updateIn.Title != nil || r.updateIn.Description != nil || r.updateIn.Completed == nil {
		t.Fatalf("only completed should be in the patch: %+v", r.updateIn)
	}

	a := waitActivity(t, app)
	if a.Action != dom.ActionUpdate {
		t.Fatalf("action: %s", a.Action)
	}
	if a.Description != "Status changed from pending to completed" {
		t.Fatalf("description: %s", a.Description)
	}
	if strings.Contains(a.Description, "Title") || strings.Contains(a.Description, "Description changed") {
		t.Fatalf("unchanged fields must not be described: %s", a.Description)
	}
	if a.OldValue == nil || !strings.Contains(*a.OldValue, `"completed":false`) {
		t.Fatalf("old_value: %v", a.OldValue)
	}
	if a.NewValue == nil || !strings.Contains(*a.NewValue, `"completed":true`) {
		t.Fatalf("new_value: %v", a.NewValue)
	}
}

func TestTodoService_Update_MultipleFields(t *testing.T) {
	t.Parallel()
	cur := dom.Todo{ID: 1, Title: "Buy milk", Description: "", Completed: false}
	updated := dom.Todo{ID: 1, Title: "Buy bread", Description: "rye", Completed: false}
	r := &fakeTodoRepo{getOut: cur, updateOut: updated}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	title := "Buy bread"
	desc := "rye"
	completed := false // same as stored, must not be described
	if _, err := s.Update(context.Background(), 1,
		dom.TodoPatch{Title: &title, Description: &desc, Completed: &completed}, meta()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.updateIn.Completed != nil {
		t.Fatalf("unchanged completed must not be in the patch")
	}

	a := waitActivity(t, app)
	want := `Title changed from "Buy milk" to "Buy bread", Description changed from "" to "rye"`
	if a.Description != want {
		t.Fatalf("description:\n got %s\nwant %s", a.Description, want)
	}
}

func TestTodoService_Delete_NotFound(t *testing.T) {
	t.Parallel()
	r := &fakeTodoRepo{getErr: pgx.ErrNoRows}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	if err := s.Delete(context.Background(), 9, meta()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if r.deleteCalls != 0 {
		t.Fatalf("delete must not run for a missing todo")
	}
	expectNoActivity(t, app)
}

func TestTodoService_Delete_LogsDeleteActivity(t *testing.T) {
	t.Parallel()
	cur := dom.Todo{ID: 5, Title: "Buy milk", Description: "x", Completed: true}
	r := &fakeTodoRepo{getOut: cur, deleteN: 1}
	app := newFakeAppender()
	s := NewTodoService(r, app, nil, nil)

	if err := s.Delete(context.Background(), 5, meta()); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	a := waitActivity(t, app)
	if a.Action != dom.ActionDelete {
		t.Fatalf("action: %s", a.Action)
	}
	if a.Description != `Todo "Buy milk" was deleted` {
		t.Fatalf("description: %s", a.Description)
	}
	if a.NewValue != nil {
		t.Fatalf("new_value must be nil on delete")
	}
	if a.OldValue == nil || !strings.Contains(*a.OldValue, `"title":"Buy milk"`) {
		t.Fatalf("old_value snapshot: %v", a.OldValue)
	}
	if a.TodoID == nil || *a.TodoID != 5 {
		t.Fatalf("todo_id must keep pointing at the deleted todo: %v", a.TodoID)
	}
}

func TestDiff_TrimsAndNormalizes(t *testing.T) {
	t.Parallel()
	cur := dom.Todo{Title: "a", Description: "b", Completed: true}

	title := " a "
	desc := " b "
	patch, changes, err := diff(cur, dom.TodoPatch{Title: &title, Description: &desc})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(changes) != 0 || patch.Title != nil || patch.Description != nil {
		t.Fatalf("whitespace-only differences must not count: %+v %v", patch, changes)
	}

	completed := false
	_, changes, err = diff(cur, dom.TodoPatch{Completed: &completed})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(changes) != 1 || changes[0] != "Status changed from completed to pending" {
		t.Fatalf("changes: %v", changes)
	}
}
