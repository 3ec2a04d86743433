package service

import (
	"context"
	"errors"
	"testing"

	dom "todoapp/internal/domain"
	"todoapp/internal/repo"

	"github.com/jackc/pgx/v5"
)

type fakeActivityRepo struct {
	insertIn  dom.Activity
	insertOut dom.Activity
	insertErr error

	listIn struct {
		todoID *int64
		limit  int
		offset int
	}
	listOut []dom.ActivityWithTodo
	listErr error

	countOut int64
	countErr error

	byTodoOut []dom.ActivityWithTodo
	byTodoErr error

	getOut dom.Activity
	getErr error

	deleteN   int64
	deleteErr error

	deleteAllN   int64
	deleteAllErr error

	statsOut dom.ActivityStats
	statsErr error
}

var _ repo.ActivityRepo = (*fakeActivityRepo)(nil)

func (f *fakeActivityRepo) Insert(_ context.Context, a dom.Activity) (dom.Activity, error) {
	f.insertIn = a
	return f.insertOut, f.insertErr
}
func (f *fakeActivityRepo) List(_ context.Context, todoID *int64, limit, offset int) ([]dom.ActivityWithTodo, error) {
	f.listIn.todoID, f.listIn.limit, f.listIn.offset = todoID, limit, offset
	return f.listOut, f.listErr
}
func (f *fakeActivityRepo) Count(_ context.Context, _ *int64) (int64, error) {
	return f.countOut, f.countErr
}
func (f *fakeActivityRepo) ListByTodoID(_ context.Context, _ int64) ([]dom.ActivityWithTodo, error) {
	return f.byTodoOut, f.byTodoErr
}
func (f *fakeActivityRepo) GetByID(_ context.Context, _ int64) (dom.Activity, error) {
	return f.getOut, f.getErr
}
func (f *fakeActivityRepo) Delete(_ context.Context, _ int64) (int64, error) {
	return f.deleteN, f.deleteErr
}
func (f *fakeActivityRepo) DeleteAll(_ context.Context) (int64, error) {
	return f.deleteAllN, f.deleteAllErr
}
func (f *fakeActivityRepo) Stats(_ context.Context) (dom.ActivityStats, error) {
	return f.statsOut, f.statsErr
}

func TestActivityService_Append(t *testing.T) {
	t.Parallel()
	r := &fakeActivityRepo{insertOut: dom.Activity{ID: 17}}
	s := NewActivityService(r)

	id, err := s.Append(context.Background(), dom.Activity{Action: dom.ActionCreate, Description: "d"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id != 17 {
		t.Fatalf("id: %d", id)
	}
	if r.insertIn.Action != dom.ActionCreate {
		t.Fatalf("record not forwarded: %+v", r.insertIn)
	}

	r.insertErr = errors.New("write failed")
	if _, err := s.Append(context.Background(), dom.Activity{}); err == nil {
		t.Fatalf("store error must propagate from Append")
	}
}

func TestActivityService_List_Pagination(t *testing.T) {
	t.Parallel()
	r := &fakeActivityRepo{countOut: 5, listOut: make([]dom.ActivityWithTodo, 2)}
	s := NewActivityService(r)

	_, p, err := s.List(context.Background(), nil, 2, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if p.Pages != 3 { // ceil(5/2)
		t.Fatalf("pages: %d", p.Pages)
	}
	if p.Total != 5 || p.Page != 2 || p.Limit != 2 {
		t.Fatalf("pagination: %+v", p)
	}
	if r.listIn.limit != 2 || r.listIn.offset != 2 {
		t.Fatalf("offset math: %+v", r.listIn)
	}
}

func TestActivityService_List_Normalization(t *testing.T) {
	t.Parallel()
	r := &fakeActivityRepo{}
	s := NewActivityService(r)

	if _, p, err := s.List(context.Background(), nil, 0, 0); err != nil || p.Page != 1 || p.Limit != defaultPageLimit {
		t.Fatalf("defaults: %+v %v", p, err)
	}
	if r.listIn.offset != 0 {
		t.Fatalf("offset: %d", r.listIn.offset)
	}

	if _, p, err := s.List(context.Background(), nil, -3, 5000); err != nil || p.Page != 1 || p.Limit != maxPageLimit {
		t.Fatalf("clamping: %+v %v", p, err)
	}
}

func TestActivityService_List_PagePastEnd(t *testing.T) {
	t.Parallel()
	r := &fakeActivityRepo{countOut: 3, listOut: nil}
	s := NewActivityService(r)

	list, p, err := s.List(context.Background(), nil, 99, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", list)
	}
	if p.Total != 3 || p.Pages != 1 {
		t.Fatalf("total must be unchanged: %+v", p)
	}
}

func TestActivityService_List_Filter(t *testing.T) {
	t.Parallel()
	r := &fakeActivityRepo{}
	s := NewActivityService(r)

	todoID := int64(7)
	if _, _, err := s.List(context.Background(), &todoID, 1, 10); err != nil {
		t.Fatalf("List: %v", err)
	}
	if r.listIn.todoID == nil || *r.listIn.todoID != 7 {
		t.Fatalf("filter not forwarded: %v", r.listIn.todoID)
	}
}

func TestActivityService_GetByTodoID_EmptyIsNotAnError(t *testing.T) {
	t.Parallel()
	s := NewActivityService(&fakeActivityRepo{})

	list, err := s.GetByTodoID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("GetByTodoID: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", list)
	}
}

func TestActivityService_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	s := NewActivityService(&fakeActivityRepo{getErr: pgx.ErrNoRows})

	if _, err := s.GetByID(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestActivityService_Delete(t *testing.T) {
	t.Parallel()

	if err := NewActivityService(&fakeActivityRepo{deleteN: 1}).Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := NewActivityService(&fakeActivityRepo{deleteN: 0}).Delete(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	storeErr := errors.New("down")
	if err := NewActivityService(&fakeActivityRepo{deleteErr: storeErr}).Delete(context.Background(), 1); !errors.Is(err, storeErr) {
		t.Fatalf("store error must propagate, got %v", err)
	}
}

func TestActivityService_ClearAll(t *testing.T) {
	t.Parallel()
	n, err := NewActivityService(&fakeActivityRepo{deleteAllN: 42}).ClearAll(context.Background())
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if n != 42 {
		t.Fatalf("deleted count: %d", n)
	}
}

func TestActivityService_Stats(t *testing.T) {
	t.Parallel()
	want := dom.ActivityStats{
		Total: 10,
		Today: 2,
		ByAction: []dom.ActionCount{
			{Action: dom.ActionCreate, Count: 6},
			{Action: dom.ActionUpdate, Count: 3},
			{Action: dom.ActionDelete, Count: 1},
		},
	}
	st, err := NewActivityService(&fakeActivityRepo{statsOut: want}).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	var sum int64
	for _, ac := range st.ByAction {
		sum += ac.Count
	}
	if sum != st.Total {
		t.Fatalf("by-action counts must sum to total: %d != %d", sum, st.Total)
	}
}
