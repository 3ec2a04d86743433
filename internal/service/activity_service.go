package service

import (
	"context"
	"errors"

	dom "todoapp/internal/domain"
	"todoapp/internal/repo"

	"github.com/jackc/pgx/v5"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Pagination describes one page of a filtered activity listing.
type Pagination struct {
	Page  int
	Limit int
	Total int64
	Pages int64
}

// ActivityService owns the activity log: append plus the read and
// administrative delete operations over it.
type ActivityService struct {
	repo repo.ActivityRepo
}

func NewActivityService(r repo.ActivityRepo) *ActivityService {
	return &ActivityService{repo: r}
}

var _ ActivityAppender = (*ActivityService)(nil)

// Append persists the record and returns its assigned id. Store errors
// are propagated; swallowing them is the caller's business.
func (s *ActivityService) Append(ctx context.Context, a dom.Activity) (int64, error) {
	out, err := s.repo.Insert(ctx, a)
	if err != nil {
		return 0, err
	}
	return out.ID, nil
}

// List returns one page, most recent first. page is 1-indexed; a page
// past the end yields an empty slice with the total left intact.
func (s *ActivityService) List(ctx context.Context, todoID *int64, page, limit int) ([]dom.ActivityWithTodo, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	total, err := s.repo.Count(ctx, todoID)
	if err != nil {
		return nil, Pagination{}, err
	}
	list, err := s.repo.List(ctx, todoID, limit, (page-1)*limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	if list == nil {
		list = []dom.ActivityWithTodo{}
	}
	p := Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + int64(limit) - 1) / int64(limit),
	}
	return list, p, nil
}

// GetByTodoID returns every activity for one todo, unpaginated, most
// recent first. The todo itself not existing anymore is fine: orphaned
// records are still listed.
func (s *ActivityService) GetByTodoID(ctx context.Context, todoID int64) ([]dom.ActivityWithTodo, error) {
	list, err := s.repo.ListByTodoID(ctx, todoID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []dom.ActivityWithTodo{}
	}
	return list, nil
}

func (s *ActivityService) GetByID(ctx context.Context, id int64) (dom.Activity, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Activity{}, ErrNotFound
		}
		return dom.Activity{}, err
	}
	return a, nil
}

func (s *ActivityService) Delete(ctx context.Context, id int64) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearAll removes every activity and returns how many went. There is
// no confirmation at this layer; the route guarding is the caller's.
func (s *ActivityService) ClearAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *ActivityService) Stats(ctx context.Context) (dom.ActivityStats, error) {
	return s.repo.Stats(ctx)
}
