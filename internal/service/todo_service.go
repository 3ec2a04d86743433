package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	dom "todoapp/internal/domain"
	"todoapp/internal/repo"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"todoapp/internal/cache"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmptyTitle = errors.New("title must not be empty")
	ErrNoChange   = errors.New("no fields changed")
)

// ActivityAppender is the narrow, append-only view of the activity log
// the mutation service holds. Failures from it are swallowed here.
type ActivityAppender interface {
	Append(ctx context.Context, a dom.Activity) (int64, error)
}

// TodoService owns the todo lifecycle. Every successful mutation emits
// an activity record through the appender; the append is fire-and-forget
// and never affects the mutation's outcome.
type TodoService struct {
	repo       repo.TodoRepo
	activities ActivityAppender
	cache      *cache.TodoCache
	log        *zap.Logger
	sf         singleflight.Group
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, a ActivityAppender, c *cache.TodoCache, log *zap.Logger) *TodoService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TodoService{repo: r, activities: a, cache: c, log: log}
}

func (s *TodoService) Create(ctx context.Context, title, desc string, meta dom.RequestMeta) (dom.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return dom.Todo{}, ErrEmptyTitle
	}
	desc = strings.TrimSpace(desc)

	t, err := s.repo.Create(ctx, dom.Todo{Title: title, Description: desc})
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx)

	s.logActivity(dom.Activity{
		TodoID:      &t.ID,
		Action:      dom.ActionCreate,
		Description: fmt.Sprintf("Todo %q was created", t.Title),
		OldValue:    nil,
		NewValue:    snapshotJSON(t),
		UserIP:      optional(meta.IP),
		UserAgent:   optional(meta.UserAgent),
	})
	return t, nil
}

func (s *TodoService) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	return t, nil
}

func (s *TodoService) List(ctx context.Context) ([]dom.Todo, error) {
	if s.cache != nil {
		v, err, _ := s.sf.Do("list", func() (interface{}, error) {
			if list, err := s.cache.GetList(ctx); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.List(ctx)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetList(ctx, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Todo), nil
	}
	return s.repo.List(ctx)
}

// Update applies a partial update. Only fields whose proposed value
// actually differs from the stored one are written and described; an
// update with zero effective changes is rejected with ErrNoChange.
func (s *TodoService) Update(ctx context.Context, id int64, in dom.TodoPatch, meta dom.RequestMeta) (dom.Todo, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}

	patch, changes, err := diff(existing, in)
	if err != nil {
		return dom.Todo{}, err
	}
	if len(changes) == 0 {
		return dom.Todo{}, ErrNoChange
	}

	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx)

	s.logActivity(dom.Activity{
		TodoID:      &t.ID,
		Action:      dom.ActionUpdate,
		Description: strings.Join(changes, ", "),
		OldValue:    snapshotJSON(existing),
		NewValue:    snapshotJSON(t),
		UserIP:      optional(meta.IP),
		UserAgent:   optional(meta.UserAgent),
	})
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, id int64, meta dom.RequestMeta) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidateCache(ctx)

	s.logActivity(dom.Activity{
		TodoID:      &existing.ID,
		Action:      dom.ActionDelete,
		Description: fmt.Sprintf("Todo %q was deleted", existing.Title),
		OldValue:    snapshotJSON(existing),
		NewValue:    nil,
		UserIP:      optional(meta.IP),
		UserAgent:   optional(meta.UserAgent),
	})
	return nil
}

// diff compares the supplied fields against the stored todo. It returns
// the patch holding only the fields that actually change, plus one
// human-readable line per change.
func diff(cur dom.Todo, in dom.TodoPatch) (dom.TodoPatch, []string, error) {
	var patch dom.TodoPatch
	var changes []string

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return dom.TodoPatch{}, nil, ErrEmptyTitle
		}
		if title != cur.Title {
			patch.Title = &title
			changes = append(changes, fmt.Sprintf("Title changed from %q to %q", cur.Title, title))
		}
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc != cur.Description {
			patch.Description = &desc
			changes = append(changes, fmt.Sprintf("Description changed from %q to %q", cur.Description, desc))
		}
	}
	if in.Completed != nil && *in.Completed != cur.Completed {
		completed := *in.Completed
		patch.Completed = &completed
		changes = append(changes, fmt.Sprintf("Status changed from %s to %s",
			statusText(cur.Completed), statusText(completed)))
	}
	return patch, changes, nil
}

func statusText(completed bool) string {
	if completed {
		return "completed"
	}
	return "pending"
}

// logActivity appends the record on a detached goroutine. A failed
// append is logged and dropped; the caller's mutation already succeeded
// and must not be affected.
func (s *TodoService) logActivity(rec dom.Activity) {
	if s.activities == nil {
		return
	}
	go func() {
		if _, err := s.activities.Append(context.Background(), rec); err != nil {
			s.log.Warn("activity append failed",
				zap.String("action", string(rec.Action)),
				zap.Error(err))
		}
	}()
}

func (s *TodoService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}

type todoSnapshot struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func snapshotJSON(t dom.Todo) *string {
	b, err := json.Marshal(todoSnapshot{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	})
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
