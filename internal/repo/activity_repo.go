package repo

import (
	"context"

	dom "todoapp/internal/domain"

	"github.com/jackc/pgx/v5"
)

type ActivityRepo interface {
	Insert(ctx context.Context, a dom.Activity) (dom.Activity, error)
	List(ctx context.Context, todoID *int64, limit, offset int) ([]dom.ActivityWithTodo, error)
	Count(ctx context.Context, todoID *int64) (int64, error)
	ListByTodoID(ctx context.Context, todoID int64) ([]dom.ActivityWithTodo, error)
	GetByID(ctx context.Context, id int64) (dom.Activity, error)
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (dom.ActivityStats, error)
}

type PGActivityRepo struct {
	db PgxPool
}

func NewPGActivityRepo(db PgxPool) *PGActivityRepo {
	return &PGActivityRepo{db: db}
}

func (r *PGActivityRepo) Insert(ctx context.Context, a dom.Activity) (dom.Activity, error) {
	query := `
		INSERT INTO activities (todo_id, action, description, old_value, new_value, user_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	out := a
	err := r.db.QueryRow(ctx, query,
		a.TodoID, string(a.Action), a.Description,
		a.OldValue, a.NewValue, a.UserIP, a.UserAgent,
	).Scan(&out.ID, &out.CreatedAt)
	return out, err
}

const activitySelect = `
	SELECT a.id, a.todo_id, a.action, a.description, a.old_value, a.new_value,
	       a.user_ip, a.user_agent, a.created_at, t.title
	FROM activities a
	LEFT JOIN todos t ON t.id = a.todo_id`

// List returns one page of activities, most recent first, each enriched
// with the referenced todo's current title (NULL once the todo is gone).
func (r *PGActivityRepo) List(ctx context.Context, todoID *int64, limit, offset int) ([]dom.ActivityWithTodo, error) {
	query := activitySelect + `
	ORDER BY a.created_at DESC LIMIT $1 OFFSET $2`
	args := []any{limit, offset}
	if todoID != nil {
		query = activitySelect + `
	WHERE a.todo_id = $1
	ORDER BY a.created_at DESC LIMIT $2 OFFSET $3`
		args = []any{*todoID, limit, offset}
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func (r *PGActivityRepo) Count(ctx context.Context, todoID *int64) (int64, error) {
	var n int64
	if todoID != nil {
		err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activities WHERE todo_id = $1`, *todoID).Scan(&n)
		return n, err
	}
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activities`).Scan(&n)
	return n, err
}

func (r *PGActivityRepo) ListByTodoID(ctx context.Context, todoID int64) ([]dom.ActivityWithTodo, error) {
	query := activitySelect + `
	WHERE a.todo_id = $1
	ORDER BY a.created_at DESC`
	rows, err := r.db.Query(ctx, query, todoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func (r *PGActivityRepo) GetByID(ctx context.Context, id int64) (dom.Activity, error) {
	query := `
		SELECT id, todo_id, action, description, old_value, new_value, user_ip, user_agent, created_at
		FROM activities WHERE id = $1`
	var a dom.Activity
	var action string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.TodoID, &action, &a.Description, &a.OldValue, &a.NewValue,
		&a.UserIP, &a.UserAgent, &a.CreatedAt,
	)
	a.Action = dom.Action(action)
	return a, err
}

func (r *PGActivityRepo) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGActivityRepo) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM activities`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Stats runs the four aggregates back-to-back. They are not wrapped in a
// transaction: concurrent writes may skew the figures against each other,
// which the callers accept. Day boundaries are UTC.
func (r *PGActivityRepo) Stats(ctx context.Context) (dom.ActivityStats, error) {
	var st dom.ActivityStats

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activities`).Scan(&st.Total); err != nil {
		return dom.ActivityStats{}, err
	}

	todayQ := `
		SELECT COUNT(*) FROM activities
		WHERE (created_at AT TIME ZONE 'UTC')::date = (NOW() AT TIME ZONE 'UTC')::date`
	if err := r.db.QueryRow(ctx, todayQ).Scan(&st.Today); err != nil {
		return dom.ActivityStats{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT action, COUNT(*) FROM activities GROUP BY action`)
	if err != nil {
		return dom.ActivityStats{}, err
	}
	for rows.Next() {
		var action string
		var n int64
		if err := rows.Scan(&action, &n); err != nil {
			rows.Close()
			return dom.ActivityStats{}, err
		}
		st.ByAction = append(st.ByAction, dom.ActionCount{Action: dom.Action(action), Count: n})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return dom.ActivityStats{}, err
	}

	daysQ := `
		SELECT (created_at AT TIME ZONE 'UTC')::date AS day, COUNT(*)
		FROM activities
		GROUP BY day ORDER BY day DESC LIMIT 7`
	rows, err = r.db.Query(ctx, daysQ)
	if err != nil {
		return dom.ActivityStats{}, err
	}
	for rows.Next() {
		var dc dom.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			rows.Close()
			return dom.ActivityStats{}, err
		}
		st.Last7Days = append(st.Last7Days, dc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return dom.ActivityStats{}, err
	}

	return st, nil
}

func scanActivities(rows pgx.Rows) ([]dom.ActivityWithTodo, error) {
	var list []dom.ActivityWithTodo
	for rows.Next() {
		var a dom.ActivityWithTodo
		var action string
		if err := rows.Scan(&a.ID, &a.TodoID, &action, &a.Description,
			&a.OldValue, &a.NewValue, &a.UserIP, &a.UserAgent,
			&a.CreatedAt, &a.TodoTitle); err != nil {
			return nil, err
		}
		a.Action = dom.Action(action)
		list = append(list, a)
	}
	return list, rows.Err()
}
