package domain

import "time"

// Domain entity: бизнес-объект (истина).
// Не зависит от Gin, Postgres, Redis.
type Todo struct {
	ID          int64
	Title       string
	Description string
	Completed   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TodoPatch carries a partial update. A nil field means "not supplied";
// the repo writes only non-nil fields.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// RequestMeta is best-effort provenance captured from the HTTP request.
// Empty values are persisted as NULL.
type RequestMeta struct {
	IP        string
	UserAgent string
}
