package domain

import "time"

// Action is the kind of todo mutation an activity records.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Activity is an immutable audit record of a single todo mutation.
// TodoID is a weak reference: the todo may be deleted later, the
// activity keeps pointing at the old id (orphaned reference).
type Activity struct {
	ID          int64
	TodoID      *int64
	Action      Action
	Description string
	OldValue    *string
	NewValue    *string
	UserIP      *string
	UserAgent   *string
	CreatedAt   time.Time
}

// ActivityWithTodo is an Activity enriched with the referenced todo's
// current title. TodoTitle is nil when the todo no longer exists.
type ActivityWithTodo struct {
	Activity
	TodoTitle *string
}

// ActionCount is one row of the by-action aggregate.
type ActionCount struct {
	Action Action
	Count  int64
}

// DayCount is one row of the per-day aggregate. Day is a UTC calendar date.
type DayCount struct {
	Day   time.Time
	Count int64
}

// ActivityStats holds the aggregate figures over the activity log.
// The four figures are read back-to-back without snapshot isolation,
// so they may drift slightly under concurrent writes.
type ActivityStats struct {
	Total     int64
	Today     int64
	ByAction  []ActionCount
	Last7Days []DayCount
}
