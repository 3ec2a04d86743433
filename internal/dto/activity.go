package dto

import "time"

type ActivityResponse struct {
	ID          int64     `json:"id"`
	TodoID      *int64    `json:"todo_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	OldValue    *string   `json:"old_value"`
	NewValue    *string   `json:"new_value"`
	UserIP      *string   `json:"user_ip"`
	UserAgent   *string   `json:"user_agent"`
	TodoTitle   *string   `json:"todo_title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type ListActivitiesResponse struct {
	Activities []ActivityResponse `json:"activities"`
	Pagination PaginationResponse `json:"pagination"`
}

type ActionCountResponse struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// DayCountResponse is one calendar day's total; Date is "YYYY-MM-DD" (UTC).
type DayCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type ActivityStatsResponse struct {
	Total     int64                 `json:"total"`
	Today     int64                 `json:"today"`
	ByAction  []ActionCountResponse `json:"by_action"`
	Last7Days []DayCountResponse    `json:"last_7_days"`
}

type ClearActivitiesResponse struct {
	Deleted int64 `json:"deleted"`
}
