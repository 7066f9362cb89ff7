package model

import "time"

// Chore is a recurring chore definition. The recurrence fields describe how
// the chore repeats; concrete due instants live in ChoreOccurrence rows,
// materialized by the backfill service. A chore with recurrence "none" is a
// one-off scheduled by DeadlineDate and never auto-expanded.
type Chore struct {
	ID                  int64      `json:"id"`
	HouseholdID         int64      `json:"household_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	CategoryLabel       string     `json:"category_label"`
	CategoryEmoji       string     `json:"category_emoji"`
	DueTime             string     `json:"due_time"` // "HH:MM"
	DeadlineDate        *time.Time `json:"deadline_date"`
	Recurrence          string     `json:"recurrence"`
	Interval            int        `json:"interval"`
	CustomWeekdays      []int      `json:"custom_weekdays"` // 0 = Monday … 6 = Sunday
	NotifyMinutesBefore *int       `json:"notify_minutes_before"`
	CreatedBy           int64      `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Assignees           []int64    `json:"assignees,omitempty"`
}

type OccurrenceStatus string

const (
	OccurrencePending OccurrenceStatus = "pending"
	OccurrenceDone    OccurrenceStatus = "done"
)

// ChoreOccurrence is one concrete due instant of a chore. DueAt values are
// unique per chore. Once Status is done the completion fields never change
// and backfill never touches the row again.
type ChoreOccurrence struct {
	ID          int64            `json:"id"`
	ChoreID     int64            `json:"chore_id"`
	DueAt       time.Time        `json:"due_at"`
	Status      OccurrenceStatus `json:"status"`
	CompletedAt *time.Time       `json:"completed_at"`
	CompletedBy *int64           `json:"completed_by"`
	CreatedAt   time.Time        `json:"created_at"`
}
