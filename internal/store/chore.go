package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avelasquez/burrow/internal/chore"
	"github.com/avelasquez/burrow/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// ChoreData combines definition and occurrence persistence into the
// chore.Store surface the backfill service runs against.
type ChoreData struct {
	*ChoreStore
	*OccurrenceStore
}

func NewChoreData(db *sql.DB) ChoreData {
	return ChoreData{NewChoreStore(db), NewOccurrenceStore(db)}
}

var _ chore.Store = ChoreData{}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var deadline sql.NullTime
	var weekdays sql.NullString
	var notify sql.NullInt64
	var createdBy sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.Title, &c.Description,
		&c.CategoryLabel, &c.CategoryEmoji, &c.DueTime, &deadline,
		&c.Recurrence, &c.Interval, &weekdays, &notify,
		&createdBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deadline.Valid {
		t := deadline.Time
		c.DeadlineDate = &t
	}
	if weekdays.Valid {
		c.CustomWeekdays = splitWeekdays(weekdays.String)
	}
	if notify.Valid {
		n := int(notify.Int64)
		c.NotifyMinutesBefore = &n
	}
	if createdBy.Valid {
		c.CreatedBy = createdBy.Int64
	}
	return &c, nil
}

const choreCols = `id, household_id, title, description, category_label, category_emoji, due_time, deadline_date, recurrence, interval, custom_weekdays, notify_minutes_before, created_by, created_at, updated_at`

func (s *ChoreStore) Create(c model.Chore) (*model.Chore, error) {
	result, err := s.db.Exec(
		`INSERT INTO chores (household_id, title, description, category_label, category_emoji, due_time, deadline_date, recurrence, interval, custom_weekdays, notify_minutes_before, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.HouseholdID, c.Title, c.Description, c.CategoryLabel, c.CategoryEmoji,
		c.DueTime, nullTime(c.DeadlineDate), c.Recurrence, c.Interval,
		joinWeekdays(c.CustomWeekdays), nullInt(c.NotifyMinutesBefore), nullID(c.CreatedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	c.Assignees, err = s.ListAssignees(id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChoreStore) ListByHousehold(householdID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? ORDER BY created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chores {
		chores[i].Assignees, err = s.ListAssignees(chores[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return chores, nil
}

// ListActiveChores returns the household's recurring chores, the input set
// for backfill. One-off chores never expand, so they are filtered here.
func (s *ChoreStore) ListActiveChores(householdID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? AND recurrence != 'none' ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(id int64, c model.Chore) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores
		 SET title = ?, description = ?, category_label = ?, category_emoji = ?, due_time = ?, deadline_date = ?, recurrence = ?, interval = ?, custom_weekdays = ?, notify_minutes_before = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		c.Title, c.Description, c.CategoryLabel, c.CategoryEmoji, c.DueTime,
		nullTime(c.DeadlineDate), c.Recurrence, c.Interval,
		joinWeekdays(c.CustomWeekdays), nullInt(c.NotifyMinutesBefore), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// --- Assignee methods ---

func (s *ChoreStore) SetAssignees(choreID int64, userIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chore_assignees WHERE chore_id = ?`, choreID); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	for _, uid := range userIDs {
		if _, err := tx.Exec(
			`INSERT INTO chore_assignees (chore_id, user_id) VALUES (?, ?)`,
			choreID, uid,
		); err != nil {
			return fmt.Errorf("insert assignee %d: %w", uid, err)
		}
	}
	return tx.Commit()
}

func (s *ChoreStore) ListAssignees(choreID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM chore_assignees WHERE chore_id = ? ORDER BY user_id ASC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- column helpers ---

// joinWeekdays encodes weekday indices as a comma-joined string for the
// custom_weekdays column; an empty set stores NULL.
func joinWeekdays(days []int) sql.NullString {
	if len(days) == 0 {
		return sql.NullString{}
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return sql.NullString{String: strings.Join(parts, ","), Valid: true}
}

func splitWeekdays(s string) []int {
	if s == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		days = append(days, n)
	}
	return days
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}
