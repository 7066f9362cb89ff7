package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avelasquez/burrow/internal/chore"
	"github.com/avelasquez/burrow/internal/model"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// OccurrenceStore persists chore occurrences. It implements chore.Store
// together with ChoreStore via ChoreData.
type OccurrenceStore struct {
	db *sql.DB
}

func NewOccurrenceStore(db *sql.DB) *OccurrenceStore {
	return &OccurrenceStore{db: db}
}

func scanOccurrence(scanner interface{ Scan(...any) error }) (*model.ChoreOccurrence, error) {
	var o model.ChoreOccurrence
	var completedAt sql.NullTime
	var completedBy sql.NullInt64

	err := scanner.Scan(&o.ID, &o.ChoreID, &o.DueAt, &o.Status, &completedAt, &completedBy, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		o.CompletedAt = &t
	}
	if completedBy.Valid {
		o.CompletedBy = &completedBy.Int64
	}
	return &o, nil
}

const occurrenceCols = `id, chore_id, due_at, status, completed_at, completed_by, created_at`

// InsertOccurrence creates a pending occurrence. The UNIQUE (chore_id,
// due_at) index decides races between concurrent backfills; a violation maps
// to chore.ErrOccurrenceExists.
func (s *OccurrenceStore) InsertOccurrence(choreID int64, dueAt time.Time) (*model.ChoreOccurrence, error) {
	result, err := s.db.Exec(
		`INSERT INTO chore_occurrences (chore_id, due_at) VALUES (?, ?)`,
		choreID, dueAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, chore.ErrOccurrenceExists
		}
		return nil, fmt.Errorf("insert occurrence: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetOccurrence(id)
}

func (s *OccurrenceStore) GetOccurrence(id int64) (*model.ChoreOccurrence, error) {
	row := s.db.QueryRow(`SELECT `+occurrenceCols+` FROM chore_occurrences WHERE id = ?`, id)
	o, err := scanOccurrence(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get occurrence: %w", err)
	}
	return o, nil
}

// ListOccurrences returns occurrences of the given chores due within
// [from, to), ordered by due instant.
func (s *OccurrenceStore) ListOccurrences(choreIDs []int64, from, to time.Time) ([]model.ChoreOccurrence, error) {
	if len(choreIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(choreIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(choreIDs)+2)
	for _, id := range choreIDs {
		args = append(args, id)
	}
	args = append(args, from.UTC(), to.UTC())

	rows, err := s.db.Query(
		`SELECT `+occurrenceCols+` FROM chore_occurrences
		 WHERE chore_id IN (`+placeholders+`) AND due_at >= ? AND due_at < ?
		 ORDER BY due_at ASC, chore_id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	defer rows.Close()

	var occs []model.ChoreOccurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		occs = append(occs, *o)
	}
	return occs, rows.Err()
}

// ListByHousehold returns all occurrences of a household's chores due within
// [from, to), ordered by due instant.
func (s *OccurrenceStore) ListByHousehold(householdID int64, from, to time.Time) ([]model.ChoreOccurrence, error) {
	rows, err := s.db.Query(
		`SELECT o.id, o.chore_id, o.due_at, o.status, o.completed_at, o.completed_by, o.created_at
		 FROM chore_occurrences o
		 JOIN chores c ON c.id = o.chore_id
		 WHERE c.household_id = ? AND o.due_at >= ? AND o.due_at < ?
		 ORDER BY o.due_at ASC, o.chore_id ASC`,
		householdID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list occurrences by household: %w", err)
	}
	defer rows.Close()

	var occs []model.ChoreOccurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		occs = append(occs, *o)
	}
	return occs, rows.Err()
}

// MarkOccurrenceDone is the completion compare-and-set: the update applies
// only while the row is still pending, so concurrent completions race on the
// status predicate instead of overwriting each other. Returns rows affected
// (1 on the winning call, 0 otherwise).
func (s *OccurrenceStore) MarkOccurrenceDone(id, userID int64, completedAt time.Time) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE chore_occurrences
		 SET status = 'done', completed_at = ?, completed_by = ?
		 WHERE id = ? AND status = 'pending'`,
		completedAt.UTC(), userID, id,
	)
	if err != nil {
		return 0, fmt.Errorf("mark occurrence done: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DeletePendingOccurrencesFrom removes a chore's pending occurrences due on
// or after the given instant. Done rows are left alone.
func (s *OccurrenceStore) DeletePendingOccurrencesFrom(choreID int64, from time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM chore_occurrences
		 WHERE chore_id = ? AND status = 'pending' AND due_at >= ?`,
		choreID, from.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete pending occurrences: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
