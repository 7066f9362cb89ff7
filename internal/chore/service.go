package chore

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/avelasquez/burrow/internal/model"
	"github.com/avelasquez/burrow/internal/recurrence"
)

// ErrOccurrenceExists is returned by Store.InsertOccurrence when an
// occurrence with the same (chore_id, due_at) already exists. Backfill treats
// it as "someone got there first", not as a failure.
var ErrOccurrenceExists = errors.New("occurrence already exists")

// Store is the persistence surface the service needs. The SQLite
// implementation lives in internal/store; tests substitute a fake.
type Store interface {
	ListActiveChores(householdID int64) ([]model.Chore, error)
	ListOccurrences(choreIDs []int64, from, to time.Time) ([]model.ChoreOccurrence, error)
	InsertOccurrence(choreID int64, dueAt time.Time) (*model.ChoreOccurrence, error)
	GetOccurrence(id int64) (*model.ChoreOccurrence, error)
	MarkOccurrenceDone(id, userID int64, completedAt time.Time) (int64, error)
	DeletePendingOccurrencesFrom(choreID int64, from time.Time) (int64, error)
}

// Outcome classifies a completion attempt.
type Outcome string

const (
	OutcomeDone        Outcome = "done"
	OutcomeAlreadyDone Outcome = "already_done"
	OutcomeNotFound    Outcome = "not_found"
)

type Config struct {
	HorizonDays       int          // how far ahead backfill materializes
	PreviewCount      int          // default length of "next occurrences" previews
	WeeklyAnchor      time.Weekday // weekday plain weekly chores land on
	PruneOnReschedule bool         // drop future pending occurrences when recurrence is edited
}

func DefaultConfig() Config {
	return Config{
		HorizonDays:  14,
		PreviewCount: 5,
		WeeklyAnchor: time.Monday,
	}
}

// Service expands chore definitions into occurrences and records completion.
type Service struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, cfg Config, logger *slog.Logger) *Service {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 14
	}
	if cfg.PreviewCount <= 0 {
		cfg.PreviewCount = 5
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Backfill materializes missing occurrences for every active chore of the
// household, from now through the configured horizon. It returns the number
// of rows actually inserted. One chore failing does not stop the rest; their
// errors come back joined alongside the running count.
func (s *Service) Backfill(householdID int64) (int, error) {
	now := canonical(s.now())
	horizon := now.AddDate(0, 0, s.cfg.HorizonDays)

	chores, err := s.store.ListActiveChores(householdID)
	if err != nil {
		return 0, fmt.Errorf("list chores: %w", err)
	}

	created := 0
	var errs []error
	for _, c := range chores {
		n, err := s.backfillChore(c, now, horizon)
		created += n
		if err != nil {
			s.logger.Warn("backfill chore failed",
				"chore_id", c.ID, "title", c.Title, "error", err)
			errs = append(errs, fmt.Errorf("chore %d: %w", c.ID, err))
		}
	}

	s.logger.Info("backfill finished",
		"household_id", householdID, "created", created, "failed", len(errs))
	return created, errors.Join(errs...)
}

func (s *Service) backfillChore(c model.Chore, now, horizon time.Time) (int, error) {
	rule, err := s.ruleFor(c)
	if err != nil {
		return 0, err
	}
	if rule.Kind == recurrence.None {
		return 0, nil
	}

	due := recurrence.Expand(rule, s.startFor(c), now, horizon, 0)
	if len(due) == 0 {
		return 0, nil
	}

	existing, err := s.store.ListOccurrences([]int64{c.ID}, now, horizon)
	if err != nil {
		return 0, fmt.Errorf("list occurrences: %w", err)
	}
	have := make(map[time.Time]bool, len(existing))
	for _, o := range existing {
		have[canonical(o.DueAt)] = true
	}

	created := 0
	for _, t := range due {
		t = canonical(t)
		if have[t] {
			continue
		}
		if _, err := s.store.InsertOccurrence(c.ID, t); err != nil {
			if errors.Is(err, ErrOccurrenceExists) {
				// Lost a race with a concurrent backfill; the row is there.
				continue
			}
			return created, fmt.Errorf("insert occurrence at %v: %w", t, err)
		}
		created++
	}
	return created, nil
}

// Preview returns the next count due instants of a definition without
// persisting anything. count <= 0 falls back to the configured default.
func (s *Service) Preview(c model.Chore, count int) ([]time.Time, error) {
	rule, err := s.ruleFor(c)
	if err != nil {
		return nil, err
	}
	if rule.Kind == recurrence.None {
		return nil, nil
	}
	if count <= 0 {
		count = s.cfg.PreviewCount
	}

	now := canonical(s.now())
	// Five years is far beyond any real preview; count does the limiting.
	return recurrence.Expand(rule, s.startFor(c), now, now.AddDate(5, 0, 0), count), nil
}

// MarkDone transitions one pending occurrence to done, attributed to userID.
// The transition is a single conditional update: of two concurrent calls
// exactly one reports OutcomeDone and the other OutcomeAlreadyDone, and the
// winner's attribution is never overwritten.
func (s *Service) MarkDone(occurrenceID, userID int64) (Outcome, *model.ChoreOccurrence, error) {
	completedAt := s.now().UTC()

	n, err := s.store.MarkOccurrenceDone(occurrenceID, userID, completedAt)
	if err != nil {
		return "", nil, fmt.Errorf("mark done: %w", err)
	}

	occ, err := s.store.GetOccurrence(occurrenceID)
	if err != nil {
		return "", nil, fmt.Errorf("get occurrence: %w", err)
	}
	if occ == nil {
		return OutcomeNotFound, nil, nil
	}
	if n == 1 {
		return OutcomeDone, occ, nil
	}
	if occ.Status == model.OccurrenceDone {
		return OutcomeAlreadyDone, occ, nil
	}
	return "", nil, fmt.Errorf("occurrence %d is pending but the update did not apply", occurrenceID)
}

// HandleReschedule applies the configured policy after a chore's recurrence
// fields change: when pruning is enabled, future pending occurrences are
// deleted so the next backfill regenerates them under the new rule. Completed
// occurrences are never touched.
func (s *Service) HandleReschedule(choreID int64) (int64, error) {
	if !s.cfg.PruneOnReschedule {
		return 0, nil
	}
	n, err := s.store.DeletePendingOccurrencesFrom(choreID, canonical(s.now()))
	if err != nil {
		return 0, fmt.Errorf("prune pending occurrences: %w", err)
	}
	if n > 0 {
		s.logger.Info("pruned pending occurrences", "chore_id", choreID, "count", n)
	}
	return n, nil
}

// ValidateDefinition checks a chore's recurrence configuration the same way
// backfill will, so malformed rules are rejected at write time.
func (s *Service) ValidateDefinition(c model.Chore) error {
	_, err := s.ruleFor(c)
	return err
}

// Describe returns a human-readable summary of a chore's recurrence.
func (s *Service) Describe(c model.Chore) string {
	rule, err := s.ruleFor(c)
	if err != nil {
		return ""
	}
	return rule.Describe()
}

func (s *Service) ruleFor(c model.Chore) (recurrence.Rule, error) {
	kind, err := recurrence.ParseKind(c.Recurrence)
	if err != nil {
		return recurrence.Rule{}, err
	}

	r := recurrence.Rule{Kind: kind, Interval: c.Interval}
	if kind == recurrence.Weekly {
		r.Anchor = s.cfg.WeeklyAnchor
	}
	// Weekdays are mapped for every kind so Validate can reject them on
	// chores that should not carry any.
	for _, i := range c.CustomWeekdays {
		wd, err := recurrence.WeekdayFromIndex(i)
		if err != nil {
			return recurrence.Rule{}, err
		}
		r.Weekdays = append(r.Weekdays, wd)
	}

	if err := r.Validate(); err != nil {
		return recurrence.Rule{}, err
	}
	return r, nil
}

// startFor builds the expansion base: the chore's creation date carrying its
// due time-of-day, in UTC.
func (s *Service) startFor(c model.Chore) time.Time {
	base := c.CreatedAt
	if base.IsZero() {
		base = s.now()
	}
	base = base.UTC()

	hour, minute := parseDueTime(c.DueTime)
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, time.UTC)
}

// parseDueTime reads "HH:MM", falling back to the app default of 18:00.
func parseDueTime(s string) (hour, minute int) {
	hour, minute = 18, 0
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return hour, minute
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 18, 0
	}
	return h, m
}

// canonical normalizes an instant to the store's due_at resolution: UTC,
// truncated to the minute. All due_at comparisons go through this.
func canonical(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}
