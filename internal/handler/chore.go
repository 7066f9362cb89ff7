package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avelasquez/burrow/internal/auth"
	"github.com/avelasquez/burrow/internal/chore"
	"github.com/avelasquez/burrow/internal/model"
	"github.com/avelasquez/burrow/internal/store"
	"github.com/avelasquez/burrow/internal/websocket"
)

type ChoreHandler struct {
	choreStore      *store.ChoreStore
	occurrenceStore *store.OccurrenceStore
	svc             *chore.Service
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, os *store.OccurrenceStore, svc *chore.Service, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{
		choreStore:      cs,
		occurrenceStore: os,
		svc:             svc,
		hub:             hub,
		logger:          logger,
	}
}

func (h *ChoreHandler) broadcast(householdID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

var notifyChoices = map[int]bool{5: true, 15: true, 60: true, 1440: true}

type choreRequest struct {
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	CategoryLabel       string  `json:"category_label"`
	CategoryEmoji       string  `json:"category_emoji"`
	DueTime             string  `json:"due_time"`
	DeadlineDate        *string `json:"deadline_date"` // "2006-01-02"
	Recurrence          string  `json:"recurrence"`
	Interval            int     `json:"interval"`
	CustomWeekdays      []int   `json:"custom_weekdays"`
	NotifyMinutesBefore *int    `json:"notify_minutes_before"`
	Assignees           []int64 `json:"assignees"`
}

// toModel normalizes a request into a chore definition, applying input-edge
// defaults: due time 18:00, recurrence "none", interval 1.
func (req *choreRequest) toModel(householdID, createdBy int64) (model.Chore, string) {
	c := model.Chore{
		HouseholdID:         householdID,
		Title:               strings.TrimSpace(req.Title),
		Description:         strings.TrimSpace(req.Description),
		CategoryLabel:       strings.TrimSpace(req.CategoryLabel),
		CategoryEmoji:       req.CategoryEmoji,
		DueTime:             strings.TrimSpace(req.DueTime),
		Recurrence:          strings.TrimSpace(req.Recurrence),
		Interval:            req.Interval,
		CustomWeekdays:      req.CustomWeekdays,
		NotifyMinutesBefore: req.NotifyMinutesBefore,
		CreatedBy:           createdBy,
	}

	if c.Title == "" {
		return c, "title is required"
	}
	if c.DueTime == "" {
		c.DueTime = "18:00"
	} else if _, err := time.Parse("15:04", c.DueTime); err != nil {
		return c, "due_time must be HH:MM"
	}
	if c.Recurrence == "" {
		c.Recurrence = "none"
	}
	if c.Interval == 0 {
		c.Interval = 1
	}
	if req.DeadlineDate != nil && *req.DeadlineDate != "" {
		d, err := time.Parse("2006-01-02", *req.DeadlineDate)
		if err != nil {
			return c, "deadline_date must be YYYY-MM-DD"
		}
		c.DeadlineDate = &d
	}
	if c.NotifyMinutesBefore != nil && !notifyChoices[*c.NotifyMinutesBefore] {
		return c, "notify_minutes_before must be one of 5, 15, 60, 1440"
	}
	return c, ""
}

// choreResponse decorates a chore with its human-readable schedule.
type choreResponse struct {
	model.Chore
	Schedule string `json:"schedule"`
}

func (h *ChoreHandler) respond(c model.Chore) choreResponse {
	return choreResponse{Chore: c, Schedule: h.svc.Describe(c)}
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	c, msg := req.toModel(ac.HouseholdID, ac.UserID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.svc.ValidateDefinition(c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.choreStore.Create(c)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}
	if len(req.Assignees) > 0 {
		if err := h.choreStore.SetAssignees(created.ID, req.Assignees); err != nil {
			h.logger.Error("set assignees", "error", err, "chore_id", created.ID)
		} else {
			created.Assignees = req.Assignees
		}
	}

	h.broadcast(ac.HouseholdID, websocket.NewMessage("chore", "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, h.respond(*created))
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.choreStore.ListByHousehold(auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	out := make([]choreResponse, 0, len(chores))
	for _, c := range chores {
		out = append(out, h.respond(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// getOwned loads a chore and verifies it belongs to the caller's household.
// Writes the error response and returns nil when the chore is not available.
func (h *ChoreHandler) getOwned(w http.ResponseWriter, r *http.Request) *model.Chore {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	c, err := h.choreStore.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err, "chore_id", id)
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return nil
	}
	if c == nil || c.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "chore not found")
		return nil
	}
	return c
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	c := h.getOwned(w, r)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, h.respond(*c))
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing := h.getOwned(w, r)
	if existing == nil {
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	c, msg := req.toModel(ac.HouseholdID, existing.CreatedBy)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.svc.ValidateDefinition(c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.choreStore.Update(existing.ID, c)
	if err != nil {
		h.logger.Error("update chore", "error", err, "chore_id", existing.ID)
		writeError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}
	if err := h.choreStore.SetAssignees(existing.ID, req.Assignees); err != nil {
		h.logger.Error("set assignees", "error", err, "chore_id", existing.ID)
	} else {
		updated.Assignees = req.Assignees
	}

	if scheduleChanged(*existing, *updated) {
		pruned, err := h.svc.HandleReschedule(existing.ID)
		if err != nil {
			h.logger.Error("reschedule", "error", err, "chore_id", existing.ID)
		} else if pruned > 0 {
			h.logger.Info("pruned pending occurrences", "chore_id", existing.ID, "count", pruned)
		}
	}

	h.broadcast(ac.HouseholdID, websocket.NewMessage("chore", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, h.respond(*updated))
}

func scheduleChanged(a, b model.Chore) bool {
	if a.Recurrence != b.Recurrence || a.Interval != b.Interval || a.DueTime != b.DueTime {
		return true
	}
	if len(a.CustomWeekdays) != len(b.CustomWeekdays) {
		return true
	}
	for i := range a.CustomWeekdays {
		if a.CustomWeekdays[i] != b.CustomWeekdays[i] {
			return true
		}
	}
	return false
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c := h.getOwned(w, r)
	if c == nil {
		return
	}
	if err := h.choreStore.Delete(c.ID); err != nil {
		h.logger.Error("delete chore", "error", err, "chore_id", c.ID)
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}
	h.broadcast(c.HouseholdID, websocket.NewMessage("chore", "deleted", c.ID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Preview returns the next few due instants for a chore without storing them.
func (h *ChoreHandler) Preview(w http.ResponseWriter, r *http.Request) {
	c := h.getOwned(w, r)
	if c == nil {
		return
	}

	count := 0
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}

	times, err := h.svc.Preview(*c, count)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, map[string]any{"preview": out})
}

// Backfill materializes pending occurrences for every recurring chore in the
// household up to the configured horizon.
func (h *ChoreHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	created, err := h.svc.Backfill(householdID)
	if err != nil {
		h.logger.Error("backfill", "error", err, "household_id", householdID, "created", created)
		if created == 0 {
			writeError(w, http.StatusInternalServerError, "backfill failed")
			return
		}
		// Partial success: some definitions synced, the rest is logged.
	}
	if created > 0 {
		h.broadcast(householdID, websocket.NewMessage("occurrences", "synced", 0, map[string]any{"created": created}))
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

const maxListDays = 90

// Occurrences lists the household's occurrences from now through ?days=N.
func (h *ChoreHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	days := 14
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListDays {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
		days = n
	}

	now := time.Now().UTC().Truncate(time.Minute)
	occs, err := h.occurrenceStore.ListByHousehold(auth.HouseholdID(r.Context()), now, now.AddDate(0, 0, days))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list occurrences")
		return
	}
	if occs == nil {
		occs = []model.ChoreOccurrence{}
	}
	writeJSON(w, http.StatusOK, occs)
}

// MarkDone completes an occurrence. Repeat calls get a 409 with the winning
// completion so clients can reconcile.
func (h *ChoreHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())

	// Scope check before the transition: the occurrence must belong to a
	// chore in the caller's household.
	occ, err := h.occurrenceStore.GetOccurrence(id)
	if err != nil {
		h.logger.Error("get occurrence", "error", err, "occurrence_id", id)
		writeError(w, http.StatusInternalServerError, "failed to complete occurrence")
		return
	}
	if occ != nil {
		c, err := h.choreStore.GetByID(occ.ChoreID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to complete occurrence")
			return
		}
		if c == nil || c.HouseholdID != ac.HouseholdID {
			writeError(w, http.StatusNotFound, "occurrence not found")
			return
		}
	}

	outcome, result, err := h.svc.MarkDone(id, ac.UserID)
	if err != nil {
		h.logger.Error("mark done", "error", err, "occurrence_id", id)
		writeError(w, http.StatusInternalServerError, "failed to complete occurrence")
		return
	}

	switch outcome {
	case chore.OutcomeDone:
		h.broadcast(ac.HouseholdID, websocket.NewMessage("occurrence", "completed", id, map[string]any{
			"chore_id":     result.ChoreID,
			"completed_by": ac.UserID,
		}))
		writeJSON(w, http.StatusOK, result)
	case chore.OutcomeAlreadyDone:
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "already completed",
			"occurrence": result,
		})
	default:
		writeError(w, http.StatusNotFound, "occurrence not found")
	}
}
