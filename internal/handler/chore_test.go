package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avelasquez/burrow/internal/auth"
	"github.com/avelasquez/burrow/internal/chore"
	"github.com/avelasquez/burrow/internal/database"
	"github.com/avelasquez/burrow/internal/model"
	"github.com/avelasquez/burrow/internal/store"
)

type choreTestEnv struct {
	handler     *ChoreHandler
	choreStore  *store.ChoreStore
	occurrences *store.OccurrenceStore
	householdID int64
	userID      int64
}

func setupChoreHandlerTest(t *testing.T) *choreTestEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.DiscardHandler)
	u, err := store.NewUserStore(db).Create("owner@example.com", "Owner", "", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := store.NewHouseholdStore(db).Create("Home", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	cs := store.NewChoreStore(db)
	os := store.NewOccurrenceStore(db)
	svc := chore.NewService(store.NewChoreData(db), chore.DefaultConfig(), logger)

	return &choreTestEnv{
		handler:     NewChoreHandler(cs, os, svc, nil, logger),
		choreStore:  cs,
		occurrences: os,
		householdID: h.ID,
		userID:      u.ID,
	}
}

func (env *choreTestEnv) request(t *testing.T, method, target string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	return r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{
		UserID:      env.userID,
		HouseholdID: env.householdID,
		Role:        "owner",
		SessionID:   1,
	}))
}

func (env *choreTestEnv) weeklyChore(t *testing.T) *model.Chore {
	t.Helper()
	c, err := env.choreStore.Create(model.Chore{
		HouseholdID: env.householdID,
		Title:       "Water plants",
		DueTime:     "18:00",
		Recurrence:  "weekly",
		Interval:    1,
		CreatedBy:   env.userID,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	return c
}

func TestBackfillEndpoint(t *testing.T) {
	env := setupChoreHandlerTest(t)
	env.weeklyChore(t)

	rec := httptest.NewRecorder()
	env.handler.Backfill(rec, env.request(t, "POST", "/api/backfill"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["created"] < 1 {
		t.Errorf("created = %d, want at least 1", resp["created"])
	}

	// Running again creates nothing new.
	rec = httptest.NewRecorder()
	env.handler.Backfill(rec, env.request(t, "POST", "/api/backfill"))
	if rec.Code != http.StatusOK {
		t.Fatalf("second status = %d", rec.Code)
	}
	resp = nil
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["created"] != 0 {
		t.Errorf("second created = %d, want 0", resp["created"])
	}
}

func TestMarkDoneEndpointContract(t *testing.T) {
	env := setupChoreHandlerTest(t)
	c := env.weeklyChore(t)

	due := time.Date(2026, 9, 7, 18, 0, 0, 0, time.UTC)
	occ, err := env.occurrences.InsertOccurrence(c.ID, due)
	if err != nil {
		t.Fatalf("insert occurrence: %v", err)
	}

	markDone := func(id int64) *httptest.ResponseRecorder {
		r := env.request(t, "POST", fmt.Sprintf("/api/occurrences/%d/done", id))
		r.SetPathValue("id", fmt.Sprint(id))
		rec := httptest.NewRecorder()
		env.handler.MarkDone(rec, r)
		return rec
	}

	rec := markDone(occ.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("first completion status = %d, want 200", rec.Code)
	}
	var done model.ChoreOccurrence
	if err := json.NewDecoder(rec.Body).Decode(&done); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if done.Status != model.OccurrenceDone || done.CompletedBy == nil || *done.CompletedBy != env.userID {
		t.Errorf("completion payload = %+v", done)
	}

	// Repeat completion conflicts but reports the winning state.
	rec = markDone(occ.ID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat completion status = %d, want 409", rec.Code)
	}
	var conflict struct {
		Occurrence model.ChoreOccurrence `json:"occurrence"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&conflict); err != nil {
		t.Fatalf("decode conflict: %v", err)
	}
	if conflict.Occurrence.CompletedBy == nil || *conflict.Occurrence.CompletedBy != env.userID {
		t.Errorf("conflict attribution = %+v", conflict.Occurrence)
	}

	if rec := markDone(99999); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}

func TestMarkDoneForeignHousehold(t *testing.T) {
	env := setupChoreHandlerTest(t)
	c := env.weeklyChore(t)
	occ, _ := env.occurrences.InsertOccurrence(c.ID, time.Date(2026, 9, 7, 18, 0, 0, 0, time.UTC))

	r := env.request(t, "POST", fmt.Sprintf("/api/occurrences/%d/done", occ.ID))
	// Rewrite the auth context to a different household.
	r = r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{UserID: 999, HouseholdID: 999, Role: "owner"}))
	r.SetPathValue("id", fmt.Sprint(occ.ID))
	rec := httptest.NewRecorder()
	env.handler.MarkDone(rec, r)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for another household's occurrence", rec.Code)
	}

	// The occurrence stays pending.
	got, _ := env.occurrences.GetOccurrence(occ.ID)
	if got.Status != model.OccurrencePending {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	env := setupChoreHandlerTest(t)
	c := env.weeklyChore(t)

	r := env.request(t, "GET", fmt.Sprintf("/api/chores/%d/preview?count=3", c.ID))
	r.SetPathValue("id", fmt.Sprint(c.ID))
	rec := httptest.NewRecorder()
	env.handler.Preview(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Preview []string `json:"preview"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Preview) != 3 {
		t.Fatalf("got %d preview entries, want 3", len(resp.Preview))
	}
	for _, s := range resp.Preview {
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			t.Errorf("preview entry %q is not RFC3339", s)
		}
	}
}

func TestOccurrencesEndpointValidation(t *testing.T) {
	env := setupChoreHandlerTest(t)

	rec := httptest.NewRecorder()
	env.handler.Occurrences(rec, env.request(t, "GET", "/api/occurrences?days=0"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("days=0 status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.handler.Occurrences(rec, env.request(t, "GET", "/api/occurrences"))
	if rec.Code != http.StatusOK {
		t.Errorf("default status = %d, want 200", rec.Code)
	}
}
