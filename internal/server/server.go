package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/avelasquez/burrow/internal/chore"
	"github.com/avelasquez/burrow/internal/config"
	"github.com/avelasquez/burrow/internal/handler"
	"github.com/avelasquez/burrow/internal/middleware"
	"github.com/avelasquez/burrow/internal/store"
	ws "github.com/avelasquez/burrow/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	householdH     *handler.HouseholdHandler
	choreH         *handler.ChoreHandler
	sessionStore   *store.SessionStore
	householdStore *store.HouseholdStore
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	choreStore := store.NewChoreStore(db)
	occurrenceStore := store.NewOccurrenceStore(db)

	anchor, err := config.ParseWeekday(cfg.Chores.WeeklyAnchor)
	if err != nil {
		return nil, err
	}
	choreCfg := chore.Config{
		HorizonDays:       cfg.Chores.HorizonDays,
		PreviewCount:      cfg.Chores.PreviewCount,
		WeeklyAnchor:      anchor,
		PruneOnReschedule: cfg.Chores.PruneOnReschedule,
	}
	choreSvc := chore.NewService(store.NewChoreData(db), choreCfg, logger.With("component", "chore_service"))

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, householdStore, sessionStore, logger.With("component", "auth")),
		householdH:     handler.NewHouseholdHandler(householdStore, userStore, sessionStore, logger.With("component", "household")),
		choreH:         handler.NewChoreHandler(choreStore, occurrenceStore, choreSvc, hub, logger.With("component", "chore")),
		sessionStore:   sessionStore,
		householdStore: householdStore,
		rateLimiter:    middleware.NewRateLimiter(),
		logger:         logger,
	}, nil
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.householdStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateProfile)

	// Household API routes
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("POST /api/households/join", s.householdH.Join)
	mux.HandleFunc("POST /api/households/{id}/switch", s.householdH.Switch)
	mux.Handle("PUT /api/households/{id}", middleware.RequireOwner(http.HandlerFunc(s.householdH.Rename)))
	mux.Handle("DELETE /api/households/{id}", middleware.RequireOwner(http.HandlerFunc(s.householdH.Delete)))
	mux.HandleFunc("GET /api/households/{id}/members", s.householdH.Members)

	// Chore API routes
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("GET /api/chores/{id}/preview", s.choreH.Preview)

	// Occurrence API routes
	mux.HandleFunc("GET /api/backfill", s.choreH.Backfill)
	mux.HandleFunc("POST /api/backfill", s.choreH.Backfill)
	mux.HandleFunc("GET /api/occurrences", s.choreH.Occurrences)
	mux.HandleFunc("POST /api/occurrences/{id}/done", s.choreH.MarkDone)

	// WebSocket for real-time sync
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
