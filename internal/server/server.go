package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorestars/internal/auth"
	"github.com/dukerupert/chorestars/internal/handler"
	"github.com/dukerupert/chorestars/internal/ledger"
	"github.com/dukerupert/chorestars/internal/middleware"
	"github.com/dukerupert/chorestars/internal/roster"
	"github.com/dukerupert/chorestars/internal/scheduler"
	"github.com/dukerupert/chorestars/internal/store"
	"github.com/dukerupert/chorestars/internal/weekly"
	ws "github.com/dukerupert/chorestars/internal/websocket"
)

const (
	loginLimit  = 5
	loginWindow = time.Minute
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	ledger       *ledger.Ledger
	cycle        *weekly.Cycle
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	authH        *handler.AuthHandler
	taskH        *handler.TaskHandler
	ledgerH      *handler.LedgerHandler
	weeklyH      *handler.WeeklyHandler
	prizeH       *handler.PrizeHandler
	logger       *slog.Logger
}

func New(db *sql.DB, r roster.Roster, authenticator *auth.Authenticator, weeklyPeriod time.Duration, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	l := ledger.New(db, logger.With("component", "ledger"))
	cycle := weekly.New(db, r.WeeklyTemplates(), weeklyPeriod, logger.With("component", "weekly"))
	cycle.OnRefresh = func(res weekly.Result) {
		hub.Broadcast(ws.WeeklyRefreshed(res.Created))
	}

	sessionStore := store.NewSessionStore(db)

	return &Server{
		db:           db,
		hub:          hub,
		ledger:       l,
		cycle:        cycle,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		authH:        handler.NewAuthHandler(sessionStore, authenticator, r, logger.With("component", "auth")),
		taskH:        handler.NewTaskHandler(l, hub, logger.With("component", "task")),
		ledgerH:      handler.NewLedgerHandler(l, hub, logger.With("component", "ledger_handler")),
		weeklyH:      handler.NewWeeklyHandler(cycle, logger.With("component", "weekly_handler")),
		prizeH:       handler.NewPrizeHandler(store.NewPrizeStore(db), logger.With("component", "prize")),
		logger:       logger,
	}
}

func (s *Server) Ledger() *ledger.Ledger {
	return s.ledger
}

func (s *Server) Cycle() *weekly.Cycle {
	return s.cycle
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Jobs returns the background jobs that keep the ledger's surroundings
// tidy: the weekly refresh check, session expiry and rate limit pruning.
func (s *Server) Jobs(refreshEvery, cleanupEvery, maxIdle time.Duration) []scheduler.Job {
	return []scheduler.Job{
		{
			Name:     "weekly-refresh",
			Interval: refreshEvery,
			Run:      s.cycle.RunIfDue,
		},
		{
			Name:     "session-cleanup",
			Interval: cleanupEvery,
			Run: func(ctx context.Context) error {
				n, err := s.sessionStore.CleanupInactive(maxIdle)
				if err != nil {
					return err
				}
				if n > 0 {
					s.logger.Info("inactive sessions removed", "count", n)
				}
				return nil
			},
		},
		{
			Name:     "ratelimit-cleanup",
			Interval: cleanupEvery,
			Run: func(ctx context.Context) error {
				s.rateLimiter.Cleanup()
				return nil
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	apiMux := http.NewServeMux()
	s.registerAPIRoutes(apiMux)

	resolve := middleware.ResolveActor(s.sessionStore, s.logger.With("component", "session"))
	outerMux.Handle("/api/", resolve(apiMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status, code = "database unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	parent := func(h http.HandlerFunc) http.Handler { return middleware.RequireParent(h) }
	child := func(h http.HandlerFunc) http.Handler { return middleware.RequireChild(h) }
	anyone := func(h http.HandlerFunc) http.Handler { return middleware.RequireIdentity(h) }

	// Session routes
	login := middleware.RateLimit(s.rateLimiter, middleware.ActorKey, loginLimit, loginWindow)
	mux.Handle("POST /api/login", login(http.HandlerFunc(s.authH.Login)))
	mux.Handle("POST /api/logout", anyone(s.authH.Logout))
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("POST /api/children/select", s.authH.SelectChild)

	// Tasks
	mux.Handle("GET /api/tasks", anyone(s.taskH.List))
	mux.Handle("POST /api/tasks", parent(s.taskH.Create))
	mux.Handle("POST /api/tasks/{id}/complete", child(s.taskH.Complete))

	// Ledger
	mux.Handle("GET /api/children/{name}/balance", anyone(s.ledgerH.Balance))
	mux.Handle("GET /api/children/{name}/pending", anyone(s.ledgerH.Pending))
	mux.Handle("POST /api/children/{name}/cash-out", parent(s.ledgerH.CashOut))
	mux.Handle("GET /api/cash-outs", anyone(s.ledgerH.History))
	mux.Handle("GET /api/stats", anyone(s.ledgerH.Stats))

	// Weekly cycle
	mux.Handle("GET /api/weekly", anyone(s.weeklyH.Status))
	mux.Handle("POST /api/weekly/refresh", parent(s.weeklyH.Refresh))

	// Prizes
	mux.Handle("GET /api/prizes", anyone(s.prizeH.List))
	mux.Handle("POST /api/prizes", parent(s.prizeH.Create))
	mux.Handle("DELETE /api/prizes/{id}", parent(s.prizeH.Delete))
}
