// Package api implements the HTTP layer for the portfolio backend. Handlers
// are methods on *Server. Each handler file is responsible for one resource
// group and only imports the dependencies it actually uses.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samsepassi/portfolio-backend/internal/ai"
	"github.com/samsepassi/portfolio-backend/internal/db"
	"github.com/samsepassi/portfolio-backend/internal/email"
	"github.com/samsepassi/portfolio-backend/internal/ratelimit"
	"github.com/samsepassi/portfolio-backend/internal/scheduler"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// q handles all single-query reads and writes. Injected directly.
	q db.Querier

	// assistant answers chat messages and reports any tool calls it made.
	assistant ai.Assistant

	// sched receives freshly captured contacts for the nurture sequence and
	// exposes its loop state for the readiness probe.
	sched scheduler.FollowUpScheduler

	// mailer sends the immediate owner notifications.
	mailer email.Sender

	// limiter throttles the chat endpoint per client IP. May be nil.
	limiter *ratelimit.Limiter

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	q db.Querier,
	assistant ai.Assistant,
	sched scheduler.FollowUpScheduler,
	mailer email.Sender,
	limiter *ratelimit.Limiter,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	s := &Server{
		q:         q,
		assistant: assistant,
		sched:     sched,
		mailer:    mailer,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(120 * time.Second)) // chat turns can be slow

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", s.handleReadyz)

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/chat/{sessionID}", s.handleChatHistory)

		r.Post("/contact", s.handleContact)

		// Dashboard reads.
		r.Get("/contacts", s.handleListContacts)
		r.Get("/unknown-questions", s.handleListUnknownQuestions)
	})

	return r
}

// handleReadyz reports the scheduler loop state alongside liveness, so an
// operator can tell a booted-but-not-polling process from a healthy one.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"scheduler": string(s.sched.State()),
	})
}
