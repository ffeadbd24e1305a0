// Package api exposes the exam session engine over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhisek/mockexam/internal/exam"
	"github.com/abhisek/mockexam/internal/i18n"
	"github.com/abhisek/mockexam/internal/problemgen"
	"github.com/abhisek/mockexam/internal/session"
	"github.com/abhisek/mockexam/internal/store"
)

// Server forwards HTTP requests to a session engine.
type Server struct {
	engine   *session.Engine
	source   problemgen.Source
	attempts store.AttemptRepo
	logger   *slog.Logger
	lang     string
	origins  []string
	now      func() time.Time

	subject    exam.Subject
	difficulty exam.Difficulty
}

// Option configures a Server.
type Option func(*Server)

// WithSource sets the problem source used by POST /api/session. Without
// one, starting a session answers 503.
func WithSource(src problemgen.Source) Option {
	return func(s *Server) { s.source = src }
}

// WithAttempts records submitted sessions in repo.
func WithAttempts(repo store.AttemptRepo) Option {
	return func(s *Server) { s.attempts = repo }
}

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithLanguage sets the fallback language for error reasons.
func WithLanguage(lang string) Option {
	return func(s *Server) { s.lang = lang }
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithDefaultSelection sets the subject and difficulty used when a start
// request leaves them out.
func WithDefaultSelection(subject exam.Subject, difficulty exam.Difficulty) Option {
	return func(s *Server) {
		s.subject = subject
		s.difficulty = difficulty
	}
}

// New creates a Server for engine.
func New(engine *session.Engine, opts ...Option) *Server {
	s := &Server{
		engine:     engine,
		logger:     slog.Default(),
		lang:       "en",
		origins:    []string{"*"},
		now:        time.Now,
		subject:    exam.SubjectDatabase,
		difficulty: exam.DifficultyBasic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(i18n.Middleware(s.lang))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Post("/", s.handleStartSession)
		r.Delete("/", s.handleEndSession)
		r.Post("/next", s.handleNext)
		r.Post("/previous", s.handlePrevious)
		r.Put("/answers/{problemID}", s.handleSetAnswer)
		r.Post("/submit", s.handleSubmit)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, recording
// submitted attempts in the background.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.RecordAttempts(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// RecordAttempts saves every submitted session, including those submitted
// by the deadline, until ctx is done. It reads the engine's Submitted
// channel, which never drops a session. It does nothing without an attempt
// repository or when the engine was created without WithSubmitted.
func (s *Server) RecordAttempts(ctx context.Context) {
	if s.attempts == nil {
		return
	}
	if s.engine.Submitted() == nil {
		s.logger.Warn("engine does not report submissions, attempts will not be saved")
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case sess := <-s.engine.Submitted():
			a, err := session.NewAttempt(sess, s.now())
			if err != nil {
				s.logger.Warn("cannot record attempt", "session", sess.ID, "error", err)
				continue
			}
			if err := s.attempts.SaveAttempt(ctx, a); err != nil {
				s.logger.Error("failed to save attempt", "session", a.ID, "error", err)
				continue
			}
			s.logger.Info("attempt saved", "session", a.ID, "average", a.Summary.AverageScore)
		}
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
