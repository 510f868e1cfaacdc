package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"db_schema_syncer/internal/history"
	"db_schema_syncer/internal/storage"
	"db_schema_syncer/internal/syncer"
)

// PlanFunc computes a fresh plan for the configured source/target pair.
type PlanFunc func(ctx context.Context) (syncer.Plan, error)

// ScriptLister lists stored scripts.
type ScriptLister interface {
	List() ([]storage.ScriptRecord, error)
}

type requestLogger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures the API server.
type Options struct {
	Addr        string
	SourceLabel string
	TargetLabel string
}

type Server struct {
	opts    Options
	logger  requestLogger
	plan    PlanFunc
	scripts ScriptLister
	history history.Recorder
	now     func() time.Time
}

func New(opts Options, logger requestLogger, plan PlanFunc, scripts ScriptLister, recorder history.Recorder) *Server {
	if recorder == nil {
		recorder = history.Nop{}
	}
	return &Server{
		opts:    opts,
		logger:  logger,
		plan:    plan,
		scripts: scripts,
		history: recorder,
		now:     time.Now,
	}
}

func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.opts.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(RequestLogger(s.logger))

	r.Route("/api/v1", func(api chi.Router) {
		api.Method(http.MethodGet, "/health", HealthHandler{History: s.history})
		api.Get("/plan", s.handlePlan)
		api.Get("/scripts", s.handleScripts)
		api.Get("/history", s.handleHistory)
	})
	return r
}
