package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JustinTDCT/CineSweep/internal/auth"
	"github.com/JustinTDCT/CineSweep/internal/models"
	"github.com/JustinTDCT/CineSweep/internal/retention"
	"github.com/JustinTDCT/CineSweep/internal/status"
)

// ──────────────────── Collaborators ────────────────────

type Reviewer interface {
	PendingDeletions(ctx context.Context, configs []*models.RetentionConfig) []retention.PendingDeletion
	DeleteItems(ctx context.Context, rawIDs []string) (*retention.DeleteResult, error)
}

type ConfigStore interface {
	List(ctx context.Context) ([]*models.RetentionConfig, error)
	Upsert(ctx context.Context, c *models.RetentionConfig) error
	Delete(ctx context.Context, libraryID uuid.UUID) error
}

type LibraryLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Library, error)
}

type RunQueue interface {
	EnqueueRetention(trigger string) (bool, error)
	CancelActive() (bool, error)
}

type StatusReader interface {
	Current(ctx context.Context) (*status.RunStatus, error)
	History(ctx context.Context, n int) ([]*status.RunStatus, error)
}

type SettingsStore interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

type Deps struct {
	Reviewer    Reviewer
	Configs     ConfigStore
	Libraries   LibraryLookup
	Queue       RunQueue
	Status      StatusReader
	Settings    SettingsStore
	Auth        *auth.Auth
	Hub         *WSHub
	Health      map[string]Pinger
	MetricsPath string
	// DeleteRatePerMin bounds destructive calls (delete, run) per minute.
	DeleteRatePerMin int
	Version          string
	Log              *zap.Logger
}

type Server struct {
	Deps
	router  chi.Router
	limiter *rate.Limiter
	authMW  *auth.Middleware
}

func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Hub == nil {
		d.Hub = NewWSHub(d.Log)
	}
	if d.MetricsPath == "" {
		d.MetricsPath = "/metrics"
	}
	perMin := d.DeleteRatePerMin
	if perMin <= 0 {
		perMin = 30
	}
	s := &Server{
		Deps:    d,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
		authMW:  auth.NewMiddleware(d.Auth),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) WSHub() *WSHub {
	return s.Hub
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, s.MetricsPath, promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMW.RequireAuth)

		r.Get("/ws", s.handleWebSocket)

		r.Route("/retention", func(r chi.Router) {
			r.Get("/pending", s.handlePending)
			r.Get("/status", s.handleStatus)
			r.Get("/configs", s.handleListConfigs)

			r.Group(func(r chi.Router) {
				r.Use(s.authMW.RequireAdmin)
				r.Put("/configs/{libraryId}", s.handlePutConfig)
				r.Delete("/configs/{libraryId}", s.handleDeleteConfig)
				r.Post("/cancel", s.handleCancel)

				r.With(s.rateLimit).Post("/delete", s.handleDelete)
				r.With(s.rateLimit).Post("/run", s.handleRun)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Use(s.authMW.RequireAdmin)
			r.Get("/", s.handleGetSettings)
			r.Put("/", s.handlePutSettings)
		})
	})

	s.router = r
}
