package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/uptimatum/internal/httpapi/middleware"
	"github.com/hamed0406/uptimatum/internal/metrics"
	"github.com/hamed0406/uptimatum/internal/repo"
)

type Server struct {
	Logger *zap.Logger
	Store  repo.Store
	Now    func() time.Time
}

func NewServer(l *zap.Logger, store repo.Store) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Store: store, Now: time.Now}
}

// Options configures auth, CORS and per-IP rate limits of the router.
type Options struct {
	Keys           apimw.Keys
	AllowedOrigins []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
}

func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(apimw.AccessLog(s.Logger))
	r.Use(corsHandler(opts.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	// The badge is embedded in READMEs and status pages, so it needs no key.
	r.With(apimw.RateLimit(opts.PublicRPM, opts.PublicBurst)).Get("/badge/{slug}", s.handleBadge)

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(opts.PublicRPM, opts.PublicBurst))
		r.Use(apimw.RequireAny(opts.Keys))

		r.Get("/api/pages", s.handleListPages)
		r.Get("/api/pages/{slug}", s.handleGetPage)
		r.Get("/api/pages/{slug}/timeline", s.handleTimeline)
		r.Get("/api/endpoints/{id}/history", s.handleHistory)
		r.Get("/api/incidents", s.handleListIncidents)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(opts.AdminRPM, opts.AdminBurst))
		r.Use(apimw.RequireAdmin(opts.Keys))

		r.Post("/api/pages", s.handleCreatePage)
		r.Patch("/api/pages/{slug}", s.handleUpdatePage)
		r.Put("/api/pages/{slug}", s.handleUpdatePage)
		r.Post("/api/endpoints", s.handleCreateEndpoint)
		r.Delete("/api/endpoints/{id}", s.handleDeleteEndpoint)
		r.Post("/api/incidents", s.handleCreateIncident)
		r.Patch("/api/incidents/{id}", s.handleUpdateIncident)
		r.Put("/api/incidents/{id}", s.handleUpdateIncident)
		r.Delete("/api/incidents/{id}", s.handleDeleteIncident)
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	})
}
