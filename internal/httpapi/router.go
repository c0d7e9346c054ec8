package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps defines router construction dependencies. Nil middleware and
// handlers are skipped.
type RouterDeps struct {
	HealthHandler      http.HandlerFunc
	MetricsHandler     http.Handler
	MetricsMiddleware  func(http.Handler) http.Handler
	RateLimitRecommend func(http.Handler) http.Handler
	AllowedOrigins     []string
	RequestTimeout     time.Duration
	Handlers           Handlers
}

// Handlers groups the HTTP handlers for application routes.
type Handlers struct {
	Index     http.HandlerFunc
	Recommend http.HandlerFunc
	History   http.HandlerFunc
	OpenAPI   http.HandlerFunc
	Docs      http.HandlerFunc
}

// NewRouter wires HTTP routes.
func NewRouter(deps RouterDeps) http.Handler {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if deps.MetricsMiddleware != nil {
		r.Use(deps.MetricsMiddleware)
	}
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		Error(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	if deps.HealthHandler != nil {
		r.Get("/healthz", deps.HealthHandler)
	}
	if deps.MetricsHandler != nil {
		r.Method("GET", "/metrics", deps.MetricsHandler)
	}

	r.Get("/", deps.Handlers.Index)
	if deps.RateLimitRecommend != nil {
		r.With(deps.RateLimitRecommend).Post("/recommend", deps.Handlers.Recommend)
	} else {
		r.Post("/recommend", deps.Handlers.Recommend)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Handlers.History != nil {
			r.Get("/history", deps.Handlers.History)
		}
		if deps.Handlers.OpenAPI != nil {
			r.Get("/openapi.json", deps.Handlers.OpenAPI)
		}
	})
	if deps.Handlers.Docs != nil {
		r.Get("/docs", deps.Handlers.Docs)
	}

	return r
}
