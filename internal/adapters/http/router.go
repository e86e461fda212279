package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/adapters/metrics"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for deferred deeplink use-cases.
type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers the deeplink routes and middleware stack. m may be nil,
// in which case neither request metrics nor /metrics are exposed.
func NewRouter(handler *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	if m != nil {
		r.Use(m.Middleware)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/api/deferred-deeplink", func(r chi.Router) {
		r.Post("/", handler.createMatch)
		r.Post("/find-match-api", handler.findMatch)
		r.Get("/{id}", handler.fetchMatch)
	})

	return r
}
