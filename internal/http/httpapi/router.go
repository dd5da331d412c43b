package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tryon/internal/http/handlers"
	"tryon/internal/infra"
	"tryon/internal/middleware"
)

// Options configures the router around the handlers.
type Options struct {
	Logger          infra.Logger
	JWTSecret       string
	RateLimitPerMin int
	CORSOrigins     []string
	// StaticDir is served under /static when set (file storage driver).
	StaticDir string
	// Metrics defaults to the Prometheus default gatherer.
	Metrics http.Handler
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	metrics := opts.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metrics)

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	limit := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Route("/ai", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/generate", app.Generate)
				r.Post("/dress", app.Dress)
				r.Post("/refresh", app.Refresh)
				r.Post("/base-model", app.BaseModels)
			})
			r.Get("/usage", app.Usage)

			r.Route("/tryon/user", func(r chi.Router) {
				r.Use(middleware.AuthJWT(opts.JWTSecret))
				r.With(limit).Post("/", app.UserTryOn)
				r.Get("/", app.Gallery)
				r.Delete("/{photo_id}", app.DeleteUserPhoto)
			})
		})
	})

	return r
}
