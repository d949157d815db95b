// Package httpapi wires the route tree and middleware chain.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stickerline/internal/http/handlers"
	"stickerline/internal/infra"
	"stickerline/internal/middleware"
)

// NewRouter builds the full route tree. lookup may be nil when no GeoIP
// database is configured; locale detection then relies on headers alone.
func NewRouter(app *handlers.App, cfg *infra.Config, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(*app.Logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		middleware.I18N("th", lookup),
	)

	r.Get("/healthz", app.Health)
	r.Get("/files/*", app.ServeFile)
	r.Post("/webhooks/omise", app.OmiseWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/sync", app.AuthSync)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(cfg.JWTSecret))

			r.Post("/upload", app.Upload)
			r.Get("/users/{user_id}/permissions", app.UserPermissions)

			r.Route("/jobs", func(r chi.Router) {
				r.Post("/generate", app.GenerateJob)
				r.Get("/current", app.CurrentSet)
				r.Get("/current/download", app.DownloadSet)
				r.Post("/reset", app.ResetSet)
				r.Get("/{job_id}", app.JobStatus)
			})
		})
	})

	return r
}
