package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"donasi/internal/http/handlers"
	"donasi/internal/middleware"
	"donasi/internal/storage"
)

// Options carries the router settings that come from configuration.
type Options struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	CORSCredentials bool
	// AdminSecret enables the bearer guard on admin routes when set.
	AdminSecret     string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	// Uploads serves stored proof images under /uploads/ when set.
	Uploads http.FileSystem
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins, opts.CORSCredentials),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	admin := middleware.AdminGuard(opts.AdminSecret, app.Unauthorized)
	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute, app.TooManyRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.Health)

		r.Route("/donations", func(r chi.Router) {
			r.Get("/", app.DonationsList)
			r.With(limited).Post("/", app.DonationsCreate)
			r.With(admin).Put("/", app.DonationsUpdate)
			r.With(admin).Delete("/", app.DonationsDelete)
			r.Get("/total", app.DonationsTotal)
		})
		r.Get("/total", app.DonationsTotal)

		r.Route("/fund-usage", func(r chi.Router) {
			r.Get("/", app.FundUsageList)
			r.With(admin).Post("/", app.FundUsageCreate)
			r.With(admin).Delete("/", app.FundUsageDelete)
		})

		r.With(limited).Post("/test-upload", app.TestUpload)
		r.With(admin).Get("/export", app.Export)

		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)
	})

	r.Get("/metrics", app.ServeMetrics)
	if opts.Uploads != nil {
		r.Handle(storage.LocalPathPrefix+"*", http.StripPrefix(storage.LocalPathPrefix, http.FileServer(opts.Uploads)))
	}

	return r
}
