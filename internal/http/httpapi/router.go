package httpapi

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"socialgood/internal/http/handlers"
	"socialgood/internal/middleware"
)

// Options configures the router's cross-cutting middleware.
type Options struct {
	Logger          zerolog.Logger
	Observer        middleware.HTTPObserver
	AllowedOrigins  []string
	RateLimitPerMin int
	// TrustedProxies may set X-Forwarded-For and CDN country headers.
	TrustedProxies []netip.Prefix
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.TrustProxies(opts.TrustedProxies),
		chimw.Recoverer,
		middleware.Logger(opts.Logger, opts.Observer),
		middleware.CORS(opts.AllowedOrigins),
	)

	// Health
	r.Get("/v1/healthz", app.Health)
	r.Get("/metrics", app.MetricsHandler)
	r.Get("/api/test", app.APITestGet)
	r.Post("/api/test", app.APITestPost)
	r.Get("/content/{page}", app.ContentPage)

	limit := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)
	donations := func(r chi.Router) {
		r.With(limit).Post("/submit", app.DonationsSubmit)
		r.Get("/list", app.DonationsList)
	}
	payments := func(r chi.Router) {
		r.Use(limit)
		r.Post("/create-order", app.PaymentCreateOrder)
		r.Post("/capture-order", app.PaymentCaptureOrder)
	}
	admin := func(r chi.Router) {
		r.With(limit).Post("/login", app.AdminLogin)
		r.Post("/logout", app.AdminLogout)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminSession(app.Sessions))
			r.Get("/stats", app.AdminStats)
			r.Get("/content", app.AdminContentList)
			r.Post("/content", app.AdminContentSave)
			r.Get("/donations/export", app.AdminExport)
		})
	}

	r.Route("/donations", donations)
	r.Route("/payment", payments)
	r.Route("/admin", admin)

	// Paths kept for clients of the previous site.
	r.Route("/api/donations", donations)
	r.Route("/api/paypal", payments)
	r.Route("/api/admin", admin)

	return r
}
