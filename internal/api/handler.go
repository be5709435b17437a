package api

import (
	"net/http"

	"luigui/internal/backend"
	"luigui/internal/core"
	"luigui/internal/service"

	"github.com/go-chi/chi/v5"
)

// Deps is everything the web client needs to serve requests.
type Deps struct {
	Client    *backend.Client
	Sessions  *SessionManager
	Activity  core.ActivityRepository
	Extractor *service.SchemaExtractor

	SecureCookies      bool
	LoginRatePerMinute float64
	LoginBurst         int
}

// Routes builds the router: static assets outside the guard, everything
// else behind CSRF protection and the route guard.
func Routes(d Deps) http.Handler {
	auth := NewAuthHandler(d.Client, d.Sessions)
	web := NewWebHandler(d.Client, d.Activity, d.Extractor)
	csrf := CSRF{Secure: d.SecureCookies}
	limiter := NewRateLimiter(d.LoginRatePerMinute, d.LoginBurst)

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.NotFound(notFoundPage)

	r.Get("/static/app.css", serveStylesheet)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(csrf.Ensure)
		r.Use(csrf.Require)
		r.Use(auth.Guard)

		r.Get(service.LoginPath, auth.LoginPage)
		r.With(limiter.Middleware).Post(service.LoginPath, auth.DoLogin)
		r.Get(service.RegisterPath, auth.RegisterPage)
		r.With(limiter.Middleware).Post(service.RegisterPath, auth.DoRegister)
		r.Post("/auth/logout", auth.Logout)

		web.RegisterRoutes(r)
	})

	return r
}
