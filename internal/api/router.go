// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/govportal/authgate/internal/config"
	"github.com/govportal/authgate/internal/gatekeeper"
	"github.com/govportal/authgate/internal/middleware"
)

// Router assembles the HTTP surface. The gatekeeper chain runs before any
// routing decision so untrusted hosts and blocked methods never reach a
// handler.
type Router struct {
	config   *config.Config
	gate     *gatekeeper.Gatekeeper
	handlers *Handlers
}

// NewRouter creates a Router.
func NewRouter(cfg *config.Config, gate *gatekeeper.Gatekeeper, handlers *Handlers) *Router {
	return &Router{config: cfg, gate: gate, handlers: handlers}
}

// Handler builds the full middleware and route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(rt.gate.ValidateHost)
	r.Use(rt.gate.FilterMethods)
	r.Use(rt.gate.CORS())
	r.Use(middleware.Prometheus)

	r.Get("/healthz", rt.handlers.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	loginLimit := rateLimit(rt.config.Security.LoginRateLimit, rt.config.Security.LoginRateWindow)

	// Outer per-IP guard on challenge issuance. The engine keeps its own
	// token bucket; this layer sheds floods before they reach it. Production
	// only, same as the engine limiter.
	captchaRate := 0
	if rt.config.IsProduction() {
		captchaRate = rt.config.Captcha.RateLimit
	}
	captchaLimit := rateLimit(captchaRate, rt.config.Captcha.RateWindow)

	r.Route("/api", func(r chi.Router) {
		r.With(captchaLimit).Get("/captcha", rt.handlers.GenerateCaptcha)
		r.Post("/captcha/verify", rt.handlers.VerifyCaptcha)
		r.With(captchaLimit).Post("/captcha/refresh", rt.handlers.RefreshCaptcha)

		r.Get("/auth/public-key", rt.handlers.PublicKey)

		// Credential-bearing endpoints. HTTPS and Origin are enforced here,
		// not globally, so public endpoints stay reachable for health checks
		// behind plain-HTTP probes.
		r.Group(func(r chi.Router) {
			r.Use(rt.gate.RequireSecure)
			r.Use(rt.gate.RequireOrigin)

			r.With(loginLimit).Post("/login", rt.handlers.Login)
			r.With(loginLimit).Post("/auth/login", rt.handlers.Login)
			r.Post("/register", rt.handlers.Register)
		})

		// Logout accepts GET for plain <a href> logout links.
		r.Post("/logout", rt.handlers.Logout)
		r.Get("/logout", rt.handlers.Logout)

		r.Get("/auth/session-status", rt.handlers.SessionStatus)

		r.Group(func(r chi.Router) {
			r.Use(rt.handlers.RequireSession)

			r.Get("/auth/user", rt.handlers.CurrentUser)
			r.Post("/auth/extend-session", rt.handlers.ExtendSession)
			r.Post("/uploads", rt.handlers.Upload)

			r.Route("/admin", func(r chi.Router) {
				r.Use(rt.handlers.RequireAdmin)

				r.Get("/locked-accounts", rt.handlers.LockedAccounts)
				r.Post("/unlock-account", rt.handlers.UnlockAccount)
				r.Post("/unlock-all-accounts", rt.handlers.UnlockAllAccounts)
				r.Get("/audit/events", rt.handlers.AuditEvents)
				r.Get("/audit/export", rt.handlers.AuditExport)
				r.Get("/audit/stats", rt.handlers.AuditStats)
				r.Get("/upload-stats", rt.handlers.UploadStats)
			})
		})
	})

	return r
}

// rateLimit builds a per-IP limiter with the shared error shape. A zero
// request budget disables limiting.
func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many requests, slow down")
		}),
	)
}
