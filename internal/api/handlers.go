// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package api

import (
	"context"
	"net/http"

	"github.com/govportal/authgate/internal/audit"
	"github.com/govportal/authgate/internal/captcha"
	"github.com/govportal/authgate/internal/config"
	"github.com/govportal/authgate/internal/credential"
	"github.com/govportal/authgate/internal/lockout"
	"github.com/govportal/authgate/internal/logging"
	"github.com/govportal/authgate/internal/password"
	"github.com/govportal/authgate/internal/session"
	"github.com/govportal/authgate/internal/upload"
	"github.com/govportal/authgate/internal/users"
)

// Deps collects everything the handlers need. All fields are required
// unless noted.
type Deps struct {
	Config   *config.Config
	Users    users.Store
	Hasher   *password.Hasher
	Sessions *session.Manager
	Cookies  *session.CookiePolicy
	Captcha  *captcha.Engine
	Decoder  *credential.Decoder
	Lockout  *lockout.Tracker
	Audit    *audit.Logger
	Uploads  *upload.Validator
	Files    *upload.Store
}

// Handlers implements the HTTP endpoints. Each handler decodes, delegates
// to an engine package, and encodes; policy lives in the engines.
type Handlers struct {
	config   *config.Config
	users    users.Store
	hasher   *password.Hasher
	sessions *session.Manager
	cookies  *session.CookiePolicy
	captcha  *captcha.Engine
	decoder  *credential.Decoder
	lockout  *lockout.Tracker
	audit    *audit.Logger
	uploads  *upload.Validator
	files    *upload.Store
}

// NewHandlers creates the handler set.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		config:   d.Config,
		users:    d.Users,
		hasher:   d.Hasher,
		sessions: d.Sessions,
		cookies:  d.Cookies,
		captcha:  d.Captcha,
		decoder:  d.Decoder,
		lockout:  d.Lockout,
		audit:    d.Audit,
		uploads:  d.Uploads,
		files:    d.Files,
	}
}

// record writes an audit entry, logging rather than failing the request if
// the trail is unavailable. The audit logger may be nil in tests.
func (h *Handlers) record(event string, severity audit.Severity, status audit.Status, details map[string]interface{}, reqCtx *audit.RequestContext) {
	if h.audit == nil {
		return
	}
	if _, err := h.audit.Record(event, severity, status, details, reqCtx); err != nil {
		logging.Error().Err(err).Str("event", event).Msg("Failed to record audit entry")
	}
}

type sessionContextKey struct{}

// contextWithSession attaches the validated session to the request context.
func contextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext returns the validated session, or nil outside the
// session middleware.
func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionContextKey{}).(*session.Session)
	return s
}

// Healthz reports liveness. No dependencies are touched so a wedged store
// cannot take the probe down with it.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
