// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package api

import (
	"errors"
	"net/http"

	"github.com/govportal/authgate/internal/audit"
	"github.com/govportal/authgate/internal/logging"
	"github.com/govportal/authgate/internal/session"
)

// RequireSession validates the session cookie and attaches the session to
// the request context. Validation failures clear the cookie so the browser
// stops resending a dead id.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := h.cookies.Read(r)
		if id == "" {
			writeError(w, http.StatusUnauthorized, CodeSessionRequired, "Authentication required")
			return
		}

		sess, warning, err := h.sessions.Validate(r.Context(), id, audit.ClientIP(r), r.UserAgent())
		if err != nil {
			h.rejectSession(w, r, id, err)
			return
		}

		if warning {
			w.Header().Set("X-Session-Warning", "expiring-soon")
		}

		next.ServeHTTP(w, r.WithContext(contextWithSession(r.Context(), sess)))
	})
}

// rejectSession maps a validation failure to its response code and records
// the event. A replayed id gets its own code; everything else collapses to
// generic invalidity so probing reveals as little as possible.
func (h *Handlers) rejectSession(w http.ResponseWriter, r *http.Request, id string, err error) {
	reqCtx := audit.ContextFromRequest(r, "", id)
	h.cookies.Clear(w, r)

	switch {
	case errors.Is(err, session.ErrSessionReplayed):
		h.record(audit.EventSessionReplay, audit.SeverityCritical, audit.StatusFailure, nil, reqCtx)
		writeError(w, http.StatusUnauthorized, CodeSessionReplayBlocked, "Session has been invalidated")
	case errors.Is(err, session.ErrSessionTimeout):
		h.record(audit.EventSessionExpired, audit.SeverityLow, audit.StatusInfo, nil, reqCtx)
		writeError(w, http.StatusUnauthorized, CodeSessionTimeout, "Session expired due to inactivity")
	case errors.Is(err, session.ErrSessionHijacked):
		h.record(audit.EventSessionHijack, audit.SeverityCritical, audit.StatusFailure, nil, reqCtx)
		writeError(w, http.StatusUnauthorized, CodeSessionInvalid, "Session is not valid")
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, CodeSessionInvalid, "Session is not valid")
	default:
		logging.Error().Err(err).Msg("Session validation failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Session validation failed")
	}
}

// RequireAdmin gates admin endpoints. Must be stacked inside RequireSession.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil || sess.Role != "admin" {
			writeError(w, http.StatusForbidden, CodeForbidden, "Administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionStatus reports validity and remaining lifetime without touching
// the activity timestamp, so a status poller cannot keep a session alive.
// Invalid and absent sessions both answer 200 with valid=false; this
// endpoint is for UI countdowns, not probing.
func (h *Handlers) SessionStatus(w http.ResponseWriter, r *http.Request) {
	id := h.cookies.Read(r)
	if id == "" {
		writeJSON(w, http.StatusOK, sessionStatusResponse{})
		return
	}

	status, err := h.sessions.Status(r.Context(), id)
	if err != nil || !status.Valid {
		writeJSON(w, http.StatusOK, sessionStatusResponse{})
		return
	}

	writeJSON(w, http.StatusOK, sessionStatusResponse{
		Valid:         true,
		TimeRemaining: int64(status.TimeRemaining.Seconds()),
		IsWarning:     status.IsWarning,
	})
}

// ExtendSession resets the inactivity timer on explicit user request.
func (h *Handlers) ExtendSession(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := h.sessions.Extend(r.Context(), sess.ID); err != nil {
		writeError(w, http.StatusUnauthorized, CodeSessionInvalid, "Session is not valid")
		return
	}

	writeJSON(w, http.StatusOK, sessionStatusResponse{
		Valid:         true,
		TimeRemaining: int64(h.config.Session.Timeout.Seconds()),
	})
}
