// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package api

import (
	"errors"
	"net/http"

	"github.com/govportal/authgate/internal/audit"
	"github.com/govportal/authgate/internal/captcha"
	"github.com/govportal/authgate/internal/logging"
)

// GenerateCaptcha issues a new challenge for the client IP.
func (h *Handlers) GenerateCaptcha(w http.ResponseWriter, r *http.Request) {
	h.issueChallenge(w, r)
}

// RefreshCaptcha replaces a challenge the user could not read. The old
// challenge is simply left to expire; its attempt budget is not reusable
// because each challenge id carries its own counter.
func (h *Handlers) RefreshCaptcha(w http.ResponseWriter, r *http.Request) {
	var req captchaRefreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.issueChallenge(w, r)
}

func (h *Handlers) issueChallenge(w http.ResponseWriter, r *http.Request) {
	ip := audit.ClientIP(r)

	ch, err := h.captcha.Generate(ip)
	if err != nil {
		if errors.Is(err, captcha.ErrRateLimited) {
			h.record(audit.EventCaptchaRateLimited, audit.SeverityMedium, audit.StatusFailure, nil,
				audit.ContextFromRequest(r, "", ""))
			writeError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many CAPTCHA requests")
			return
		}
		logging.Error().Err(err).Msg("Failed to generate CAPTCHA challenge")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to generate challenge")
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{ID: ch.ID, SVG: ch.SVG})
}

// VerifyCaptcha checks an answer without consuming the challenge, so a
// client can give the user feedback before submitting the login form. The
// attempt still counts against the challenge budget.
func (h *Handlers) VerifyCaptcha(w http.ResponseWriter, r *http.Request) {
	var req captchaVerifyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	valid := h.captcha.Verify(req.SessionID, req.UserInput, audit.ClientIP(r), false)
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}
