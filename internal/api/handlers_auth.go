// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/govportal/authgate/internal/audit"
	"github.com/govportal/authgate/internal/credential"
	"github.com/govportal/authgate/internal/logging"
	"github.com/govportal/authgate/internal/password"
	"github.com/govportal/authgate/internal/users"
	"github.com/govportal/authgate/internal/validation"
)

// decoyHash is compared against for unknown usernames so a login attempt
// burns a full KDF run either way. Response timing must not reveal whether
// an account exists.
var decoyHash = fmt.Sprintf("pbkdf2_sha512$%d$%s$%s",
	password.DefaultIterations,
	base64.StdEncoding.EncodeToString(make([]byte, 16)),
	base64.StdEncoding.EncodeToString(make([]byte, 64)))

// Login authenticates a user and issues a fresh session. The checks run in
// a fixed order: CAPTCHA, lockout, credential transport, password. Each
// gate fails before the next one spends any work.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ip := audit.ClientIP(r)
	reqCtx := audit.ContextFromRequest(r, req.Username, "")

	if !h.captcha.Verify(req.CaptchaSessionID, req.CaptchaInput, ip, true) {
		h.record(audit.EventCaptchaFailed, audit.SeverityMedium, audit.StatusFailure, map[string]interface{}{
			"challenge_id": req.CaptchaSessionID,
		}, reqCtx)
		writeError(w, http.StatusBadRequest, CodeCaptchaFailed, "CAPTCHA verification failed")
		return
	}

	identifier := strings.ToLower(req.Username)
	if locked, remaining := h.lockout.IsLocked(identifier); locked {
		writeLocked(w, remaining)
		return
	}

	plain, ok := h.transportedPassword(w, r, req.Password, ip, reqCtx)
	if !ok {
		return
	}

	user, err := h.users.ByUsername(r.Context(), req.Username)
	authenticated := false
	switch {
	case err == nil && user.Active:
		match, cmpErr := h.hasher.Compare(plain, user.PasswordHash)
		authenticated = cmpErr == nil && match
	default:
		_, _ = h.hasher.Compare(plain, decoyHash)
	}

	if !authenticated {
		locked, remaining := h.lockout.RecordAttempt(identifier, false)
		h.record(audit.EventLoginFailure, audit.SeverityMedium, audit.StatusFailure, nil, reqCtx)
		if locked {
			h.record(audit.EventAccountLockout, audit.SeverityHigh, audit.StatusWarning, map[string]interface{}{
				"lock_duration": remaining.String(),
			}, reqCtx)
			writeLocked(w, remaining)
			return
		}
		writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid username or password")
		return
	}

	h.lockout.RecordAttempt(identifier, true)

	if h.hasher.NeedsRehash(user.PasswordHash) {
		h.upgradeHash(r, user, plain)
	}

	previous := h.cookies.Read(r)
	sess, err := h.sessions.Issue(r.Context(), previous, user.ID, user.Username, user.Role, ip, r.UserAgent())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to issue session")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to create session")
		return
	}
	h.cookies.Write(w, r, sess.ID, h.config.Session.Timeout)

	h.record(audit.EventLoginSuccess, audit.SeverityLow, audit.StatusSuccess, nil,
		audit.ContextFromRequest(r, user.Username, sess.ID))

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		User:    toUserResponse(user),
	})
}

// transportedPassword recovers the plaintext password from the transport
// form, enforcing the encrypted envelope when enabled. It writes the error
// response itself; the second return is false when the request was rejected.
func (h *Handlers) transportedPassword(w http.ResponseWriter, r *http.Request, transported, ip string, reqCtx *audit.RequestContext) (string, bool) {
	if !h.config.Credential.Enabled {
		h.record(audit.EventPlaintextCredential, audit.SeverityMedium, audit.StatusWarning, nil, reqCtx)
		return transported, true
	}

	plain, err := h.decoder.Decrypt(r.Context(), transported, ip)
	if err != nil {
		switch {
		case errors.Is(err, credential.ErrCredentialExpired):
			h.record(audit.EventCredentialExpired, audit.SeverityMedium, audit.StatusFailure, nil, reqCtx)
			writeError(w, http.StatusBadRequest, CodeCredentialExpired, "Credential envelope expired, please retry")
		case errors.Is(err, credential.ErrNonceReplayed):
			h.record(audit.EventNonceReplay, audit.SeverityHigh, audit.StatusFailure, nil, reqCtx)
			writeError(w, http.StatusBadRequest, CodeCredentialReplayed, "Credential envelope already used")
		default:
			h.record(audit.EventDecryptionFailed, audit.SeverityMedium, audit.StatusFailure, nil, reqCtx)
			writeError(w, http.StatusBadRequest, CodeDecryptionFailed, "Failed to decrypt credentials")
		}
		return "", false
	}
	return plain, true
}

// upgradeHash transparently re-hashes a legacy or under-iterated password
// on successful login. Failure is logged, never surfaced; the login stands.
func (h *Handlers) upgradeHash(r *http.Request, user *users.User, plain string) {
	newHash, err := h.hasher.Hash(plain)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to compute upgraded password hash")
		return
	}
	if err := h.users.UpdatePasswordHash(r.Context(), user.ID, newHash); err != nil {
		logging.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to store upgraded password hash")
		return
	}
	logging.Info().Str("user_id", user.ID).Msg("Password hash upgraded to current parameters")
}

func writeLocked(w http.ResponseWriter, remaining time.Duration) {
	seconds := int(remaining.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeError(w, http.StatusTooManyRequests, CodeAccountLocked, "Account temporarily locked due to failed attempts")
}

// Register creates a user account. Password strength is checked on the
// recovered plaintext, not the transport form.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ip := audit.ClientIP(r)
	reqCtx := audit.ContextFromRequest(r, req.Username, "")

	if !h.captcha.Verify(req.CaptchaSessionID, req.CaptchaInput, ip, true) {
		h.record(audit.EventCaptchaFailed, audit.SeverityMedium, audit.StatusFailure, map[string]interface{}{
			"challenge_id": req.CaptchaSessionID,
		}, reqCtx)
		writeError(w, http.StatusBadRequest, CodeCaptchaFailed, "CAPTCHA verification failed")
		return
	}

	plain, ok := h.transportedPassword(w, r, req.Password, ip, reqCtx)
	if !ok {
		return
	}

	strength := struct {
		Password string `validate:"required,min=8,password_strength"`
	}{Password: plain}
	if ve := validation.ValidateStruct(&strength); ve != nil {
		writeValidationError(w, ve)
		return
	}

	hash, err := h.hasher.Hash(plain)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to hash password")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to create account")
		return
	}

	user := &users.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         "user",
		Active:       true,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, users.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, CodeConflict, "Username or email already in use")
			return
		}
		logging.Error().Err(err).Msg("Failed to create user")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to create account")
		return
	}

	h.record(audit.EventRegister, audit.SeverityLow, audit.StatusSuccess, nil, reqCtx)

	// Auto-login: the fresh account gets a session immediately so the client
	// does not round-trip the password a second time.
	sess, err := h.sessions.Issue(r.Context(), h.cookies.Read(r), user.ID, user.Username, user.Role, ip, r.UserAgent())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to issue session after registration")
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "Account created",
			"user":    toUserResponse(user),
		})
		return
	}
	h.cookies.Write(w, r, sess.ID, h.config.Session.Timeout)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Account created",
		"user":    toUserResponse(user),
	})
}

// Logout destroys the current session. The session id is blacklisted before
// the record is deleted so the id can never be replayed, and the response is
// identical whether or not a live session was presented.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	id := h.cookies.Read(r)
	destroyed := false
	if id != "" {
		if err := h.sessions.Logout(r.Context(), id); err == nil {
			destroyed = true
		}
		h.record(audit.EventLogout, audit.SeverityLow, audit.StatusSuccess, map[string]interface{}{
			"session_destroyed": destroyed,
		}, audit.ContextFromRequest(r, "", id))
	}
	h.cookies.Clear(w, r)

	writeJSON(w, http.StatusOK, logoutResponse{
		Message:          "Logged out",
		SessionDestroyed: destroyed,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}

// CurrentUser returns the authenticated user's summary.
func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	user, err := h.users.ByID(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeSessionInvalid, "Account no longer exists")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// PublicKey publishes the RSA public key clients use to seal credential
// envelopes, and whether the envelope is required.
func (h *Handlers) PublicKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"publicKeyPem":      h.decoder.PublicKeyPEM(),
		"encryptionEnabled": h.config.Credential.Enabled,
	})
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}
