// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package api

// loginRequest carries a login attempt. Password holds either the encrypted
// credential envelope (base64) or, when envelope enforcement is disabled, a
// bare plaintext password.
type loginRequest struct {
	Username         string `json:"username" validate:"required,username"`
	Password         string `json:"password" validate:"required,max=8192"`
	CaptchaSessionID string `json:"captchaSessionId" validate:"required,uuid4"`
	CaptchaInput     string `json:"captchaInput" validate:"required,min=1,max=16"`
}

// registerRequest carries a self-registration. The password arrives in the
// same transport form as login.
type registerRequest struct {
	Username         string `json:"username" validate:"required,username"`
	Email            string `json:"email" validate:"required,email,max=254"`
	Password         string `json:"password" validate:"required,max=8192"`
	CaptchaSessionID string `json:"captchaSessionId" validate:"required,uuid4"`
	CaptchaInput     string `json:"captchaInput" validate:"required,min=1,max=16"`
}

// captchaVerifyRequest is a non-consuming answer preview check.
type captchaVerifyRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid4"`
	UserInput string `json:"userInput" validate:"required,min=1,max=16"`
}

// captchaRefreshRequest abandons a challenge and requests a new one.
type captchaRefreshRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,uuid4"`
}

// unlockRequest names the account an administrator is unlocking.
type unlockRequest struct {
	Username string `json:"username" validate:"required,username"`
}

// userResponse is the user summary returned by login and /api/auth/user.
// The password hash never leaves the users package.
type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// loginResponse confirms a successful authentication.
type loginResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

// logoutResponse confirms session destruction.
type logoutResponse struct {
	Message          string `json:"message"`
	SessionDestroyed bool   `json:"sessionDestroyed"`
	Timestamp        string `json:"timestamp"`
}

// challengeResponse carries an issued CAPTCHA challenge.
type challengeResponse struct {
	ID  string `json:"id"`
	SVG string `json:"svg"`
}

// sessionStatusResponse is the session-status poll payload. TimeRemaining
// is whole seconds.
type sessionStatusResponse struct {
	Valid         bool  `json:"valid"`
	TimeRemaining int64 `json:"timeRemaining"`
	IsWarning     bool  `json:"isWarning"`
}
