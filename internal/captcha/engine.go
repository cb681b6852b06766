// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package captcha

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/govportal/authgate/internal/logging"
)

// alphabet excludes visually ambiguous glyphs (0/O, 1/I/l).
const alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz"

const answerLength = 6

// ErrRateLimited indicates the client IP exceeded the generation limit.
var ErrRateLimited = errors.New("captcha generation rate limit exceeded")

// Config holds engine settings.
type Config struct {
	// Secret keys the answer hash. Required.
	Secret string

	// Expiry is the challenge lifetime.
	Expiry time.Duration

	// MaxAttempts bounds verification attempts per challenge.
	MaxAttempts int

	// RateLimit / RateWindow bound generations per client IP. A RateLimit
	// of zero disables limiting (development).
	RateLimit  int
	RateWindow time.Duration
}

// Challenge is the issued half of a challenge/response pair.
type Challenge struct {
	ID  string
	SVG string
}

// challenge is the server-side record. The answer itself is discarded after
// hashing.
type challenge struct {
	answerHash string
	createdAt  time.Time
	attempts   int
	verified   bool
	clientIP   string
}

// Engine issues and verifies challenges.
type Engine struct {
	mu         sync.Mutex
	challenges map[string]*challenge

	config  Config
	limiter *ipLimiter

	// newAnswer is swappable so tests can pin the answer.
	newAnswer func() (string, error)
}

// New creates an Engine.
func New(config Config) *Engine {
	var limiter *ipLimiter
	if config.RateLimit > 0 {
		limiter = newIPLimiter(config.RateLimit, config.RateWindow)
	}
	return &Engine{
		challenges: make(map[string]*challenge),
		config:     config,
		limiter:    limiter,
		newAnswer:  randomAnswer,
	}
}

func randomAnswer() (string, error) {
	buf := make([]byte, answerLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate captcha answer: %w", err)
	}
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(alphabet[int(c)%len(alphabet)])
	}
	return b.String(), nil
}

// hashAnswer keys the digest with the server secret and the challenge id,
// which doubles as a per-challenge salt. Answers compare case-insensitively.
func (e *Engine) hashAnswer(challengeID, answer string) string {
	mac := hmac.New(sha256.New, []byte(e.config.Secret+"\x00"+challengeID))
	mac.Write([]byte(strings.ToUpper(answer)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Generate issues a new challenge for the client IP. Returns ErrRateLimited
// when the IP has exhausted its generation budget.
func (e *Engine) Generate(clientIP string) (*Challenge, error) {
	if e.limiter != nil && !e.limiter.Allow(clientIP) {
		rateLimitedTotal.Inc()
		logging.Warn().Str("client_ip", clientIP).Msg("CAPTCHA generation rate limited")
		return nil, ErrRateLimited
	}

	answer, err := e.newAnswer()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	svg := renderSVG(answer)

	e.mu.Lock()
	e.challenges[id] = &challenge{
		answerHash: e.hashAnswer(id, answer),
		createdAt:  time.Now(),
		clientIP:   clientIP,
	}
	e.mu.Unlock()

	generatedTotal.Inc()
	return &Challenge{ID: id, SVG: svg}, nil
}

// Verify checks an answer against a challenge. It fails closed: unknown id,
// expired challenge, exhausted attempts, and consumed challenges all return
// false. With consume=true a correct answer permanently deletes the
// challenge; with consume=false it is marked verified and retained.
func (e *Engine) Verify(challengeID, answer, clientIP string, consume bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.challenges[challengeID]
	if !ok {
		verifyTotal.WithLabelValues("not_found").Inc()
		return false
	}

	if time.Since(c.createdAt) > e.config.Expiry {
		delete(e.challenges, challengeID)
		verifyTotal.WithLabelValues("expired").Inc()
		return false
	}

	c.attempts++
	if c.attempts > e.config.MaxAttempts {
		delete(e.challenges, challengeID)
		verifyTotal.WithLabelValues("attempts_exhausted").Inc()
		logging.Warn().
			Str("challenge_id", challengeID).
			Str("client_ip", clientIP).
			Msg("CAPTCHA attempt limit exhausted")
		return false
	}

	supplied := e.hashAnswer(challengeID, answer)
	if !hmac.Equal([]byte(supplied), []byte(c.answerHash)) {
		verifyTotal.WithLabelValues("wrong_answer").Inc()
		return false
	}

	if consume {
		delete(e.challenges, challengeID)
		verifyTotal.WithLabelValues("consumed").Inc()
	} else {
		c.verified = true
		verifyTotal.WithLabelValues("previewed").Inc()
	}
	return true
}

// Sweep removes expired challenges and stale limiter buckets. Safe to run
// concurrently with verification.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	e.mu.Lock()
	count := 0
	now := time.Now()
	for id, c := range e.challenges {
		if now.Sub(c.createdAt) > e.config.Expiry {
			delete(e.challenges, id)
			count++
		}
	}
	live := len(e.challenges)
	e.mu.Unlock()

	if e.limiter != nil {
		e.limiter.sweepStale(e.config.RateWindow)
	}

	liveChallenges.Set(float64(live))
	if count > 0 {
		logging.Debug().Int("count", count).Msg("Swept expired CAPTCHA challenges")
	}
	return count, nil
}

// Size returns the number of live challenges.
func (e *Engine) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.challenges)
}
