// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package captcha

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const testAnswer = "AB3DEF"

func newTestEngine(t *testing.T, config Config) *Engine {
	t.Helper()

	if config.Secret == "" {
		config.Secret = "test-secret-at-least-32-characters-long"
	}
	if config.Expiry == 0 {
		config.Expiry = 3 * time.Minute
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}

	e := New(config)
	e.newAnswer = func() (string, error) { return testAnswer, nil }
	return e
}

func TestGenerateProducesSVG(t *testing.T) {
	e := newTestEngine(t, Config{})

	c, err := e.Generate("203.0.113.7")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if c.ID == "" {
		t.Error("challenge id must not be empty")
	}
	if !strings.HasPrefix(c.SVG, "<svg") || !strings.HasSuffix(c.SVG, "</svg>") {
		t.Errorf("rendered image is not an SVG document: %.60s", c.SVG)
	}
	if !strings.Contains(c.SVG, testAnswer[:1]) {
		t.Error("rendered SVG must contain the answer glyphs")
	}
}

func TestAnswerAlphabetExcludesAmbiguousGlyphs(t *testing.T) {
	for _, forbidden := range []string{"0", "O", "1", "I", "l"} {
		if strings.Contains(alphabet, forbidden) {
			t.Errorf("alphabet must not contain %q", forbidden)
		}
	}
}

func TestVerifyConsumeIsSingleUse(t *testing.T) {
	e := newTestEngine(t, Config{})

	c, err := e.Generate("203.0.113.7")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !e.Verify(c.ID, testAnswer, "203.0.113.7", true) {
		t.Fatal("correct answer must verify")
	}
	if e.Verify(c.ID, testAnswer, "203.0.113.7", true) {
		t.Error("consumed challenge must never verify again, even with the correct answer")
	}
}

func TestVerifyPreviewDoesNotConsume(t *testing.T) {
	e := newTestEngine(t, Config{})

	c, err := e.Generate("203.0.113.7")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !e.Verify(c.ID, testAnswer, "203.0.113.7", false) {
		t.Fatal("preview check must verify")
	}
	if !e.Verify(c.ID, testAnswer, "203.0.113.7", true) {
		t.Error("preview check must not spend the challenge")
	}
}

func TestVerifyCaseInsensitive(t *testing.T) {
	e := newTestEngine(t, Config{})

	c, err := e.Generate("203.0.113.7")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !e.Verify(c.ID, strings.ToLower(testAnswer), "203.0.113.7", true) {
		t.Error("answers must compare case-insensitively")
	}
}

func TestVerifyBoundedAttempts(t *testing.T) {
	e := newTestEngine(t, Config{MaxAttempts: 3})

	c, err := e.Generate("203.0.113.7")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if e.Verify(c.ID, "wrong", "203.0.113.7", true) {
			t.Fatal("wrong answer must not verify")
		}
	}
	if e.Verify(c.ID, testAnswer, "203.0.113.7", true) {
		t.Error("fourth attempt must fail even with the correct answer")
	}
	if e.Size() != 0 {
		t.Error("exhausted challenge must be deleted")
	}
}

func TestVerifyExpiry(t *testing.T) {
	e := newTestEngine(t, Config{Expiry: 10 * time.Millisecond})

	c, err := e.Generate("203.0.113.7")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	if e.Verify(c.ID, testAnswer, "203.0.113.7", true) {
		t.Error("expired challenge must not verify")
	}
}

func TestVerifyUnknownID(t *testing.T) {
	e := newTestEngine(t, Config{})
	if e.Verify("no-such-challenge", testAnswer, "203.0.113.7", true) {
		t.Error("unknown challenge id must fail closed")
	}
}

func TestGenerateRateLimit(t *testing.T) {
	e := newTestEngine(t, Config{RateLimit: 3, RateWindow: 15 * time.Minute})

	for i := 0; i < 3; i++ {
		if _, err := e.Generate("203.0.113.7"); err != nil {
			t.Fatalf("generation %d failed: %v", i, err)
		}
	}

	_, err := e.Generate("203.0.113.7")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}

	// Other IPs have their own budget.
	if _, err := e.Generate("198.51.100.9"); err != nil {
		t.Errorf("distinct IP must not share the exhausted bucket: %v", err)
	}
}

func TestGenerateUnlimitedWhenDisabled(t *testing.T) {
	e := newTestEngine(t, Config{RateLimit: 0})

	for i := 0; i < 200; i++ {
		if _, err := e.Generate("203.0.113.7"); err != nil {
			t.Fatalf("generation %d failed: %v", i, err)
		}
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	e := newTestEngine(t, Config{Expiry: 10 * time.Millisecond})

	if _, err := e.Generate("203.0.113.7"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := e.Generate("203.0.113.7"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	removed, err := e.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if e.Size() != 0 {
		t.Errorf("size = %d, want 0", e.Size())
	}
}

func TestRenderSVGRandomized(t *testing.T) {
	first := renderSVG(testAnswer)
	second := renderSVG(testAnswer)
	if first == second {
		t.Error("two renders of the same answer should differ in visual parameters")
	}
}
