// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package captcha

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "captcha",
			Name:      "generated_total",
			Help:      "Challenges generated.",
		},
	)

	verifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "captcha",
			Name:      "verify_total",
			Help:      "Verification attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "captcha",
			Name:      "rate_limited_total",
			Help:      "Generations rejected by the per-IP rate limit.",
		},
	)

	liveChallenges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "authgate",
			Subsystem: "captcha",
			Name:      "live_challenges",
			Help:      "Challenges currently held in memory.",
		},
	)
)
