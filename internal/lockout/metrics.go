// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package lockout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "lockout",
			Name:      "attempts_total",
			Help:      "Authentication attempts recorded, by outcome.",
		},
		[]string{"outcome"},
	)

	lockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "lockout",
			Name:      "lockouts_total",
			Help:      "Identifiers locked after crossing the failure threshold.",
		},
	)
)
