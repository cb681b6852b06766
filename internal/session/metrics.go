// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	issuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "session",
			Name:      "issued_total",
			Help:      "Sessions issued at login.",
		},
	)

	validateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "session",
			Name:      "validate_total",
			Help:      "Per-request session validations, by outcome.",
		},
		[]string{"outcome"},
	)

	terminatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "session",
			Name:      "terminated_total",
			Help:      "Sessions terminated, by reason.",
		},
		[]string{"reason"},
	)

	blacklistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "authgate",
			Subsystem: "session",
			Name:      "blacklist_size",
			Help:      "Terminated session ids currently retained.",
		},
	)
)
