// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package upload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	acceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "upload",
			Name:      "accepted_total",
			Help:      "Uploads that passed content validation.",
		},
	)

	rejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "upload",
			Name:      "rejected_total",
			Help:      "Uploads rejected, by reason.",
		},
		[]string{"reason"},
	)
)
