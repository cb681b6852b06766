// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "authgate",
		Subsystem: "audit",
		Name:      "events_total",
		Help:      "Audit entries recorded, by severity and status.",
	},
	[]string{"severity", "status"},
)

func recordMetric(e *Entry) {
	eventsTotal.WithLabelValues(string(e.Severity), string(e.Status)).Inc()
}
