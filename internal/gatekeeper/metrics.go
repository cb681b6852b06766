// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package gatekeeper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "authgate",
		Subsystem: "gatekeeper",
		Name:      "rejections_total",
		Help:      "Requests rejected before business logic, by reason.",
	},
	[]string{"reason"},
)
