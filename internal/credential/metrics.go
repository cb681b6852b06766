// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package credential

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decryptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "credential",
			Name:      "decrypt_total",
			Help:      "Credential envelope decryptions, by outcome.",
		},
		[]string{"outcome"},
	)

	// nonceReplaysTotal spikes indicate a replay attack in progress.
	nonceReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "credential",
			Name:      "nonce_replays_total",
			Help:      "Envelope nonces rejected as already used.",
		},
	)

	registrySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "authgate",
			Subsystem: "credential",
			Name:      "nonce_registry_size",
			Help:      "Nonce hashes currently retained for replay prevention.",
		},
	)
)
