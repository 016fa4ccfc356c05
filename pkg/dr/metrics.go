// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dr",
		Name:      "documents_decoded_total",
		Help:      "Documents successfully decoded by ReadNext, across all Readers.",
	})

	decodeLatencySeconds = promauto.NewSummary(prometheus.SummaryOpts{
		Namespace: "dr",
		Name:      "decode_latency_seconds",
		Help:      "Latency of a single ReadNext call that returned a document.",
	})

	decodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dr",
		Name:      "decode_errors_total",
		Help:      "Terminal decode errors returned by ReadNext, by Kind.",
	}, []string{"kind"})
)
