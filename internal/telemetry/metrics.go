/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts HTTP requests by method, endpoint, status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lbwrapped_api_requests_total",
		Help: "Total HTTP API requests.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lbwrapped_api_request_duration_seconds",
		Help:    "HTTP API request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lbwrapped_api_active_connections",
		Help: "In-flight HTTP API requests.",
	})

	// JobsStarted counts ingestion jobs created.
	JobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lbwrapped_jobs_started_total",
		Help: "Ingestion jobs started.",
	})

	// JobsCompleted counts ingestion jobs reaching Completed.
	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lbwrapped_jobs_completed_total",
		Help: "Ingestion jobs completed.",
	})

	// JobsFailed counts ingestion jobs reaching Failed.
	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lbwrapped_jobs_failed_total",
		Help: "Ingestion jobs failed.",
	})

	// EntriesIngested counts persisted diary entries by enrichment outcome.
	EntriesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lbwrapped_entries_ingested_total",
		Help: "Diary entries persisted, by enrichment outcome.",
	}, []string{"enrichment"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
