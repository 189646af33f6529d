// Package metrics declares the Prometheus collectors exported by the service.
// Collectors register with the default registry on package load and are
// served by promhttp on the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PosterRequests counts poster requests by outcome: success,
	// no_credentials, no_tracks or error.
	PosterRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beatprints",
		Name:      "poster_requests_total",
		Help:      "Poster generation requests by outcome.",
	}, []string{"outcome"})

	// StageFailures counts collaborator failures by the stage that raised
	// them.
	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beatprints",
		Name:      "stage_failures_total",
		Help:      "Poster generation failures by stage.",
	}, []string{"stage"})

	// PosterDuration observes end-to-end generation latency.
	PosterDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "beatprints",
		Name:      "poster_duration_seconds",
		Help:      "Time spent generating a poster.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 8),
	})

	// InstrumentalTracks counts successful posters for instrumental tracks.
	InstrumentalTracks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "beatprints",
		Name:      "instrumental_tracks_total",
		Help:      "Posters rendered for tracks classified as instrumental.",
	})
)
