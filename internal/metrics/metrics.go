// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cycles counts completed check cycles regardless of outcome.
	Cycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ladwatch_cycles_total",
		Help: "Number of check cycles run.",
	})

	// CycleDuration observes how long a full cycle takes.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ladwatch_cycle_duration_seconds",
		Help:    "Duration of check cycles.",
		Buckets: prometheus.DefBuckets,
	})

	// LiveAlerts counts players announced as entering a live game.
	LiveAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ladwatch_live_alerts_total",
		Help: "Number of live game alerts published, per player.",
	})

	// PostGameUpdates counts records closed with a follow-up.
	PostGameUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ladwatch_post_game_updates_total",
		Help: "Number of post game updates published.",
	})

	// StaleRecords counts open records whose player finished a newer
	// game first, leaving the tracked game unresolvable.
	StaleRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ladwatch_post_game_stale_total",
		Help: "Number of times an open record pointed at a game older than the player's latest.",
	})

	// UpstreamErrors counts failed upstream fetches by phase.
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ladwatch_upstream_errors_total",
		Help: "Number of failed upstream calls.",
	}, []string{"phase"})

	// PublishErrors counts failed Discord publishes.
	PublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ladwatch_publish_errors_total",
		Help: "Number of failed notification publishes.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
