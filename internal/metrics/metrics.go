// Package metrics holds Prometheus instruments that are used across the
// dashboard server.  All collectors are registered with the global
// registry, so importing this package is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveBoards = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pawnboard_active_boards",
			Help: "Number of operator boards currently held in memory.",
		})

	BoardCreateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pawnboard_board_create_total",
			Help: "Cumulative number of operator boards created.",
		})

	BoardEvictTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawnboard_board_evict_total",
			Help: "Cumulative number of boards evicted, by reason.",
		}, []string{"reason"})

	WidgetFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawnboard_widget_fetch_total",
			Help: "Widget data fetches, by widget and outcome.",
		}, []string{"widget", "outcome"})

	WidgetFetchSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pawnboard_widget_fetch_seconds",
			Help:    "Latency of widget data fetches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"widget"})

	ContextOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawnboard_context_ops_total",
			Help: "Widget context registry mutations, by op.",
		}, []string{"op"})

	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawnboard_api_requests_total",
			Help: "Backend API requests, by status class.",
		}, []string{"class"})
)

func init() {
	prometheus.MustRegister(
		ActiveBoards,
		BoardCreateTotal,
		BoardEvictTotal,
		WidgetFetchTotal,
		WidgetFetchSeconds,
		ContextOpsTotal,
		APIRequestsTotal,
	)
}
