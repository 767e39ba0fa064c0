package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal tracks gateway queries by outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryproxy_queries_total",
			Help: "Total number of queries handled by the gateway",
		},
		[]string{"status"},
	)

	// QueryErrorsTotal tracks execution failures by classification.
	QueryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryproxy_query_errors_total",
			Help: "Total number of classified query failures",
		},
		[]string{"kind"},
	)

	// QueryDuration tracks end-to-end statement execution latency.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queryproxy_query_duration_seconds",
			Help:    "Statement execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CacheLookupsTotal tracks result cache hits and misses.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryproxy_cache_lookups_total",
			Help: "Total number of result cache lookups",
		},
		[]string{"outcome"},
	)

	// RetriesTotal tracks retry attempts by error kind.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryproxy_retries_total",
			Help: "Total number of retried execution attempts",
		},
		[]string{"kind"},
	)

	// AuthFailuresTotal tracks rejected logins and bad tokens.
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryproxy_auth_failures_total",
			Help: "Total number of authentication failures",
		},
		[]string{"reason"},
	)
)
