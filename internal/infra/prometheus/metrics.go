package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "linxify"

var (
	// HTTPRequests counts served requests by method, route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by method and route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ArchiveJobs counts archive attempts by outcome (stored, failed, stale).
	ArchiveJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archive_jobs_total",
		Help:      "Reader-mode archive jobs processed, by outcome.",
	}, []string{"outcome"})

	// ScrapeRequests counts metadata scrapes by outcome.
	ScrapeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_requests_total",
		Help:      "Metadata scrape requests, by outcome.",
	}, []string{"outcome"})

	// EmailsSent counts transactional emails by outcome.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Transactional emails, by outcome.",
	}, []string{"outcome"})

	// PanicsRecovered counts handler panics caught by the recovery middleware.
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_panics_recovered_total",
		Help:      "Handler panics recovered, by route.",
	}, []string{"route"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected with 429.",
	})
)
