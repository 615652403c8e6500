// Package metrics provides Prometheus metrics for news-tagger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newstagger"

const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultSkipped  = "skipped"
	ResultCacheHit = "cache_hit"
)

var (
	// FeedFetchTotal counts feed fetches by category and outcome.
	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetch_total",
			Help:      "Feed fetch attempts by outcome",
		},
		[]string{"category", "result"},
	)

	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of feed fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	// TagGenerationTotal counts per-article tagging outcomes. Failures never
	// reach the client, so this is where they show up.
	TagGenerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tag_generation_total",
			Help:      "Tag generation calls by outcome",
		},
		[]string{"result"},
	)

	TagGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tag_generation_duration_seconds",
			Help:      "Duration of generative calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
	)

	ArticlesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "articles_returned",
			Help:      "Articles per successful response",
			Buckets:   []float64{0, 1, 5, 10, 15},
		},
	)
)

func RecordFeedFetch(category, result string, seconds float64) {
	FeedFetchTotal.WithLabelValues(category, result).Inc()
	FeedFetchDuration.WithLabelValues(category).Observe(seconds)
}

func RecordTagResult(result string) {
	TagGenerationTotal.WithLabelValues(result).Inc()
}
