package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldmine_uploads_total",
			Help: "Total number of archive uploads by outcome",
		},
		[]string{"outcome"},
	)

	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldmine_commits_total",
			Help: "Total number of upload commits by outcome",
		},
		[]string{"outcome"},
	)

	RenderEnqueueTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldmine_render_enqueue_total",
			Help: "Total number of render job enqueue attempts by outcome",
		},
		[]string{"outcome"},
	)

	ClassifiedSeriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goldmine_classified_series_total",
			Help: "Total number of series drafts produced by the classifier",
		},
	)
)
