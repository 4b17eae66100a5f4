package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "advent"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Результаты сохранения контента
const (
	SaveOK       = "ok"
	SaveConflict = "conflict"
	SaveInvalid  = "invalid"
	SaveError    = "error"
)

var (
	ContentSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_saves_total",
		Help:      "Content save attempts by trigger and result",
	}, []string{"trigger", "result"})

	AutosaveDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "autosave_discarded_total",
		Help:      "Autosave writes discarded because a newer version was saved first",
	})

	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Uploaded files by hint and result",
	}, []string{"hint", "result"})

	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upload_bytes",
		Help:      "Uploaded file size",
		Buckets:   prometheus.ExponentialBuckets(64<<10, 4, 8),
	})

	ScrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "music_scrapes_total",
		Help:      "Music metadata lookups by result",
	}, []string{"result"})
)
