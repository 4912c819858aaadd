package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    pagesRendered = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "printflow",
            Name:      "pages_rendered_total",
            Help:      "Total catalogue pages rendered, by result and client profile",
        },
        []string{"result", "profile"},
    )

    renderDuration = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "printflow",
            Name:      "page_render_duration_seconds",
            Help:      "Duration of single page raster renders",
            Buckets:   prometheus.DefBuckets,
        },
    )

    fetchesTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "printflow",
            Name:      "source_fetches_total",
            Help:      "Source document fetches by scheme and result",
        },
        []string{"scheme", "result"},
    )

    extractionsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "printflow",
            Name:      "subset_extractions_total",
            Help:      "Page-subset extractions by result",
        },
        []string{"result"},
    )

    extractionDuration = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "printflow",
            Name:      "subset_extraction_duration_seconds",
            Help:      "Duration of page-subset extractions",
            Buckets:   prometheus.DefBuckets,
        },
    )

    ordersTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "printflow",
            Name:      "orders_total",
            Help:      "Order submissions by result",
        },
        []string{"result"},
    )

    activeSessions = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "printflow",
            Name:      "active_sessions",
            Help:      "Currently open browsing sessions",
        },
    )

    queueDepth = prometheus.NewGaugeVec(
        prometheus.GaugeOpts{
            Namespace: "printflow",
            Name:      "queue_depth",
            Help:      "Fulfillment queue depth gauges for stream, delayed and dlq",
        },
        []string{"type"},
    )

    notifyDropped = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "printflow",
            Name:      "notifications_dropped_total",
            Help:      "Order notifications dropped (buffer full or dispatch failed)",
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(pagesRendered, renderDuration, fetchesTotal, extractionsTotal,
        extractionDuration, ordersTotal, activeSessions, queueDepth, notifyDropped)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveRender(result, profile string, dur time.Duration) {
    pagesRendered.WithLabelValues(result, profile).Inc()
    renderDuration.Observe(dur.Seconds())
}

func IncFetch(scheme, result string) { fetchesTotal.WithLabelValues(scheme, result).Inc() }

func ObserveExtraction(result string, dur time.Duration) {
    extractionsTotal.WithLabelValues(result).Inc()
    extractionDuration.Observe(dur.Seconds())
}

func IncOrder(result string) { ordersTotal.WithLabelValues(result).Inc() }

func SessionOpened() { activeSessions.Inc() }
func SessionClosed() { activeSessions.Dec() }

func SetQueueDepth(kind string, v int64) { queueDepth.WithLabelValues(kind).Set(float64(v)) }

func IncNotifyDropped() { notifyDropped.Inc() }
