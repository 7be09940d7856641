package pipeline

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    metricTranscripts = promauto.NewCounter(prometheus.CounterOpts{
        Name: "brain_transcripts_total",
        Help: "Transcripts entering the pipeline",
    })

    metricWakeMatches = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "brain_wake_matches_total",
        Help: "Wake phrase matches by kind (exact, fuzzy, phonetic)",
    }, []string{"kind"})

    metricAmbient = promauto.NewCounter(prometheus.CounterOpts{
        Name: "brain_ambient_total",
        Help: "Transcripts with no wake phrase, logged but not dispatched",
    })

    metricPipelineLatency = promauto.NewHistogram(prometheus.HistogramOpts{
        Name:    "brain_pipeline_latency_ms",
        Help:    "End-to-end pipeline latency for commands (ms)",
        Buckets: prometheus.ExponentialBuckets(1, 2.2, 12),
    })
)
