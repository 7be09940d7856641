package dispatch

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    metricDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "brain_dispatch_total",
        Help: "Dispatches by tier that produced the envelope and outcome",
    }, []string{"tier", "outcome"})

    metricFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "brain_fallback_total",
        Help: "Fallback hops to the AI tier by reason",
    }, []string{"reason"})

    metricTierLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
        Name:    "brain_tier_latency_ms",
        Help:    "Per-tier execution latency (ms), fallback hops measured separately",
        Buckets: prometheus.ExponentialBuckets(1, 2.2, 12),
    }, []string{"tier"})

    metricCacheHits = promauto.NewCounter(prometheus.CounterOpts{
        Name: "brain_pattern_cache_hits_total",
        Help: "Pattern cache hits on the cached tier",
    })
)
