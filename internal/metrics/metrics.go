package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logosvc_resolutions_total",
			Help: "Resolution chain outcomes by winning strategy",
		},
		[]string{"source", "outcome"},
	)

	cacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logosvc_cache_ops_total",
			Help: "Tiered cache operations by tier and outcome",
		},
		[]string{"tier", "op", "outcome"},
	)

	validationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logosvc_validation_duration_seconds",
			Help:    "Candidate image validation latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
		[]string{"outcome"},
	)

	providerCooldownsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logosvc_provider_cooldowns_total",
			Help: "Rate-limit suppressions per external provider",
		},
		[]string{"provider"},
	)

	persistTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logosvc_persist_total",
			Help: "Remote persistence bridge outcomes",
		},
		[]string{"outcome"},
	)

	mappingCountDesc = prometheus.NewDesc(
		"logosvc_logo_mappings",
		"Number of migrated logo mappings in the lookup table",
		nil,
		nil,
	)
)

// MappingCounter is satisfied by the db layer; it reports how many logo
// mappings the lookup table currently holds.
type MappingCounter interface {
	CountLogoMappings(ctx context.Context) (int64, error)
}

// MappingCollector is a custom Prometheus collector that reads the lookup
// table row count from the database on each scrape.
type MappingCollector struct {
	db MappingCounter
}

// Describe sends the metric descriptor to the channel.
func (c *MappingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- mappingCountDesc
}

// Collect queries the database for the mapping count and emits it as a gauge.
func (c *MappingCollector) Collect(ch chan<- prometheus.Metric) {
	n, err := c.db.CountLogoMappings(context.Background())
	if err != nil {
		slog.Error("failed to collect logo mapping count", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(mappingCountDesc, prometheus.GaugeValue, float64(n))
}

var initOnce sync.Once

// Init registers all collectors. Must be called once at startup; database
// may be nil in tests, which skips the lookup-table collector.
func Init(database MappingCounter) {
	initOnce.Do(func() {
		prometheus.MustRegister(
			resolutionsTotal,
			cacheOpsTotal,
			validationDuration,
			providerCooldownsTotal,
			persistTotal,
		)
		if database != nil {
			prometheus.MustRegister(&MappingCollector{db: database})
		}
	})
}

// RecordResolution records a completed resolution chain run.
// source is the winning strategy tag, or "none" when every strategy failed.
func RecordResolution(source, outcome string) {
	resolutionsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordCacheOp records a tiered cache operation.
func RecordCacheOp(tier, op, outcome string) {
	cacheOpsTotal.WithLabelValues(tier, op, outcome).Inc()
}

// ObserveValidation records one candidate validation.
func ObserveValidation(d time.Duration, ok bool) {
	outcome := "fail"
	if ok {
		outcome = "ok"
	}
	validationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordProviderCooldown records a provider being placed on cooldown.
func RecordProviderCooldown(provider string) {
	providerCooldownsTotal.WithLabelValues(provider).Inc()
}

// RecordPersist records a persistence bridge outcome: "uploaded", "skipped"
// or "failed".
func RecordPersist(outcome string) {
	persistTotal.WithLabelValues(outcome).Inc()
}
