package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	CacheHitsTotal       metric.Int64Counter
	CacheMissesTotal     metric.Int64Counter
	ProviderErrorsTotal  metric.Int64Counter
	BasicFallbacksTotal  metric.Int64Counter
	BatchDurationSeconds metric.Float64Histogram
	SweeperDeletedTotal  metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("POIEnrichment")
		var err error
		m := &AppMetrics{}

		m.CacheHitsTotal, err = meter.Int64Counter(
			"poi_cache_hits_total",
			metric.WithDescription("Total number of POI cache hits"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_cache_hits_total: %v", err)
		}

		m.CacheMissesTotal, err = meter.Int64Counter(
			"poi_cache_misses_total",
			metric.WithDescription("Total number of POI cache misses or expired entries"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_cache_misses_total: %v", err)
		}

		m.ProviderErrorsTotal, err = meter.Int64Counter(
			"poi_provider_errors_total",
			metric.WithDescription("Total number of place-data provider fetch errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_provider_errors_total: %v", err)
		}

		m.BasicFallbacksTotal, err = meter.Int64Counter(
			"poi_basic_fallbacks_total",
			metric.WithDescription("Total number of enrichments degraded to the basic fallback record"),
			metric.WithUnit("{record}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_basic_fallbacks_total: %v", err)
		}

		m.BatchDurationSeconds, err = meter.Float64Histogram(
			"poi_batch_duration_seconds",
			metric.WithDescription("Duration of batch enrichment runs in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_batch_duration_seconds: %v", err)
		}

		m.SweeperDeletedTotal, err = meter.Int64Counter(
			"poi_sweeper_deleted_total",
			metric.WithDescription("Total number of cache entries removed by the expiry sweeper"),
			metric.WithUnit("{entry}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poi_sweeper_deleted_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		// This indicates a programming error - InitAppMetrics must be called at startup.
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
