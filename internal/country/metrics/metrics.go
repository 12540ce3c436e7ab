package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes recorded on RefreshTotal.
const (
	OutcomeSuccess         = "success"
	OutcomeSourceFailure   = "source_failure"
	OutcomePersistFailure  = "persist_failure"
	OutcomeInternalFailure = "internal_failure"
	FetchResultOK          = "ok"
	FetchResultError       = "error"
)

// Metrics provides observability for the refresh pipeline and the query cache.
type Metrics struct {
	RefreshTotal      *prometheus.CounterVec
	RefreshDuration   prometheus.Histogram
	FetchDuration     *prometheus.HistogramVec
	CountriesUpserted prometheus.Counter
	CountriesSkipped  prometheus.Counter
	ArtifactFailures  prometheus.Counter
	CacheLookups      *prometheus.CounterVec
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "country_api_refresh_total",
			Help: "Refresh cycles by outcome",
		}, []string{"outcome"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "country_api_refresh_duration_seconds",
			Help:    "End-to-end duration of refresh cycles",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "country_api_source_fetch_duration_seconds",
			Help:    "Duration of upstream fetches by source and result",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "result"}),
		CountriesUpserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "country_api_countries_upserted_total",
			Help: "Country rows written by refresh cycles",
		}),
		CountriesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "country_api_countries_skipped_total",
			Help: "Upstream country records skipped for missing name or population",
		}),
		ArtifactFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "country_api_summary_artifact_failures_total",
			Help: "Summary image generations that failed after a refresh",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "country_api_query_cache_lookups_total",
			Help: "Query cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

// ObserveRefresh records a finished refresh cycle.
func (m *Metrics) ObserveRefresh(outcome string, start time.Time) {
	m.RefreshTotal.WithLabelValues(outcome).Inc()
	m.RefreshDuration.Observe(time.Since(start).Seconds())
}

// ObserveFetch records one upstream call.
func (m *Metrics) ObserveFetch(source string, err error, start time.Time) {
	result := FetchResultOK
	if err != nil {
		result = FetchResultError
	}
	m.FetchDuration.WithLabelValues(source, result).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddUpserted(n int) {
	m.CountriesUpserted.Add(float64(n))
}

func (m *Metrics) AddSkipped(n int) {
	m.CountriesSkipped.Add(float64(n))
}

func (m *Metrics) IncrementArtifactFailures() {
	m.ArtifactFailures.Inc()
}

func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}
