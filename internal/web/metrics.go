package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitos/trade_checklist/internal/domain"
	"github.com/vitos/trade_checklist/internal/usecase"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	DaysEvaluated   prometheus.Counter
	RuleFailures    *prometheus.CounterVec
	DayCompliance   prometheus.Histogram
	Exports         prometheus.Counter
	StaleRanges     prometheus.Counter
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checklist_http_request_duration_seconds",
				Help:    "HTTP request duration by route pattern and status code",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "code"},
		),
		DaysEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checklist_days_evaluated_total",
			Help: "Checklist days evaluated and returned to clients",
		}),
		RuleFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checklist_rule_failures_total",
				Help: "Failed rule verdicts by rule key and level",
			},
			[]string{"rule", "level"},
		),
		DayCompliance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checklist_day_compliance_ratio",
			Help:    "Per-day compliance rate (0.0 to 1.0)",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		Exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checklist_exports_total",
			Help: "CSV exports served",
		}),
		StaleRanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checklist_stale_ranges_total",
			Help: "Range loads dropped because a newer one superseded them",
		}),
	}
	registry.MustRegister(m.RequestDuration, m.DaysEvaluated, m.RuleFailures, m.DayCompliance, m.Exports, m.StaleRanges)
	return m
}

func (m *Metrics) observeDays(days ...*domain.ChecklistDay) {
	for _, d := range days {
		m.DaysEvaluated.Inc()
		m.DayCompliance.Observe(usecase.DayRate(d).Rate)
		for _, c := range d.Checks {
			if !c.Pass {
				m.RuleFailures.WithLabelValues(string(c.Key), string(c.Level)).Inc()
			}
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController and the websocket upgrader reach the
// underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		_, pattern := s.router.Handler(r)
		if pattern == "" {
			pattern = "unmatched"
		}
		s.metrics.RequestDuration.WithLabelValues(pattern, strconv.Itoa(rec.code)).Observe(time.Since(start).Seconds())
	})
}
