package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by the services.
const Namespace = "clayhaus"

const (
	resultOK    = "ok"
	resultError = "error"
)

// CronJobMetrics counts scheduled job runs by outcome and times them.
type CronJobMetrics struct {
	runs    *prometheus.CounterVec
	elapsed *prometheus.HistogramVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Cron job runs, by job and result.",
		}, []string{"job", "result"}),
		elapsed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Cron job wall time in seconds.",
			Buckets:   []float64{.05, .25, 1, 5, 15, 60, 300},
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.elapsed)
	return m
}

// ObserveRun records one finished run; a non-nil err counts as a failure.
func (c *CronJobMetrics) ObserveRun(job string, elapsed time.Duration, err error) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	result := resultOK
	if err != nil {
		result = resultError
	}
	c.runs.WithLabelValues(job, result).Inc()
	c.elapsed.WithLabelValues(job).Observe(elapsed.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
