package jobs

import "github.com/prometheus/client_golang/prometheus"

// Метрики фоновых задач с меткой job.
var (
	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classleague", Name: "job_runs_total", Help: "Background job runs",
	}, []string{"job"})
	jobErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classleague", Name: "job_errors_total", Help: "Background job failures and panics",
	}, []string{"job"})
	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classleague", Name: "job_duration_seconds", Help: "Background job duration",
		Buckets: []float64{.005, .01, .05, .1, .5, 1, 3},
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(jobRuns, jobErrors, jobDuration)
}
