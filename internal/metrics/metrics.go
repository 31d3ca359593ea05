package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	pollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portwatch_poll_total",
		Help: "Poll attempts per data source and result.",
	}, []string{"source", "result"})

	pollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portwatch_poll_duration_seconds",
		Help:    "Poll round-trip duration per data source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	commandTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portwatch_command_total",
		Help: "Port control commands per command and result.",
	}, []string{"command", "result"})
)

// ObservePoll records one poll attempt.
func ObservePoll(source string, elapsed time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	pollTotal.WithLabelValues(source, result).Inc()
	pollDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveCommand records one dispatched control command.
func ObserveCommand(command string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	commandTotal.WithLabelValues(command, result).Inc()
}
