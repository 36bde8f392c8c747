package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Polls counts poll attempts by outcome: delivered, empty, rate_limited.
	Polls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shardlog_polls_total",
		Help: "Poll attempts by outcome.",
	}, []string{"outcome"})

	// ThrottleRetries counts reads retried after a throughput-exceeded signal.
	ThrottleRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shardlog_throttle_retries_total",
		Help: "Record reads retried after the backend signaled throttling.",
	})

	Appends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shardlog_appends_total",
		Help: "Transactions published.",
	})

	AppendBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shardlog_append_bytes_total",
		Help: "Payload bytes published.",
	})
)

func Expose(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
	}()
}
