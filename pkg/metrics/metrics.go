package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cms", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cms", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	RecordOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cms", Name: "record_operations_total", Help: "Record store reads and writes by backend, operation and result."},
		[]string{"backend", "op", "result"},
	)
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cms", Name: "deliveries_total", Help: "Recorded file deliveries by outcome."},
		[]string{"status"},
	)
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cms", Name: "logins_total", Help: "Admin login attempts by result."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(RecordOperations)
	reg.MustRegister(Deliveries)
	reg.MustRegister(Logins)
}

// ObserveRecordOp counts a single record store operation.
func ObserveRecordOp(backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	RecordOperations.WithLabelValues(backend, op, result).Inc()
}
