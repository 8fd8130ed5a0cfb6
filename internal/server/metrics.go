package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "Duration of operator HTTP requests",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2},
		},
		[]string{"method", "route"},
	)
)

// outcome 將錯誤轉為指標標籤：成功為 "ok"，否則為錯誤代碼。
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	_, code := classify(err)
	return code
}
