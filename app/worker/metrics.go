package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Completed worker cycles partitioned by worker identity and result
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_cycles_total",
			Help: "Total number of worker cycles run",
		},
		[]string{"worker", "result"},
	)

	// Whether this process currently holds the lease for a worker identity
	leaseHeld = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_lease_held",
			Help: "1 when this process holds the worker lease, 0 otherwise",
		},
		[]string{"worker"},
	)
)
