package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Rows stored per fetcher identity
	rowsStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetcher_rows_stored_total",
			Help: "Total number of upstream rows stored",
		},
		[]string{"worker"},
	)

	// Pages dropped because of transport, status or payload problems
	pagesDiscardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetcher_pages_discarded_total",
			Help: "Total number of upstream pages discarded",
		},
		[]string{"worker"},
	)
)
