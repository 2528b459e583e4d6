package uploader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Records confirmed delivered per producer identity
	recordsUploadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploader_records_uploaded_total",
			Help: "Total number of CDRs confirmed delivered",
		},
		[]string{"producer"},
	)

	// Failed delivery attempts per producer identity
	uploadFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploader_upload_failures_total",
			Help: "Total number of failed CDR batch deliveries",
		},
		[]string{"producer"},
	)

	// Size of the pending batch selected in the latest cycle
	pendingBatch = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "uploader_pending_batch_size",
			Help: "Pending call ids selected in the latest producer cycle",
		},
		[]string{"producer"},
	)
)
