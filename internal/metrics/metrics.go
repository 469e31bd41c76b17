// Package metrics holds the Prometheus collectors exported by the ledger.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "iou_ledger"

// Rejection reasons used as the "reason" label.
const (
	ReasonInvalidAmount   = "invalid_amount"
	ReasonSelfDebt        = "self_debt"
	ReasonInvalidIdentity = "invalid_identity"
	ReasonStorage         = "storage"
)

type Metrics struct {
	IOUsRecorded    prometheus.Counter
	IOUsReplayed    prometheus.Counter
	DuplicateIOUs   prometheus.Counter
	CyclesCancelled prometheus.Counter
	AmountSettled   prometheus.Counter
	StalePathHints  prometheus.Counter
	Rejections      *prometheus.CounterVec
	Participants    prometheus.Gauge
	Edges           prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IOUsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ious_recorded_total",
			Help:      "Accepted IOUs.",
		}),
		IOUsReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ious_replayed_total",
			Help:      "IOUs re-applied from the event log on restore.",
		}),
		DuplicateIOUs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ious_duplicate_total",
			Help:      "Submissions answered from an earlier IOU with the same idempotency key.",
		}),
		CyclesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_cancelled_total",
			Help:      "IOUs that closed a debt cycle and netted it.",
		}),
		AmountSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "amount_settled_total",
			Help:      "Sum of amounts removed from cycles by netting.",
		}),
		StalePathHints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_path_hints_total",
			Help:      "Path hints that failed validation and fell back to a plain increment.",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected IOU submissions by reason.",
		}, []string{"reason"}),
		Participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Known participants.",
		}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "edges",
			Help:      "Outstanding debtor to creditor edges.",
		}),
	}

	reg.MustRegister(
		m.IOUsRecorded,
		m.IOUsReplayed,
		m.DuplicateIOUs,
		m.CyclesCancelled,
		m.AmountSettled,
		m.StalePathHints,
		m.Rejections,
		m.Participants,
		m.Edges,
	)
	return m
}
