package library

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts registry events. It is a Recorder.
type Metrics struct {
	operations *prometheus.CounterVec
	added      *prometheus.CounterVec
	registered prometheus.Counter
	onLoan     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "lending_operations_total",
			Help:      "Checkout and return attempts by item kind and outcome",
		}, []string{"operation", "item_kind", "outcome"}),
		added: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "items_added_total",
			Help:      "Items added to the inventory by kind",
		}, []string{"item_kind"}),
		registered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "people_registered_total",
			Help:      "Members and librarians registered",
		}),
		onLoan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "library",
			Name:      "items_on_loan",
			Help:      "Items currently checked out by kind",
		}, []string{"item_kind"}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.added, m.registered, m.onLoan} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Record implements Recorder.
func (m *Metrics) Record(e Event) {
	switch e.Type {
	case EventItemAdded:
		m.added.WithLabelValues(e.ItemKind).Inc()
	case EventPersonRegistered:
		m.registered.Inc()
	case EventItemCheckedOut:
		m.operations.WithLabelValues("checkout", e.ItemKind, "success").Inc()
		m.onLoan.WithLabelValues(e.ItemKind).Inc()
	case EventItemReturned:
		m.operations.WithLabelValues("return", e.ItemKind, "success").Inc()
		m.onLoan.WithLabelValues(e.ItemKind).Dec()
	case EventCheckoutFailed:
		m.operations.WithLabelValues("checkout", e.ItemKind, e.Reason).Inc()
	case EventReturnFailed:
		m.operations.WithLabelValues("return", e.ItemKind, e.Reason).Inc()
	}
}

// SyncOnLoan resets the on-loan gauge from a snapshot, e.g. after a restore.
func (m *Metrics) SyncOnLoan(s Snapshot) {
	counts := make(map[string]int, len(ItemKinds))
	for _, it := range s.Items {
		if !it.Available {
			counts[it.Kind]++
		}
	}
	for _, kind := range ItemKinds {
		m.onLoan.WithLabelValues(kind.String()).Set(float64(counts[kind.String()]))
	}
}
