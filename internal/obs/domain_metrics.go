package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// WeighInsTotal counts weight operations by outcome.
	WeighInsTotal *prometheus.CounterVec
	// BatchesClosedTotal counts batches that reached the full size.
	BatchesClosedTotal prometheus.Counter
	// SettlementsComputedTotal counts settlement summary computations.
	SettlementsComputedTotal prometheus.Counter
	// ExportsTotal counts generated settlement exports by format.
	ExportsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific
// Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		WeighInsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weigh_ins_total",
			Help:      "Count of weight append/update/delete operations by outcome.",
		}, []string{"op", "result"})
		BatchesClosedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_closed_total",
			Help:      "Count of batches closed after reaching the batch size.",
		})
		SettlementsComputedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_computed_total",
			Help:      "Count of settlement summary computations.",
		})
		ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Count of generated settlement exports by format.",
		}, []string{"format"})

		mustRegisterCollector(reg, WeighInsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				WeighInsTotal = v
			}
		})
		mustRegisterCollector(reg, BatchesClosedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				BatchesClosedTotal = v
			}
		})
		mustRegisterCollector(reg, SettlementsComputedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SettlementsComputedTotal = v
			}
		})
		mustRegisterCollector(reg, ExportsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ExportsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
