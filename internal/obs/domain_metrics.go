package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DocumentsNumberedTotal counts document numbers handed out per kind.
	DocumentsNumberedTotal *prometheus.CounterVec
	// DocumentSavesTotal counts document writes by kind and outcome.
	DocumentSavesTotal *prometheus.CounterVec
	// DocumentImportsTotal counts import attempts by outcome.
	DocumentImportsTotal *prometheus.CounterVec
	// PipelineValue reports the summed document totals per pipeline status.
	PipelineValue *prometheus.GaugeVec
	// PriceBookUpdatesTotal counts saved price book revisions.
	PriceBookUpdatesTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DocumentsNumberedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_numbered_total",
			Help:      "Count of document numbers issued by kind.",
		}, []string{"kind"})
		DocumentSavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_saves_total",
			Help:      "Count of document save outcomes by kind.",
		}, []string{"kind", "result"})
		DocumentImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_imports_total",
			Help:      "Count of document import outcomes.",
		}, []string{"result"})
		PipelineValue = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_value",
			Help:      "Summed document totals per pipeline status as of the last report.",
		}, []string{"status"})
		PriceBookUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricebook_updates_total",
			Help:      "Number of saved price book revisions.",
		})

		mustRegisterCollector(reg, DocumentsNumberedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DocumentsNumberedTotal = v
			}
		})
		mustRegisterCollector(reg, DocumentSavesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DocumentSavesTotal = v
			}
		})
		mustRegisterCollector(reg, DocumentImportsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DocumentImportsTotal = v
			}
		})
		mustRegisterCollector(reg, PipelineValue, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				PipelineValue = v
			}
		})
		mustRegisterCollector(reg, PriceBookUpdatesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PriceBookUpdatesTotal = v
			}
		})
	})
}

// ObserveDocumentNumbered records an issued document number. It is a no-op
// until MustRegisterDomainMetrics has run.
func ObserveDocumentNumbered(kind string) {
	if DocumentsNumberedTotal != nil {
		DocumentsNumberedTotal.WithLabelValues(kind).Inc()
	}
}

// ObserveDocumentSave records the outcome of a document write.
func ObserveDocumentSave(kind, result string) {
	if DocumentSavesTotal != nil {
		DocumentSavesTotal.WithLabelValues(kind, result).Inc()
	}
}

// ObserveDocumentImport records the outcome of an import.
func ObserveDocumentImport(result string) {
	if DocumentImportsTotal != nil {
		DocumentImportsTotal.WithLabelValues(result).Inc()
	}
}

// SetPipelineValue publishes the value currently sitting in status.
func SetPipelineValue(status string, value float64) {
	if PipelineValue != nil {
		PipelineValue.WithLabelValues(status).Set(value)
	}
}

// ObservePriceBookUpdate records a saved price book.
func ObservePriceBookUpdate() {
	if PriceBookUpdatesTotal != nil {
		PriceBookUpdatesTotal.Inc()
	}
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
