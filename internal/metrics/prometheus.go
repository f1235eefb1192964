package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "genecore"

// PrometheusRecorder exports save subsystem counters to a Prometheus registry.
type PrometheusRecorder struct {
	detections *prometheus.CounterVec
	repairs    *prometheus.CounterVec
	syntheses  *prometheus.CounterVec
	rejects    *prometheus.CounterVec
	migrations *prometheus.CounterVec
}

// NewPrometheusRecorder creates the counters and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	newVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "save",
			Name:      name,
			Help:      help,
		}, labels)
	}
	r := &PrometheusRecorder{
		detections: newVec("format_detections_total", "Genome tags read, by detected format.", "format"),
		repairs:    newVec("repairs_total", "Genome tags rewritten to restore a missing chromosome.", "format"),
		syntheses:  newVec("default_syntheses_total", "Genomes created from the default template.", "root"),
		rejects:    newVec("validation_rejects_total", "Alleles dropped because they are not valid for their slot.", "slot"),
		migrations: newVec("migrations_total", "Genomes rewritten into the current write format.", "from", "to"),
	}
	for _, c := range []prometheus.Collector{r.detections, r.repairs, r.syntheses, r.rejects, r.migrations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Collectors returns the counters for tests and custom registries.
func (r *PrometheusRecorder) Collectors() map[string]*prometheus.CounterVec {
	return map[string]*prometheus.CounterVec{
		EventFormatDetected:     r.detections,
		EventRepaired:           r.repairs,
		EventDefaultSynthesized: r.syntheses,
		EventValidationRejected: r.rejects,
		EventMigrated:           r.migrations,
	}
}

func (r *PrometheusRecorder) FormatDetected(format string) {
	r.detections.WithLabelValues(format).Inc()
}

func (r *PrometheusRecorder) Repaired(format string) {
	r.repairs.WithLabelValues(format).Inc()
}

func (r *PrometheusRecorder) DefaultSynthesized(root string) {
	r.syntheses.WithLabelValues(root).Inc()
}

func (r *PrometheusRecorder) ValidationRejected(slot string) {
	r.rejects.WithLabelValues(slot).Inc()
}

func (r *PrometheusRecorder) Migrated(from, to string) {
	r.migrations.WithLabelValues(from, to).Inc()
}
