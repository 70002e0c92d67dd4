package metrics

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	angle         prom.Gauge
	phase         *prom.GaugeVec
	side          *prom.GaugeVec
	updates       *prom.CounterVec
	sideFlips     prom.Counter
	recoveries    *prom.CounterVec
	persistErrors *prom.CounterVec
	sinkErrors    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.angle = prom.NewGauge(prom.GaugeOpts{
			Namespace: "moondial",
			Name:      "angle_degrees",
			Help:      "Current dial rotation in degrees",
		})
		pr.phase = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "moondial",
			Name:      "phase",
			Help:      "Committed lunar phase (1 for the active phase, 0 otherwise)",
		}, []string{"phase"})
		pr.side = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "moondial",
			Name:      "side",
			Help:      "Active dial side (1 for the side facing the viewer)",
		}, []string{"side"})
		pr.updates = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "moondial",
			Name:      "ticks_total",
			Help:      "Processed ticks by outcome",
		}, []string{"outcome"})
		pr.sideFlips = prom.NewCounter(prom.CounterOpts{
			Namespace: "moondial",
			Name:      "side_flips_total",
			Help:      "Number of times the dial turned over",
		})
		pr.recoveries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "moondial",
			Name:      "recoveries_total",
			Help:      "Restart recovery attempts by result",
		}, []string{"result"})
		pr.persistErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "moondial",
			Name:      "persist_errors_total",
			Help:      "Persistence gateway failures by operation",
		}, []string{"op"})
		pr.sinkErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "moondial",
			Name:      "sink_errors_total",
			Help:      "Reading delivery failures by sink",
		}, []string{"sink"})
		reg.MustRegister(pr.angle, pr.phase, pr.side, pr.updates, pr.sideFlips, pr.recoveries, pr.persistErrors, pr.sinkErrors)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveDial(side, phase string, angle int) {
	if p == nil || p.angle == nil {
		return
	}
	p.angle.Set(float64(angle))
	p.phase.Reset()
	p.phase.WithLabelValues(phase).Set(1)
	p.side.Reset()
	p.side.WithLabelValues(side).Set(1)
}

func (p *PrometheusRecorder) IncUpdate(outcome UpdateOutcome) {
	if p == nil || p.updates == nil {
		return
	}
	p.updates.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncSideFlip() {
	if p == nil || p.sideFlips == nil {
		return
	}
	p.sideFlips.Inc()
}

func (p *PrometheusRecorder) IncRecovery(result RecoveryResult) {
	if p == nil || p.recoveries == nil {
		return
	}
	p.recoveries.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncPersistError(op PersistOp) {
	if p == nil || p.persistErrors == nil {
		return
	}
	p.persistErrors.WithLabelValues(string(op)).Inc()
}

func (p *PrometheusRecorder) IncSinkError(sink string) {
	if p == nil || p.sinkErrors == nil {
		return
	}
	p.sinkErrors.WithLabelValues(sink).Inc()
}
