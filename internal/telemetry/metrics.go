// Package telemetry exports organism and run metrics in Prometheus format.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"protozoa/internal/agent"
)

// Metrics owns its registry so several harnesses can coexist in one process.
type Metrics struct {
	reg *prometheus.Registry

	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	energy       prometheus.Gauge
	speed        prometheus.Gauge
	freeEnergy   prometheus.Gauge
	uncertainty  prometheus.Gauge
	landmarks    prometheus.Gauge
	complexity   prometheus.Gauge
	modeTicks    *prometheus.CounterVec
	regulations  *prometheus.CounterVec
	runs         *prometheus.CounterVec
	morphology   *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "protozoa_ticks_total",
			Help: "Simulation ticks advanced",
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "protozoa_tick_duration_seconds",
			Help:    "Wall time of one sense and update pass",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
		}),
		energy: f.NewGauge(prometheus.GaugeOpts{
			Name: "protozoa_energy",
			Help: "Current energy in [0,1]",
		}),
		speed: f.NewGauge(prometheus.GaugeOpts{
			Name: "protozoa_speed",
			Help: "Current speed",
		}),
		freeEnergy: f.NewGauge(prometheus.GaugeOpts{
			Name: "protozoa_free_energy",
			Help: "Variational free energy of the last update",
		}),
		uncertainty: f.NewGauge(prometheus.GaugeOpts{
			Name: "protozoa_belief_uncertainty",
			Help: "Summed posterior variance",
		}),
		landmarks: f.NewGauge(prometheus.GaugeOpts{
			Name: "protozoa_landmarks",
			Help: "Landmarks held in episodic memory",
		}),
		complexity: f.NewGauge(prometheus.GaugeOpts{
			Name: "protozoa_morphology_complexity",
			Help: "Structural complexity of the current morphology",
		}),
		modeTicks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "protozoa_mode_ticks_total",
			Help: "Ticks spent in each behavioral mode",
		}, []string{"mode"}),
		regulations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "protozoa_regulations_total",
			Help: "Morphological regulation events by kind",
		}, []string{"kind"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "protozoa_runs_total",
			Help: "Finished runs by status",
		}, []string{"status"}),
		morphology: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "protozoa_morphology",
			Help: "Current morphology parameters",
		}, []string{"param"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveTick records the state after one tick and how long it took.
func (m *Metrics) ObserveTick(s agent.Snapshot, took time.Duration) {
	m.ticks.Inc()
	m.tickDuration.Observe(took.Seconds())
	m.energy.Set(s.Energy)
	m.speed.Set(s.Speed)
	m.freeEnergy.Set(s.FreeEnergy)
	m.uncertainty.Set(s.BeliefUncertainty)
	m.landmarks.Set(float64(len(s.Landmarks)))
	m.complexity.Set(s.Complexity)
	m.modeTicks.WithLabelValues(s.Mode.String()).Inc()
	m.morphology.WithLabelValues("sensor_dist").Set(s.Morphology.SensorDist)
	m.morphology.WithLabelValues("sensor_angle").Set(s.Morphology.SensorAngle)
	m.morphology.WithLabelValues("belief_learning_rate").Set(s.Morphology.BeliefLearningRate)
	m.morphology.WithLabelValues("target_concentration").Set(s.Morphology.TargetConcentration)
}

func (m *Metrics) ObserveRegulation(kind agent.RegulationKind) {
	m.regulations.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RunFinished(status string) {
	m.runs.WithLabelValues(status).Inc()
}

// Handler serves this registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
