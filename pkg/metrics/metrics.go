package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arnavshah/rotation-api-go/pkg/models"
)

// Recorder receives planning events
type Recorder interface {
	PlanGenerated(policy string, plan *models.Plan, elapsed time.Duration)
	PlanFailed(policy, reason string)
}

// NopRecorder discards every event
type NopRecorder struct{}

func (NopRecorder) PlanGenerated(string, *models.Plan, time.Duration) {}
func (NopRecorder) PlanFailed(string, string)                         {}

// PromRecorder records planning events in Prometheus metrics.
type PromRecorder struct {
	plans       *prometheus.CounterVec
	seats       *prometheus.CounterVec
	degraded    prometheus.Counter
	ignored     prometheus.Counter
	presentSize prometheus.Gauge
	latency     *prometheus.HistogramVec
}

// NewPromRecorder registers the planning metrics on reg.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PromRecorder{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rotation_plans_total",
			Help: "Planning invocations by policy and outcome",
		}, []string{"policy", "outcome"}),
		seats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rotation_seats_assigned_total",
			Help: "Person-slots assigned by track",
		}, []string{"track"}),
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rotation_degraded_pairs_total",
			Help: "Paired slots held twice by the same person",
		}),
		ignored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rotation_ignored_overrides_total",
			Help: "Override ids not found in the present roster",
		}),
		presentSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rotation_present_list_size",
			Help: "Size of the last present list",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rotation_plan_duration_seconds",
			Help:    "Time spent building a plan",
			Buckets: prometheus.DefBuckets,
		}, []string{"policy"}),
	}

	var err error
	if r.plans, err = register(reg, r.plans); err != nil {
		return nil, err
	}
	if r.seats, err = register(reg, r.seats); err != nil {
		return nil, err
	}
	if r.degraded, err = register(reg, r.degraded); err != nil {
		return nil, err
	}
	if r.ignored, err = register(reg, r.ignored); err != nil {
		return nil, err
	}
	if r.presentSize, err = register(reg, r.presentSize); err != nil {
		return nil, err
	}
	if r.latency, err = register(reg, r.latency); err != nil {
		return nil, err
	}
	return r, nil
}

// register reuses an already registered collector of the same type
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) PlanGenerated(policy string, plan *models.Plan, elapsed time.Duration) {
	r.plans.WithLabelValues(policy, "ok").Inc()
	r.latency.WithLabelValues(policy).Observe(elapsed.Seconds())
	for _, tp := range plan.Tracks {
		for _, a := range tp.Assignments {
			r.seats.WithLabelValues(string(tp.Track)).Add(float64(len(a.PersonIDs)))
			if a.Degraded {
				r.degraded.Inc()
			}
		}
	}
	r.ignored.Add(float64(len(plan.IgnoredOverrides)))
	r.presentSize.Set(float64(len(plan.Present)))
}

func (r *PromRecorder) PlanFailed(policy, reason string) {
	r.plans.WithLabelValues(policy, reason).Inc()
}
