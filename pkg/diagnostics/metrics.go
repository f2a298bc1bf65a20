package diagnostics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/weave/pkg/errors"
)

// Registry holds every weave collector. It is separate from the prometheus
// default registry so embedding applications choose what to expose.
var Registry = prometheus.NewRegistry()

var (
	componentRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: "component",
			Name:      "renders_total",
			Help:      "Render invocations per component tag",
		},
		[]string{"tag"},
	)

	componentEffects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: "component",
			Name:      "effects_total",
			Help:      "Effect invocations per component tag",
		},
		[]string{"tag"},
	)

	bindPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: "events",
			Name:      "bind_passes_total",
			Help:      "Event binding passes per component tag",
		},
		[]string{"tag"},
	)

	listeners = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "weave",
			Subsystem: "events",
			Name:      "listeners",
			Help:      "Listeners currently attached by event binders",
		},
		[]string{"tag"},
	)

	navigations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: "router",
			Name:      "navigations_total",
			Help:      "Route resolutions by outcome",
		},
		[]string{"result"},
	)

	subscriberFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: "subscriber",
			Name:      "faults_total",
			Help:      "Recovered subscriber and handler faults by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(componentRenders, componentEffects, bindPasses, listeners, navigations, subscriberFaults)
}

// Navigation outcomes.
const (
	NavigationMounted  = "mounted"
	NavigationNoMatch  = "no_match"
	NavigationNoOutlet = "no_outlet"
	NavigationFailed   = "failed"
)

// ObserveRender counts a render invocation for tag.
func ObserveRender(tag string) { componentRenders.WithLabelValues(label(tag)).Inc() }

// ObserveEffect counts an effect invocation for tag.
func ObserveEffect(tag string) { componentEffects.WithLabelValues(label(tag)).Inc() }

// ObserveBind counts a bind pass for tag.
func ObserveBind(tag string) { bindPasses.WithLabelValues(label(tag)).Inc() }

// AddListeners adjusts the attached listener gauge for tag by delta.
func AddListeners(tag string, delta int) {
	if delta == 0 {
		return
	}
	listeners.WithLabelValues(label(tag)).Add(float64(delta))
}

// ObserveNavigation counts a route resolution with the given outcome.
func ObserveNavigation(result string) { navigations.WithLabelValues(label(result)).Inc() }

// ObserveFault counts a recovered fault of the given kind.
func ObserveFault(kind errors.ErrorKind) { subscriberFaults.WithLabelValues(kind.String()).Inc() }

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// CountingHandler is an errors.Handler that counts every fault before
// forwarding it to Next.
type CountingHandler struct {
	Next errors.Handler
}

// NewCountingHandler wraps next, or the log handler when next is nil.
func NewCountingHandler(next errors.Handler) *CountingHandler {
	if next == nil {
		next = &errors.LogHandler{}
	}
	return &CountingHandler{Next: next}
}

// HandleError counts err and forwards it.
func (h *CountingHandler) HandleError(err *errors.WeaveError) {
	ObserveFault(err.Kind)
	h.Next.HandleError(err)
}

// HandlePanic counts err and forwards it.
func (h *CountingHandler) HandlePanic(err *errors.PanicError) {
	ObserveFault(err.Kind)
	h.Next.HandlePanic(err)
}
