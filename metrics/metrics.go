package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nockpoint"

// Stub replay outcomes.
const (
	OutcomeHit  = "hit"
	OutcomeMiss = "miss"
)

// Recorder counts stub and control-plane traffic. A nil *Recorder records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	stubRequests    *prometheus.CounterVec
	controlRequests *prometheus.CounterVec
}

// New returns a Recorder with its own prometheus registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stubRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stub_requests_total",
			Help:      "Requests answered by the stub dispatcher, by outcome.",
		}, []string{"outcome"}),
		controlRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_requests_total",
			Help:      "Control-plane requests, by command and response code.",
		}, []string{"command", "code"}),
	}
}

// StubServed records a replay hit or a miss.
func (r *Recorder) StubServed(hit bool) {
	if r == nil {
		return
	}

	outcome := OutcomeMiss
	if hit {
		outcome = OutcomeHit
	}

	r.stubRequests.WithLabelValues(outcome).Inc()
}

// ControlHandled records a control-plane command and the code it answered with.
func (r *Recorder) ControlHandled(command string, code int) {
	if r == nil {
		return
	}

	r.controlRequests.WithLabelValues(command, strconv.Itoa(code)).Inc()
}

// Handler serves the recorder's metrics in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
