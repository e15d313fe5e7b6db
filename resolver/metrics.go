package resolver

import "github.com/VictoriaMetrics/metrics"

var (
	resolveSucceeded = metrics.NewCounter(`localresolve_resolve_total{outcome="succeeded"}`)
	resolveExhausted = metrics.NewCounter(`localresolve_resolve_total{outcome="exhausted"}`)
	resolveFailed    = metrics.NewCounter(`localresolve_resolve_total{outcome="failed"}`)

	resolveDuration = metrics.NewHistogram(`localresolve_resolve_duration_seconds`)

	receiveAttempts    = metrics.NewCounter(`localresolve_receive_attempts_total`)
	malformedDatagrams = metrics.NewCounter(`localresolve_unusable_datagrams_total`)
)

func countOutcome(state State) {
	switch state {
	case StateSucceeded:
		resolveSucceeded.Inc()
	case StateExhausted:
		resolveExhausted.Inc()
	case StateFailed:
		resolveFailed.Inc()
	}
}
