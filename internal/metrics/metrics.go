// Package metrics holds the application level Prometheus collectors.
// HTTP metrics live in the middleware package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	manualTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manual_transitions_total",
			Help: "Manual lifecycle actions by audit action name",
		},
		[]string{"action"},
	)

	referenceCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "manual_reference_collisions_total",
			Help: "Generated manual references that hit the unique index",
		},
	)
)

// Transition counts one committed lifecycle action.
func Transition(action string) {
	manualTransitions.WithLabelValues(action).Inc()
}

func ReferenceCollision() {
	referenceCollisions.Inc()
}
