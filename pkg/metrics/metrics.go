package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated counts orders accepted into the available pool.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocerdash_orders_created_total",
		Help: "Orders created through the storefront API.",
	})

	// OrderTransitions counts applied status transitions by target status.
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grocerdash_order_transitions_total",
		Help: "Order status transitions applied, labeled by new status.",
	}, []string{"status"})

	// StaleAssignmentsSwept counts orders reverted to available by the sweeper.
	StaleAssignmentsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocerdash_stale_assignments_swept_total",
		Help: "Assigned orders reverted to available after the confirmation timeout.",
	})

	// RealtimeEmitFailures counts swallowed fan-out errors by event.
	RealtimeEmitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grocerdash_realtime_emit_failures_total",
		Help: "Realtime emissions that failed and were dropped, labeled by event.",
	}, []string{"event"})

	// PushFailures counts swallowed push-notification delivery errors.
	PushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocerdash_push_failures_total",
		Help: "Push notifications that failed to deliver and were dropped.",
	})
)
