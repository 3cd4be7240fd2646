package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the simulator.
	Registry = prometheus.NewRegistry()

	// OrdersCreated counts orders accepted into the system.
	OrdersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orders_created_total", Help: "Orders accepted into the system."},
	)
	// OrdersDelivered counts expected-delivery events fired.
	OrdersDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orders_delivered_total", Help: "Orders delivered."},
	)
	// OrdersLate counts deliveries that arrived past their deadline.
	OrdersLate = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orders_late_total", Help: "Orders delivered past their deadline."},
	)
	// PenaltyMinutes accumulates lateness minutes across the run.
	PenaltyMinutes = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "penalty_minutes_total", Help: "Accumulated lateness penalty in minutes."},
	)
	// RouteMinutes accumulates on-road minutes across dispatched routes.
	RouteMinutes = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "route_minutes_total", Help: "Accumulated on-road minutes."},
	)
	// InfeasibleTicks counts orders larger than every vehicle in the fleet,
	// once per order. Ready orders left over for a later tick are not counted.
	InfeasibleTicks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "infeasible_ticks_total", Help: "Orders too large for every vehicle in the fleet."},
	)
	// DecisionTicks counts optimizer invocations by strategy tag.
	DecisionTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "decision_ticks_total", Help: "Optimizer invocations."},
		[]string{"strategy"},
	)
	// OptimizerDuration records optimizer wall time per decision tick.
	OptimizerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "optimizer_duration_seconds", Help: "Optimizer wall time per decision tick.", Buckets: prometheus.DefBuckets},
		[]string{"strategy"},
	)
	// SolverFallbacks counts MIP assignment failures recovered by first-fit.
	SolverFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "assignment_solver_fallbacks_total", Help: "Capacitated assignment solves recovered by first-fit."},
	)
	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
)

// RegisterDefault registers collectors to the package registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(OrdersCreated)
		Registry.MustRegister(OrdersDelivered)
		Registry.MustRegister(OrdersLate)
		Registry.MustRegister(PenaltyMinutes)
		Registry.MustRegister(RouteMinutes)
		Registry.MustRegister(InfeasibleTicks)
		Registry.MustRegister(DecisionTicks)
		Registry.MustRegister(OptimizerDuration)
		Registry.MustRegister(SolverFallbacks)
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
