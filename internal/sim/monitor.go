package sim

import "mealroute/internal/metrics"

// Monitor aggregates run counters. The driver owns it; the Prometheus
// mirror keeps the /metrics endpoint in step without the driver holding
// registry handles.
type Monitor struct {
	Created        int     `json:"created"`
	Delivered      int     `json:"delivered"`
	Late           int     `json:"late"`
	Infeasible     int     `json:"infeasible"`
	PenaltyMinutes float64 `json:"penaltyMinutes"`
	RouteMinutes   float64 `json:"routeMinutes"`
}

func (m *Monitor) orderCreated() {
	m.Created++
	metrics.OrdersCreated.Inc()
}

func (m *Monitor) orderDelivered(latenessMin float64) {
	m.Delivered++
	metrics.OrdersDelivered.Inc()
	if latenessMin > 0 {
		m.Late++
		m.PenaltyMinutes += latenessMin
		metrics.OrdersLate.Inc()
		metrics.PenaltyMinutes.Add(latenessMin)
	}
}

func (m *Monitor) routeDispatched(routeMin float64) {
	m.RouteMinutes += routeMin
	metrics.RouteMinutes.Add(routeMin)
}

func (m *Monitor) orderUnfittable() {
	m.Infeasible++
	metrics.InfeasibleTicks.Inc()
}

// AveragePenalty is penalty minutes per delivered order.
func (m *Monitor) AveragePenalty() float64 {
	if m.Delivered == 0 {
		return 0
	}
	return m.PenaltyMinutes / float64(m.Delivered)
}
