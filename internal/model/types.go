package model

import "time"

// Point is a geographic coordinate. Immutable once created.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OrderStatus tracks a delivery through its lifecycle. Transitions are
// monotone: PENDING -> READY -> DISPATCHED -> DELIVERED.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderReady      OrderStatus = "READY"
	OrderDispatched OrderStatus = "DISPATCHED"
	OrderDelivered  OrderStatus = "DELIVERED"
)

func (s OrderStatus) rank() int {
	switch s {
	case OrderPending:
		return 0
	case OrderReady:
		return 1
	case OrderDispatched:
		return 2
	case OrderDelivered:
		return 3
	}
	return -1
}

// CanAdvanceTo reports whether moving to next is the forward transition.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	return next.rank() == s.rank()+1
}

type VehicleStatus string

const (
	VehicleIdle    VehicleStatus = "IDLE"
	VehicleOnRoute VehicleStatus = "ON_ROUTE"
)

// Delivery is a single order. Everything but Status is immutable after
// creation.
type Delivery struct {
	ID             string      `json:"id"`
	Point          Point       `json:"point"`
	Size           int         `json:"size"`
	PreparationMin int         `json:"preparationMinutes"`
	ServiceMin     int         `json:"serviceMinutes"`
	ReceiptTime    time.Time   `json:"receiptTime"`
	Status         OrderStatus `json:"status"`
}

// ReadyAt is the moment preparation completes.
func (d *Delivery) ReadyAt() time.Time {
	return d.ReceiptTime.Add(time.Duration(d.PreparationMin) * time.Minute)
}

// Deadline is the promised delivery time.
func (d *Delivery) Deadline() time.Time {
	return d.ReceiptTime.Add(time.Duration(d.ServiceMin) * time.Minute)
}

// Vehicle starts and ends every route at the depot. The depot is not part
// of CurrentRoute.
type Vehicle struct {
	ID           int           `json:"id"`
	Capacity     int           `json:"capacity"`
	Status       VehicleStatus `json:"status"`
	CurrentRoute []string      `json:"currentRoute"`
	RouteEndTime *time.Time    `json:"routeEndTime,omitempty"`
}

// RouteState is the egress view of a single vehicle after a decision tick.
type RouteState struct {
	VehicleID    int        `json:"vehicleId"`
	Status       string     `json:"status"`
	CurrentRoute []string   `json:"currentRoute"`
	RouteEndTime *time.Time `json:"routeEndTime,omitempty"`
}

// RoutesUpdate is broadcast whenever a decision tick mutated any route.
type RoutesUpdate struct {
	Timestamp time.Time    `json:"timestamp"`
	Vehicles  []RouteState `json:"vehicles"`
}
