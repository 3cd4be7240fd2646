package sim

import (
	"container/heap"
	"time"
)

// EventKind enumerates everything the driver schedules.
type EventKind string

const (
	EventOrderReceived    EventKind = "ORDER_RECEIVED"
	EventOrderReady       EventKind = "ORDER_READY"
	EventVehicleDepart    EventKind = "VEHICLE_DEPART"
	EventExpectedDelivery EventKind = "EXPECTED_DELIVERY"
	EventVehicleReturn    EventKind = "VEHICLE_RETURN"
	EventDecisionTick     EventKind = "DECISION_TICK"
)

// Event is a timestamped occurrence in the simulated world. Which payload
// fields are set depends on the kind; unused ones stay zero.
type Event struct {
	At         time.Time
	Kind       EventKind
	DeliveryID string
	VehicleID  int

	seq uint64 // insertion order; breaks timestamp ties
}

// eventQueue is a min-heap on (timestamp, insertion sequence). The secondary
// key makes dequeue order independent of heap internals.
type eventQueue struct {
	items []*Event
	next  uint64
}

func (q *eventQueue) Len() int { return len(q.items) }

func (q *eventQueue) Less(i, j int) bool {
	if !q.items[i].At.Equal(q.items[j].At) {
		return q.items[i].At.Before(q.items[j].At)
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *eventQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *eventQueue) Push(x any) { q.items = append(q.items, x.(*Event)) }

func (q *eventQueue) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return it
}

func (q *eventQueue) push(e *Event) {
	e.seq = q.next
	q.next++
	heap.Push(q, e)
}

// popDue removes and returns the earliest event not after now, or nil.
func (q *eventQueue) popDue(now time.Time) *Event {
	if len(q.items) == 0 || q.items[0].At.After(now) {
		return nil
	}
	return heap.Pop(q).(*Event)
}

// peek returns the earliest pending event without removing it.
func (q *eventQueue) peek() *Event {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}
