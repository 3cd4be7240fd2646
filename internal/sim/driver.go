package sim

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"mealroute/internal/config"
	"mealroute/internal/geo"
	"mealroute/internal/metrics"
	"mealroute/internal/model"
	"mealroute/internal/opt"
)

// Publisher receives route updates after every decision tick that mutated a
// vehicle. The in-memory and Redis brokers both satisfy it.
type Publisher interface {
	PublishRoutes(model.RoutesUpdate)
}

// Recorder persists plan snapshots; the driver treats persistence as
// fire-and-forget and only logs failures.
type Recorder interface {
	SavePlanSnapshot(ctx context.Context, upd model.RoutesUpdate) error
}

// Driver owns the simulated world: the clock, the event queue, every vehicle
// and delivery, and the optimizer invocation on each decision tick. All
// methods serialize on one mutex; optimizers never observe clock movement
// mid-call.
type Driver struct {
	mu sync.Mutex

	cfg     config.Config
	planner opt.Planner
	policy  DispatchPolicy

	start   time.Time
	clock   time.Time
	minute  int // minutes since start
	started bool

	vehicles   []*model.Vehicle
	deliveries map[string]*model.Delivery
	neverFit   map[string]bool
	queue      eventQueue

	mon      Monitor
	pub      Publisher
	recorder Recorder
}

// New wires a driver from a validated configuration. pub and rec may be nil.
func New(cfg config.Config, start time.Time, pub Publisher, rec Recorder) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	planner, err := opt.NewPlanner(cfg.Strategy())
	if err != nil {
		return nil, err
	}
	policy, err := NewDispatchPolicy(cfg.DispatchPolicy)
	if err != nil {
		return nil, err
	}
	return &Driver{
		cfg:        cfg,
		planner:    planner,
		policy:     policy,
		start:      start,
		clock:      start,
		deliveries: map[string]*model.Delivery{},
		neverFit:   map[string]bool{},
		pub:        pub,
		recorder:   rec,
	}, nil
}

// Clock returns the current simulated time.
func (d *Driver) Clock() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock
}

// Snapshot copies the monitor counters.
func (d *Driver) Snapshot() Monitor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mon
}

// Vehicles returns the egress view of the fleet.
func (d *Driver) Vehicles() []model.RouteState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.routeStates()
}

// RegisterVehicle adds a vehicle to the fleet. Only allowed before the
// clock first advances.
func (d *Driver) RegisterVehicle(id, capacity int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("register vehicle %d: simulation already running", id)
	}
	if capacity <= 0 {
		return fmt.Errorf("register vehicle %d: capacity must be positive", id)
	}
	for _, v := range d.vehicles {
		if v.ID == id {
			return fmt.Errorf("register vehicle %d: duplicate id", id)
		}
	}
	d.vehicles = append(d.vehicles, &model.Vehicle{ID: id, Capacity: capacity, Status: model.VehicleIdle})
	return nil
}

// SubmitOrder accepts an order at the current clock. The order becomes READY
// after its preparation delay.
func (d *Driver) SubmitOrder(id string, pt model.Point, size, preparationMin, serviceMin int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id == "" {
		return fmt.Errorf("submit order: empty id")
	}
	if _, ok := d.deliveries[id]; ok {
		return fmt.Errorf("submit order %s: duplicate id", id)
	}
	if size <= 0 {
		return fmt.Errorf("submit order %s: size must be positive", id)
	}
	del := &model.Delivery{
		ID:             id,
		Point:          pt,
		Size:           size,
		PreparationMin: preparationMin,
		ServiceMin:     serviceMin,
		ReceiptTime:    d.clock,
		Status:         model.OrderPending,
	}
	d.deliveries[id] = del
	d.queue.push(&Event{At: d.clock, Kind: EventOrderReceived, DeliveryID: id})
	d.queue.push(&Event{At: del.ReadyAt(), Kind: EventOrderReady, DeliveryID: id})
	return nil
}

// AdvanceTime runs whole one-minute ticks: drain due events, decide when the
// decision interval elapses, step the clock.
func (d *Driver) AdvanceTime(ctx context.Context, minutes int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < minutes; i++ {
		d.tick(ctx)
	}
}

// TriggerDecision forces a decision pass at the current clock regardless of
// the schedule.
func (d *Driver) TriggerDecision(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drainDue()
	d.decide(ctx)
}

// Run advances the clock to end. On return the clock equals end and only
// future events remain queued.
func (d *Driver) Run(ctx context.Context, end time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.clock.Before(end) {
		d.tick(ctx)
	}
	d.drainDue()
}

// Done reports whether every accepted order reached a terminal state.
// Orders no vehicle could ever carry are excluded: they are priced into the
// infeasible counter instead.
func (d *Driver) Done() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, del := range d.deliveries {
		if del.Status != model.OrderDelivered && !d.neverFit[del.ID] {
			return false
		}
	}
	return true
}

// markUnfittable flags ready orders too large for every vehicle in the
// fleet. Anything else left over simply waits for a vehicle to return.
func (d *Driver) markUnfittable(ready []*model.Delivery) {
	maxCap := 0
	for _, v := range d.vehicles {
		if v.Capacity > maxCap {
			maxCap = v.Capacity
		}
	}
	for _, del := range ready {
		if del.Status == model.OrderReady && del.Size > maxCap && !d.neverFit[del.ID] {
			d.neverFit[del.ID] = true
			d.mon.orderUnfittable()
		}
	}
}

func (d *Driver) tick(ctx context.Context) {
	d.started = true
	d.drainDue()
	if d.minute%d.cfg.DecisionIntervalMin == 0 {
		d.decide(ctx)
	}
	d.clock = d.clock.Add(time.Minute)
	d.minute++
}

func (d *Driver) drainDue() {
	for {
		ev := d.queue.popDue(d.clock)
		if ev == nil {
			return
		}
		d.handle(ev)
	}
}

func (d *Driver) handle(ev *Event) {
	switch ev.Kind {
	case EventOrderReceived:
		d.mon.orderCreated()
	case EventOrderReady:
		d.advanceOrder(ev.DeliveryID, model.OrderReady)
	case EventVehicleDepart:
		// departure is observational; the route was committed at plan time
	case EventExpectedDelivery:
		del := d.deliveries[ev.DeliveryID]
		d.advanceOrder(ev.DeliveryID, model.OrderDelivered)
		late := ev.At.Sub(del.Deadline()).Minutes()
		if late < 0 {
			late = 0
		}
		d.mon.orderDelivered(late)
	case EventVehicleReturn:
		v := d.vehicle(ev.VehicleID)
		if v == nil || v.Status != model.VehicleOnRoute {
			panic(fmt.Sprintf("vehicle %d returned while not on route", ev.VehicleID))
		}
		v.Status = model.VehicleIdle
		v.CurrentRoute = nil
		v.RouteEndTime = nil
	}
}

func (d *Driver) advanceOrder(id string, next model.OrderStatus) {
	del, ok := d.deliveries[id]
	if !ok {
		panic(fmt.Sprintf("unknown delivery %s", id))
	}
	if !del.Status.CanAdvanceTo(next) {
		panic(fmt.Sprintf("delivery %s: illegal transition %s -> %s", id, del.Status, next))
	}
	del.Status = next
}

// decide runs the configured strategy over the ready pool and idle fleet,
// applies the dispatch policy, mutates vehicle and order state, and
// broadcasts the new routes.
func (d *Driver) decide(ctx context.Context) {
	ready := d.readyDeliveries()
	idle := d.idleVehicles()
	if len(ready) == 0 || len(idle) == 0 {
		return
	}

	prob := d.buildProblem(ready, idle)
	tag := d.strategyTag()
	metrics.DecisionTicks.WithLabelValues(tag).Inc()

	deadline := time.Duration(d.cfg.OptimizerDeadlineS * float64(time.Second))
	optCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	t := time.Now()
	sol, err := d.planner(optCtx, prob, 0)
	metrics.OptimizerDuration.WithLabelValues(tag).Observe(time.Since(t).Seconds())
	if err != nil {
		log.Printf("decision at %s: planner failed: %v", d.clock.Format(time.RFC3339), err)
		return
	}
	d.checkPlan(prob, &sol)

	mutated := false
	nextTick := float64(d.cfg.DecisionIntervalMin - d.minute%d.cfg.DecisionIntervalMin)
	for _, plan := range sol.Plans {
		if len(plan.Order) == 0 {
			continue
		}
		delay := d.policy.DepartureDelay(prob, plan, nextTick)
		sched := plan.Schedule
		if delay > 0 {
			sched = prob.Evaluate(plan.Order, delay)
		}
		d.commitRoute(prob, plan, sched)
		mutated = true
	}
	d.markUnfittable(ready)

	if mutated {
		upd := model.RoutesUpdate{Timestamp: d.clock, Vehicles: d.routeStates()}
		if d.pub != nil {
			d.pub.PublishRoutes(upd)
		}
		if d.recorder != nil {
			if err := d.recorder.SavePlanSnapshot(ctx, upd); err != nil {
				log.Printf("save plan snapshot: %v", err)
			}
		}
	}
	d.exportStats()
}

func (d *Driver) commitRoute(prob *opt.Problem, plan opt.RoutePlan, sched opt.Schedule) {
	v := d.vehicle(plan.VehicleID)
	ids := make([]string, len(plan.Order))
	for i, idx := range plan.Order {
		ids[i] = prob.Nodes[idx].ID
	}
	v.Status = model.VehicleOnRoute
	v.CurrentRoute = ids
	end := d.clock.Add(minutesDur(sched.Start + sched.Cost.Duration))
	v.RouteEndTime = &end

	d.queue.push(&Event{At: d.clock.Add(minutesDur(sched.Start)), Kind: EventVehicleDepart, VehicleID: v.ID})
	for i, idx := range plan.Order {
		id := prob.Nodes[idx].ID
		d.advanceOrder(id, model.OrderDispatched)
		d.queue.push(&Event{
			At:         d.clock.Add(minutesDur(sched.Arrivals[i])),
			Kind:       EventExpectedDelivery,
			DeliveryID: id,
			VehicleID:  v.ID,
		})
	}
	d.queue.push(&Event{At: end, Kind: EventVehicleReturn, VehicleID: v.ID})
	d.mon.routeDispatched(sched.Cost.Duration)
}

// checkPlan enforces the plan invariants. A violation is a bug in an
// optimizer, never an input condition, so it terminates the run.
func (d *Driver) checkPlan(prob *opt.Problem, sol *opt.Solution) {
	seen := map[int]bool{}
	capByID := map[int]int{}
	for _, v := range prob.Vehicles {
		capByID[v.ID] = v.Capacity
	}
	for _, plan := range sol.Plans {
		load := 0
		for _, idx := range plan.Order {
			if seen[idx] {
				panic(fmt.Sprintf("delivery %s assigned to two routes", prob.Nodes[idx].ID))
			}
			seen[idx] = true
			load += prob.Nodes[idx].Size
		}
		if c, ok := capByID[plan.VehicleID]; !ok {
			panic(fmt.Sprintf("plan references unknown vehicle %d", plan.VehicleID))
		} else if load > c {
			panic(fmt.Sprintf("vehicle %d overloaded: %d > %d", plan.VehicleID, load, c))
		}
	}
}

func (d *Driver) readyDeliveries() []*model.Delivery {
	var ready []*model.Delivery
	for _, del := range d.deliveries {
		if del.Status == model.OrderReady && !d.neverFit[del.ID] {
			ready = append(ready, del)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].ID < ready[j].ID })
	return ready
}

func (d *Driver) idleVehicles() []*model.Vehicle {
	var idle []*model.Vehicle
	for _, v := range d.vehicles {
		if v.Status == model.VehicleIdle {
			idle = append(idle, v)
		}
	}
	return idle
}

func (d *Driver) buildProblem(ready []*model.Delivery, idle []*model.Vehicle) *opt.Problem {
	points := make([]model.Point, 0, len(ready)+1)
	points = append(points, d.cfg.Depot)
	nodes := make([]opt.Node, len(ready))
	for i, del := range ready {
		points = append(points, del.Point)
		nodes[i] = opt.Node{
			ID:         del.ID,
			Lat:        del.Point.Lat,
			Lng:        del.Point.Lng,
			Size:       del.Size,
			ReadyMin:   minutesBetween(d.clock, del.ReadyAt()),
			DueMin:     minutesBetween(d.clock, del.Deadline()),
			ServiceMin: d.cfg.ServiceMin,
		}
	}
	vehicles := make([]opt.Vehicle, len(idle))
	for i, v := range idle {
		vehicles[i] = opt.Vehicle{ID: v.ID, Capacity: v.Capacity}
	}
	return &opt.Problem{
		Nodes:    nodes,
		Vehicles: vehicles,
		Travel:   geo.TravelTimeMatrix(geo.DistanceMatrix(points), d.cfg.SpeedKmh),
	}
}

func (d *Driver) routeStates() []model.RouteState {
	states := make([]model.RouteState, len(d.vehicles))
	for i, v := range d.vehicles {
		states[i] = model.RouteState{
			VehicleID:    v.ID,
			Status:       string(v.Status),
			CurrentRoute: append([]string(nil), v.CurrentRoute...),
			RouteEndTime: v.RouteEndTime,
		}
	}
	return states
}

func (d *Driver) vehicle(id int) *model.Vehicle {
	for _, v := range d.vehicles {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (d *Driver) strategyTag() string {
	if d.cfg.StrategyKind == opt.KindHybrid {
		return d.cfg.HybridAlgo
	}
	return d.cfg.ClusteringAlgo + "+" + d.cfg.RoutingAlgo
}

var lastFallbacks int

func (d *Driver) exportStats() {
	s := opt.ReadStats()
	if n := s.AssignmentFallbacks - lastFallbacks; n > 0 {
		metrics.SolverFallbacks.Add(float64(n))
		lastFallbacks = s.AssignmentFallbacks
	}
}

func minutesDur(min float64) time.Duration {
	return time.Duration(min * float64(time.Minute))
}
