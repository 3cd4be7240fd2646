package opt

import "math"

// Node is one ready delivery as the optimizers see it. Times are minutes
// relative to the decision tick, so every algorithm shares one clock.
type Node struct {
	ID         string
	Lat, Lng   float64
	Size       int
	ReadyMin   float64
	DueMin     float64
	ServiceMin float64
}

// Vehicle is an idle vehicle available at the depot.
type Vehicle struct {
	ID       int
	Capacity int
}

// Problem is one decision tick's input: ready nodes, idle vehicles and a
// travel-time matrix in minutes. The matrix is (n+1)x(n+1) with the depot at
// row/column 0 and node i at i+1.
type Problem struct {
	Nodes    []Node
	Vehicles []Vehicle
	Travel   [][]float64
}

const depot = -1

// leg returns travel minutes between two node indices; depot selects the
// depot row/column.
func (p *Problem) leg(from, to int) float64 {
	return p.Travel[from+1][to+1]
}

// TotalCapacity sums the fleet's capacity.
func (p *Problem) TotalCapacity() int {
	total := 0
	for _, v := range p.Vehicles {
		total += v.Capacity
	}
	return total
}

// TotalDemand sums the node sizes.
func (p *Problem) TotalDemand() int {
	total := 0
	for _, n := range p.Nodes {
		total += n.Size
	}
	return total
}

// Cost orders candidate solutions lexicographically: lateness penalty first,
// on-road minutes second. Shared by every optimizer so costs stay comparable.
type Cost struct {
	Penalty  float64
	Duration float64
}

// Less reports strict lexicographic improvement.
func (c Cost) Less(o Cost) bool {
	if c.Penalty != o.Penalty {
		return c.Penalty < o.Penalty
	}
	return c.Duration < o.Duration
}

// Add combines per-route costs into a plan cost.
func (c Cost) Add(o Cost) Cost {
	return Cost{Penalty: c.Penalty + o.Penalty, Duration: c.Duration + o.Duration}
}

// InfCost marks an infeasible candidate.
func InfCost() Cost {
	return Cost{Penalty: math.Inf(1), Duration: math.Inf(1)}
}

// IsInf reports whether the cost marks infeasibility.
func (c Cost) IsInf() bool {
	return math.IsInf(c.Penalty, 1)
}

// RoutePlan is one vehicle's ordered visit sequence with its evaluated
// schedule.
type RoutePlan struct {
	VehicleID int
	Order     []int // indices into Problem.Nodes
	Schedule  Schedule
}

// Solution is a full plan for one tick. Unassigned lists nodes that no
// capacity-feasible route could take; they stay in the ready pool.
type Solution struct {
	Plans      []RoutePlan
	Unassigned []int
}

// Cost sums the per-route costs.
func (s *Solution) Cost() Cost {
	var total Cost
	for _, pl := range s.Plans {
		total = total.Add(pl.Schedule.Cost)
	}
	return total
}

// Assigned counts nodes placed on some route.
func (s *Solution) Assigned() int {
	total := 0
	for _, pl := range s.Plans {
		total += len(pl.Order)
	}
	return total
}
