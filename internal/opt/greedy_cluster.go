package opt

import (
	"math"
	"sort"
)

// SequentialClusters assigns nodes to vehicles first-fit, visiting nodes in
// decreasing depot-distance order and vehicles in input order. Nodes that fit
// nowhere are returned unassigned and stay in the ready pool.
func SequentialClusters(p *Problem) (groups [][]int, unassigned []int) {
	groups = make([][]int, len(p.Vehicles))
	order := make([]int, len(p.Nodes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := p.depotDistance(order[a]), p.depotDistance(order[b])
		if da != db {
			return da > db
		}
		return p.Nodes[order[a]].ID < p.Nodes[order[b]].ID
	})
	remaining := make([]int, len(p.Vehicles))
	for vi, v := range p.Vehicles {
		remaining[vi] = v.Capacity
	}
	for _, idx := range order {
		placed := false
		for vi := range p.Vehicles {
			if remaining[vi] >= p.Nodes[idx].Size {
				groups[vi] = append(groups[vi], idx)
				remaining[vi] -= p.Nodes[idx].Size
				placed = true
				break
			}
		}
		if !placed {
			unassigned = append(unassigned, idx)
		}
	}
	sort.Ints(unassigned)
	return groups, unassigned
}

// depotDistance is the planar coordinate distance from the depot implied by
// the travel matrix: travel time is proportional to distance, so the matrix
// itself is a valid distance surrogate.
func (p *Problem) depotDistance(idx int) float64 {
	return p.leg(depot, idx)
}

func euclid(ax, ay, bx, by float64) float64 {
	dx, dy := ax-bx, ay-by
	return math.Sqrt(dx*dx + dy*dy)
}
