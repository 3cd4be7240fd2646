package opt

import (
	"context"
	"sort"
)

// GreedyInsertion fuses clustering and sequencing: every iteration scans all
// (node, vehicle, position) triples and commits the one whose evaluated cost
// delta is smallest. Ties break by node id, then vehicle id, then position.
// Construction stops when nothing feasible remains, so a partial plan on a
// tight fleet is still capacity-clean.
func GreedyInsertion(ctx context.Context, p *Problem, t0 float64) Solution {
	routes := make([][]int, len(p.Vehicles))
	costs := make([]Cost, len(p.Vehicles))
	remaining := make([]int, len(p.Vehicles))
	for vi, v := range p.Vehicles {
		remaining[vi] = v.Capacity
	}
	pending := map[int]bool{}
	for i := range p.Nodes {
		pending[i] = true
	}
	vorder := make([]int, len(p.Vehicles))
	for i := range vorder {
		vorder[i] = i
	}
	sort.SliceStable(vorder, func(a, b int) bool { return p.Vehicles[vorder[a]].ID < p.Vehicles[vorder[b]].ID })

	for len(pending) > 0 {
		if ctx.Err() != nil {
			break
		}
		type insertion struct {
			node, vehicle, pos int
			delta              Cost
			sched              Schedule
		}
		var best *insertion
		for _, node := range orderedKeys(p, pending) {
			for _, vi := range vorder {
				if remaining[vi] < p.Nodes[node].Size {
					continue
				}
				route := routes[vi]
				for pos := 0; pos <= len(route); pos++ {
					cand := make([]int, 0, len(route)+1)
					cand = append(cand, route[:pos]...)
					cand = append(cand, node)
					cand = append(cand, route[pos:]...)
					sched := p.Evaluate(cand, t0)
					delta := Cost{
						Penalty:  sched.Cost.Penalty - costs[vi].Penalty,
						Duration: sched.Cost.Duration - costs[vi].Duration,
					}
					if best == nil || delta.Less(best.delta) {
						best = &insertion{node: node, vehicle: vi, pos: pos, delta: delta, sched: sched}
					}
				}
			}
		}
		if best == nil {
			break
		}
		route := routes[best.vehicle]
		route = append(route, 0)
		copy(route[best.pos+1:], route[best.pos:])
		route[best.pos] = best.node
		routes[best.vehicle] = route
		costs[best.vehicle] = best.sched.Cost
		remaining[best.vehicle] -= p.Nodes[best.node].Size
		delete(pending, best.node)
	}

	sol := Solution{}
	for vi, route := range routes {
		if len(route) == 0 {
			continue
		}
		sol.Plans = append(sol.Plans, RoutePlan{
			VehicleID: p.Vehicles[vi].ID,
			Order:     route,
			Schedule:  p.Evaluate(route, t0),
		})
	}
	for node := range pending {
		sol.Unassigned = append(sol.Unassigned, node)
	}
	sort.Ints(sol.Unassigned)
	return sol
}

// orderedKeys walks the pending set in delivery-id order. Scanning nodes,
// vehicles and positions in ascending order makes the strict-improvement
// comparison double as the tie-break.
func orderedKeys(p *Problem, pending map[int]bool) []int {
	keys := make([]int, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return p.Nodes[keys[a]].ID < p.Nodes[keys[b]].ID })
	return keys
}
