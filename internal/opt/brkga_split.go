package opt

import (
	"context"
	"sort"
)

// splitResult carries the DP's decision for one giant tour.
type splitResult struct {
	cost     Cost
	segments [][]int // per used vehicle, in fleet input order
}

// splitGiantTour optimally cuts a giant tour into at most M contiguous
// sub-tours, one per vehicle in fixed input order. f[j][i] is the cheapest
// way to cover the first i tour positions with exactly j vehicles, each
// segment respecting its vehicle's capacity. The per-segment cost comes from
// the shared evaluator with t0 as departure, accumulated with a rolling
// travel scan; a prefix-sum of sizes prunes infeasible splits in O(1).
func (p *Problem) splitGiantTour(tour []int, t0 float64) splitResult {
	n := len(tour)
	m := len(p.Vehicles)
	if n == 0 {
		return splitResult{}
	}

	loadPrefix := make([]int, n+1)
	for i, idx := range tour {
		loadPrefix[i+1] = loadPrefix[i] + p.Nodes[idx].Size
	}

	// segCost[a][e]: evaluator cost of the segment tour[a..e]. Built once;
	// the DP below only indexes it. Vehicle-independent because routes share
	// the depot and the clock.
	segCost := make([][]Cost, n)
	for a := 0; a < n; a++ {
		segCost[a] = make([]Cost, n)
		start := t0
		t := 0.0
		penalty := 0.0
		for e := a; e < n; e++ {
			idx := tour[e]
			if p.Nodes[idx].ReadyMin > start {
				// A later-ready order shifts the whole departure; recompute
				// the prefix under the new start.
				s := p.Evaluate(tour[a:e+1], t0)
				start = s.Start
				segCost[a][e] = s.Cost
				t = s.Arrivals[len(s.Arrivals)-1] + p.Nodes[idx].ServiceMin
				penalty = s.Cost.Penalty
				continue
			}
			if e == a {
				t = start + p.leg(depot, idx)
			} else {
				t += p.leg(tour[e-1], idx)
			}
			if late := t - p.Nodes[idx].DueMin; late > 0 {
				penalty += late
			}
			t += p.Nodes[idx].ServiceMin
			segCost[a][e] = Cost{
				Penalty:  penalty,
				Duration: t + p.leg(idx, depot) - start,
			}
		}
	}

	const unset = -2
	f := make([][]Cost, m+1)
	cut := make([][]int, m+1)
	for j := 0; j <= m; j++ {
		f[j] = make([]Cost, n+1)
		cut[j] = make([]int, n+1)
		for i := 0; i <= n; i++ {
			f[j][i] = InfCost()
			cut[j][i] = unset
		}
	}
	f[0][0] = Cost{}
	for j := 1; j <= m; j++ {
		capJ := p.Vehicles[j-1].Capacity
		f[j][0] = f[j-1][0] // unused vehicle, nothing covered yet
		cut[j][0] = 0
		for i := 1; i <= n; i++ {
			for a := i; a >= 1; a-- {
				if loadPrefix[i]-loadPrefix[a-1] > capJ {
					break
				}
				if f[j-1][a-1].IsInf() {
					continue
				}
				cand := f[j-1][a-1].Add(segCost[a-1][i-1])
				if cand.Less(f[j][i]) {
					f[j][i] = cand
					cut[j][i] = a - 1
				}
			}
		}
	}

	bestJ := -1
	for j := 1; j <= m; j++ {
		if f[j][n].IsInf() {
			continue
		}
		if bestJ < 0 || f[j][n].Less(f[bestJ][n]) {
			bestJ = j
		}
	}
	if bestJ < 0 {
		return splitResult{cost: InfCost()}
	}

	segments := make([][]int, bestJ)
	i := n
	for j := bestJ; j >= 1; j-- {
		a := cut[j][i]
		segments[j-1] = append([]int(nil), tour[a:i]...)
		i = a
	}
	return splitResult{cost: f[bestJ][n], segments: segments}
}

// BRKGASplit runs the evolutionary search over a permutation of all ready
// nodes; the decoder is the optimal DP split above. A chromosome whose tour
// cannot be covered by the fleet scores infinite and dies out.
func BRKGASplit(ctx context.Context, p *Problem, t0 float64, params BRKGAParams) Solution {
	group := make([]int, len(p.Nodes))
	for i := range group {
		group[i] = i
	}
	if len(group) == 0 {
		return Solution{}
	}
	keys := runBRKGA(ctx, len(group), params, func(keys []float64) Cost {
		return p.splitGiantTour(DecodeKeys(keys, group), t0).cost
	})
	res := p.splitGiantTour(DecodeKeys(keys, group), t0)
	if res.cost.IsInf() {
		all := append([]int(nil), group...)
		sort.Ints(all)
		return Solution{Unassigned: all}
	}
	sol := Solution{}
	for vi, seg := range res.segments {
		if len(seg) == 0 {
			continue
		}
		sol.Plans = append(sol.Plans, RoutePlan{
			VehicleID: p.Vehicles[vi].ID,
			Order:     seg,
			Schedule:  p.Evaluate(seg, t0),
		})
	}
	return sol
}
