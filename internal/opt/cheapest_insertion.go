package opt

// CheapestInsertion sequences one capacity-feasible cluster. The route seeds
// with the node nearest the depot, then repeatedly inserts the (node,
// position) pair whose travel-time delta is smallest. Ties resolve by lowest
// node id, then highest position (a tied stop is appended after the route
// built so far rather than put in front of it), so the construction is
// deterministic.
func CheapestInsertion(p *Problem, group []int) []int {
	if len(group) == 0 {
		return nil
	}
	seed := group[0]
	for _, idx := range group[1:] {
		ds, di := p.depotDistance(seed), p.depotDistance(idx)
		if di < ds || (di == ds && p.Nodes[idx].ID < p.Nodes[seed].ID) {
			seed = idx
		}
	}
	route := []int{seed}
	pending := make([]int, 0, len(group)-1)
	for _, idx := range group {
		if idx != seed {
			pending = append(pending, idx)
		}
	}

	for len(pending) > 0 {
		bestDelta := 0.0
		bestNode := -1
		bestAt := -1
		bestPending := -1
		for pi, idx := range pending {
			for pos := 0; pos <= len(route); pos++ {
				prev, next := depot, depot
				if pos > 0 {
					prev = route[pos-1]
				}
				if pos < len(route) {
					next = route[pos]
				}
				delta := p.leg(prev, idx) + p.leg(idx, next) - p.leg(prev, next)
				if bestNode < 0 || delta < bestDelta ||
					(delta == bestDelta && betterTie(p, idx, pos, bestNode, bestAt)) {
					bestDelta = delta
					bestNode = idx
					bestAt = pos
					bestPending = pi
				}
			}
		}
		route = append(route, 0)
		copy(route[bestAt+1:], route[bestAt:])
		route[bestAt] = bestNode
		pending = append(pending[:bestPending], pending[bestPending+1:]...)
	}
	return route
}

func betterTie(p *Problem, node, pos, curNode, curPos int) bool {
	a, b := p.Nodes[node].ID, p.Nodes[curNode].ID
	if a != b {
		return a < b
	}
	return pos > curPos
}
