package opt

import (
	"context"
	"errors"
	"sort"
)

// ErrSolver is returned when the assignment solver cannot produce a proven
// optimum within its budget. Callers recover with the first-fit fallback.
var ErrSolver = errors.New("assignment solver failed")

const bbNodeBudget = 2_000_000

// solveAssignment solves the capacitated assignment program
//
//	min  sum dist[i][j] * x[i][j]
//	s.t. sum_j x[i][j] = 1          for every point i
//	     sum_i size[i] * x[i][j] <= cap[j]  for every cluster j
//	     x binary
//
// by depth-first branch-and-bound. The model is small (|points|*|clusters|
// binaries), so an explicit search with an additive lower bound closes it
// quickly; no external solver is required.
func solveAssignment(ctx context.Context, dist [][]float64, sizes []int, caps []int) ([]int, error) {
	m := len(dist)
	if m == 0 {
		return nil, nil
	}
	k := len(caps)

	// Branch on points in descending size order: tight items first shrinks
	// the tree. Ties break on the original index so the search is
	// deterministic.
	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if sizes[order[a]] != sizes[order[b]] {
			return sizes[order[a]] > sizes[order[b]]
		}
		return order[a] < order[b]
	})

	// Additive bound: the cheapest center for every still-unassigned point,
	// capacities ignored. Admissible, cheap to maintain as a suffix sum.
	minDist := make([]float64, m)
	for i := 0; i < m; i++ {
		best := dist[i][0]
		for j := 1; j < k; j++ {
			if dist[i][j] < best {
				best = dist[i][j]
			}
		}
		minDist[i] = best
	}
	suffix := make([]float64, m+1)
	for s := m - 1; s >= 0; s-- {
		suffix[s] = suffix[s+1] + minDist[order[s]]
	}

	// Candidate centers per point, nearest first; equal distances keep the
	// lower cluster index so symmetric instances stay deterministic.
	ranked := make([][]int, m)
	for i := 0; i < m; i++ {
		ranked[i] = make([]int, k)
		for j := range ranked[i] {
			ranked[i][j] = j
		}
		di := dist[i]
		sort.SliceStable(ranked[i], func(a, b int) bool {
			return di[ranked[i][a]] < di[ranked[i][b]]
		})
	}

	remaining := append([]int(nil), caps...)
	assign := make([]int, m)
	best := make([]int, m)
	for i := range assign {
		assign[i] = -1
		best[i] = -1
	}
	bestCost := -1.0
	visited := 0

	var dfs func(step int, cost float64) error
	dfs = func(step int, cost float64) error {
		visited++
		if visited&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if visited > bbNodeBudget {
				return ErrSolver
			}
		}
		if step == m {
			if bestCost < 0 || cost < bestCost {
				bestCost = cost
				copy(best, assign)
			}
			return nil
		}
		if bestCost >= 0 && cost+suffix[step] >= bestCost {
			return nil
		}
		i := order[step]
		for _, j := range ranked[i] {
			if remaining[j] < sizes[i] {
				continue
			}
			remaining[j] -= sizes[i]
			assign[i] = j
			err := dfs(step+1, cost+dist[i][j])
			assign[i] = -1
			remaining[j] += sizes[i]
			if err != nil {
				return err
			}
		}
		return nil
	}
	if err := dfs(0, 0); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrSolver
		}
		return nil, err
	}
	if bestCost < 0 {
		return nil, ErrSolver
	}
	return best, nil
}
