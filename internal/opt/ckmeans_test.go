package opt

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobProblem builds two tight spatial groups around (0,0) and (10,10).
func blobProblem(perBlob int, capacities ...int) *Problem {
	n := 2 * perBlob
	nodes := make([]Node, n)
	for i := 0; i < perBlob; i++ {
		nodes[i] = Node{ID: string(rune('a' + i)), Lat: float64(i) * 0.1, Lng: 0, Size: 1, DueMin: 1e9}
		nodes[perBlob+i] = Node{ID: string(rune('n' + i)), Lat: 10 + float64(i)*0.1, Lng: 10, Size: 1, DueMin: 1e9}
	}
	travel := make([][]float64, n+1)
	for i := range travel {
		travel[i] = make([]float64, n+1)
	}
	coord := func(i int) (float64, float64) {
		if i == 0 {
			return 5, 5
		}
		return nodes[i-1].Lat, nodes[i-1].Lng
	}
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			xi, yi := coord(i)
			xj, yj := coord(j)
			travel[i][j] = euclid(xi, yi, xj, yj)
		}
	}
	vehicles := make([]Vehicle, len(capacities))
	for i, c := range capacities {
		vehicles[i] = Vehicle{ID: i + 1, Capacity: c}
	}
	return &Problem{Nodes: nodes, Vehicles: vehicles, Travel: travel}
}

func clusterLoad(p *Problem, group []int) int {
	load := 0
	for _, idx := range group {
		load += p.Nodes[idx].Size
	}
	return load
}

func TestCKMeansSeparatesBlobs(t *testing.T) {
	p := blobProblem(4, 4, 4)
	groups, unassigned, err := CKMeans(context.Background(), p, CKMeansParams{Seed: 1})
	require.NoError(t, err)
	require.Empty(t, unassigned)
	require.Len(t, groups, 2)

	for _, g := range groups {
		require.Len(t, g, 4)
		// every member sits in the same blob as the first
		left := p.Nodes[g[0]].Lat < 5
		for _, idx := range g {
			assert.Equal(t, left, p.Nodes[idx].Lat < 5)
		}
	}
}

func TestCKMeansRespectsCapacities(t *testing.T) {
	p := blobProblem(5, 3, 7)
	groups, unassigned, err := CKMeans(context.Background(), p, CKMeansParams{Seed: 2})
	require.NoError(t, err)
	assert.Empty(t, unassigned)
	for vi, g := range groups {
		assert.LessOrEqual(t, clusterLoad(p, g), p.Vehicles[vi].Capacity)
	}
	assert.Equal(t, 10, clusterLoad(p, groups[0])+clusterLoad(p, groups[1]))
}

func TestCKMeansPartialWhenOverCapacity(t *testing.T) {
	p := blobProblem(4, 3, 2) // 8 units of demand, 5 of capacity
	groups, unassigned, err := CKMeans(context.Background(), p, CKMeansParams{Seed: 3})
	require.NoError(t, err)
	assert.Len(t, unassigned, 3)
	total := 0
	for vi, g := range groups {
		load := clusterLoad(p, g)
		assert.LessOrEqual(t, load, p.Vehicles[vi].Capacity)
		total += load
	}
	assert.Equal(t, 5, total)
}

func TestCKMeansDeterministicForSeed(t *testing.T) {
	p := blobProblem(4, 5, 5)
	first, _, err := CKMeans(context.Background(), p, CKMeansParams{Seed: 11})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, _, err := CKMeans(context.Background(), p, CKMeansParams{Seed: 11})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// The branch-and-bound must match an exhaustive search on small instances.
func TestSolveAssignmentOptimal(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 20; trial++ {
		m, k := 6, 3
		dist := make([][]float64, m)
		sizes := make([]int, m)
		for i := range dist {
			dist[i] = make([]float64, k)
			for j := range dist[i] {
				dist[i][j] = rng.Float64() * 10
			}
			sizes[i] = 1 + rng.Intn(3)
		}
		caps := []int{6, 6, 6}

		assign, err := solveAssignment(context.Background(), dist, sizes, caps)
		require.NoError(t, err)
		got := 0.0
		loads := make([]int, k)
		for i, j := range assign {
			got += dist[i][j]
			loads[j] += sizes[i]
		}
		for j := range loads {
			require.LessOrEqual(t, loads[j], caps[j])
		}
		want := bruteForceAssignment(dist, sizes, caps)
		assert.InDelta(t, want, got, 1e-9, "trial %d", trial)
	}
}

func TestSolveAssignmentInfeasible(t *testing.T) {
	dist := [][]float64{{1, 2}, {1, 2}}
	_, err := solveAssignment(context.Background(), dist, []int{5, 5}, []int{4, 4})
	assert.ErrorIs(t, err, ErrSolver)
}

func bruteForceAssignment(dist [][]float64, sizes []int, caps []int) float64 {
	m, k := len(dist), len(caps)
	best := math.Inf(1)
	assign := make([]int, m)
	var rec func(i int, cost float64, loads []int)
	rec = func(i int, cost float64, loads []int) {
		if i == m {
			if cost < best {
				best = cost
			}
			return
		}
		for j := 0; j < k; j++ {
			if loads[j]+sizes[i] > caps[j] {
				continue
			}
			loads[j] += sizes[i]
			assign[i] = j
			rec(i+1, cost+dist[i][j], loads)
			loads[j] -= sizes[i]
		}
	}
	rec(0, 0, make([]int, k))
	return best
}
