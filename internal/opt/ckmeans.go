package opt

import (
	"context"
	"log"
	"math/rand"
	"sort"
)

// CKMeansParams tunes the capacitated K-Means loop.
type CKMeansParams struct {
	MaxIters int
	Tol      float64
	Seed     int64
}

func (c CKMeansParams) withDefaults() CKMeansParams {
	if c.MaxIters <= 0 {
		c.MaxIters = 50
	}
	if c.Tol <= 0 {
		c.Tol = 1e-4
	}
	return c
}

// CKMeans partitions the nodes into per-vehicle clusters by iterating
// {assign-by-MIP, update-centroids} until the centroids stabilize. The
// assignment step minimizes summed point-centroid distance subject to the
// per-vehicle capacities; a branch-and-bound solver handles the binary
// program and a sorted first-fit takes over when it times out.
//
// When weighted demand exceeds total fleet capacity the farthest nodes are
// set aside first and reported unassigned, so the returned partition is
// always capacity-feasible.
func CKMeans(ctx context.Context, p *Problem, params CKMeansParams) (groups [][]int, unassigned []int, err error) {
	params = params.withDefaults()
	groups = make([][]int, len(p.Vehicles))
	kept, unassigned := trimToCapacity(p)
	if len(kept) == 0 {
		return groups, unassigned, nil
	}
	k := len(p.Vehicles)
	if k > len(kept) {
		k = len(kept)
	}
	caps := make([]int, k)
	for i := 0; i < k; i++ {
		caps[i] = p.Vehicles[i].Capacity
	}

	rng := rand.New(rand.NewSource(params.Seed))
	centers := p.seedCentersPlusPlus(kept, k, rng)
	var assign []int
	for iter := 0; iter < params.MaxIters; iter++ {
		if iter > 0 && ctx.Err() != nil {
			// soft deadline: keep the last completed iteration's partition
			break
		}
		dist := p.centerDistances(kept, centers)
		assign, err = solveAssignment(ctx, dist, nodeSizes(p, kept), caps)
		recordAssignment(err != nil)
		if err != nil {
			// Solver trouble is recovered locally: a sorted first-fit
			// keeps the iteration moving.
			log.Printf("ckmeans: assignment solver failed (%v); using first-fit", err)
			assign = firstFitAssignment(p, kept, dist, caps)
		}
		next := p.updateCenters(kept, assign, centers)
		shift := 0.0
		for j := range centers {
			if d := euclid(next[j][0], next[j][1], centers[j][0], centers[j][1]); d > shift {
				shift = d
			}
		}
		centers = next
		if shift < params.Tol {
			break
		}
	}
	for i, idx := range kept {
		j := assign[i]
		if j < 0 {
			unassigned = append(unassigned, idx)
			continue
		}
		groups[j] = append(groups[j], idx)
	}
	sort.Ints(unassigned)
	return groups, unassigned, nil
}

// trimToCapacity keeps the closest-to-depot nodes whose summed size fits the
// fleet; the overflow stays in the ready pool for a later tick.
func trimToCapacity(p *Problem) (kept, dropped []int) {
	order := make([]int, len(p.Nodes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := p.depotDistance(order[a]), p.depotDistance(order[b])
		if da != db {
			return da < db
		}
		return p.Nodes[order[a]].ID < p.Nodes[order[b]].ID
	})
	budget := p.TotalCapacity()
	for _, idx := range order {
		if p.Nodes[idx].Size <= budget {
			kept = append(kept, idx)
			budget -= p.Nodes[idx].Size
		} else {
			dropped = append(dropped, idx)
		}
	}
	sort.Ints(kept)
	return kept, dropped
}

// seedCentersPlusPlus runs K-Means++ over the raw coordinates, ignoring
// capacities.
func (p *Problem) seedCentersPlusPlus(nodes []int, k int, rng *rand.Rand) [][2]float64 {
	centers := make([][2]float64, 0, k)
	first := nodes[rng.Intn(len(nodes))]
	centers = append(centers, [2]float64{p.Nodes[first].Lat, p.Nodes[first].Lng})
	d2 := make([]float64, len(nodes))
	for len(centers) < k {
		total := 0.0
		for i, idx := range nodes {
			best := -1.0
			for _, c := range centers {
				d := euclid(p.Nodes[idx].Lat, p.Nodes[idx].Lng, c[0], c[1])
				if best < 0 || d < best {
					best = d
				}
			}
			d2[i] = best * best
			total += d2[i]
		}
		if total == 0 {
			// all remaining points coincide with a center
			centers = append(centers, centers[len(centers)-1])
			continue
		}
		r := rng.Float64() * total
		acc := 0.0
		pick := nodes[len(nodes)-1]
		for i, idx := range nodes {
			acc += d2[i]
			if r <= acc {
				pick = idx
				break
			}
		}
		centers = append(centers, [2]float64{p.Nodes[pick].Lat, p.Nodes[pick].Lng})
	}
	return centers
}

func (p *Problem) centerDistances(nodes []int, centers [][2]float64) [][]float64 {
	dist := make([][]float64, len(nodes))
	for i, idx := range nodes {
		dist[i] = make([]float64, len(centers))
		for j, c := range centers {
			dist[i][j] = euclid(p.Nodes[idx].Lat, p.Nodes[idx].Lng, c[0], c[1])
		}
	}
	return dist
}

// updateCenters recomputes each centroid as the size-weighted mean of its
// members. Empty clusters keep their previous centroid.
func (p *Problem) updateCenters(nodes []int, assign []int, prev [][2]float64) [][2]float64 {
	next := make([][2]float64, len(prev))
	copy(next, prev)
	sumLat := make([]float64, len(prev))
	sumLng := make([]float64, len(prev))
	weight := make([]float64, len(prev))
	for i, idx := range nodes {
		j := assign[i]
		if j < 0 {
			continue
		}
		w := float64(p.Nodes[idx].Size)
		sumLat[j] += w * p.Nodes[idx].Lat
		sumLng[j] += w * p.Nodes[idx].Lng
		weight[j] += w
	}
	for j := range next {
		if weight[j] > 0 {
			next[j] = [2]float64{sumLat[j] / weight[j], sumLng[j] / weight[j]}
		}
	}
	return next
}

func nodeSizes(p *Problem, nodes []int) []int {
	sizes := make([]int, len(nodes))
	for i, idx := range nodes {
		sizes[i] = p.Nodes[idx].Size
	}
	return sizes
}

// firstFitAssignment is the solver fallback: nodes in descending size order
// take the nearest cluster with room.
func firstFitAssignment(p *Problem, nodes []int, dist [][]float64, caps []int) []int {
	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := p.Nodes[nodes[order[a]]].Size, p.Nodes[nodes[order[b]]].Size
		if sa != sb {
			return sa > sb
		}
		return p.Nodes[nodes[order[a]]].ID < p.Nodes[nodes[order[b]]].ID
	})
	remaining := append([]int(nil), caps...)
	assign := make([]int, len(nodes))
	for i := range assign {
		assign[i] = -1
	}
	for _, i := range order {
		best := -1
		for j := range caps {
			if remaining[j] < p.Nodes[nodes[i]].Size {
				continue
			}
			if best < 0 || dist[i][j] < dist[i][best] {
				best = j
			}
		}
		if best >= 0 {
			assign[i] = best
			remaining[best] -= p.Nodes[nodes[i]].Size
		}
	}
	return assign
}
