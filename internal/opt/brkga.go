package opt

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"sync"
)

// BRKGAParams tunes the biased random-key genetic algorithm. Zero values
// fall back to the defaults below.
type BRKGAParams struct {
	Pop     int     // population size
	Elite   float64 // elite fraction carried over verbatim
	Mutant  float64 // fraction replaced with fresh random keys
	Bias    float64 // probability a child key comes from the elite parent
	Gens    int     // generation cap
	Stall   int     // stop after this many generations without improvement
	Seed    int64
	Workers int // decoder parallelism; <=1 means sequential
}

func (b BRKGAParams) withDefaults() BRKGAParams {
	if b.Pop <= 0 {
		b.Pop = 100
	}
	if b.Elite <= 0 {
		b.Elite = 0.2
	}
	if b.Mutant <= 0 {
		b.Mutant = 0.15
	}
	if b.Bias <= 0 {
		b.Bias = 0.7
	}
	if b.Gens <= 0 {
		b.Gens = 100
	}
	if b.Stall <= 0 {
		b.Stall = 20
	}
	if b.Workers == 0 {
		b.Workers = runtime.GOMAXPROCS(0)
	}
	return b
}

// runBRKGA evolves a population of real-keyed chromosomes against a pure
// fitness function and returns the best keys seen. A caller-supplied seed
// reproduces the run exactly: all randomness flows through one source, and
// parallel decoding cannot reorder anything because the population is
// re-sorted by (cost, index) before selection.
func runBRKGA(ctx context.Context, n int, params BRKGAParams, fitness func(keys []float64) Cost) []float64 {
	params = params.withDefaults()
	rng := rand.New(rand.NewSource(params.Seed))

	pop := make([][]float64, params.Pop)
	for i := range pop {
		pop[i] = randomKeys(rng, n)
	}
	eliteN := maxInt(1, int(float64(params.Pop)*params.Elite))
	mutantN := maxInt(1, int(float64(params.Pop)*params.Mutant))

	costs := evaluatePopulation(pop, fitness, params.Workers)
	orderByCost(pop, costs)
	best := append([]float64(nil), pop[0]...)
	bestCost := costs[0]

	stall := 0
	for gen := 0; gen < params.Gens; gen++ {
		if ctx.Err() != nil {
			break
		}
		next := make([][]float64, 0, params.Pop)
		next = append(next, pop[:eliteN]...)
		for len(next) < params.Pop-mutantN {
			pe := pop[rng.Intn(eliteN)]
			var po []float64
			if params.Pop > eliteN {
				po = pop[eliteN+rng.Intn(params.Pop-eliteN)]
			} else {
				po = randomKeys(rng, n)
			}
			child := make([]float64, n)
			for i := range child {
				if rng.Float64() < params.Bias {
					child[i] = pe[i]
				} else {
					child[i] = po[i]
				}
			}
			next = append(next, child)
		}
		for len(next) < params.Pop {
			next = append(next, randomKeys(rng, n))
		}
		pop = next
		costs = evaluatePopulation(pop, fitness, params.Workers)
		orderByCost(pop, costs)
		if costs[0].Less(bestCost) {
			bestCost = costs[0]
			best = append(best[:0], pop[0]...)
			stall = 0
		} else {
			stall++
			if stall >= params.Stall {
				break
			}
		}
	}
	return best
}

func randomKeys(rng *rand.Rand, n int) []float64 {
	keys := make([]float64, n)
	for i := range keys {
		keys[i] = rng.Float64()
	}
	return keys
}

func evaluatePopulation(pop [][]float64, fitness func([]float64) Cost, workers int) []Cost {
	costs := make([]Cost, len(pop))
	if workers <= 1 || len(pop) < 2*workers {
		for i, keys := range pop {
			costs[i] = fitness(keys)
		}
		return costs
	}
	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				costs[i] = fitness(pop[i])
			}
		}()
	}
	for i := range pop {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return costs
}

// orderByCost sorts the population in place by (cost, original index) so the
// final order is identical whether decoding ran sequentially or on a pool.
func orderByCost(pop [][]float64, costs []Cost) {
	idx := make([]int, len(pop))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return costs[idx[a]].Less(costs[idx[b]])
	})
	sortedPop := make([][]float64, len(pop))
	sortedCosts := make([]Cost, len(costs))
	for i, j := range idx {
		sortedPop[i] = pop[j]
		sortedCosts[i] = costs[j]
	}
	copy(pop, sortedPop)
	copy(costs, sortedCosts)
}

// DecodeKeys sorts a node group by ascending key into a visit sequence. Key
// ties keep group order, which is fixed, so decoding is deterministic.
func DecodeKeys(keys []float64, group []int) []int {
	idx := make([]int, len(group))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })
	seq := make([]int, len(group))
	for i, j := range idx {
		seq[i] = group[j]
	}
	return seq
}

// BRKGARoute sequences one capacity-feasible cluster with the evolutionary
// search, then polishes the best sequence with 2-opt, Or-opt and relocate.
func BRKGARoute(ctx context.Context, p *Problem, group []int, t0 float64, params BRKGAParams) ([]int, Schedule) {
	switch len(group) {
	case 0:
		return nil, Schedule{Start: t0}
	case 1:
		seq := []int{group[0]}
		return seq, p.Evaluate(seq, t0)
	}
	keys := runBRKGA(ctx, len(group), params, func(keys []float64) Cost {
		return p.Evaluate(DecodeKeys(keys, group), t0).Cost
	})
	seq := DecodeKeys(keys, group)
	eval := func(s []int) Schedule { return p.Evaluate(s, t0) }
	seq, sched := TwoOpt(seq, eval)
	seq, sched = OrOpt(seq, 3, eval)
	seq, sched = Relocate(seq, eval)
	return seq, sched
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
