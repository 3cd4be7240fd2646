package opt

// Local-search refinement shared by the BRKGA router. Every operator loops
// to a fixpoint and accepts a move only on strict lexicographic improvement,
// so the refined cost can never exceed the incoming cost.

// TwoOpt reverses sub-segments while any reversal improves the schedule.
func TwoOpt(seq []int, eval func([]int) Schedule) ([]int, Schedule) {
	best := append([]int(nil), seq...)
	bestSched := eval(best)
	improved := true
	for improved {
		improved = false
		n := len(best)
		for i := 0; i < n-1 && !improved; i++ {
			for j := i + 1; j < n; j++ {
				cand := append([]int(nil), best...)
				reverse(cand[i : j+1])
				if s := eval(cand); s.Cost.Less(bestSched.Cost) {
					best, bestSched = cand, s
					improved = true
					break
				}
			}
		}
	}
	return best, bestSched
}

// OrOpt relocates contiguous blocks of length 1..k.
func OrOpt(seq []int, k int, eval func([]int) Schedule) ([]int, Schedule) {
	best := append([]int(nil), seq...)
	bestSched := eval(best)
	improved := true
	for improved {
		improved = false
		n := len(best)
		for size := 1; size <= k && !improved; size++ {
			for i := 0; i+size <= n && !improved; i++ {
				rest := make([]int, 0, n-size)
				rest = append(rest, best[:i]...)
				rest = append(rest, best[i+size:]...)
				block := append([]int(nil), best[i:i+size]...)
				for j := 0; j <= len(rest); j++ {
					if j == i {
						continue
					}
					cand := make([]int, 0, n)
					cand = append(cand, rest[:j]...)
					cand = append(cand, block...)
					cand = append(cand, rest[j:]...)
					if s := eval(cand); s.Cost.Less(bestSched.Cost) {
						best, bestSched = cand, s
						improved = true
						break
					}
				}
			}
		}
	}
	return best, bestSched
}

// Relocate moves single stops to any other position.
func Relocate(seq []int, eval func([]int) Schedule) ([]int, Schedule) {
	best := append([]int(nil), seq...)
	bestSched := eval(best)
	improved := true
	for improved {
		improved = false
		n := len(best)
		for i := 0; i < n && !improved; i++ {
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				cand := append([]int(nil), best...)
				node := cand[i]
				cand = append(cand[:i], cand[i+1:]...)
				cand = append(cand[:j], append([]int{node}, cand[j:]...)...)
				if s := eval(cand); s.Cost.Less(bestSched.Cost) {
					best, bestSched = cand, s
					improved = true
					break
				}
			}
		}
	}
	return best, bestSched
}

func reverse(s []int) {
	for a, b := 0, len(s)-1; a < b; a, b = a+1, b-1 {
		s[a], s[b] = s[b], s[a]
	}
}
