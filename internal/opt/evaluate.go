package opt

// Schedule is the result of evaluating one visit sequence: departure minute,
// per-stop arrivals and lateness, and the lexicographic cost.
type Schedule struct {
	Cost     Cost
	Start    float64
	Arrivals []float64
	Lateness []float64
}

// Evaluate walks a visit sequence departing the depot at t0 and returns the
// schedule. A route never leaves before its latest order finishes
// preparation, so the start is clamped to the max ready minute of the
// sequence. Deterministic and pure: this is the single cost function every
// optimizer uses.
func (p *Problem) Evaluate(seq []int, t0 float64) Schedule {
	if len(seq) == 0 {
		return Schedule{Start: t0}
	}
	start := t0
	for _, idx := range seq {
		if r := p.Nodes[idx].ReadyMin; r > start {
			start = r
		}
	}
	arrivals := make([]float64, len(seq))
	lateness := make([]float64, len(seq))
	penalty := 0.0
	t := start + p.leg(depot, seq[0])
	for i, idx := range seq {
		if i > 0 {
			t += p.leg(seq[i-1], idx)
		}
		arrivals[i] = t
		if late := t - p.Nodes[idx].DueMin; late > 0 {
			lateness[i] = late
			penalty += late
		}
		t += p.Nodes[idx].ServiceMin
	}
	t += p.leg(seq[len(seq)-1], depot)
	return Schedule{
		Cost:     Cost{Penalty: penalty, Duration: t - start},
		Start:    start,
		Arrivals: arrivals,
		Lateness: lateness,
	}
}

// Slack is the smallest margin by which an arrival precedes its deadline.
// Negative when the schedule is already late.
func (p *Problem) Slack(seq []int, s Schedule) float64 {
	slack := 0.0
	for i, idx := range seq {
		margin := p.Nodes[idx].DueMin - s.Arrivals[i]
		if i == 0 || margin < slack {
			slack = margin
		}
	}
	return slack
}
