package opt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shuffled(n int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	seq := make([]int, n)
	for i := range seq {
		seq[i] = i
	}
	rng.Shuffle(n, func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	return seq
}

func TestTwoOptUncrossesLine(t *testing.T) {
	p := lineProblem(5, 10)
	for i := range p.Nodes {
		p.Nodes[i].DueMin = float64(i + 1)
	}
	eval := func(s []int) Schedule { return p.Evaluate(s, 0) }

	// reversing the whole route is a single 2-opt move and the only way to
	// meet the deadlines
	seq, sched := TwoOpt([]int{4, 3, 2, 1, 0}, eval)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seq)
	assert.Equal(t, 0.0, sched.Cost.Penalty)
	assert.Equal(t, 10.0, sched.Cost.Duration)
}

func TestLocalSearchNeverWorsens(t *testing.T) {
	p := lineProblem(7, 10)
	for i := range p.Nodes {
		p.Nodes[i].DueMin = float64(2 * (i + 1))
	}
	eval := func(s []int) Schedule { return p.Evaluate(s, 0) }

	for seed := int64(0); seed < 10; seed++ {
		start := shuffled(7, seed)
		before := eval(start).Cost

		seq, sched := TwoOpt(start, eval)
		require.False(t, before.Less(sched.Cost), "2-opt worsened seed %d", seed)
		seq, sched = OrOpt(seq, 3, eval)
		require.False(t, before.Less(sched.Cost), "or-opt worsened seed %d", seed)
		_, sched = Relocate(seq, eval)
		require.False(t, before.Less(sched.Cost), "relocate worsened seed %d", seed)
	}
}

func TestRelocatePullsUrgentStopForward(t *testing.T) {
	p := lineProblem(3, 10)
	// the farthest stop has the tightest deadline; serving it first is the
	// only way to avoid penalty
	p.Nodes[0].DueMin = 100
	p.Nodes[1].DueMin = 100
	p.Nodes[2].DueMin = 3
	p.Nodes[0].ServiceMin = 1
	p.Nodes[1].ServiceMin = 1
	eval := func(s []int) Schedule { return p.Evaluate(s, 0) }

	seq, sched := Relocate([]int{1, 0, 2}, eval)
	assert.Equal(t, 2, seq[0])
	assert.Equal(t, 0.0, sched.Cost.Penalty)
}

func TestOrOptMovesBlocks(t *testing.T) {
	p := lineProblem(6, 10)
	eval := func(s []int) Schedule { return p.Evaluate(s, 0) }

	seq, sched := OrOpt([]int{3, 4, 5, 0, 1, 2}, 3, eval)
	best := eval([]int{0, 1, 2, 3, 4, 5}).Cost
	assert.False(t, best.Less(sched.Cost))
	assert.Len(t, seq, 6)
}
