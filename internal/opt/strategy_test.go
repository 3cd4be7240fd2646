package opt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlannerRejectsUnknownTags(t *testing.T) {
	cases := []StrategyConfig{
		{Kind: "nope"},
		{Kind: KindTwoStage, Clustering: "nope", Routing: RouteBRKGA},
		{Kind: KindTwoStage, Clustering: ClusterCKMeans, Routing: "nope"},
		{Kind: KindHybrid, Hybrid: "nope"},
	}
	for _, cfg := range cases {
		_, err := NewPlanner(cfg)
		assert.Error(t, err, "%+v", cfg)
	}
}

func TestTwoStagePlannersAgreeOnLine(t *testing.T) {
	// A monotone line with aligned deadlines: every strategy must walk it
	// outward with zero penalty.
	for _, routing := range []string{RouteBRKGA, RouteInsertion} {
		for _, clustering := range []string{ClusterCKMeans, ClusterGreedy} {
			planner, err := NewPlanner(StrategyConfig{
				Kind:       KindTwoStage,
				Clustering: clustering,
				Routing:    routing,
				BRKGA:      BRKGAParams{Seed: 1},
				CKMeans:    CKMeansParams{Seed: 1},
			})
			require.NoError(t, err)

			p := lineProblem(4, 10)
			for i := range p.Nodes {
				p.Nodes[i].DueMin = float64(i + 1)
			}
			sol, err := planner(context.Background(), p, 0)
			require.NoError(t, err)
			require.Len(t, sol.Plans, 1, "%s/%s", clustering, routing)
			assert.Equal(t, []int{0, 1, 2, 3}, sol.Plans[0].Order, "%s/%s", clustering, routing)
			assert.Equal(t, 0.0, sol.Plans[0].Schedule.Cost.Penalty)
			assert.Equal(t, 8.0, sol.Plans[0].Schedule.Cost.Duration)
		}
	}
}

func TestHybridPlannersCoverAllNodes(t *testing.T) {
	for _, hybrid := range []string{HybridGreedy, HybridBRKGA} {
		planner, err := NewPlanner(StrategyConfig{
			Kind:   KindHybrid,
			Hybrid: hybrid,
			BRKGA:  BRKGAParams{Seed: 2},
		})
		require.NoError(t, err)

		p := lineProblem(6, 3, 3)
		sol, err := planner(context.Background(), p, 0)
		require.NoError(t, err)
		assert.Equal(t, 6, sol.Assigned(), hybrid)
		assert.Empty(t, sol.Unassigned, hybrid)
	}
}

// Plans from every strategy keep each delivery on at most one route.
func TestAssignmentUniqueness(t *testing.T) {
	configs := []StrategyConfig{
		{Kind: KindTwoStage, Clustering: ClusterCKMeans, Routing: RouteInsertion, CKMeans: CKMeansParams{Seed: 4}},
		{Kind: KindTwoStage, Clustering: ClusterGreedy, Routing: RouteBRKGA, BRKGA: BRKGAParams{Seed: 4}},
		{Kind: KindHybrid, Hybrid: HybridGreedy},
		{Kind: KindHybrid, Hybrid: HybridBRKGA, BRKGA: BRKGAParams{Seed: 4}},
	}
	for _, cfg := range configs {
		planner, err := NewPlanner(cfg)
		require.NoError(t, err)
		p := lineProblem(8, 3, 3, 3)
		sol, err := planner(context.Background(), p, 0)
		require.NoError(t, err)

		seen := map[int]bool{}
		for _, pl := range sol.Plans {
			load := 0
			for _, idx := range pl.Order {
				assert.False(t, seen[idx], "node %d twice (%+v)", idx, cfg)
				seen[idx] = true
				load += p.Nodes[idx].Size
			}
			assert.LessOrEqual(t, load, 3)
		}
	}
}
