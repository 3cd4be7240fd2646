package opt

import (
	"context"
	"fmt"
)

// Strategy tags understood by the selector.
const (
	KindTwoStage = "two_stage"
	KindHybrid   = "hybrid"

	ClusterCKMeans = "ckmeans"
	ClusterGreedy  = "greedy_sequential"

	RouteBRKGA     = "brkga"
	RouteInsertion = "cheapest_insertion"

	HybridGreedy = "greedy_insertion"
	HybridBRKGA  = "brkga_split"
)

// StrategyConfig selects and tunes the optimizer stack for a run. The
// two-stage and hybrid branches are mutually exclusive.
type StrategyConfig struct {
	Kind       string
	Clustering string
	Routing    string
	Hybrid     string
	BRKGA      BRKGAParams
	CKMeans    CKMeansParams
}

// Planner produces a full plan for one decision tick. now is the tick's
// clock in evaluator minutes (normally 0: the problem is tick-relative).
type Planner func(ctx context.Context, p *Problem, now float64) (Solution, error)

// NewPlanner builds the configured strategy once at startup. Unknown or
// inconsistent tags are configuration errors.
func NewPlanner(cfg StrategyConfig) (Planner, error) {
	switch cfg.Kind {
	case KindTwoStage:
		return newTwoStage(cfg)
	case KindHybrid:
		switch cfg.Hybrid {
		case HybridGreedy:
			return func(ctx context.Context, p *Problem, now float64) (Solution, error) {
				return GreedyInsertion(ctx, p, now), nil
			}, nil
		case HybridBRKGA:
			return func(ctx context.Context, p *Problem, now float64) (Solution, error) {
				return BRKGASplit(ctx, p, now, cfg.BRKGA), nil
			}, nil
		default:
			return nil, fmt.Errorf("unknown hybrid_algo %q", cfg.Hybrid)
		}
	default:
		return nil, fmt.Errorf("unknown strategy_kind %q", cfg.Kind)
	}
}

func newTwoStage(cfg StrategyConfig) (Planner, error) {
	var cluster func(ctx context.Context, p *Problem) ([][]int, []int, error)
	switch cfg.Clustering {
	case ClusterCKMeans:
		cluster = func(ctx context.Context, p *Problem) ([][]int, []int, error) {
			return CKMeans(ctx, p, cfg.CKMeans)
		}
	case ClusterGreedy:
		cluster = func(_ context.Context, p *Problem) ([][]int, []int, error) {
			groups, unassigned := SequentialClusters(p)
			return groups, unassigned, nil
		}
	default:
		return nil, fmt.Errorf("unknown clustering_algo %q", cfg.Clustering)
	}

	var route func(ctx context.Context, p *Problem, group []int, now float64) ([]int, Schedule)
	switch cfg.Routing {
	case RouteBRKGA:
		route = func(ctx context.Context, p *Problem, group []int, now float64) ([]int, Schedule) {
			return BRKGARoute(ctx, p, group, now, cfg.BRKGA)
		}
	case RouteInsertion:
		route = func(_ context.Context, p *Problem, group []int, now float64) ([]int, Schedule) {
			seq := CheapestInsertion(p, group)
			return seq, p.Evaluate(seq, now)
		}
	default:
		return nil, fmt.Errorf("unknown routing_algo %q", cfg.Routing)
	}

	return func(ctx context.Context, p *Problem, now float64) (Solution, error) {
		groups, unassigned, err := cluster(ctx, p)
		if err != nil {
			return Solution{}, err
		}
		sol := Solution{Unassigned: unassigned}
		for vi, group := range groups {
			if len(group) == 0 {
				continue
			}
			seq, sched := route(ctx, p, group, now)
			sol.Plans = append(sol.Plans, RoutePlan{
				VehicleID: p.Vehicles[vi].ID,
				Order:     seq,
				Schedule:  sched,
			})
		}
		return sol, nil
	}, nil
}
