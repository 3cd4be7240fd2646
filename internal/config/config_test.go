package config

import (
	"os"
	"path/filepath"
	"testing"

	"mealroute/internal/opt"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTwoStage(t *testing.T) {
	path := writeConfig(t, `
strategy_kind: two_stage
clustering_algo: greedy_sequential
routing_algo: cheapest_insertion
dispatch_policy: jit
decision_interval_minutes: 5
brkga:
  population: 40
  seed: 99
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClusteringAlgo != opt.ClusterGreedy || cfg.RoutingAlgo != opt.RouteInsertion {
		t.Fatalf("strategy tags = %q/%q", cfg.ClusteringAlgo, cfg.RoutingAlgo)
	}
	if cfg.DispatchPolicy != "jit" || cfg.DecisionIntervalMin != 5 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.BRKGA.Pop != 40 || cfg.BRKGA.Seed != 99 {
		t.Fatalf("brkga = %+v", cfg.BRKGA)
	}
	// unset numerics fall back to defaults
	if cfg.SpeedKmh != 50 || cfg.OptimizerDeadlineS != 5 {
		t.Fatalf("defaults not merged: %+v", cfg)
	}
}

func TestLoadHybridDoesNotInheritTwoStageTags(t *testing.T) {
	path := writeConfig(t, `
strategy_kind: hybrid
hybrid_algo: brkga_split
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClusteringAlgo != "" || cfg.RoutingAlgo != "" {
		t.Fatalf("two-stage tags leaked into hybrid config: %+v", cfg)
	}
	if cfg.Strategy().Hybrid != opt.HybridBRKGA {
		t.Fatalf("strategy = %+v", cfg.Strategy())
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := map[string]Config{
		"unknown kind":     {StrategyKind: "nope", DispatchPolicy: "asap", DecisionIntervalMin: 1, SpeedKmh: 50, OptimizerDeadlineS: 5},
		"mixed branches":   {StrategyKind: "hybrid", HybridAlgo: "brkga_split", ClusteringAlgo: "ckmeans", DispatchPolicy: "asap", DecisionIntervalMin: 1, SpeedKmh: 50, OptimizerDeadlineS: 5},
		"unknown policy":   {StrategyKind: "two_stage", ClusteringAlgo: "ckmeans", RoutingAlgo: "brkga", DispatchPolicy: "whenever", DecisionIntervalMin: 1, SpeedKmh: 50, OptimizerDeadlineS: 5},
		"zero interval":    {StrategyKind: "two_stage", ClusteringAlgo: "ckmeans", RoutingAlgo: "brkga", DispatchPolicy: "asap", DecisionIntervalMin: 0, SpeedKmh: 50, OptimizerDeadlineS: 5},
		"negative speed":   {StrategyKind: "two_stage", ClusteringAlgo: "ckmeans", RoutingAlgo: "brkga", DispatchPolicy: "asap", DecisionIntervalMin: 1, SpeedKmh: -1, OptimizerDeadlineS: 5},
		"zero deadline":    {StrategyKind: "two_stage", ClusteringAlgo: "ckmeans", RoutingAlgo: "brkga", DispatchPolicy: "asap", DecisionIntervalMin: 1, SpeedKmh: 50, OptimizerDeadlineS: 0},
		"hybrid w/o algo":  {StrategyKind: "hybrid", DispatchPolicy: "asap", DecisionIntervalMin: 1, SpeedKmh: 50, OptimizerDeadlineS: 5},
		"two-stage hybrid": {StrategyKind: "two_stage", ClusteringAlgo: "ckmeans", RoutingAlgo: "brkga", HybridAlgo: "greedy_insertion", DispatchPolicy: "asap", DecisionIntervalMin: 1, SpeedKmh: 50, OptimizerDeadlineS: 5},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
