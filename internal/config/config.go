package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"mealroute/internal/model"
	"mealroute/internal/opt"
)

// BRKGA mirrors opt.BRKGAParams in file form.
type BRKGA struct {
	Pop    int     `yaml:"population"`
	Elite  float64 `yaml:"elite"`
	Mutant float64 `yaml:"mutant"`
	Bias   float64 `yaml:"bias"`
	Gens   int     `yaml:"generations"`
	Stall  int     `yaml:"stall"`
	Seed   int64   `yaml:"seed"`
}

type CKMeans struct {
	MaxIters int     `yaml:"max_iters"`
	Tol      float64 `yaml:"tol"`
}

// Config is the flat simulation configuration record. Strategy branches are
// mutually exclusive: two_stage reads clustering/routing, hybrid reads
// hybrid_algo.
type Config struct {
	StrategyKind   string `yaml:"strategy_kind"`
	ClusteringAlgo string `yaml:"clustering_algo"`
	RoutingAlgo    string `yaml:"routing_algo"`
	HybridAlgo     string `yaml:"hybrid_algo"`

	DispatchPolicy      string  `yaml:"dispatch_policy"`
	DecisionIntervalMin int     `yaml:"decision_interval_minutes"`
	SpeedKmh            float64 `yaml:"average_speed_kmh"`
	ServiceMin          float64 `yaml:"service_minutes"`
	OptimizerDeadlineS  float64 `yaml:"optimizer_deadline_s"`

	Depot model.Point `yaml:"depot"`

	BRKGA   BRKGA   `yaml:"brkga"`
	CKMeans CKMeans `yaml:"ckmeans"`
}

// Default returns a runnable configuration: two-stage ckmeans+brkga, ASAP
// dispatch, one-minute decisions.
func Default() Config {
	return Config{
		StrategyKind:        opt.KindTwoStage,
		ClusteringAlgo:      opt.ClusterCKMeans,
		RoutingAlgo:         opt.RouteBRKGA,
		DispatchPolicy:      "asap",
		DecisionIntervalMin: 1,
		SpeedKmh:            50,
		OptimizerDeadlineS:  5,
		BRKGA:               BRKGA{Pop: 100, Elite: 0.2, Mutant: 0.15, Bias: 0.7, Gens: 100, Stall: 20, Seed: 1},
		CKMeans:             CKMeans{MaxIters: 50, Tol: 1e-4},
	}
}

// Load reads a YAML file and fills unset fields from the defaults. The
// strategy branch is merged as a whole so a hybrid file does not inherit the
// default two-stage tags.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	cfg := merge(Default(), file)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func merge(def, file Config) Config {
	if file.StrategyKind == "" {
		file.StrategyKind = def.StrategyKind
	}
	if file.StrategyKind == opt.KindTwoStage {
		if file.ClusteringAlgo == "" {
			file.ClusteringAlgo = def.ClusteringAlgo
		}
		if file.RoutingAlgo == "" {
			file.RoutingAlgo = def.RoutingAlgo
		}
	}
	if file.DispatchPolicy == "" {
		file.DispatchPolicy = def.DispatchPolicy
	}
	if file.DecisionIntervalMin == 0 {
		file.DecisionIntervalMin = def.DecisionIntervalMin
	}
	if file.SpeedKmh == 0 {
		file.SpeedKmh = def.SpeedKmh
	}
	if file.OptimizerDeadlineS == 0 {
		file.OptimizerDeadlineS = def.OptimizerDeadlineS
	}
	if file.BRKGA == (BRKGA{}) {
		file.BRKGA = def.BRKGA
	}
	if file.CKMeans == (CKMeans{}) {
		file.CKMeans = def.CKMeans
	}
	return file
}

// Validate rejects unknown tags and inconsistent branch fields. Fatal at
// startup.
func (c Config) Validate() error {
	switch c.StrategyKind {
	case opt.KindTwoStage:
		if c.HybridAlgo != "" {
			return fmt.Errorf("config: hybrid_algo set with strategy_kind=two_stage")
		}
		switch c.ClusteringAlgo {
		case opt.ClusterCKMeans, opt.ClusterGreedy:
		default:
			return fmt.Errorf("config: unknown clustering_algo %q", c.ClusteringAlgo)
		}
		switch c.RoutingAlgo {
		case opt.RouteBRKGA, opt.RouteInsertion:
		default:
			return fmt.Errorf("config: unknown routing_algo %q", c.RoutingAlgo)
		}
	case opt.KindHybrid:
		if c.ClusteringAlgo != "" || c.RoutingAlgo != "" {
			return fmt.Errorf("config: clustering_algo/routing_algo set with strategy_kind=hybrid")
		}
		switch c.HybridAlgo {
		case opt.HybridGreedy, opt.HybridBRKGA:
		default:
			return fmt.Errorf("config: unknown hybrid_algo %q", c.HybridAlgo)
		}
	default:
		return fmt.Errorf("config: unknown strategy_kind %q", c.StrategyKind)
	}
	switch c.DispatchPolicy {
	case "asap", "jit":
	default:
		return fmt.Errorf("config: unknown dispatch_policy %q", c.DispatchPolicy)
	}
	if c.DecisionIntervalMin < 1 {
		return fmt.Errorf("config: decision_interval_minutes must be >= 1")
	}
	if c.SpeedKmh <= 0 {
		return fmt.Errorf("config: average_speed_kmh must be positive")
	}
	if c.OptimizerDeadlineS <= 0 {
		return fmt.Errorf("config: optimizer_deadline_s must be positive")
	}
	return nil
}

// Strategy maps the file record onto the optimizer selector's input.
func (c Config) Strategy() opt.StrategyConfig {
	return opt.StrategyConfig{
		Kind:       c.StrategyKind,
		Clustering: c.ClusteringAlgo,
		Routing:    c.RoutingAlgo,
		Hybrid:     c.HybridAlgo,
		BRKGA: opt.BRKGAParams{
			Pop:    c.BRKGA.Pop,
			Elite:  c.BRKGA.Elite,
			Mutant: c.BRKGA.Mutant,
			Bias:   c.BRKGA.Bias,
			Gens:   c.BRKGA.Gens,
			Stall:  c.BRKGA.Stall,
			Seed:   c.BRKGA.Seed,
		},
		CKMeans: opt.CKMeansParams{
			MaxIters: c.CKMeans.MaxIters,
			Tol:      c.CKMeans.Tol,
			Seed:     c.BRKGA.Seed,
		},
	}
}
