package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"mealroute/internal/buildinfo"
	"mealroute/internal/config"
	"mealroute/internal/metrics"
	"mealroute/internal/model"
	"mealroute/internal/sim"
	"mealroute/internal/store"
)

func main() {
	var (
		configPath   = flag.String("config", "", "YAML configuration file")
		instancePath = flag.String("instance", "", "instance file with the day's orders")
		vehicles     = flag.Int("vehicles", 0, "fleet size override")
		duration     = flag.Int("duration", 600, "simulated minutes to run")
		pace         = flag.Float64("pace", 0, "real-time pacing in ticks per second (0 = as fast as possible)")
		version      = flag.Bool("version", false, "print build info and exit")
	)
	flag.Parse()

	if *version {
		info := buildinfo.Info()
		fmt.Printf("mealroute-sim %s %s %s\n", info["version"], info["commit"], info["builtAt"])
		return
	}
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}
	if *instancePath == "" {
		log.Println("an -instance file is required")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Printf("config: %v", err)
			os.Exit(1)
		}
	}
	metrics.RegisterDefault()

	inst, err := model.LoadInstance(*instancePath)
	if err != nil {
		log.Printf("instance: %v", err)
		os.Exit(1)
	}
	cfg.Depot = inst.Origin

	fleet := inst.Vehicles
	if *vehicles > 0 {
		fleet = *vehicles
	}
	if fleet <= 0 {
		fleet = 1
	}

	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	var st store.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			log.Printf("store: %v", err)
			os.Exit(1)
		}
		if err := sp.Migrate(context.Background()); err != nil {
			log.Printf("migrate: %v", err)
		}
		st = sp
		defer st.Close()
	}

	driver, err := sim.New(cfg, start, nil, st)
	if err != nil {
		log.Printf("driver: %v", err)
		os.Exit(1)
	}
	for i := 1; i <= fleet; i++ {
		if err := driver.RegisterVehicle(i, inst.VehicleCapacity); err != nil {
			log.Printf("fleet: %v", err)
			os.Exit(1)
		}
	}

	// Orders keyed by their arrival minute.
	byMinute := map[int][]model.InstanceDelivery{}
	for _, d := range inst.Deliveries {
		byMinute[d.Receipt] = append(byMinute[d.Receipt], d)
	}

	ctx := context.Background()
	var limiter *rate.Limiter
	if *pace > 0 {
		limiter = rate.NewLimiter(rate.Limit(*pace), 1)
	}
	log.Printf("running %s: %d orders, %d vehicles, %d minutes", inst.Name, len(inst.Deliveries), fleet, *duration)
	for minute := 0; minute < *duration; minute++ {
		if limiter != nil {
			_ = limiter.Wait(ctx)
		}
		for _, d := range byMinute[minute] {
			if err := driver.SubmitOrder(d.ID, d.Point, d.Size, d.Preparation, d.Service); err != nil {
				log.Printf("order %s: %v", d.ID, err)
			}
		}
		driver.AdvanceTime(ctx, 1)
	}

	mon := driver.Snapshot()
	if st != nil {
		runID := uuid.NewString()
		end := driver.Clock()
		if err := st.SaveRunSummary(ctx, runID, start, end, mon); err != nil {
			log.Printf("save summary: %v", err)
		}
	}
	fmt.Printf("orders created:    %d\n", mon.Created)
	fmt.Printf("orders delivered:  %d\n", mon.Delivered)
	fmt.Printf("orders late:       %d\n", mon.Late)
	fmt.Printf("penalty minutes:   %.2f\n", mon.PenaltyMinutes)
	fmt.Printf("on-road minutes:   %.2f\n", mon.RouteMinutes)
	fmt.Printf("avg penalty/order: %.2f\n", mon.AveragePenalty())
	if mon.Infeasible > 0 {
		fmt.Printf("orders too large for any vehicle: %d\n", mon.Infeasible)
	}
}
