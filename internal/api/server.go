package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"mealroute/internal/config"
	"mealroute/internal/metrics"
	"mealroute/internal/sim"
	"mealroute/internal/store"
)

// Server wires the driver, the persistence layer and the route-update
// broker behind the HTTP surface.
type Server struct {
	Driver *sim.Driver
	Store  store.Store
	Broker RouteBroker

	orders *rate.Limiter
}

// NewServer builds the server from the environment. No DATABASE_URL means
// the in-memory store; no REDIS_URL means the in-memory broker.
func NewServer(cfg config.Config, start time.Time) (*Server, error) {
	var st store.Store
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		if os.Getenv("DB_MIGRATE") != "false" {
			if err := sp.Migrate(context.Background()); err != nil {
				log.Printf("migrate: %v", err)
			}
		}
		st = sp
	} else {
		st = store.NewMemory()
	}

	var broker RouteBroker
	if url := os.Getenv("REDIS_URL"); url != "" {
		if rb, err := NewRedisBroker(url); err == nil {
			broker = rb
		} else {
			log.Printf("redis broker unavailable (%v); using in-memory", err)
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	driver, err := sim.New(cfg, start, broker, st)
	if err != nil {
		return nil, err
	}

	limit := 50.0
	if v := os.Getenv("ORDER_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			limit = f
		}
	}
	return &Server{
		Driver: driver,
		Store:  st,
		Broker: broker,
		orders: rate.NewLimiter(rate.Limit(limit), int(limit)),
	}, nil
}

// Routes registers every handler on a mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/vehicles", s.VehiclesHandler)
	mux.HandleFunc("/v1/orders", s.OrdersHandler)
	mux.HandleFunc("/v1/advance-time", s.AdvanceTimeHandler)
	mux.HandleFunc("/v1/decide", s.DecideHandler)
	mux.HandleFunc("/v1/monitor", s.MonitorHandler)
	mux.HandleFunc("/v1/routes/stream", s.RoutesStreamHandler)
	mux.HandleFunc("/v1/plans", s.PlansHandler)
	mux.HandleFunc("/ws/routes", s.RoutesWSHandler)
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
}
