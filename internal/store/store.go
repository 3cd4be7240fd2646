package store

import (
	"context"
	"time"

	"mealroute/internal/model"
	"mealroute/internal/sim"
)

// Store persists what the simulator produces: the order ledger, per-tick
// plan snapshots and the final run summary. Used by the API server when
// DATABASE_URL is set; the in-memory store backs everything else.
type Store interface {
	SaveOrder(ctx context.Context, d model.Delivery) error
	ListOrders(ctx context.Context, limit int) ([]model.Delivery, error)

	SavePlanSnapshot(ctx context.Context, upd model.RoutesUpdate) error
	ListPlanSnapshots(ctx context.Context, since time.Time, limit int) ([]model.RoutesUpdate, error)

	SaveRunSummary(ctx context.Context, runID string, startedAt, endedAt time.Time, mon sim.Monitor) error

	Close()
}
