package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"mealroute/internal/model"
	"mealroute/internal/sim"
)

// Postgres persists runs through database/sql on the pgx driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the schema if missing. Dev helper, mirrors the memory
// store's shape.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			size INT NOT NULL,
			preparation_min INT NOT NULL,
			service_min INT NOT NULL,
			receipt_time TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS plan_snapshots (
			id UUID PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			vehicles JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_summaries (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ NOT NULL,
			summary JSONB NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveOrder(ctx context.Context, d model.Delivery) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO orders (id, lat, lng, size, preparation_min, service_min, receipt_time, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		d.ID, d.Point.Lat, d.Point.Lng, d.Size, d.PreparationMin, d.ServiceMin, d.ReceiptTime, string(d.Status))
	return err
}

func (p *Postgres) ListOrders(ctx context.Context, limit int) ([]model.Delivery, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, lat, lng, size, preparation_min, service_min, receipt_time, status
		FROM orders ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Delivery
	for rows.Next() {
		var d model.Delivery
		var status string
		if err := rows.Scan(&d.ID, &d.Point.Lat, &d.Point.Lng, &d.Size, &d.PreparationMin, &d.ServiceMin, &d.ReceiptTime, &status); err != nil {
			return nil, err
		}
		d.Status = model.OrderStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) SavePlanSnapshot(ctx context.Context, upd model.RoutesUpdate) error {
	vehicles, err := json.Marshal(upd.Vehicles)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO plan_snapshots (id, ts, vehicles) VALUES ($1,$2,$3)`,
		uuid.New(), upd.Timestamp, vehicles)
	return err
}

func (p *Postgres) ListPlanSnapshots(ctx context.Context, since time.Time, limit int) ([]model.RoutesUpdate, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT ts, vehicles FROM plan_snapshots WHERE ts >= $1 ORDER BY ts LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RoutesUpdate
	for rows.Next() {
		var upd model.RoutesUpdate
		var vehicles []byte
		if err := rows.Scan(&upd.Timestamp, &vehicles); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(vehicles, &upd.Vehicles); err != nil {
			return nil, err
		}
		out = append(out, upd)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveRunSummary(ctx context.Context, runID string, startedAt, endedAt time.Time, mon sim.Monitor) error {
	summary, err := json.Marshal(mon)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO run_summaries (id, started_at, ended_at, summary) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET ended_at = EXCLUDED.ended_at, summary = EXCLUDED.summary`,
		runID, startedAt, endedAt, summary)
	return err
}

func (p *Postgres) Close() { _ = p.db.Close() }
