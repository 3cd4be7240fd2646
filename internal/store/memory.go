package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mealroute/internal/model"
	"mealroute/internal/sim"
)

// Memory is the store used when no DATABASE_URL is set.
type Memory struct {
	mu        sync.Mutex
	orders    map[string]model.Delivery
	snapshots []snapshot
	runs      map[string]runSummary
}

type snapshot struct {
	id  string
	upd model.RoutesUpdate
}

type runSummary struct {
	StartedAt time.Time
	EndedAt   time.Time
	Monitor   sim.Monitor
}

func NewMemory() *Memory {
	return &Memory{
		orders: map[string]model.Delivery{},
		runs:   map[string]runSummary{},
	}
}

func (m *Memory) SaveOrder(_ context.Context, d model.Delivery) error {
	m.mu.Lock()
	m.orders[d.ID] = d
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListOrders(_ context.Context, limit int) ([]model.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Delivery, 0, len(m.orders))
	for _, d := range m.orders {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SavePlanSnapshot(_ context.Context, upd model.RoutesUpdate) error {
	m.mu.Lock()
	m.snapshots = append(m.snapshots, snapshot{id: uuid.NewString(), upd: upd})
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListPlanSnapshots(_ context.Context, since time.Time, limit int) ([]model.RoutesUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RoutesUpdate
	for _, s := range m.snapshots {
		if s.upd.Timestamp.Before(since) {
			continue
		}
		out = append(out, s.upd)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) SaveRunSummary(_ context.Context, runID string, startedAt, endedAt time.Time, mon sim.Monitor) error {
	m.mu.Lock()
	m.runs[runID] = runSummary{StartedAt: startedAt, EndedAt: endedAt, Monitor: mon}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() {}
