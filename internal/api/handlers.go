package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mealroute/internal/model"
)

type vehicleIn struct {
	ID       int `json:"id"`
	Capacity int `json:"capacity"`
}

type orderIn struct {
	ID                 string      `json:"id"`
	Point              model.Point `json:"point"`
	Size               int         `json:"size"`
	PreparationMinutes int         `json:"preparationMinutes"`
	ServiceMinutes     int         `json:"serviceMinutes"`
}

type advanceIn struct {
	Minutes int `json:"minutes"`
}

// VehiclesHandler registers vehicles before the run starts and lists the
// fleet afterwards.
func (s *Server) VehiclesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in vehicleIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid body", err.Error())
			return
		}
		if err := s.Driver.RegisterVehicle(in.ID, in.Capacity); err != nil {
			writeProblem(w, http.StatusConflict, "register vehicle", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": in.ID, "capacity": in.Capacity})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"vehicles": s.Driver.Vehicles()})
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

// OrdersHandler accepts orders into the running simulation. Receipt time is
// the simulated clock, never the wall clock.
func (s *Server) OrdersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if !s.orders.Allow() {
			writeProblem(w, http.StatusTooManyRequests, "rate limited", "order ingestion limit reached")
			return
		}
		var in orderIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid body", err.Error())
			return
		}
		if err := s.Driver.SubmitOrder(in.ID, in.Point, in.Size, in.PreparationMinutes, in.ServiceMinutes); err != nil {
			writeProblem(w, http.StatusConflict, "submit order", err.Error())
			return
		}
		if s.Store != nil {
			_ = s.Store.SaveOrder(r.Context(), model.Delivery{
				ID:             in.ID,
				Point:          in.Point,
				Size:           in.Size,
				PreparationMin: in.PreparationMinutes,
				ServiceMin:     in.ServiceMinutes,
				ReceiptTime:    s.Driver.Clock(),
				Status:         model.OrderPending,
			})
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": in.ID, "status": "accepted"})
	case http.MethodGet:
		if s.Store == nil {
			writeJSON(w, http.StatusOK, map[string]any{"orders": []model.Delivery{}})
			return
		}
		orders, err := s.Store.ListOrders(r.Context(), 200)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "list orders", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

// AdvanceTimeHandler steps the simulated clock.
func (s *Server) AdvanceTimeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	var in advanceIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}
	if in.Minutes <= 0 {
		writeProblem(w, http.StatusBadRequest, "invalid minutes", "minutes must be a positive integer")
		return
	}
	s.Driver.AdvanceTime(r.Context(), in.Minutes)
	writeJSON(w, http.StatusOK, map[string]any{
		"newTime": s.Driver.Clock().Format(time.RFC3339),
	})
}

// DecideHandler forces a decision tick regardless of the schedule.
func (s *Server) DecideHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	s.Driver.TriggerDecision(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": s.Driver.Vehicles()})
}

// MonitorHandler exposes the aggregate counters.
func (s *Server) MonitorHandler(w http.ResponseWriter, r *http.Request) {
	mon := s.Driver.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"monitor":        mon,
		"averagePenalty": mon.AveragePenalty(),
		"clock":          s.Driver.Clock().Format(time.RFC3339),
	})
}

// PlansHandler lists persisted plan snapshots.
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	since := time.Time{}
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid since", err.Error())
			return
		}
		since = t
	}
	snaps, err := s.Store.ListPlanSnapshots(r.Context(), since, 200)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "list plans", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": snaps})
}

// RoutesStreamHandler streams route updates as server-sent events.
func (s *Server) RoutesStreamHandler(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	ch := s.Broker.Subscribe()
	defer s.Broker.Unsubscribe(ch)
	for {
		select {
		case <-r.Context().Done():
			return
		case upd, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(upd)
			fmt.Fprintf(w, "event: routes.update\ndata: %s\n\n", data)
			fl.Flush()
		}
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports readiness; the driver exists from construction so
// this always reports ready. The store is not probed.
func (s *Server) ReadyHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
