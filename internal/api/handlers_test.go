package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"mealroute/internal/config"
	"mealroute/internal/model"
	"mealroute/internal/opt"
	"mealroute/internal/sim"
	"mealroute/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.ClusteringAlgo = opt.ClusterGreedy
	cfg.RoutingAlgo = opt.RouteInsertion
	cfg.SpeedKmh = 600

	broker := NewBroker()
	st := store.NewMemory()
	start := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	driver, err := sim.New(cfg, start, broker, st)
	if err != nil {
		t.Fatal(err)
	}
	return &Server{
		Driver: driver,
		Store:  st,
		Broker: broker,
		orders: rate.NewLimiter(rate.Inf, 1),
	}
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestVehicleRegistrationAndListing(t *testing.T) {
	s := testServer(t)
	w := doJSON(t, s.VehiclesHandler, http.MethodPost, "/v1/vehicles", `{"id":1,"capacity":10}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	// duplicate id conflicts
	w = doJSON(t, s.VehiclesHandler, http.MethodPost, "/v1/vehicles", `{"id":1,"capacity":10}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", w.Code)
	}

	w = doJSON(t, s.VehiclesHandler, http.MethodGet, "/v1/vehicles", "")
	var resp struct {
		Vehicles []model.RouteState `json:"vehicles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Vehicles) != 1 || resp.Vehicles[0].VehicleID != 1 {
		t.Fatalf("vehicles = %+v", resp.Vehicles)
	}
}

func TestOrderSubmitAdvanceDeliver(t *testing.T) {
	s := testServer(t)
	doJSON(t, s.VehiclesHandler, http.MethodPost, "/v1/vehicles", `{"id":1,"capacity":10}`)

	w := doJSON(t, s.OrdersHandler, http.MethodPost, "/v1/orders",
		`{"id":"d1","point":{"lat":1,"lng":0},"size":3,"preparationMinutes":0,"serviceMinutes":60}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, s.AdvanceTimeHandler, http.MethodPost, "/v1/advance-time", `{"minutes":25}`)
	if w.Code != http.StatusOK {
		t.Fatalf("advance status = %d", w.Code)
	}

	w = doJSON(t, s.MonitorHandler, http.MethodGet, "/v1/monitor", "")
	var resp struct {
		Monitor sim.Monitor `json:"monitor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Monitor.Delivered != 1 || resp.Monitor.Late != 0 {
		t.Fatalf("monitor = %+v", resp.Monitor)
	}
}

func TestAdvanceTimeRejectsNonPositive(t *testing.T) {
	s := testServer(t)
	w := doJSON(t, s.AdvanceTimeHandler, http.MethodPost, "/v1/advance-time", `{"minutes":0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDecideDispatchesImmediately(t *testing.T) {
	s := testServer(t)
	doJSON(t, s.VehiclesHandler, http.MethodPost, "/v1/vehicles", `{"id":1,"capacity":10}`)
	doJSON(t, s.OrdersHandler, http.MethodPost, "/v1/orders",
		`{"id":"d1","point":{"lat":1,"lng":0},"size":3,"preparationMinutes":0,"serviceMinutes":60}`)

	w := doJSON(t, s.DecideHandler, http.MethodPost, "/v1/decide", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Vehicles []model.RouteState `json:"vehicles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Vehicles[0].Status != string(model.VehicleOnRoute) {
		t.Fatalf("vehicle = %+v", resp.Vehicles[0])
	}
}

func TestOrderRateLimit(t *testing.T) {
	s := testServer(t)
	s.orders = rate.NewLimiter(rate.Limit(1), 1)
	doJSON(t, s.VehiclesHandler, http.MethodPost, "/v1/vehicles", `{"id":1,"capacity":10}`)

	first := doJSON(t, s.OrdersHandler, http.MethodPost, "/v1/orders",
		`{"id":"a","point":{"lat":1,"lng":0},"size":1,"preparationMinutes":0,"serviceMinutes":60}`)
	if first.Code != http.StatusAccepted {
		t.Fatalf("first = %d", first.Code)
	}
	second := doJSON(t, s.OrdersHandler, http.MethodPost, "/v1/orders",
		`{"id":"b","point":{"lat":1,"lng":0},"size":1,"preparationMinutes":0,"serviceMinutes":60}`)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d", second.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := testServer(t)
	if w := doJSON(t, s.HealthHandler, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
	if w := doJSON(t, s.ReadyHandler, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("ready = %d", w.Code)
	}
}
