package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fleetops-sim/internal/alarm"
	"fleetops-sim/internal/broadcast"
	"fleetops-sim/internal/config"
	"fleetops-sim/internal/fleet"
	"fleetops-sim/internal/sim"
	"fleetops-sim/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.SimulationConfig{
		Routes: []config.Route{{Name: "leg", Points: [][2]float64{{0, 0}, {10, 0}}}},
		Fleets: []config.Fleet{
			{Name: "truck", Kind: "ground_vehicle", Count: 2, Route: "leg", Speed: 0.5},
		},
	}
	st := store.NewMemory(nil)
	assetBus := broadcast.New[fleet.SnapshotRow](16)
	alertBus := broadcast.New[alarm.Alarm](16)
	engine, err := sim.NewEngine(cfg, st, assetBus, alertBus, nil, nil, time.Second)
	if err != nil {
		t.Fatalf("NewEngine() returned error: %v", err)
	}
	return NewServer(engine, st, assetBus, alertBus), st
}

func doRequest(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestServer_Assets(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/assets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var rows []fleet.SnapshotRow
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode assets: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 assets, got %d", len(rows))
	}
}

func TestServer_GeofenceCRUD(t *testing.T) {
	s, _ := newTestServer(t)

	body := []byte(`{"name":"zone-a","polygon":[[0,0],[10,0],[10,10],[0,10]]}`)
	w := doRequest(t, s, http.MethodPost, "/api/geofences", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created store.Geofence
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode geofence: %v", err)
	}
	if created.ID == 0 || created.Name != "zone-a" || len(created.Polygon) != 4 {
		t.Errorf("Unexpected created geofence: %+v", created)
	}

	w = doRequest(t, s, http.MethodGet, "/api/geofences", nil)
	var fences []store.Geofence
	if err := json.Unmarshal(w.Body.Bytes(), &fences); err != nil {
		t.Fatalf("decode geofences: %v", err)
	}
	if len(fences) != 1 {
		t.Errorf("Expected 1 geofence, got %d", len(fences))
	}

	w = doRequest(t, s, http.MethodDelete, "/api/geofences/1", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
}

func TestServer_CreateGeofenceValidation(t *testing.T) {
	s, _ := newTestServer(t)

	// Fewer than 3 vertices can never contain anything.
	w := doRequest(t, s, http.MethodPost, "/api/geofences", []byte(`{"name":"thin","polygon":[[0,0],[1,1]]}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for 2-vertex polygon, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodPost, "/api/geofences", []byte(`{"polygon":[[0,0],[1,0],[1,1]]}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing name, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodDelete, "/api/geofences/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric ID, got %d", w.Code)
	}
}

func TestServer_Alarms(t *testing.T) {
	s, st := newTestServer(t)
	id, _, err := st.InsertAlarm(context.Background(), "truck-0", nil, "rule")
	if err != nil {
		t.Fatalf("InsertAlarm: %v", err)
	}

	w := doRequest(t, s, http.MethodGet, "/api/alarms?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var alarms []store.AlarmRecord
	if err := json.Unmarshal(w.Body.Bytes(), &alarms); err != nil {
		t.Fatalf("decode alarms: %v", err)
	}
	if len(alarms) != 1 || alarms[0].ID != id {
		t.Errorf("Unexpected alarms: %+v", alarms)
	}

	w = doRequest(t, s, http.MethodPost, "/api/alarms/1/ack", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for ack, got %d", w.Code)
	}
	w = doRequest(t, s, http.MethodPost, "/api/alarms/999/ack", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown alarm, got %d", w.Code)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodOptions, "/api/assets", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header on preflight response")
	}
}
