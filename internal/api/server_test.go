package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/infrastructure/config"
	"github.com/hferrand/sentry-gate/internal/infrastructure/logging"
	"github.com/hferrand/sentry-gate/internal/sensor"
	"github.com/hferrand/sentry-gate/internal/wire"
)

// fakeControl implements ControlPlane with a scripted verdict.
type fakeControl struct {
	state    controller.SystemState
	previous controller.SystemState
	dropped  uint64
	full     bool
	verdict  error
	enqueued []wire.Message
}

func (f *fakeControl) State() controller.SystemState    { return f.state }
func (f *fakeControl) Previous() controller.SystemState { return f.previous }
func (f *fakeControl) Dropped() uint64                  { return f.dropped }

func (f *fakeControl) Enqueue(msg wire.Message) bool {
	if f.full {
		return false
	}
	f.enqueued = append(f.enqueued, msg)
	if msg.Reply != nil {
		msg.Reply <- f.verdict
	}
	return true
}

type fakeHistory struct {
	transitions []controller.Transition
	err         error
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]controller.Transition, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.transitions) {
		return f.transitions[:limit], nil
	}
	return f.transitions, nil
}

func newTestServer(t *testing.T, ctrl *fakeControl, history TransitionHistory) (*Server, *sensor.Registry) {
	t.Helper()

	registry := sensor.NewRegistry()
	srv, err := New(Deps{
		Config:      config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:          config.WebSocketConfig{Path: "/ws", PingInterval: 30, PongTimeout: 10},
		Logger:      logging.Default(),
		Controller:  ctrl,
		Registry:    registry,
		Transitions: history,
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	srv.started = time.Now()
	return srv, registry
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Deps{Logger: logging.Default()})
	if err == nil {
		t.Fatal("expected error when controller is missing")
	}

	_, err = New(Deps{Logger: logging.Default(), Controller: &fakeControl{}})
	if err == nil {
		t.Fatal("expected error when registry is missing")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeControl{}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody[healthResponse](t, rec)
	if body.Status != "ok" || body.Version != "test" {
		t.Errorf("unexpected health body: %+v", body)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ctrl := &fakeControl{
		state:    controller.StateArmed,
		previous: controller.StateDisarmed,
		dropped:  3,
	}
	srv, registry := newTestServer(t, ctrl, nil)
	if err := registry.Register("door-1", sensor.TypeDoor); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody[statusResponse](t, rec)
	if body.State != "armed" {
		t.Errorf("state = %q, want armed", body.State)
	}
	if body.Previous != "disarmed" {
		t.Errorf("previous = %q, want disarmed", body.Previous)
	}
	if body.Sensors != 1 {
		t.Errorf("sensors = %d, want 1", body.Sensors)
	}
	if body.QueueDropped != 3 {
		t.Errorf("queue_dropped = %d, want 3", body.QueueDropped)
	}
}

func TestListSensors(t *testing.T) {
	srv, registry := newTestServer(t, &fakeControl{}, nil)
	for _, id := range []string{"door-1", "pir-1"} {
		if err := registry.Register(id, sensor.TypeDoor); err != nil {
			t.Fatalf("Register(%q) error: %v", id, err)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sensors/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody[[]sensorResponse](t, rec)
	if len(body) != 2 {
		t.Fatalf("got %d sensors, want 2", len(body))
	}
}

func TestGetSensor(t *testing.T) {
	srv, registry := newTestServer(t, &fakeControl{}, nil)
	if err := registry.Register("door-1", sensor.TypeDoor); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sensors/door-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody[sensorResponse](t, rec)
	if body.ID != "door-1" || body.Type != "door" {
		t.Errorf("unexpected sensor body: %+v", body)
	}
}

func TestGetSensorNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &fakeControl{}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sensors/ghost")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody[Error](t, rec)
	if body.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", body.Code, ErrCodeNotFound)
	}
}

func TestArmReturnsNewState(t *testing.T) {
	ctrl := &fakeControl{state: controller.StateArmed}
	srv, _ := newTestServer(t, ctrl, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/arm")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody[map[string]string](t, rec)
	if body["state"] != "armed" {
		t.Errorf("state = %q, want armed", body["state"])
	}

	if len(ctrl.enqueued) != 1 {
		t.Fatalf("enqueued %d messages, want 1", len(ctrl.enqueued))
	}
	if _, ok := ctrl.enqueued[0].Body.(wire.Arm); !ok {
		t.Errorf("enqueued body = %T, want wire.Arm", ctrl.enqueued[0].Body)
	}
	if ctrl.enqueued[0].Header.SourceID != "local-api" {
		t.Errorf("source id = %q, want local-api", ctrl.enqueued[0].Header.SourceID)
	}
}

func TestArmWhenAlreadyArmedConflicts(t *testing.T) {
	ctrl := &fakeControl{state: controller.StateArmed, verdict: controller.ErrAlreadyArmed}
	srv, _ := newTestServer(t, ctrl, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/arm")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	body := decodeBody[Error](t, rec)
	if body.Code != ErrCodeConflict {
		t.Errorf("code = %q, want %q", body.Code, ErrCodeConflict)
	}
}

func TestArmWhenQueueFull(t *testing.T) {
	ctrl := &fakeControl{full: true}
	srv, _ := newTestServer(t, ctrl, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/arm")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decodeBody[Error](t, rec)
	if body.Code != ErrCodeUnavailable {
		t.Errorf("code = %q, want %q", body.Code, ErrCodeUnavailable)
	}
}

func TestDisarmDispatchesDisarm(t *testing.T) {
	ctrl := &fakeControl{state: controller.StateDisarmed}
	srv, _ := newTestServer(t, ctrl, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/disarm")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, ok := ctrl.enqueued[0].Body.(wire.Disarm); !ok {
		t.Errorf("enqueued body = %T, want wire.Disarm", ctrl.enqueued[0].Body)
	}
}

func TestTransitionsEndpoint(t *testing.T) {
	now := time.Now().UTC()
	history := &fakeHistory{transitions: []controller.Transition{
		{Previous: controller.StateDisarmed, Next: controller.StateArmed, Source: "remote", At: now},
		{Previous: controller.StateArmed, Next: controller.StateAlarm, Source: "door-1", At: now.Add(time.Second)},
	}}
	srv, _ := newTestServer(t, &fakeControl{}, history)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/transitions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody[[]transitionResponse](t, rec)
	if len(body) != 2 {
		t.Fatalf("got %d transitions, want 2", len(body))
	}
	if body[0].Next != "armed" || body[1].Source != "door-1" {
		t.Errorf("unexpected transitions: %+v", body)
	}
}

func TestTransitionsLimitParameter(t *testing.T) {
	history := &fakeHistory{transitions: []controller.Transition{
		{Next: controller.StateArmed}, {Next: controller.StateDisarmed}, {Next: controller.StateAlarm},
	}}
	srv, _ := newTestServer(t, &fakeControl{}, history)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/transitions?limit=2")
	body := decodeBody[[]transitionResponse](t, rec)
	if len(body) != 2 {
		t.Fatalf("got %d transitions, want 2", len(body))
	}
}

func TestTransitionsWithoutHistory(t *testing.T) {
	srv, _ := newTestServer(t, &fakeControl{}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/transitions")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHubBroadcastsStateChanges(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{PingInterval: 30, PongTimeout: 10}, logging.Default())

	client := &wsClient{hub: hub, send: make(chan []byte, 1)}
	hub.register(client)
	defer hub.unregister(client)

	hub.NotifyStateChange(controller.StateDisarmed, controller.StateArmed)

	select {
	case data := <-client.send:
		var event WSEvent
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		if event.Type != WSTypeChange || event.State != "armed" || event.Previous != "disarmed" {
			t.Errorf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("no event broadcast to client")
	}
}

func TestHubDropsWhenClientBufferFull(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())

	client := &wsClient{hub: hub, send: make(chan []byte)} // unbuffered, always full
	hub.register(client)
	defer hub.unregister(client)

	// Must not block.
	hub.NotifyStateChange(controller.StateDisarmed, controller.StateArmed)

	if hub.ClientCount() != 1 {
		t.Errorf("client count = %d, want 1", hub.ClientCount())
	}
}
