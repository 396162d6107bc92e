package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/sensor"
	"github.com/hferrand/sentry-gate/internal/wire"
)

// commandTimeout bounds the wait for the controller's verdict on an
// arm/disarm request.
const commandTimeout = 2 * time.Second

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type statusResponse struct {
	State         string `json:"state"`
	Previous      string `json:"previous"`
	Sensors       int    `json:"sensors"`
	QueueDropped  uint64 `json:"queue_dropped"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Version       string `json:"version"`
}

type sensorResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Open       bool      `json:"open"`
	Registered bool      `json:"registered"`
	LastSeen   time.Time `json:"last_seen"`
	LastRSSI   int8      `json:"last_rssi"`
}

type transitionResponse struct {
	Previous   string    `json:"previous"`
	Next       string    `json:"next"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: s.version})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		State:         s.controller.State().String(),
		Previous:      s.controller.Previous().String(),
		Sensors:       s.registry.Count(),
		QueueDropped:  s.controller.Dropped(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Version:       s.version,
	})
}

func (s *Server) handleListSensors(w http.ResponseWriter, _ *http.Request) {
	records := s.registry.Snapshot()
	out := make([]sensorResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toSensorResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.registry.Lookup(id)
	if err != nil {
		writeNotFound(w, "unknown sensor")
		return
	}
	writeJSON(w, http.StatusOK, toSensorResponse(rec))
}

func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	if s.transitions == nil {
		writeNotFound(w, "transition history not available")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	recent, err := s.transitions.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to query transitions", "error", err)
		writeInternalError(w, "failed to query transitions")
		return
	}

	out := make([]transitionResponse, 0, len(recent))
	for _, t := range recent {
		out = append(out, transitionResponse{
			Previous:   t.Previous.String(),
			Next:       t.Next.String(),
			Source:     t.Source,
			OccurredAt: t.At,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleArm(w http.ResponseWriter, r *http.Request) {
	s.submitCommand(w, r, wire.Arm{})
}

func (s *Server) handleDisarm(w http.ResponseWriter, r *http.Request) {
	s.submitCommand(w, r, wire.Disarm{})
}

// submitCommand feeds a command through the dispatch queue and maps the
// controller's verdict to an HTTP status.
func (s *Server) submitCommand(w http.ResponseWriter, r *http.Request, body wire.Body) {
	reply := make(chan error, 1)
	msg := wire.Message{
		Header: wire.Header{
			Version:    wire.ProtocolVersion,
			SourceID:   "local-api",
			SourceType: wire.SourceGateway,
		},
		Body:  body,
		Reply: reply,
	}

	if !s.controller.Enqueue(msg) {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "dispatch queue full")
		return
	}

	select {
	case err := <-reply:
		if errors.Is(err, controller.ErrAlreadyArmed) {
			writeError(w, http.StatusConflict, ErrCodeConflict, "already armed")
			return
		}
		if err != nil {
			writeInternalError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"state": s.controller.State().String()})
	case <-time.After(commandTimeout):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "verdict timeout")
	case <-r.Context().Done():
		// Client went away; the command still executes.
	}
}

func toSensorResponse(rec sensor.Record) sensorResponse {
	return sensorResponse{
		ID:         rec.ID,
		Type:       string(rec.Type),
		Open:       rec.Open,
		Registered: rec.Registered,
		LastSeen:   rec.LastSeen,
		LastRSSI:   rec.LastRSSI,
	}
}
