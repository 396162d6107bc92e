package telemetry

import (
	"context"
	"time"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/wire"
)

// Writer is the slice of the time-series client the recorder needs.
type Writer interface {
	WriteSensorSignal(sensorID, sensorType string, rssi int)
	WriteSensorBattery(sensorID string, percent int)
	WriteStateTransition(previous, next, source string, at time.Time)
}

// Recorder forwards signal readings and state transitions to a
// time-series writer. All writes are batched and non-blocking in the
// underlying client, so the recorder is safe to call from hot paths.
type Recorder struct {
	writer Writer
}

// NewRecorder creates a recorder backed by the given writer.
func NewRecorder(writer Writer) *Recorder {
	return &Recorder{writer: writer}
}

// RecordSignal records one received frame's signal strength.
func (r *Recorder) RecordSignal(sourceID string, sourceType wire.SourceType, rssi int8) {
	r.writer.WriteSensorSignal(sourceID, string(sourceType), int(rssi))
}

// RecordBattery records a battery level reported by an event or
// heartbeat payload.
func (r *Recorder) RecordBattery(sourceID string, percent int) {
	r.writer.WriteSensorBattery(sourceID, percent)
}

// ReportStateChange records a state transition.
func (r *Recorder) ReportStateChange(_ context.Context, t controller.Transition) error {
	r.writer.WriteStateTransition(t.Previous.String(), t.Next.String(), t.Source, t.At)
	return nil
}
