package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/wire"
)

type fakeWriter struct {
	signals     []signalWrite
	batteries   []batteryWrite
	transitions []transitionWrite
}

type signalWrite struct {
	sensorID   string
	sensorType string
	rssi       int
}

type batteryWrite struct {
	sensorID string
	percent  int
}

type transitionWrite struct {
	previous, next, source string
	at                     time.Time
}

func (f *fakeWriter) WriteSensorSignal(sensorID, sensorType string, rssi int) {
	f.signals = append(f.signals, signalWrite{sensorID, sensorType, rssi})
}

func (f *fakeWriter) WriteSensorBattery(sensorID string, percent int) {
	f.batteries = append(f.batteries, batteryWrite{sensorID, percent})
}

func (f *fakeWriter) WriteStateTransition(previous, next, source string, at time.Time) {
	f.transitions = append(f.transitions, transitionWrite{previous, next, source, at})
}

func TestRecordSignal(t *testing.T) {
	writer := &fakeWriter{}
	rec := NewRecorder(writer)

	rec.RecordSignal("door-1", wire.SourceDoorSensor, -72)

	if len(writer.signals) != 1 {
		t.Fatalf("got %d writes, want 1", len(writer.signals))
	}
	got := writer.signals[0]
	if got.sensorID != "door-1" || got.sensorType != "SEC_SENSOR" || got.rssi != -72 {
		t.Errorf("unexpected write: %+v", got)
	}
}

func TestRecordBattery(t *testing.T) {
	writer := &fakeWriter{}
	rec := NewRecorder(writer)

	rec.RecordBattery("pir-2", 87)

	if len(writer.batteries) != 1 {
		t.Fatalf("got %d writes, want 1", len(writer.batteries))
	}
	got := writer.batteries[0]
	if got.sensorID != "pir-2" || got.percent != 87 {
		t.Errorf("unexpected write: %+v", got)
	}
}

func TestReportStateChange(t *testing.T) {
	writer := &fakeWriter{}
	rec := NewRecorder(writer)

	at := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	err := rec.ReportStateChange(context.Background(), controller.Transition{
		Previous: controller.StateArmed,
		Next:     controller.StateAlarm,
		Source:   "door-1",
		At:       at,
	})
	if err != nil {
		t.Fatalf("ReportStateChange() error: %v", err)
	}

	if len(writer.transitions) != 1 {
		t.Fatalf("got %d writes, want 1", len(writer.transitions))
	}
	got := writer.transitions[0]
	if got.previous != "armed" || got.next != "alarm" || got.source != "door-1" || !got.at.Equal(at) {
		t.Errorf("unexpected write: %+v", got)
	}
}
