package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hferrand/sentry-gate/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() with disabled config: err = %v, want ErrDisabled", err)
	}
}

func TestHealthCheckNotConnected(t *testing.T) {
	c := &Client{}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() on zero client: err = %v, want ErrNotConnected", err)
	}
}

func TestWritesAreNoopsWhenDisconnected(t *testing.T) {
	// A disconnected client must swallow writes without panicking.
	c := &Client{}
	c.WriteSensorSignal("door-01", "SEC_SENSOR", -60)
	c.WriteSensorBattery("door-01", 85)
	c.WriteStateTransition("disarmed", "armed", "keypad-01", time.Now())
	c.WritePoint("custom", nil, map[string]interface{}{"v": 1})
	c.Flush()
}

func TestCloseOnZeroClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}
