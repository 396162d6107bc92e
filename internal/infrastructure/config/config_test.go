package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "gateway:\n  id: gw-test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.ID != "gw-test" {
		t.Errorf("Gateway.ID = %q, want %q", cfg.Gateway.ID, "gw-test")
	}
	if cfg.Transport.QueueSize != 10 {
		t.Errorf("Transport.QueueSize = %d, want 10", cfg.Transport.QueueSize)
	}
	if cfg.Controller.DispatchTimeout != 100 {
		t.Errorf("Controller.DispatchTimeout = %d, want 100", cfg.Controller.DispatchTimeout)
	}
	if got := cfg.DispatchTimeout(); got != 100*time.Millisecond {
		t.Errorf("DispatchTimeout() = %v, want 100ms", got)
	}
	if got := cfg.API.ReadTimeout(); got != 30*time.Second {
		t.Errorf("API.ReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.API.WriteTimeout(); got != 30*time.Second {
		t.Errorf("API.WriteTimeout() = %v, want 30s", got)
	}
	if got := cfg.API.IdleTimeout(); got != 60*time.Second {
		t.Errorf("API.IdleTimeout() = %v, want 60s", got)
	}
	if !cfg.Database.WALMode {
		t.Error("Database.WALMode should default to true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  id: gw-01
controller:
  queue_size: 32
  dispatch_timeout: 250
mqtt:
  enabled: true
  broker:
    host: broker.local
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Controller.QueueSize != 32 {
		t.Errorf("Controller.QueueSize = %d, want 32", cfg.Controller.QueueSize)
	}
	if !cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled should be true")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	// Untouched sections keep defaults.
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "gateway:\n  id: gw-file\n")

	t.Setenv("SENTRYGATE_GATEWAY_ID", "gw-env")
	t.Setenv("SENTRYGATE_MQTT_PASSWORD", "hunter2")
	t.Setenv("SENTRYGATE_API_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gateway.ID != "gw-env" {
		t.Errorf("Gateway.ID = %q, want env override %q", cfg.Gateway.ID, "gw-env")
	}
	if cfg.MQTT.Auth.Password != "hunter2" {
		t.Errorf("MQTT.Auth.Password not taken from environment")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing gateway id",
			mutate:  func(c *Config) { c.Gateway.ID = "" },
			wantErr: "gateway.id is required",
		},
		{
			name:    "gateway id too long",
			mutate:  func(c *Config) { c.Gateway.ID = "gateway-far-too-long-for-a-frame" },
			wantErr: "at most 16 characters",
		},
		{
			name:    "zero queue size",
			mutate:  func(c *Config) { c.Controller.QueueSize = 0 },
			wantErr: "controller.queue_size",
		},
		{
			name:    "bad qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "influx enabled without token",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.URL = "http://influx:8086" },
			wantErr: "influxdb.token is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() on missing file should fail")
	}
}
