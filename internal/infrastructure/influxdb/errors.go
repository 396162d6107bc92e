package influxdb

import "errors"

// Sentinel errors; check with errors.Is.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled is returned by Connect when the telemetry sink is
	// switched off in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
