package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorSignal records one radio link-quality sample. Called from
// the decode path for every frame, so it must not block; the point is
// buffered and batched.
func (c *Client) WriteSensorSignal(sensorID, sensorType string, rssi int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_signal",
		map[string]string{
			"sensor_id":   sensorID,
			"sensor_type": sensorType,
		},
		map[string]interface{}{
			"rssi": rssi,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteSensorBattery records a battery level sample from an event or
// heartbeat payload.
func (c *Client) WriteSensorBattery(sensorID string, percent int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_battery",
		map[string]string{
			"sensor_id": sensorID,
		},
		map[string]interface{}{
			"percent": percent,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteStateTransition records a state change marker so dashboards can
// overlay arm windows on the signal graphs.
func (c *Client) WriteStateTransition(previous, next, source string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"state_transition",
		map[string]string{
			"previous": previous,
			"next":     next,
			"source":   source,
		},
		map[string]interface{}{
			"count": 1,
		},
		at,
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point. Tags should stay low cardinality.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
