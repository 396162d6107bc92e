// Package telemetry bridges runtime events to the time-series store.
// It adapts the decoder's signal readings and the controller's state
// transitions onto the InfluxDB client without either package knowing
// about the other.
package telemetry
