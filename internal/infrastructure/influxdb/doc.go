// Package influxdb stores the gateway's telemetry: per-frame radio
// signal strength, sensor battery levels, and state transition markers.
//
// It wraps the official influxdb-client-go v2 library. Writes are
// non-blocking and batched, so recording a signal sample from the
// decode path never stalls the pipeline; batch errors surface through
// an error callback.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSensorSignal("door-01", "SEC_SENSOR", -62)
package influxdb
