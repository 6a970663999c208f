package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement readings are written to.
const Measurement = "device_telemetry"

// WriteReading records one numeric reading.
//
// The point has tags device and field and a single "value" field:
//
//	device_telemetry,device=nikhil/home,field=temperature value=23.5
//
// Parameters:
//   - field: Reading name, e.g. "temperature", "humidity", "fan_speed"
//   - value: Parsed reading
//   - at: Receive time of the message carrying the reading
func (c *Client) WriteReading(field string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		Measurement,
		map[string]string{
			"device": c.device,
			"field":  field,
		},
		map[string]any{
			"value": value,
		},
		at,
	)
	c.writer.WritePoint(point)
}
