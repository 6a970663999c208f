// Package influxdb exports the device's numeric readings to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Export is optional
// (influxdb.enabled) and one-way: the dashboard never reads history back.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Device.TopicPrefix)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteReading("temperature", 23.5, time.Now())
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Batch errors arrive asynchronously through SetOnError.
package influxdb
