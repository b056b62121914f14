// Package influxdb records telemetry received over MQTT into InfluxDB v2.
//
// The daemon feeds every numeric publish it receives through the agent's
// incoming-publish callback into this sink. Writes are batched and
// asynchronous, so the callback, which runs on the agent's command loop
// and must not block, can hand points off safely.
//
// # Usage
//
//	sink, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//
//	sink.WriteTelemetry("building/3/temperature", 21.5)
package influxdb
