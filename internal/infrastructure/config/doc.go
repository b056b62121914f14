// Package config loads and validates the agent daemon's configuration.
//
// Configuration comes from three layers, each overriding the last:
//
//  1. Hardcoded defaults
//  2. A YAML file (configs/config.yaml by default)
//  3. Environment variables with the GRAYLOGIC_ prefix
//
// # Sections
//
//	mqtt:          broker address, credentials, TLS, keep-alive
//	agent:         queue depth, command pool size, pending-ack capacity
//	subscriptions: topic filters the daemon subscribes to at startup
//	influxdb:      optional telemetry sink for received publishes
//	logging:       level, format, output
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
package config
