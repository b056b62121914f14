package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the agent daemon.
// All configuration is loaded from YAML; selected fields can be overridden
// by environment variables (see applyEnvOverrides).
type Config struct {
	MQTT          MQTTConfig         `yaml:"mqtt"`
	Agent         AgentConfig        `yaml:"agent"`
	Subscriptions []SubscriptionRule `yaml:"subscriptions"`
	InfluxDB      InfluxDBConfig     `yaml:"influxdb"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`

	// KeepAlive is the CONNECT keep-alive interval in seconds; the daemon
	// pings at half this interval.
	KeepAlive int `yaml:"keep_alive"`

	// ConnectTimeout bounds the CONNACK wait, in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`

	// CleanSession requests a fresh broker session on connect.
	CleanSession bool `yaml:"clean_session"`
}

// MQTTBrokerConfig contains broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains broker authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// AgentConfig sizes the command queue, command pool, and pending-ack table.
// Zero values select the library defaults.
type AgentConfig struct {
	QueueDepth         int `yaml:"queue_depth"`
	CommandPoolSize    int `yaml:"command_pool_size"`
	MaxOutstandingAcks int `yaml:"max_outstanding_acks"`

	// QueueWait is the command-loop receive timeout in milliseconds.
	QueueWait int `yaml:"queue_wait"`
}

// SubscriptionRule is one topic filter the daemon subscribes to at startup.
type SubscriptionRule struct {
	Topic string `yaml:"topic"`
	QoS   byte   `yaml:"qos"`
}

// InfluxDBConfig contains InfluxDB connection settings for the telemetry
// sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern GRAYLOGIC_SECTION_KEY, for
// example GRAYLOGIC_MQTT_HOST or GRAYLOGIC_INFLUXDB_TOKEN.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			KeepAlive:      60,
			ConnectTimeout: 10,
			CleanSession:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}

	if v := os.Getenv("GRAYLOGIC_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}

	if v := os.Getenv("GRAYLOGIC_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}

	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}

	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("GRAYLOGIC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for contradictions and fills the
// client ID with a generated one when unset.
func (c *Config) Validate() error {
	if c.MQTT.Broker.Host == "" {
		return fmt.Errorf("mqtt.broker.host cannot be empty")
	}

	if c.MQTT.Broker.Port <= 0 || c.MQTT.Broker.Port > 65535 {
		return fmt.Errorf("mqtt.broker.port %d out of range", c.MQTT.Broker.Port)
	}

	if c.MQTT.Broker.ClientID == "" {
		// Stable service prefix, random suffix: brokers disconnect clients
		// sharing an ID, so an accidental second instance must not collide.
		c.MQTT.Broker.ClientID = "graylogic-agent-" + uuid.NewString()[:8]
	}

	if c.MQTT.KeepAlive < 0 || c.MQTT.KeepAlive > 65535 {
		return fmt.Errorf("mqtt.keep_alive %d out of range", c.MQTT.KeepAlive)
	}

	if c.MQTT.ConnectTimeout <= 0 {
		return fmt.Errorf("mqtt.connect_timeout must be positive")
	}

	for i, sub := range c.Subscriptions {
		if sub.Topic == "" {
			return fmt.Errorf("subscriptions[%d].topic cannot be empty", i)
		}

		if sub.QoS > 2 {
			return fmt.Errorf("subscriptions[%d].qos %d out of range", i, sub.QoS)
		}
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		return fmt.Errorf("influxdb.url required when influxdb is enabled")
	}

	return nil
}

// BrokerAddr returns the host:port dial address.
func (c *Config) BrokerAddr() string {
	return fmt.Sprintf("%s:%d", c.MQTT.Broker.Host, c.MQTT.Broker.Port)
}
