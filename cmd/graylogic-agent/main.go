// Gray Logic MQTT Agent - thread-safe MQTT access for building telemetry
//
// This is the main entry point for the agent daemon. It owns one broker
// connection, serialises all protocol access through the command agent, and
// records numeric telemetry it receives into InfluxDB.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/agent"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-agent/internal/messaging"
	"github.com/nerrad567/gray-logic-agent/internal/mqttclient"
	"github.com/nerrad567/gray-logic-agent/internal/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// producerWait bounds how long daemon goroutines block handing commands to
// the agent. Never zero here: these callers run on their own goroutines,
// not inside agent callbacks.
const producerWait = time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic MQTT agent", "version", version, "commit", commit)

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}, version)

	// Connect to InfluxDB (optional telemetry sink)
	var sink *influxdb.Client

	if cfg.InfluxDB.Enabled {
		sink, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}

		defer func() {
			log.Info("closing InfluxDB connection")
			sink.Close()
		}()

		sink.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Dial the broker
	var tlsConfig *tls.Config
	if cfg.MQTT.Broker.TLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	connectTimeout := time.Duration(cfg.MQTT.ConnectTimeout) * time.Second

	conn, err := transport.Dial(cfg.BrokerAddr(), tlsConfig, connectTimeout, transport.Options{})
	if err != nil {
		return fmt.Errorf("dialling broker: %w", err)
	}
	defer conn.Close()

	log.Info("broker connection established", "addr", cfg.BrokerAddr(), "tls", cfg.MQTT.Broker.TLS)

	// Wire protocol client, messaging bus, and agent
	core := mqttclient.New(conn, mqttclient.Options{
		Logger: log.With("component", "mqttclient"),
	})

	bus := messaging.New(cfg.Agent.QueueDepth, cfg.Agent.CommandPoolSize)

	ag, err := agent.New(agent.Options{
		Client:             core,
		Messenger:          bus,
		OnIncomingPublish:  makePublishHandler(log, sink),
		MaxOutstandingAcks: cfg.Agent.MaxOutstandingAcks,
		QueueWait:          time.Duration(cfg.Agent.QueueWait) * time.Millisecond,
		Logger:             log.With("component", "agent"),
	})
	if err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}

	loopDone := make(chan error, 1)

	go func() {
		loopDone <- ag.CommandLoop()
	}()

	// Connect and subscribe through the agent
	if err := connectBroker(ag, cfg, connectTimeout, log); err != nil {
		return err
	}

	if err := subscribeAll(ag, cfg, log); err != nil {
		return err
	}

	// Keep-alive pings at half the keep-alive interval
	if cfg.MQTT.KeepAlive > 0 {
		interval := time.Duration(cfg.MQTT.KeepAlive) * time.Second / 2
		go pingLoop(ctx, ag, interval, log)
	}

	log.Info("agent running", "subscriptions", len(cfg.Subscriptions))

	// Wait for shutdown or loop failure
	select {
	case err := <-loopDone:
		if err != nil {
			return fmt.Errorf("command loop: %w", err)
		}

		log.Info("command loop exited")

		return nil

	case <-ctx.Done():
		log.Info("shutting down")
		return shutdown(ag, loopDone, log)
	}
}

// makePublishHandler builds the incoming-publish callback: log every
// message and record numeric payloads in the sink. Runs on the agent's
// command loop, so it must stay non-blocking; the sink's writes are
// asynchronous by design.
func makePublishHandler(log *logging.Logger, sink *influxdb.Client) agent.IncomingPublishFunc {
	return func(packetID uint16, publish *mqttclient.PublishInfo) {
		log.Debug("publish received", "topic", publish.Topic, "packet_id", packetID, "bytes", len(publish.Payload))

		if sink == nil {
			return
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(string(publish.Payload)), 64)
		if err != nil {
			log.Debug("payload not numeric, skipping sink", "topic", publish.Topic)
			return
		}

		sink.WriteTelemetry(publish.Topic, value)
	}
}

// connectBroker issues the CONNECT command and waits for its completion.
func connectBroker(ag *agent.Agent, cfg *config.Config, timeout time.Duration, log *logging.Logger) error {
	args := &agent.ConnectArgs{
		Info: &mqttclient.ConnectInfo{
			ClientID:     cfg.MQTT.Broker.ClientID,
			Username:     cfg.MQTT.Auth.Username,
			Password:     []byte(cfg.MQTT.Auth.Password),
			KeepAlive:    uint16(cfg.MQTT.KeepAlive),
			CleanSession: cfg.MQTT.CleanSession,
		},
		Timeout: timeout,
	}

	done := make(chan error, 1)

	err := ag.Connect(args, agent.CommandOptions{
		Wait: producerWait,
		Complete: func(result agent.CommandResult) {
			done <- result.Err
		},
	})
	if err != nil {
		return fmt.Errorf("enqueueing connect: %w", err)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}

	log.Info("MQTT connected", "client_id", cfg.MQTT.Broker.ClientID, "session_present", args.SessionPresent)

	return nil
}

// subscribeAll subscribes to every configured topic filter in one command.
func subscribeAll(ag *agent.Agent, cfg *config.Config, log *logging.Logger) error {
	if len(cfg.Subscriptions) == 0 {
		return nil
	}

	subs := make([]mqttclient.Subscription, 0, len(cfg.Subscriptions))
	for _, rule := range cfg.Subscriptions {
		subs = append(subs, mqttclient.Subscription{Topic: rule.Topic, QoS: rule.QoS})
	}

	done := make(chan agent.CommandResult, 1)

	err := ag.Subscribe(&agent.SubscribeArgs{Subscriptions: subs}, agent.CommandOptions{
		Wait: producerWait,
		Complete: func(result agent.CommandResult) {
			done <- result
		},
	})
	if err != nil {
		return fmt.Errorf("enqueueing subscribe: %w", err)
	}

	result := <-done
	if result.Err != nil {
		return fmt.Errorf("subscribing: %w", result.Err)
	}

	for i, code := range result.SubackCodes {
		if i >= len(subs) {
			break
		}

		if code >= 0x80 {
			return fmt.Errorf("broker rejected subscription %q: reason code 0x%02x", subs[i].Topic, code)
		}

		log.Info("subscribed", "topic", subs[i].Topic, "granted_qos", code)
	}

	return nil
}

// pingLoop issues keep-alive pings until ctx is cancelled.
func pingLoop(ctx context.Context, ag *agent.Agent, interval time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ag.Ping(agent.CommandOptions{Wait: producerWait}); err != nil {
				log.Warn("ping enqueue failed", "error", err)
			}
		}
	}
}

// shutdown disconnects cleanly, falling back to Terminate if the Disconnect
// command cannot be enqueued. If the loop does not exit within the shutdown
// timeout, it returns an error.
func shutdown(ag *agent.Agent, loopDone <-chan error, log *logging.Logger) error {
	if err := ag.Disconnect(agent.CommandOptions{Wait: producerWait}); err != nil {
		log.Warn("disconnect enqueue failed, terminating", "error", err)

		if err := ag.Terminate(agent.CommandOptions{Wait: producerWait}); err != nil {
			return fmt.Errorf("enqueueing terminate: %w", err)
		}
	}

	select {
	case err := <-loopDone:
		if err != nil {
			log.Warn("command loop exited with error", "error", err)
		}

		return nil

	case <-time.After(5 * time.Second):
		return fmt.Errorf("command loop did not exit within shutdown timeout")
	}
}

// getConfigPath returns the config file path from GRAYLOGIC_CONFIG or the
// default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}

	return defaultConfigPath
}
