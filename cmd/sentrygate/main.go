// Sentry Gate - Wireless Security Gateway
//
// This is the main entry point for the gateway daemon. It wires the
// radio receive path (transport -> decoder -> controller) to durable
// state, the MQTT remote channel, signal telemetry, and the local
// HTTP/WebSocket API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/hferrand/sentry-gate/migrations"

	"github.com/hferrand/sentry-gate/internal/api"
	"github.com/hferrand/sentry-gate/internal/button"
	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/decoder"
	"github.com/hferrand/sentry-gate/internal/infrastructure/config"
	"github.com/hferrand/sentry-gate/internal/infrastructure/database"
	"github.com/hferrand/sentry-gate/internal/infrastructure/influxdb"
	"github.com/hferrand/sentry-gate/internal/infrastructure/logging"
	"github.com/hferrand/sentry-gate/internal/infrastructure/mqtt"
	"github.com/hferrand/sentry-gate/internal/remote"
	"github.com/hferrand/sentry-gate/internal/sensor"
	"github.com/hferrand/sentry-gate/internal/store"
	"github.com/hferrand/sentry-gate/internal/telemetry"
	"github.com/hferrand/sentry-gate/internal/transport"
	"github.com/hferrand/sentry-gate/internal/wire"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Shutdown runs through the deferred closers in reverse
// wiring order.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Sentry Gate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database and migrate
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	stateStore := store.NewStateStore(db)
	transitionLog := store.NewTransitionLog(db)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	registry := sensor.NewRegistry()
	codec := wire.JSONCodec{}

	// The hub is built before the controller so it can receive state
	// change notifications; the API server adopts it below.
	hub := api.NewHub(cfg.WebSocket, log)

	qos := byte(cfg.MQTT.QoS)
	reporters := []controller.Reporter{transitionLog}
	if mqttClient != nil {
		reporters = append(reporters, remote.NewReporter(mqttClient, cfg.Gateway.ID, qos))
	}

	var recorder *telemetry.Recorder
	if influxClient != nil {
		recorder = telemetry.NewRecorder(influxClient)
		reporters = append(reporters, recorder)
	}

	// Controller: the single writer of system state.
	ctrl, err := controller.New(controller.Options{
		QueueSize: cfg.Controller.QueueSize,
		Store:     stateStore,
		Registry:  registry,
		GatewayID: cfg.Gateway.ID,
		Notifier:  hub,
		Reporters: reporters,
		Sender:    transport.NopSender{}, // the radio driver binds here
		Codec:     codec,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}
	if startErr := ctrl.Start(ctx); startErr != nil {
		return fmt.Errorf("starting controller: %w", startErr)
	}
	log.Info("controller started",
		"boot_mode", ctrl.BootMode().String(),
		"state", ctrl.State().String(),
	)

	// Receive path: the radio driver pushes frames into the ingest
	// queue; the decoder drains it into the controller.
	ingest := transport.NewIngest(cfg.Transport.QueueSize)

	var signalSink decoder.Telemetry
	if recorder != nil {
		signalSink = recorder
	}
	dec := decoder.New(decoder.Options{
		Frames:          ingest.Frames(),
		Codec:           codec,
		Dispatcher:      ctrl,
		DispatchTimeout: cfg.DispatchTimeout(),
		Telemetry:       signalSink,
		Logger:          log,
	})
	dec.Start()
	log.Info("decoder started", "queue_size", cfg.Transport.QueueSize)

	// Remote command channel (optional, rides on MQTT)
	if mqttClient != nil {
		commands := remote.NewCommands(mqttClient, ctrl, stateStore, qos, log)
		if startErr := commands.Start(); startErr != nil {
			return fmt.Errorf("starting remote commands: %w", startErr)
		}
		log.Info("remote command channel started")
	}

	// Local panel button. The GPIO driver feeds this channel; without
	// one attached the stream stays empty.
	presses := make(chan button.PressKind)
	buttonHandler := button.New(presses, ctrl, ctrl, log)
	buttonHandler.Start()

	// Local HTTP/WebSocket API (optional)
	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Logger:      log,
			Controller:  ctrl,
			Registry:    registry,
			Transitions: transitionLog,
			Version:     version,
			Hub:         hub,
		})
		if err != nil {
			return fmt.Errorf("creating api server: %w", err)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting api server: %w", startErr)
		}
		log.Info("api server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))
	} else {
		log.Info("api server disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Stop the outer surfaces first, then drain the pipeline, then let
	// the deferred closers release MQTT/InfluxDB/database.
	if apiServer != nil {
		if shutdownErr := apiServer.Close(); shutdownErr != nil {
			log.Error("error shutting down api server", "error", shutdownErr)
		}
	}

	close(presses)
	buttonHandler.Wait()

	ingest.Close()
	dec.Wait()

	ctrl.Stop()

	stats := dec.Stats()
	log.Info("pipeline drained",
		"decoded", stats.Decoded,
		"malformed", stats.Malformed,
		"dispatch_timeouts", stats.Timeouts,
		"queue_dropped", ctrl.Dropped(),
	)

	log.Info("Sentry Gate stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SENTRYGATE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SENTRYGATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections are healthy. The
// MQTT and InfluxDB clients may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
