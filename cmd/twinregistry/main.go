// Twin Registry - Asset Administration Shell repository
//
// This is the main entry point for the twin registry service. It serves
// filtered, cursor-paginated shell listings over HTTP from one of several
// storage backends (memory, SQLite, MongoDB), optionally mirrored into an
// Elasticsearch listing index, with lifecycle events published over MQTT
// and operation telemetry written to Prometheus and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/twin-registry/migrations"

	"github.com/nerrad567/twin-registry/internal/api"
	"github.com/nerrad567/twin-registry/internal/events"
	"github.com/nerrad567/twin-registry/internal/infrastructure/config"
	"github.com/nerrad567/twin-registry/internal/infrastructure/database"
	"github.com/nerrad567/twin-registry/internal/infrastructure/influxdb"
	"github.com/nerrad567/twin-registry/internal/infrastructure/logging"
	"github.com/nerrad567/twin-registry/internal/infrastructure/mqtt"
	"github.com/nerrad567/twin-registry/internal/registry"
	"github.com/nerrad567/twin-registry/internal/search"
	"github.com/nerrad567/twin-registry/internal/storage"
	"github.com/nerrad567/twin-registry/internal/storage/memory"
	"github.com/nerrad567/twin-registry/internal/storage/mongodb"
	"github.com/nerrad567/twin-registry/internal/storage/sqlite"
	"github.com/nerrad567/twin-registry/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// startupCheckTimeout bounds the health checks run before serving.
const startupCheckTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Components are closed in reverse order of construction.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting twin registry",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"repository", cfg.Repository.ID,
		"backend", cfg.Storage.Backend,
	)

	store, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := registry.New(store)
	reg.SetLogger(log.With("component", "registry"))

	checks := map[string]api.HealthChecker{}

	metrics := telemetry.NewMetrics()
	observers := telemetry.Fanout{metrics}

	// Search index (optional)
	if cfg.Search.Enabled {
		index, err := openSearch(ctx, cfg.Search, store, log)
		if err != nil {
			return err
		}
		reg.SetLister(index)
		reg.AddInterceptor(index)
		checks["search"] = index
	} else {
		log.Info("search index disabled")
	}

	// MQTT lifecycle events (optional)
	if cfg.MQTT.Enabled {
		topics := mqtt.NewTopics(cfg.Repository.ID)
		mqttClient, err := mqtt.Connect(cfg.MQTT, topics)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"status_topic", topics.Status(),
		)

		reg.AddInterceptor(events.NewPublisher(mqttClient, topics))
		checks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT events disabled")
	}

	// InfluxDB operation telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
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

		observers = append(observers, telemetry.NewInfluxSink(influxClient))
		checks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	reg.SetObserver(observers)

	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	err = healthCheck(checkCtx, reg, checks)
	cancel()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Metrics:      cfg.Metrics,
		Logger:       log.With("component", "api"),
		Registry:     reg,
		Telemetry:    metrics,
		HealthChecks: checks,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path from the environment
// or the default.
func getConfigPath() string {
	if path := os.Getenv("TWINREGISTRY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openStorage opens the configured primary store. The returned close
// function releases its connection and logs any error.
func openStorage(ctx context.Context, cfg *config.Config, log *logging.Logger) (storage.Storage, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database connected", "path", cfg.Database.Path)

		return sqlite.New(db), func() {
			log.Info("closing database")
			if err := db.Close(); err != nil {
				log.Error("error closing database", "error", err)
			}
		}, nil

	case config.BackendMongoDB:
		client, err := mongodb.Connect(ctx, mongodb.Config{
			URI:        cfg.MongoDB.URI,
			Database:   cfg.MongoDB.Database,
			Collection: cfg.MongoDB.Collection,
			Timeout:    cfg.GetMongoTimeout(),
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("MongoDB connected",
			"database", cfg.MongoDB.Database,
			"collection", cfg.MongoDB.Collection,
		)

		return mongodb.New(client), func() {
			log.Info("disconnecting from MongoDB")
			closeCtx, cancel := context.WithTimeout(context.Background(), startupCheckTimeout)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				log.Error("error closing MongoDB", "error", err)
			}
		}, nil

	case config.BackendMemory:
		log.Info("using in-memory storage; shells are lost on restart")
		return memory.New(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// openSearch connects the Elasticsearch listing index, creating it when
// missing and optionally re-indexing every shell from the primary store.
func openSearch(ctx context.Context, cfg config.SearchConfig, store storage.Storage, log *logging.Logger) (*search.Index, error) {
	client, err := search.NewClient(search.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}

	index := search.NewIndex(client, search.Options{
		Index:           cfg.Index,
		DefaultPageSize: cfg.DefaultPageSize,
	})
	index.SetLogger(log.With("component", "search"))

	if err := index.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("ensuring search index: %w", err)
	}
	log.Info("search index ready", "addresses", cfg.Addresses, "index", cfg.Index)

	if cfg.RebuildOnStart {
		if _, err := index.Rebuild(ctx, store); err != nil {
			return nil, fmt.Errorf("rebuilding search index: %w", err)
		}
	}

	return index, nil
}

// healthCheck runs every component check concurrently and reports all failures.
func healthCheck(ctx context.Context, reg *registry.Registry, checks map[string]api.HealthChecker) error {
	var g errgroup.Group
	errs := make([]error, len(checks)+1)

	g.Go(func() error {
		if err := reg.HealthCheck(ctx); err != nil {
			errs[0] = fmt.Errorf("storage (%s): %w", reg.Backend(), err)
		}
		return nil
	})

	i := 1
	for name, hc := range checks {
		slot := i
		g.Go(func() error {
			if err := hc.HealthCheck(ctx); err != nil {
				errs[slot] = fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
		i++
	}

	_ = g.Wait()
	return errors.Join(errs...)
}
