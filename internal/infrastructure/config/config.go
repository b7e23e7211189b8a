package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend names accepted in storage.backend.
const (
	BackendMemory  = "memory"
	BackendSQLite  = "sqlite"
	BackendMongoDB = "mongodb"
)

// Config is the root configuration structure for the twin registry.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Repository RepositoryConfig `yaml:"repository"`
	Storage    StorageConfig    `yaml:"storage"`
	Database   DatabaseConfig   `yaml:"database"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
	Search     SearchConfig     `yaml:"search"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// RepositoryConfig identifies this repository instance.
type RepositoryConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// StorageConfig selects the primary shell store.
type StorageConfig struct {
	Backend string `yaml:"backend"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MongoDBConfig contains MongoDB connection settings.
type MongoDBConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Timeout    int    `yaml:"timeout"` // seconds
}

// SearchConfig contains Elasticsearch settings for the listing index.
type SearchConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Addresses       []string `yaml:"addresses"`
	Index           string   `yaml:"index"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	DefaultPageSize int      `yaml:"default_page_size"`
	RebuildOnStart  bool     `yaml:"rebuild_on_start"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TWINREGISTRY_SECTION_KEY
// For example: TWINREGISTRY_STORAGE_BACKEND, TWINREGISTRY_MONGODB_URI
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
		Repository: RepositoryConfig{
			ID:   "aas-repo",
			Name: "Twin Registry",
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Database: DatabaseConfig{
			Path:        "./data/twinregistry.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MongoDB: MongoDBConfig{
			Database:   "twinregistry",
			Collection: "shells",
			Timeout:    10,
		},
		Search: SearchConfig{
			Index:           "twinregistry-shells",
			DefaultPageSize: 100,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "twinregistry",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "twinregistry",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8081,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TWINREGISTRY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TWINREGISTRY_REPOSITORY_ID"); v != "" {
		cfg.Repository.ID = v
	}

	// Storage
	if v := os.Getenv("TWINREGISTRY_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("TWINREGISTRY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TWINREGISTRY_MONGODB_URI"); v != "" {
		cfg.MongoDB.URI = v
	}

	// Search
	if v := os.Getenv("TWINREGISTRY_SEARCH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.Enabled = b
		}
	}
	if v := os.Getenv("TWINREGISTRY_SEARCH_ADDRESSES"); v != "" {
		cfg.Search.Addresses = strings.Split(v, ",")
	}
	if v := os.Getenv("TWINREGISTRY_SEARCH_PASSWORD"); v != "" {
		cfg.Search.Password = v
	}

	// MQTT
	if v := os.Getenv("TWINREGISTRY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TWINREGISTRY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TWINREGISTRY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("TWINREGISTRY_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("TWINREGISTRY_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("TWINREGISTRY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("TWINREGISTRY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Every problem is reported, not just the first one.
func (c *Config) Validate() error {
	var errs []string

	if c.Repository.ID == "" {
		errs = append(errs, "repository.id is required")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite backend")
		}
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			errs = append(errs, "mongodb.uri is required for the mongodb backend (set TWINREGISTRY_MONGODB_URI)")
		}
		if c.MongoDB.Database == "" || c.MongoDB.Collection == "" {
			errs = append(errs, "mongodb.database and mongodb.collection are required")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend %q is not one of memory, sqlite, mongodb", c.Storage.Backend))
	}

	if c.Search.Enabled {
		if len(c.Search.Addresses) == 0 {
			errs = append(errs, "search.addresses is required when search is enabled")
		}
		if c.Search.DefaultPageSize < 1 {
			errs = append(errs, "search.default_page_size must be positive")
		}
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, "metrics.path must start with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetMongoTimeout returns the MongoDB operation timeout as a Duration.
func (c *Config) GetMongoTimeout() time.Duration {
	return time.Duration(c.MongoDB.Timeout) * time.Second
}
