package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/twin-registry/internal/api"
	"github.com/nerrad567/twin-registry/internal/infrastructure/config"
	"github.com/nerrad567/twin-registry/internal/infrastructure/logging"
	"github.com/nerrad567/twin-registry/internal/registry"
	"github.com/nerrad567/twin-registry/internal/shell"
	"github.com/nerrad567/twin-registry/internal/storage/memory"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func quietLogger() *logging.Logger {
	return logging.NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("TWINREGISTRY_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MongoWithoutURI verifies validation stops startup before any connection.
func TestRun_MongoWithoutURI(t *testing.T) {
	t.Setenv("TWINREGISTRY_CONFIG", writeConfig(t, `
storage:
  backend: mongodb
mongodb:
  uri: ""
`))
	t.Setenv("TWINREGISTRY_MONGODB_URI", "")

	err := run(context.Background())
	if err == nil {
		t.Fatal("run() should fail without a MongoDB URI")
	}
	if !strings.Contains(err.Error(), "mongodb.uri") {
		t.Errorf("error = %v, want mention of mongodb.uri", err)
	}
}

// TestRun_SearchWithoutAddresses verifies the search section is validated.
func TestRun_SearchWithoutAddresses(t *testing.T) {
	t.Setenv("TWINREGISTRY_CONFIG", writeConfig(t, `
search:
  enabled: true
  addresses: []
`))

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "search.addresses") {
		t.Fatalf("run() error = %v, want search.addresses validation error", err)
	}
}

// TestRun_MemoryBackendShutsDown verifies a clean start and stop with only
// the in-memory store enabled.
func TestRun_MemoryBackendShutsDown(t *testing.T) {
	t.Setenv("TWINREGISTRY_CONFIG", writeConfig(t, `
repository:
  id: test-repo
storage:
  backend: memory
logging:
  level: error
api:
  host: "127.0.0.1"
  port: 38181
`))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() = %v, want nil on shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("TWINREGISTRY_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("TWINREGISTRY_CONFIG", "/etc/twinregistry.yaml")
	if got := getConfigPath(); got != "/etc/twinregistry.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/twinregistry.yaml", got)
	}
}

func TestOpenStorage_SQLite(t *testing.T) {
	cfg := &config.Config{
		Storage:  config.StorageConfig{Backend: config.BackendSQLite},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "shells.db"), WALMode: true, BusyTimeout: 5},
	}

	store, closeStore, err := openStorage(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("openStorage: %v", err)
	}
	defer closeStore()

	if store.Name() != "sqlite" {
		t.Errorf("Name() = %q, want sqlite", store.Name())
	}

	ctx := context.Background()
	if err := store.Insert(ctx, &shell.Shell{ID: "migrated"}); err != nil {
		t.Fatalf("Insert after migrations: %v", err)
	}
	if _, err := store.Get(ctx, "migrated"); err != nil {
		t.Errorf("Get: %v", err)
	}
}

func TestOpenStorage_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.BackendMemory}}

	store, closeStore, err := openStorage(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("openStorage: %v", err)
	}
	closeStore()

	if store.Name() != "memory" {
		t.Errorf("Name() = %q, want memory", store.Name())
	}
}

func TestOpenStorage_Unknown(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "cassandra"}}

	if _, _, err := openStorage(context.Background(), cfg, quietLogger()); err == nil {
		t.Error("openStorage should reject an unknown backend")
	}
}

type stubCheck struct{ err error }

func (s stubCheck) HealthCheck(context.Context) error { return s.err }

func TestHealthCheck_ReportsEveryFailure(t *testing.T) {
	reg := registry.New(memory.New())

	if err := healthCheck(context.Background(), reg, map[string]api.HealthChecker{"ok": stubCheck{}}); err != nil {
		t.Fatalf("healthCheck with healthy components = %v", err)
	}

	errMQTT := errors.New("broker down")
	errInflux := errors.New("influx down")
	err := healthCheck(context.Background(), reg, map[string]api.HealthChecker{
		"mqtt":     stubCheck{err: errMQTT},
		"influxdb": stubCheck{err: errInflux},
		"search":   stubCheck{},
	})
	if !errors.Is(err, errMQTT) || !errors.Is(err, errInflux) {
		t.Errorf("healthCheck = %v, want both failures", err)
	}
	if !strings.Contains(err.Error(), "mqtt: broker down") {
		t.Errorf("error %q should name the component", err)
	}
}
