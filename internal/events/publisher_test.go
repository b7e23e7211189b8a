package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/twin-registry/internal/infrastructure/mqtt"
	"github.com/nerrad567/twin-registry/internal/registry"
	"github.com/nerrad567/twin-registry/internal/shell"
	"github.com/nerrad567/twin-registry/internal/storage/memory"
)

type message struct {
	topic   string
	payload []byte
}

// fakeBroker records published messages.
type fakeBroker struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (b *fakeBroker) PublishDefault(topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.msgs = append(b.msgs, message{topic: topic, payload: payload})
	return nil
}

func (b *fakeBroker) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.msgs))
	for _, m := range b.msgs {
		out = append(out, m.topic)
	}
	return out
}

func TestPublisherLifecycle(t *testing.T) {
	broker := &fakeBroker{}
	reg := registry.New(memory.New())
	reg.AddInterceptor(NewPublisher(broker, mqtt.NewTopics("plant-7")))
	ctx := context.Background()

	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x", IDShort: "pump"}); err != nil {
		t.Fatalf("CreateShell: %v", err)
	}
	if err := reg.UpdateShell(ctx, "x", &shell.Shell{IDShort: "valve"}); err != nil {
		t.Fatalf("UpdateShell: %v", err)
	}
	if err := reg.DeleteShell(ctx, "x"); err != nil {
		t.Fatalf("DeleteShell: %v", err)
	}

	want := []string{
		"aas-repository/plant-7/shells/created",
		"aas-repository/plant-7/shells/updated",
		"aas-repository/plant-7/shells/deleted",
	}
	if got := broker.topics(); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("topics = %v, want %v", got, want)
	}

	var created shell.Shell
	if err := json.Unmarshal(broker.msgs[0].payload, &created); err != nil {
		t.Fatalf("created payload: %v", err)
	}
	if created.ID != "x" || created.IDShort != "pump" {
		t.Errorf("created payload = %+v", created)
	}

	var deleted shell.Shell
	if err := json.Unmarshal(broker.msgs[2].payload, &deleted); err != nil {
		t.Fatalf("deleted payload: %v", err)
	}
	if deleted.ID != "x" || deleted.IDShort != "valve" || deleted.CreatedAt.IsZero() {
		t.Errorf("deleted payload = %s, want the full removed shell", broker.msgs[2].payload)
	}
}

func TestPublisherDeletedWithoutShellFallsBackToID(t *testing.T) {
	broker := &fakeBroker{}
	p := NewPublisher(broker, mqtt.NewTopics("r"))

	if err := p.Intercept(context.Background(), registry.Event{Type: registry.EventDeleted, ShellID: "x"}); err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}
	if got := string(broker.msgs[0].payload); got != `{"id":"x"}` {
		t.Errorf("payload = %s, want {\"id\":\"x\"}", got)
	}
}

func TestPublisherClearPublishesEachRemoval(t *testing.T) {
	broker := &fakeBroker{}
	p := NewPublisher(broker, mqtt.NewTopics("r"))

	err := p.Intercept(context.Background(), registry.Event{
		Type:       registry.EventCleared,
		RemovedIDs: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}
	if n := len(broker.topics()); n != 2 {
		t.Errorf("messages = %d, want 2", n)
	}
}

func TestPublisherFailureSurfacesThroughRegistry(t *testing.T) {
	broker := &fakeBroker{err: mqtt.ErrNotConnected}
	reg := registry.New(memory.New())
	reg.AddInterceptor(NewPublisher(broker, mqtt.NewTopics("r")))

	err := reg.CreateShell(context.Background(), &shell.Shell{ID: "x"})
	if !errors.Is(err, registry.ErrInterceptor) || !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("CreateShell() error = %v, want interceptor error wrapping ErrNotConnected", err)
	}
	if _, err := reg.GetShell(context.Background(), "x"); err != nil {
		t.Errorf("shell should be committed despite publish failure: %v", err)
	}
}
