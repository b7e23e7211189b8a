package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/twin-registry/internal/infrastructure/mqtt"
	"github.com/nerrad567/twin-registry/internal/registry"
)

// Broker is the part of the MQTT client the publisher needs.
type Broker interface {
	PublishDefault(topic string, payload []byte) error
}

// deletedPayload is the body of a deleted event when the removed shell
// is not available, as for every shell removed by a clear.
type deletedPayload struct {
	ID string `json:"id"`
}

// Publisher turns registry events into MQTT messages.
type Publisher struct {
	broker Broker
	topics mqtt.Topics
}

// NewPublisher creates a publisher sending through broker.
func NewPublisher(broker Broker, topics mqtt.Topics) *Publisher {
	return &Publisher{broker: broker, topics: topics}
}

// Name implements registry.Interceptor.
func (p *Publisher) Name() string {
	return "mqtt-events"
}

// Intercept implements registry.Interceptor.
func (p *Publisher) Intercept(ctx context.Context, ev registry.Event) error {
	switch ev.Type {
	case registry.EventCreated:
		return p.publishJSON(p.topics.ShellCreated(), ev.Shell)
	case registry.EventUpdated:
		return p.publishJSON(p.topics.ShellUpdated(), ev.Shell)
	case registry.EventDeleted:
		if ev.Shell == nil {
			return p.publishJSON(p.topics.ShellDeleted(), deletedPayload{ID: ev.ShellID})
		}
		return p.publishJSON(p.topics.ShellDeleted(), ev.Shell)
	case registry.EventCleared:
		var errs []error
		for _, id := range ev.RemovedIDs {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				break
			}
			if err := p.publishJSON(p.topics.ShellDeleted(), deletedPayload{ID: id}); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	default:
		return nil
	}
}

func (p *Publisher) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding event for %s: %w", topic, err)
	}
	if err := p.broker.PublishDefault(topic, payload); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}
