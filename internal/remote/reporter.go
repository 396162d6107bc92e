package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/infrastructure/mqtt"
)

// Publisher is the slice of the MQTT client the reporter needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Reporter publishes accepted transitions to the cloud event topic. It
// implements the controller's Reporter interface.
type Reporter struct {
	publisher Publisher
	gatewayID string
	qos       byte
	topics    mqtt.Topics

	// newID is injectable for tests.
	newID func() string
}

// NewReporter creates a cloud transition reporter.
func NewReporter(publisher Publisher, gatewayID string, qos byte) *Reporter {
	return &Reporter{
		publisher: publisher,
		gatewayID: gatewayID,
		qos:       qos,
		newID:     func() string { return uuid.New().String() },
	}
}

// ReportStateChange publishes one transition event.
func (r *Reporter) ReportStateChange(_ context.Context, t controller.Transition) error {
	event := StateEvent{
		ID:         r.newID(),
		GatewayID:  r.gatewayID,
		Previous:   t.Previous.String(),
		Next:       t.Next.String(),
		Source:     t.Source,
		OccurredAt: t.At,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding state event: %w", err)
	}
	if err := r.publisher.Publish(r.topics.StateEvents(), payload, r.qos, false); err != nil {
		return fmt.Errorf("publishing state event: %w", err)
	}
	return nil
}
