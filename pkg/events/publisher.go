package events

import (
	"encoding/json"

	nats "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

const subjectPrefix = "plantigo.telemetry.v1."

// Publisher fans processing results out to NATS for downstream consumers
// (realtime event stream, integrations). A nil Publisher drops everything,
// so callers can run without a NATS connection.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher creates a publisher on top of an established NATS connection.
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// Publish serializes v as JSON and publishes it under the versioned
// telemetry subject prefix.
func (p *Publisher) Publish(topic string, v interface{}) error {
	if p == nil || p.nc == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	if err := p.nc.Publish(subjectPrefix+topic, data); err != nil {
		return errors.Wrap(err, "failed to publish event")
	}

	return nil
}
