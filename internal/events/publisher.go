// internal/events/publisher.go
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/streadway/amqp"
)

const uploadQueue = "script_uploads"

// UploadEvent is published after a script upload fully succeeds, for
// out-of-band consumers (billing, audit). The gateway itself never consumes.
type UploadEvent struct {
	Script     string    `json:"script"`
	CustomerID string    `json:"customer_id"`
	PlanType   string    `json:"plan_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Publisher is a fire-and-forget AMQP publisher. A nil *Publisher is valid
// and drops events, so wiring stays unconditional when no broker is
// configured.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		uploadQueue,
		true, false, false, false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare upload queue: %w", err)
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

// PublishUpload sends the event to the upload queue. Failures are logged and
// swallowed: event delivery is bookkeeping, never a reason to fail an upload
// that already landed in the namespace.
func (p *Publisher) PublishUpload(ev UploadEvent) {
	if p == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Events] Failed to encode upload event: %v", err)
		return
	}
	err = p.channel.Publish(
		"",          // default exchange
		uploadQueue, // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		log.Printf("[Events] Failed to publish upload event for %s: %v", ev.Script, err)
	}
}

// Close cleans up connection and channel
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
