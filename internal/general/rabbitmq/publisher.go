package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"driver-portal/internal/general/contracts"
)

// MQPublisher publishes portal activity through the Client.
type MQPublisher struct {
	Client   *Client
	Producer string
}

// NewMQPublisher constructs an MQPublisher using the provided RabbitMQ client.
func NewMQPublisher(client *Client, producer string) *MQPublisher {
	return &MQPublisher{Client: client, Producer: producer}
}

// PublishPortalEvent stamps the envelope and publishes msg on portal_topic.
func (publisher *MQPublisher) PublishPortalEvent(ctx context.Context, msg contracts.PortalEventMessage) error {
	if msg.Producer == "" {
		msg.Producer = publisher.Producer
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: encode %s: %w", msg.Type, err)
	}
	return publisher.Client.PublishMessage(ctx, contracts.ExchangePortalTopic, msg.Type.RoutingKey(), body)
}

// PublishMessage publishes JSON messages with persistence and waits for the broker confirm.
func (client *Client) PublishMessage(ctx context.Context, exchange, routingKey string, body []byte) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() || ch == nil || ch.IsClosed() {
		return fmt.Errorf("publish %s: %w", routingKey, errNotConnected)
	}

	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := ch.PublishWithContext(ctx, exchange, routingKey, true /* mandatory */, false, /* immediate */
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	); err != nil {
		return err
	}

	select {
	case c, ok := <-confirms:
		if !ok {
			return errors.New("rabbitmq: confirm stream closed")
		}
		if !c.Ack {
			return fmt.Errorf("rabbitmq: publish not acknowledged")
		}
	case <-ctx.Done():
		// keep the confirm stream aligned: try to consume exactly one confirm even if we return a timeout to the caller
		select {
		case c, ok := <-confirms:
			if ok && !c.Ack {
				return fmt.Errorf("rabbitmq: publish not acknowledged after timeout")
			}
		case <-time.After(2 * time.Second):
			// give up trying to read from the confirms channel
		}

		// return the original context error
		return ctx.Err()
	}

	return nil
}

// DecodePortalEvent parses a delivery body published by PublishPortalEvent.
func DecodePortalEvent(body []byte) (contracts.PortalEventMessage, error) {
	var msg contracts.PortalEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("rabbitmq: decode portal event: %w", err)
	}
	if strings.TrimSpace(string(msg.Type)) == "" {
		return msg, errors.New("rabbitmq: portal event without type")
	}
	return msg, nil
}
