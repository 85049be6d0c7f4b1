package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryHandler processes one delivery; a returned error drops the message.
type DeliveryHandler func(context.Context, amqp.Delivery) error

const handlerTimeout = 10 * time.Second

// consumerChannel opens a channel of its own for one consumer, with QoS set
// to prefetch when positive.
func (client *Client) consumerChannel(prefetch int) (*amqp.Channel, error) {
	client.mu.RLock()
	conn := client.conn
	client.mu.RUnlock()
	if conn == nil || conn.IsClosed() {
		return nil, errNotConnected
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: open consumer channel: %w", err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("rabbitmq: qos prefetch=%d: %w", prefetch, err)
		}
	}
	return ch, nil
}

// Consume reads queue with manual acks until ctx is done (nil) or the channel
// closes (an error; callers decide whether to retry). Handler errors nack the
// delivery without requeue.
func (client *Client) Consume(ctx context.Context, queue, consumerTag string, prefetch int, handler DeliveryHandler) error {
	ch, err := client.consumerChannel(prefetch)
	if err != nil {
		return err
	}
	defer ch.Close()

	deliveries, err := ch.ConsumeWithContext(ctx, queue, consumerTag,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume %s: %w", queue, err)
	}
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			return nil

		case cerr := <-chClosed:
			if cerr == nil {
				cerr = amqp.ErrClosed
			}
			return fmt.Errorf("rabbitmq: channel closed while consuming %s: %w", queue, cerr)

		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("rabbitmq: delivery stream of %s ended: %w", queue, amqp.ErrClosed)
			}

			hCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
			err := handler(hCtx, d)
			cancel()

			if err != nil {
				client.logger.Error(client.logCtx, "rabbitmq_delivery_dropped", "Handler rejected delivery", err, map[string]any{
					"queue":      queue,
					"routingKey": d.RoutingKey,
				})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
