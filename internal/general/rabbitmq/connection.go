package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"driver-portal/internal/general/config"
	"driver-portal/internal/general/logger"
)

const (
	heartbeat      = 10 * time.Second
	dialTimeout    = 15 * time.Second
	minBackoff     = time.Second
	maxBackoff     = 30 * time.Second
	connectionName = "driver-portal"
)

// Client holds one AMQP connection with a confirm-mode publishing channel and
// redials in the background when either goes away.
type Client struct {
	uri    amqp.URI
	logger *logger.Logger
	logCtx context.Context // outlives the caller's cancel

	mu      sync.RWMutex
	conn    *amqp.Connection
	pubChan *amqp.Channel

	pubMu       sync.Mutex
	pubConfirms chan amqp.Confirmation

	closeOnce sync.Once
	closed    chan struct{}
	reconnect chan struct{}
}

// ConnectRabbitMQ dials once, declares the portal topology and starts the
// reconnect watcher. Later failures are retried in the background.
func ConnectRabbitMQ(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Client, error) {
	client := &Client{
		uri: amqp.URI{
			Scheme:   "amqp",
			Host:     cfg.RabbitMQ.Host,
			Port:     cfg.RabbitMQ.Port,
			Username: cfg.RabbitMQ.User,
			Password: cfg.RabbitMQ.Password,
			Vhost:    "/",
		},
		logger:    logger,
		logCtx:    context.WithoutCancel(ctx),
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
	}

	if err := client.connect(); err != nil {
		return nil, err
	}
	go client.watch()

	return client, nil
}

// Close stops the watcher and releases the connection. Safe to call twice.
// Closing the channel also ends its confirm stream.
func (client *Client) Close() {
	client.closeOnce.Do(func() { close(client.closed) })

	client.mu.Lock()
	if client.pubChan != nil {
		_ = client.pubChan.Close()
		client.pubChan = nil
	}
	if client.conn != nil {
		_ = client.conn.Close()
		client.conn = nil
	}
	client.mu.Unlock()
}

// connect dials, prepares the publishing channel and installs both.
func (client *Client) connect() error {
	conn, err := amqp.DialConfig(client.uri.String(), amqp.Config{
		Heartbeat:  heartbeat,
		Locale:     "en_US",
		Dial:       amqp.DefaultDial(dialTimeout),
		Properties: amqp.Table{"connection_name": connectionName},
	})
	if err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_dial_failed", "Failed to dial RabbitMQ", err, map[string]any{
			"host": client.uri.Host,
			"port": client.uri.Port,
		})
		return fmt.Errorf("rabbitmq dial %s:%d: %w", client.uri.Host, client.uri.Port, err)
	}

	ch, confirms, err := openPublishChannel(conn)
	if err != nil {
		_ = conn.Close()
		client.logger.Error(client.logCtx, "rabbitmq_channel_setup_failed", "Failed to prepare the publishing channel", err, nil)
		return err
	}

	// the library closes the old confirm stream with its channel, which wakes
	// any publisher still waiting on it
	client.pubMu.Lock()
	client.pubConfirms = confirms
	client.pubMu.Unlock()

	client.mu.Lock()
	if client.isClosed() {
		client.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	if client.pubChan != nil && !client.pubChan.IsClosed() {
		_ = client.pubChan.Close()
	}
	client.conn = conn
	client.pubChan = ch
	client.mu.Unlock()

	go client.logReturns(ch.NotifyReturn(make(chan amqp.Return, 1)))
	go client.awaitClose(conn, ch)

	client.logger.Info(client.logCtx, "rabbitmq_connected", "RabbitMQ connection established", map[string]any{"host": client.uri.Host})
	return nil
}

// openPublishChannel declares the topology and turns on publisher confirms.
func openPublishChannel(conn *amqp.Connection) (*amqp.Channel, chan amqp.Confirmation, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("rabbitmq: declare topology: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("rabbitmq: enable confirms: %w", err)
	}
	return ch, ch.NotifyPublish(make(chan amqp.Confirmation, 1)), nil
}

// logReturns reports mandatory publishes the broker could not route.
func (client *Client) logReturns(returns <-chan amqp.Return) {
	for r := range returns {
		client.logger.Error(client.logCtx, "rabbitmq_returned", "Portal event was unroutable",
			fmt.Errorf("code=%d text=%s", r.ReplyCode, r.ReplyText),
			map[string]any{"exchange": r.Exchange, "routingKey": r.RoutingKey},
		)
	}
}

// awaitClose requests a reconnect when conn or its publishing channel closes.
func (client *Client) awaitClose(conn *amqp.Connection, ch *amqp.Channel) {
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	var cause *amqp.Error
	select {
	case <-client.closed:
		return
	case cause = <-connClosed:
	case cause = <-chClosed:
	}
	if client.isClosed() {
		return
	}

	details := map[string]any{}
	if cause != nil {
		details["reason"] = cause.Reason
	}
	client.logger.Info(client.logCtx, "rabbitmq_disconnected", "RabbitMQ connection lost; reconnecting", details)

	select {
	case client.reconnect <- struct{}{}:
	default:
	}
}

// watch redials with capped exponential backoff until Close.
func (client *Client) watch() {
	for {
		select {
		case <-client.closed:
			return
		case <-client.reconnect:
		}

		backoff := minBackoff
		for !client.isClosed() {
			err := client.connect()
			if err == nil {
				break
			}
			client.logger.Error(client.logCtx, "retry_attempted", "Failed to reconnect to RabbitMQ", err, map[string]any{
				"backoff_ms": backoff.Milliseconds(),
			})

			timer := time.NewTimer(backoff)
			select {
			case <-client.closed:
				timer.Stop()
				return
			case <-timer.C:
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

func (client *Client) isClosed() bool {
	select {
	case <-client.closed:
		return true
	default:
		return false
	}
}

// errNotConnected is returned while a reconnect is in progress.
var errNotConnected = errors.New("rabbitmq: not connected")
