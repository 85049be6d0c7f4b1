package activity

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"driver-portal/internal/general/config"
	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/general/rabbitmq"
)

const retryDelay = 2 * time.Second

// Run tails the portal activity queue and prints one line per event until ctx
// is cancelled.
func Run(ctx context.Context, configPath string, prefetch int, out io.Writer) error {
	logger := logger.New("portal-activity")
	logger.SetOutput(os.Stderr)
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	logger.SetLevel(cfg.Log.Level)

	mq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer mq.Close()

	logger.Info(ctx, "service_started", "Activity consumer started", map[string]any{
		"queue":    contracts.QueuePortalActivity,
		"prefetch": prefetch,
	})

	handle := func(_ context.Context, d amqp.Delivery) error {
		msg, err := rabbitmq.DecodePortalEvent(d.Body)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, FormatEvent(msg))
		return nil
	}

	// the client redials on its own; the consumer just starts over
	for {
		err := mq.Consume(ctx, contracts.QueuePortalActivity, "portal-activity", prefetch, handle)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		logger.Error(ctx, "consumer_restart", "Activity consumer stopped; restarting", err, nil)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}

// FormatEvent renders one activity line: time, type, then the known fields.
func FormatEvent(msg contracts.PortalEventMessage) string {
	line := fmt.Sprintf("%s %-16s", msg.SentAt.UTC().Format(time.RFC3339), msg.Type)
	for _, kv := range [][2]string{
		{"driver", msg.DriverID},
		{"city", msg.City},
		{"phone", msg.Phone},
		{"plate", msg.Plate},
		{"from", msg.Producer},
	} {
		if kv[1] != "" {
			line += fmt.Sprintf(" %s=%s", kv[0], kv[1])
		}
	}
	return line
}
