package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"driver-portal/internal/general/contracts"
)

// declareTopology makes sure portal_topic exists and that every portal.* event
// lands in the durable activity queue, whether or not a consumer is running.
func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(contracts.ExchangePortalTopic, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", contracts.ExchangePortalTopic, err)
	}
	if _, err := ch.QueueDeclare(contracts.QueuePortalActivity, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", contracts.QueuePortalActivity, err)
	}
	if err := ch.QueueBind(contracts.QueuePortalActivity, contracts.RoutePortalBinding, contracts.ExchangePortalTopic, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", contracts.QueuePortalActivity, contracts.ExchangePortalTopic, err)
	}
	return nil
}
