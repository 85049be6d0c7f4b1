package service

import (
	"context"
	"time"

	"driver-portal/internal/domain/auth"
	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/eventloop"
)

const publishTimeout = 5 * time.Second

// publish sends a portal activity event without blocking the loop. The message
// is built from the current state before the caller mutates it further.
func (portal *Portal) publish(event contracts.PortalEventType, fill func(*contracts.PortalEventMessage)) {
	if portal.events == nil {
		return
	}

	msg := contracts.PortalEventMessage{
		Envelope: contracts.Envelope{Producer: portal.producer},
		Type:     event,
		City:     portal.profile.sess.City,
		Phone:    auth.MaskPhone(portal.profile.sess.Phone),
	}
	if portal.profile.driver != nil {
		msg.DriverID = portal.profile.driver.ID
	}
	if fill != nil {
		fill(&msg)
	}

	ctx := portal.logCtx()
	eventloop.Go(portal.loop, func() (struct{}, error) {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		msg.SentAt = time.Now().UTC()
		return struct{}{}, portal.events.PublishPortalEvent(pubCtx, msg)
	}, func(_ struct{}, err error) {
		if err != nil {
			portal.logger.Error(ctx, "event_publish_failed", "Failed to publish portal event", err, map[string]any{"type": event})
		}
	})
}
