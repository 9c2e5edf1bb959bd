package services

import (
	"context"
	"log/slog"
	"time"

	"loyalty-service/internal/event"
	"loyalty-service/internal/hub"
)

// Broadcaster fans a state-change signal out to the websocket hub and the
// RabbitMQ mirror. Both legs are fire-and-forget: a push failure is logged
// and swallowed, never surfaced to the operation that produced the event.
// Either leg may be nil (the worker can run without a hub attached).
type Broadcaster struct {
	Hub       *hub.Hub
	Publisher *event.Publisher
}

func (b *Broadcaster) DashboardUpdated(reason string) {
	if b == nil {
		return
	}
	if b.Hub != nil {
		b.Hub.BroadcastDashboardUpdate(reason)
	}
	b.publish(event.LoyaltyEvent{
		Type:      hub.EventDashboardUpdate,
		Message:   reason,
		Timestamp: time.Now(),
	})
}

func (b *Broadcaster) PointsConverted(cardNo, message string) {
	if b == nil {
		return
	}
	if b.Hub != nil {
		b.Hub.BroadcastPointsConverted(message)
	}
	b.publish(event.LoyaltyEvent{
		Type:      hub.EventPointsConverted,
		Message:   message,
		CardNo:    cardNo,
		Timestamp: time.Now(),
	})
}

func (b *Broadcaster) publish(ev event.LoyaltyEvent) {
	if b.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Publisher.PublishEvent(ctx, ev); err != nil {
		slog.Error("failed to publish loyalty event", "type", ev.Type, "error", err)
	}
}
