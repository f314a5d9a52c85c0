package redis

import (
	"context"
	"encoding/json"
	"log/slog"

	"classroom-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

const eventsPattern = "quiz:*:events"

// Relay forwards every quiz event published on Redis, by any instance, into a local publisher
// such as the websocket hub.
type Relay struct {
	client *redis.Client
	target app.EventPublisher
	log    *slog.Logger
}

func NewRelay(client *redis.Client, target app.EventPublisher, log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{client: client, target: target, log: log}
}

// Run blocks until ctx is done or the subscription is closed.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, eventsPattern)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event app.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Warn("dropping malformed quiz event", "channel", msg.Channel, "err", err)
				continue
			}
			if err := r.target.Publish(ctx, event); err != nil {
				r.log.Warn("relay event failed", "quiz", event.QuizID, "err", err)
			}
		}
	}
}
