package redis

import (
	"context"
	"encoding/json"
	"time"

	"classroom-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// Publisher fans quiz events and user notifications out over Redis pub/sub so that every
// instance, and any external consumer, sees them.
//
//	PUBLISH quiz:{quizID}:events     {event json}
//	PUBLISH notifications:{userID}   {notification json}
type Publisher struct {
	client *redis.Client
	now    func() time.Time
}

var (
	_ app.EventPublisher = (*Publisher)(nil)
	_ app.Notifier       = (*Publisher)(nil)
)

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

// Notification is the payload sent on a user's notification channel.
type Notification struct {
	UserID  string    `json:"userId"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func (p *Publisher) Publish(ctx context.Context, event app.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, EventsChannel(event.QuizID), raw).Err()
}

func (p *Publisher) Notify(ctx context.Context, userID, message string) error {
	raw, err := json.Marshal(Notification{UserID: userID, Message: message, At: p.now()})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, NotificationsChannel(userID), raw).Err()
}

func EventsChannel(quizID string) string {
	return "quiz:" + quizID + ":events"
}

func NotificationsChannel(userID string) string {
	return "notifications:" + userID
}
