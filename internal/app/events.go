package app

import (
	"context"
	"log/slog"
	"time"
)

// EventType names a post-commit quiz event.
type EventType string

const (
	EventLobbyOpened       EventType = "lobby_opened"
	EventParticipantJoined EventType = "participant_joined"
	EventQuizStarted       EventType = "quiz_started"
	EventQuestionStarted   EventType = "question_started"
	EventAnswerSubmitted   EventType = "answer_submitted"
	EventQuizFinished      EventType = "quiz_finished"
)

// Event is published after the transaction that produced it commits.
type Event struct {
	Type    EventType `json:"type"`
	QuizID  string    `json:"quizId"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

type notification struct {
	userID  string
	message string
}

// outbox collects side effects inside a transaction and flushes them once it has committed.
// Flush failures are logged and never reach the caller.
type outbox struct {
	events        []Event
	notifications []notification
}

func (o *outbox) event(e Event) {
	o.events = append(o.events, e)
}

func (o *outbox) notify(userID, message string) {
	o.notifications = append(o.notifications, notification{userID: userID, message: message})
}

func (o *outbox) flush(ctx context.Context, log *slog.Logger, events EventPublisher, notifier Notifier) {
	for _, e := range o.events {
		if events == nil {
			break
		}
		if err := events.Publish(ctx, e); err != nil {
			log.Warn("publish event failed", "type", e.Type, "quiz", e.QuizID, "err", err)
		}
	}
	for _, n := range o.notifications {
		if notifier == nil {
			break
		}
		if err := notifier.Notify(ctx, n.userID, n.message); err != nil {
			log.Warn("notify failed", "user", n.userID, "err", err)
		}
	}
	o.events, o.notifications = nil, nil
}

// FanoutPublisher publishes every event to each wrapped publisher and returns the first error.
type FanoutPublisher []EventPublisher

func (f FanoutPublisher) Publish(ctx context.Context, event Event) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
