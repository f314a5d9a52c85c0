package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// EventSource hands out per-quiz event subscriptions.
type EventSource interface {
	Subscribe(quizID string) (<-chan app.Event, func())
}

type WSHandler struct {
	engine   *app.QuizEngine
	identity app.IdentityProvider
	events   EventSource
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.QuizEngine, identity app.IdentityProvider, events EventSource, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		engine:   engine,
		identity: identity,
		events:   events,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type snapshotPayload struct {
	Quiz        domain.Quiz        `json:"quiz"`
	Leaderboard domain.Leaderboard `json:"leaderboard"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: domain.KindOf(err), Message: err.Error()}}
}

// ServeWS streams quiz events to the caller. Students may also answer over the socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	token := r.URL.Query().Get("token")
	if quizID == "" || token == "" {
		http.Error(w, "missing quizId or token", http.StatusBadRequest)
		return
	}
	caller, err := h.identity.Resolve(r.Context(), token)
	if err != nil {
		http.Error(w, err.Error(), statusOf(domain.KindOf(err)))
		return
	}
	quiz, err := h.engine.GetQuiz(r.Context(), quizID)
	if err != nil {
		http.Error(w, err.Error(), statusOf(domain.KindOf(err)))
		return
	}

	// Subscribe before the snapshot so no event between the two is lost.
	updates, cancel := h.events.Subscribe(quizID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	lb, err := h.engine.GetLeaderboard(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", "quiz", quizID, "err", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(event.Type), Payload: event}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := outQueue{send: send, stopped: writerDone}.push
	ok := reply(outboundMessage[any]{Type: "snapshot", Payload: snapshotPayload{Quiz: quiz, Leaderboard: lb}})
	for ok {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ok = reply(h.handleInbound(r, caller, quizID, inbound))
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleInbound(r *http.Request, caller domain.Identity, quizID string, inbound inboundMessage) outboundMessage[any] {
	switch inbound.Type {
	case "answer":
		if caller.Role != domain.RoleStudent {
			return errorMessage(domain.ErrUnauthorized)
		}
		var payload answerRequest
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage(domain.ErrInvalidInput)
		}
		result, err := h.engine.SubmitAnswer(r.Context(), caller.UserID, quizID, payload.QuestionID, payload.SelectedOption, payload.LatencyMS)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "answerResult", Payload: result}
	case "leaderboard":
		lb, err := h.engine.GetLeaderboard(r.Context(), quizID)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "leaderboard", Payload: lb}
	default:
		return errorMessage(domain.ErrInvalidInput)
	}
}

// outQueue feeds the writer goroutine. push reports false once the writer has stopped.
type outQueue struct {
	send    chan<- outboundMessage[any]
	stopped <-chan struct{}
}

func (q outQueue) push(msg outboundMessage[any]) bool {
	select {
	case q.send <- msg:
		return true
	case <-q.stopped:
		return false
	}
}
