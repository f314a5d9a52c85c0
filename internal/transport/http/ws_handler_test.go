package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

func TestWebSocketFeed(t *testing.T) {
	s := newTestServer(t)
	teacher := s.token(t, "t1", domain.RoleTeacher)
	student := s.token(t, "s1", domain.RoleStudent)
	quiz, code := s.setupQuiz(t, teacher)
	if status := s.call(t, "POST", "/api/join", student, map[string]string{"joinCode": code}, nil); status != http.StatusCreated {
		t.Fatalf("join: status %d", status)
	}

	u := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?quizId=" + quiz.ID + "&token=" + student
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	typ, payload := readNext(t, conn, "snapshot")
	if typ != "snapshot" || payload["quiz"] == nil {
		t.Fatalf("expected snapshot payload, got %v", payload)
	}
	waitForSubscriber(t, s, quiz.ID)

	if status := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/start", teacher, nil, nil); status != http.StatusCreated {
		t.Fatalf("start: status %d", status)
	}
	readNext(t, conn, "quiz_started")
	_, event := readNext(t, conn, "question_started")
	question, _ := event["payload"].(map[string]any)
	questionID, _ := question["questionId"].(string)
	if questionID == "" {
		t.Fatalf("question_started without question id: %v", event)
	}
	if _, leaked := question["correctOptionIndex"]; leaked {
		t.Fatalf("question view leaks the correct option: %v", question)
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": questionID, "selectedOption": 0, "latencyMs": 1500},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	resultSeen := false
	for i := 0; i < 3 && !resultSeen; i++ {
		typ, payload := readNext(t, conn, "")
		if typ == "answerResult" {
			resultSeen = true
			if payload["isCorrect"] != true {
				t.Fatalf("expected correct answer, got %v", payload)
			}
		}
	}
	if !resultSeen {
		t.Fatalf("expected answerResult")
	}

	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write duplicate: %v", err)
	}
	for {
		typ, payload := readNext(t, conn, "")
		if typ == "error" {
			if payload["kind"] != "DuplicateAnswer" {
				t.Fatalf("expected DuplicateAnswer, got %v", payload)
			}
			break
		}
	}
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	s := newTestServer(t)
	u := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?quizId=quiz-1&token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func waitForSubscriber(t *testing.T, s *testServer, quizID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Subscribers(quizID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("socket never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func TestOutQueueStopsWhenWriterExits(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	stopped := make(chan struct{})
	q := outQueue{send: send, stopped: stopped}
	if !q.push(outboundMessage[any]{Type: "first"}) {
		t.Fatalf("expected the buffered push to succeed")
	}
	close(stopped)

	done := make(chan bool)
	go func() { done <- q.push(outboundMessage[any]{Type: "second"}) }()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("push into a full queue with a stopped writer should fail")
		}
	case <-time.After(time.Second):
		t.Fatalf("push blocked after the writer stopped")
	}
}
