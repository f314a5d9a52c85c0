package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
)

type harness struct {
	store    *faultyStore
	dir      *memory.Directory
	ledger   *app.CoinLedger
	engine   *app.QuizEngine
	events   *recordingPublisher
	notifier *recordingNotifier
}

func newHarness(t *testing.T, opts ...app.EngineOption) *harness {
	t.Helper()
	clock := newTestClock()
	store := &faultyStore{Store: memory.NewStore()}
	dir := memory.NewDirectory(
		[]domain.Profile{{ID: "t1", DisplayName: "Ms. Frizzle"}, {ID: "t2", DisplayName: "Mr. Keating"}},
		[]domain.Profile{{ID: "s1", DisplayName: "Arnold", AvatarToken: "owl"}, {ID: "s2", DisplayName: "Wanda"}},
	)
	for i := 0; i < 50; i++ {
		dir.AddStudent(domain.Profile{ID: fmt.Sprintf("student-%d", i), DisplayName: fmt.Sprintf("Student %d", i)})
	}
	events := &recordingPublisher{}
	notifier := &recordingNotifier{}
	ledger := app.NewCoinLedger(store, app.DefaultCoinRules(), app.WithLedgerClock(clock.Now), app.WithLedgerNotifier(notifier))
	base := []app.EngineOption{
		app.WithClock(clock.Now),
		app.WithEvents(events),
		app.WithNotifier(notifier),
	}
	engine := app.NewQuizEngine(store, ledger, dir, app.DefaultQuizRules(), append(base, opts...)...)
	return &harness{store: store, dir: dir, ledger: ledger, engine: engine, events: events, notifier: notifier}
}

// lobby creates a quiz with the given questions and opens its lobby.
func (h *harness) lobby(t *testing.T, questions ...domain.QuestionInput) (domain.Quiz, string) {
	t.Helper()
	ctx := context.Background()
	quiz, err := h.engine.CreateQuiz(ctx, "t1", "Math", domain.QuizSettings{})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := h.engine.AddQuestions(ctx, "t1", quiz.ID, questions); err != nil {
		t.Fatalf("add questions: %v", err)
	}
	code, err := h.engine.OpenLobby(ctx, "t1", quiz.ID)
	if err != nil {
		t.Fatalf("open lobby: %v", err)
	}
	return quiz, code
}

func (h *harness) questions(t *testing.T, quizID string) []domain.Question {
	t.Helper()
	qs, err := h.engine.Questions(context.Background(), "t1", quizID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	return qs
}

func mathQuestions() []domain.QuestionInput {
	return []domain.QuestionInput{
		{Text: "2 + 2?", Options: []string{"4", "5", "6"}, CorrectOptionIndex: 0, Points: 100, TimeLimit: 30},
		{Text: "3 * 3?", Options: []string{"6", "9", "12"}, CorrectOptionIndex: 1, Points: 100, TimeLimit: 30},
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

// Now advances by a millisecond per call so join order is strict.
func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

var errInjected = errors.New("injected failure")

// faultyStore wraps a store and fails selected calls.
type faultyStore struct {
	app.Store
	mu         sync.Mutex
	failAppend bool
}

func (s *faultyStore) setFailAppend(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAppend = v
}

func (s *faultyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		return fn(ctx, faultyTx{Tx: tx, s: s})
	})
}

type faultyTx struct {
	app.Tx
	s *faultyStore
}

func (t faultyTx) AppendTransaction(ctx context.Context, tr domain.CoinTransaction) error {
	t.s.mu.Lock()
	fail := t.s.failAppend
	t.s.mu.Unlock()
	if fail {
		return errInjected
	}
	return t.Tx.AppendTransaction(ctx, tr)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []app.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e app.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []app.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]app.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	fail     bool
	messages map[string][]string
}

func (n *recordingNotifier) Notify(_ context.Context, userID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errInjected
	}
	if n.messages == nil {
		n.messages = make(map[string][]string)
	}
	n.messages[userID] = append(n.messages[userID], message)
	return nil
}

func (n *recordingNotifier) count(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages[userID])
}
