package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
)

type testServer struct {
	*httptest.Server
	tokens *auth.JWTProvider
	hub    *memory.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tokens, err := auth.NewJWTProvider("test-secret", "classroom", time.Hour)
	if err != nil {
		t.Fatalf("jwt provider: %v", err)
	}
	store := memory.NewStore()
	dir := memory.NewDirectory(
		[]domain.Profile{{ID: "t1", DisplayName: "Ms. Frizzle"}, {ID: "t2", DisplayName: "Mr. Keating"}},
		[]domain.Profile{{ID: "s1", DisplayName: "Arnold"}, {ID: "s2", DisplayName: "Wanda"}},
	)
	hub := memory.NewHub()
	ledger := app.NewCoinLedger(store, app.DefaultCoinRules())
	engine := app.NewQuizEngine(store, ledger, dir, app.DefaultQuizRules(), app.WithEvents(hub))
	api := NewAPI(engine, ledger, tokens, WithLeaderboards(memory.NewLeaderboardCache(engine, time.Minute)))
	ws := NewWSHandler(engine, tokens, hub, nil)

	srv := httptest.NewServer(NewMux(api, ws, ""))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, tokens: tokens, hub: hub}
}

func (s *testServer) token(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	tok, err := s.tokens.Issue(userID, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// call sends body as JSON and decodes the response into out when out is non-nil.
func (s *testServer) call(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// setupQuiz creates a two question quiz owned by t1 and opens its lobby.
func (s *testServer) setupQuiz(t *testing.T, teacher string) (domain.Quiz, string) {
	t.Helper()
	var quiz domain.Quiz
	if code := s.call(t, "POST", "/api/quizzes", teacher, map[string]any{"title": "Math", "timePerQuestion": 30}, &quiz); code != http.StatusCreated {
		t.Fatalf("create quiz: status %d", code)
	}
	questions := map[string]any{"questions": []domain.QuestionInput{
		{Text: "2 + 2?", Options: []string{"4", "5"}, CorrectOptionIndex: 0, Points: 100},
		{Text: "3 * 3?", Options: []string{"6", "9"}, CorrectOptionIndex: 1, Points: 100},
	}}
	if code := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/questions", teacher, questions, nil); code != http.StatusCreated {
		t.Fatalf("add questions: status %d", code)
	}
	var lobby struct {
		JoinCode string `json:"joinCode"`
	}
	if code := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/lobby", teacher, nil, &lobby); code != http.StatusCreated {
		t.Fatalf("open lobby: status %d", code)
	}
	return quiz, lobby.JoinCode
}

func TestQuizFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	teacher := s.token(t, "t1", domain.RoleTeacher)
	student := s.token(t, "s1", domain.RoleStudent)
	quiz, code := s.setupQuiz(t, teacher)

	var p domain.Participant
	if status := s.call(t, "POST", "/api/join", student, map[string]string{"joinCode": code}, &p); status != http.StatusCreated {
		t.Fatalf("join: status %d", status)
	}
	if p.DisplayName != "Arnold" {
		t.Fatalf("unexpected participant %+v", p)
	}
	if status := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/start", teacher, nil, nil); status != http.StatusCreated {
		t.Fatalf("start: status %d", status)
	}

	for i, selected := range []int{0, 1} {
		var view domain.QuestionView
		if status := s.call(t, "GET", "/api/quizzes/"+quiz.ID+"/current", student, nil, &view); status != http.StatusOK {
			t.Fatalf("current: status %d", status)
		}
		if view.Index != i {
			t.Fatalf("expected index %d, got %d", i, view.Index)
		}
		var res domain.AnswerResult
		body := map[string]any{"questionId": view.QuestionID, "selectedOption": selected, "latencyMs": 3000}
		if status := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/answers", student, body, &res); status != http.StatusCreated {
			t.Fatalf("answer: status %d", status)
		}
		if !res.IsCorrect || res.PointsEarned != 90 {
			t.Fatalf("unexpected answer result %+v", res)
		}
		if status := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/next", teacher, nil, nil); status != http.StatusCreated {
			t.Fatalf("next: status %d", status)
		}
	}

	var lb domain.Leaderboard
	if status := s.call(t, "GET", "/api/quizzes/"+quiz.ID+"/leaderboard", student, nil, &lb); status != http.StatusOK {
		t.Fatalf("leaderboard: status %d", status)
	}
	if !lb.Final() || len(lb.Entries) != 1 || lb.Entries[0].TotalScore != 180 || lb.Entries[0].CoinsEarned != 4 {
		t.Fatalf("unexpected leaderboard %+v", lb)
	}
	var balance domain.CoinBalance
	if status := s.call(t, "GET", "/api/coins/balance", student, nil, &balance); status != http.StatusOK {
		t.Fatalf("balance: status %d", status)
	}
	if balance.CurrentBalance != 4 {
		t.Fatalf("expected 4 coins, got %d", balance.CurrentBalance)
	}
	var history []domain.Answer
	if status := s.call(t, "GET", "/api/quizzes/"+quiz.ID+"/answers", student, nil, &history); status != http.StatusOK {
		t.Fatalf("answer history: status %d", status)
	}
	if len(history) != 2 || history[0].PointsEarned != 90 {
		t.Fatalf("unexpected answer history %+v", history)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	teacher := s.token(t, "t1", domain.RoleTeacher)
	other := s.token(t, "t2", domain.RoleTeacher)
	student := s.token(t, "s1", domain.RoleStudent)
	quiz, code := s.setupQuiz(t, teacher)

	var body errorBody
	if status := s.call(t, "POST", "/api/quizzes", "", map[string]string{"title": "x"}, &body); status != http.StatusUnauthorized || body.Error.Kind != "Unauthenticated" {
		t.Fatalf("missing token: status %d body %+v", status, body)
	}
	if status := s.call(t, "POST", "/api/quizzes", student, map[string]string{"title": "x"}, &body); status != http.StatusForbidden || body.Error.Kind != "Unauthorized" {
		t.Fatalf("wrong role: status %d body %+v", status, body)
	}
	if status := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/start", other, nil, &body); status != http.StatusForbidden || body.Error.Kind != "NotOwner" {
		t.Fatalf("not owner: status %d body %+v", status, body)
	}
	if status := s.call(t, "GET", "/api/quizzes/missing", student, nil, &body); status != http.StatusNotFound || body.Error.Kind != "NotFound" {
		t.Fatalf("missing quiz: status %d body %+v", status, body)
	}
	if status := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/start", teacher, nil, &body); status != http.StatusConflict || body.Error.Kind != "InvalidState" {
		t.Fatalf("start without participants: status %d body %+v", status, body)
	}
	if status := s.call(t, "POST", "/api/join", student, map[string]string{"joinCode": code, "bogus": "x"}, &body); status != http.StatusBadRequest || body.Error.Kind != "InvalidInput" {
		t.Fatalf("unknown field: status %d body %+v", status, body)
	}
	if status := s.call(t, "POST", "/api/coins/withdrawals", student, map[string]any{"coins": 10, "method": "bank", "account": "x"}, &body); status != http.StatusUnprocessableEntity || body.Error.Kind != "BelowMinimum" {
		t.Fatalf("below minimum: status %d body %+v", status, body)
	}

	if status := s.call(t, "POST", "/api/join", student, map[string]string{"joinCode": code}, nil); status != http.StatusCreated {
		t.Fatalf("join: status %d", status)
	}
	if status := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/start", teacher, nil, nil); status != http.StatusCreated {
		t.Fatalf("start: status %d", status)
	}
	var view domain.QuestionView
	s.call(t, "GET", "/api/quizzes/"+quiz.ID+"/current", student, nil, &view)
	answer := map[string]any{"questionId": view.QuestionID, "selectedOption": 0}
	if status := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/answers", student, answer, nil); status != http.StatusCreated {
		t.Fatalf("answer: status %d", status)
	}
	if status := s.call(t, "POST", "/api/quizzes/"+quiz.ID+"/answers", student, answer, &body); status != http.StatusConflict || body.Error.Kind != "DuplicateAnswer" {
		t.Fatalf("duplicate: status %d body %+v", status, body)
	}
}

func TestAdminWithdrawalFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "a1", domain.RoleAdmin)
	student := s.token(t, "s1", domain.RoleStudent)

	credit := map[string]any{"studentId": "s1", "amount": 1500, "reason": "olympiad_reward", "refId": "olympiad-1"}
	if status := s.call(t, "POST", "/api/admin/coins/credit", admin, credit, nil); status != http.StatusCreated {
		t.Fatalf("credit: status %d", status)
	}
	var w domain.Withdrawal
	req := map[string]any{"coins": 1000, "method": "bank", "account": "NL91ABNA0417164300"}
	if status := s.call(t, "POST", "/api/coins/withdrawals", student, req, &w); status != http.StatusCreated {
		t.Fatalf("withdraw: status %d", status)
	}
	if w.CurrencyAmount.String() != "10" {
		t.Fatalf("expected 10.00 USD, got %s", w.CurrencyAmount)
	}
	if status := s.call(t, "POST", "/api/admin/withdrawals/"+w.ID, admin, map[string]any{"approve": false, "reason": "kyc"}, &w); status != http.StatusCreated {
		t.Fatalf("process: status %d", status)
	}
	if w.Status != domain.WithdrawalRejected {
		t.Fatalf("expected rejected, got %s", w.Status)
	}
	var rec domain.Reconciliation
	if status := s.call(t, "GET", "/api/admin/coins/s1/reconcile", admin, nil, &rec); status != http.StatusOK {
		t.Fatalf("reconcile: status %d", status)
	}
	if !rec.Balanced || rec.Balance.CurrentBalance != 1500 || rec.Transactions != 3 {
		t.Fatalf("unexpected reconciliation %+v", rec)
	}
}

func TestStatusOf(t *testing.T) {
	cases := map[string]int{
		"NotFound":            http.StatusNotFound,
		"Full":                http.StatusConflict,
		"InsufficientBalance": http.StatusUnprocessableEntity,
		"InvalidAmount":       http.StatusBadRequest,
		"Internal":            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := statusOf(kind); got != want {
			t.Fatalf("%s: got %d, want %d", kind, got, want)
		}
	}
}
