package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
)

// API exposes the quiz engine and the coin ledger as JSON over HTTP.
type API struct {
	engine       *app.QuizEngine
	ledger       *app.CoinLedger
	identity     app.IdentityProvider
	leaderboards app.LeaderboardSource
	log          *slog.Logger
}

type APIOption func(*API)

// WithLeaderboards serves leaderboards through a cache instead of the engine.
func WithLeaderboards(src app.LeaderboardSource) APIOption {
	return func(a *API) { a.leaderboards = src }
}

func WithAPILogger(log *slog.Logger) APIOption {
	return func(a *API) { a.log = log }
}

func NewAPI(engine *app.QuizEngine, ledger *app.CoinLedger, identity app.IdentityProvider, opts ...APIOption) *API {
	a := &API{
		engine:       engine,
		ledger:       ledger,
		identity:     identity,
		leaderboards: engine,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register mounts every API route on mux.
func (a *API) Register(mux *http.ServeMux) {
	teacher := []domain.Role{domain.RoleTeacher}
	student := []domain.Role{domain.RoleStudent}
	admin := []domain.Role{domain.RoleAdmin}
	anyone := []domain.Role{domain.RoleTeacher, domain.RoleStudent, domain.RoleAdmin}

	a.handle(mux, "POST /api/quizzes", teacher, a.createQuiz)
	a.handle(mux, "GET /api/quizzes/{id}", anyone, a.getQuiz)
	a.handle(mux, "POST /api/quizzes/{id}/questions", teacher, a.addQuestions)
	a.handle(mux, "GET /api/quizzes/{id}/questions", teacher, a.listQuestions)
	a.handle(mux, "DELETE /api/quizzes/{id}/questions/{questionId}", teacher, a.removeQuestion)
	a.handle(mux, "POST /api/quizzes/{id}/lobby", teacher, a.openLobby)
	a.handle(mux, "POST /api/quizzes/{id}/start", teacher, a.start)
	a.handle(mux, "POST /api/quizzes/{id}/next", teacher, a.nextQuestion)
	a.handle(mux, "POST /api/quizzes/{id}/end", teacher, a.end)
	a.handle(mux, "GET /api/quizzes/{id}/current", anyone, a.currentQuestion)
	a.handle(mux, "GET /api/quizzes/{id}/leaderboard", anyone, a.leaderboard)
	a.handle(mux, "POST /api/join", student, a.join)
	a.handle(mux, "POST /api/quizzes/{id}/answers", student, a.submitAnswer)
	a.handle(mux, "GET /api/quizzes/{id}/answers", student, a.answerHistory)

	a.handle(mux, "GET /api/coins/balance", student, a.balance)
	a.handle(mux, "GET /api/coins/transactions", student, a.transactions)
	a.handle(mux, "GET /api/coins/withdrawals", student, a.withdrawals)
	a.handle(mux, "POST /api/coins/withdrawals", student, a.requestWithdrawal)
	a.handle(mux, "GET /api/prizes", anyone, a.prizes)
	a.handle(mux, "POST /api/prizes/{id}/redeem", student, a.redeem)

	a.handle(mux, "POST /api/admin/prizes", admin, a.createPrize)
	a.handle(mux, "POST /api/admin/withdrawals/{id}", admin, a.processWithdrawal)
	a.handle(mux, "POST /api/admin/coins/credit", admin, a.credit)
	a.handle(mux, "POST /api/admin/coins/debit", admin, a.debit)
	a.handle(mux, "POST /api/admin/olympiad", admin, a.awardOlympiad)
	a.handle(mux, "GET /api/admin/coins/{studentId}/reconcile", admin, a.reconcile)
}

type handlerFunc func(ctx context.Context, r *http.Request, caller domain.Identity) (any, error)

// handle authenticates the caller, checks the role and writes the JSON result.
func (a *API) handle(mux *http.ServeMux, pattern string, roles []domain.Role, fn handlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		caller, err := a.authenticate(r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if !hasRole(caller, roles) {
			a.writeError(w, r, fmt.Errorf("%w: %s may not call %s", domain.ErrUnauthorized, caller.Role, pattern))
			return
		}
		out, err := fn(r.Context(), r, caller)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		status := http.StatusOK
		if r.Method == http.MethodPost {
			status = http.StatusCreated
		}
		writeJSON(w, status, out)
	})
}

func (a *API) authenticate(r *http.Request) (domain.Identity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
	}
	return a.identity.Resolve(r.Context(), token)
}

func hasRole(caller domain.Identity, roles []domain.Role) bool {
	for _, role := range roles {
		if caller.Role == role {
			return true
		}
	}
	return false
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var kindStatus = map[string]int{
	"Unauthenticated":     http.StatusUnauthorized,
	"Unauthorized":        http.StatusForbidden,
	"NotOwner":            http.StatusForbidden,
	"PermissionDenied":    http.StatusForbidden,
	"NotFound":            http.StatusNotFound,
	"InvalidState":        http.StatusConflict,
	"EmptyQuiz":           http.StatusConflict,
	"DuplicateAnswer":     http.StatusConflict,
	"Conflict":            http.StatusConflict,
	"Full":                http.StatusConflict,
	"OutOfStock":          http.StatusConflict,
	"InsufficientBalance": http.StatusUnprocessableEntity,
	"BelowMinimum":        http.StatusUnprocessableEntity,
	"InvalidAmount":       http.StatusBadRequest,
	"InvalidInput":        http.StatusBadRequest,
}

func statusOf(kind string) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusOf(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if !errors.Is(err, context.Canceled) {
			a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		}
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
