package http

import (
	"context"
	"net/http"

	"classroom-quiz-service/internal/domain"
)

type createQuizRequest struct {
	Title string `json:"title"`
	domain.QuizSettings
}

func (a *API) createQuiz(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	var req createQuizRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return a.engine.CreateQuiz(ctx, caller.UserID, req.Title, req.QuizSettings)
}

func (a *API) getQuiz(ctx context.Context, r *http.Request, _ domain.Identity) (any, error) {
	return a.engine.GetQuiz(ctx, r.PathValue("id"))
}

type addQuestionsRequest struct {
	Questions []domain.QuestionInput `json:"questions"`
}

func (a *API) addQuestions(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	var req addQuestionsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	n, err := a.engine.AddQuestions(ctx, caller.UserID, r.PathValue("id"), req.Questions)
	if err != nil {
		return nil, err
	}
	return map[string]int{"added": n}, nil
}

func (a *API) listQuestions(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	return a.engine.Questions(ctx, caller.UserID, r.PathValue("id"))
}

func (a *API) removeQuestion(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	if err := a.engine.RemoveQuestion(ctx, caller.UserID, r.PathValue("id"), r.PathValue("questionId")); err != nil {
		return nil, err
	}
	return map[string]bool{"removed": true}, nil
}

func (a *API) openLobby(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	code, err := a.engine.OpenLobby(ctx, caller.UserID, r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	return map[string]string{"joinCode": code}, nil
}

func (a *API) start(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	return a.engine.Start(ctx, caller.UserID, r.PathValue("id"))
}

func (a *API) nextQuestion(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	return a.engine.NextQuestion(ctx, caller.UserID, r.PathValue("id"))
}

func (a *API) end(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	return a.engine.End(ctx, caller.UserID, r.PathValue("id"))
}

func (a *API) currentQuestion(ctx context.Context, r *http.Request, _ domain.Identity) (any, error) {
	return a.engine.CurrentQuestion(ctx, r.PathValue("id"))
}

func (a *API) leaderboard(ctx context.Context, r *http.Request, _ domain.Identity) (any, error) {
	return a.leaderboards.Leaderboard(ctx, r.PathValue("id"))
}

type joinRequest struct {
	JoinCode    string `json:"joinCode"`
	DisplayName string `json:"displayName"`
}

func (a *API) join(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	var req joinRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return a.engine.JoinQuiz(ctx, caller.UserID, req.JoinCode, req.DisplayName)
}

type answerRequest struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
	LatencyMS      int64  `json:"latencyMs"`
}

func (a *API) submitAnswer(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return a.engine.SubmitAnswer(ctx, caller.UserID, r.PathValue("id"), req.QuestionID, req.SelectedOption, req.LatencyMS)
}

func (a *API) answerHistory(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	return a.engine.AnswerHistory(ctx, caller.UserID, r.PathValue("id"))
}
