package http

import (
	"context"
	"net/http"

	"classroom-quiz-service/internal/domain"
)

func (a *API) balance(ctx context.Context, _ *http.Request, caller domain.Identity) (any, error) {
	return a.ledger.GetBalance(ctx, caller.UserID)
}

func (a *API) transactions(ctx context.Context, _ *http.Request, caller domain.Identity) (any, error) {
	return a.ledger.Transactions(ctx, caller.UserID)
}

func (a *API) withdrawals(ctx context.Context, _ *http.Request, caller domain.Identity) (any, error) {
	return a.ledger.Withdrawals(ctx, caller.UserID)
}

type withdrawalRequest struct {
	Coins   int64  `json:"coins"`
	Method  string `json:"method"`
	Account string `json:"account"`
}

func (a *API) requestWithdrawal(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	var req withdrawalRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return a.ledger.RequestWithdrawal(ctx, caller.UserID, req.Coins, domain.PayoutDetails{Method: req.Method, Account: req.Account})
}

type processRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

func (a *API) processWithdrawal(ctx context.Context, r *http.Request, _ domain.Identity) (any, error) {
	var req processRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return a.ledger.ProcessWithdrawal(ctx, r.PathValue("id"), req.Approve, req.Reason)
}

func (a *API) prizes(ctx context.Context, _ *http.Request, _ domain.Identity) (any, error) {
	return a.ledger.Prizes(ctx)
}

type prizeRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	CostCoins     int64  `json:"costCoins"`
	StockQuantity int    `json:"stockQuantity"`
}

func (a *API) createPrize(ctx context.Context, r *http.Request, _ domain.Identity) (any, error) {
	var req prizeRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return a.ledger.CreatePrize(ctx, req.Name, req.Description, req.CostCoins, req.StockQuantity)
}

func (a *API) redeem(ctx context.Context, r *http.Request, caller domain.Identity) (any, error) {
	return a.ledger.RedeemPrize(ctx, caller.UserID, r.PathValue("id"))
}

type adjustRequest struct {
	StudentID   string                 `json:"studentId"`
	Amount      int64                  `json:"amount"`
	Reason      domain.TransactionType `json:"reason"`
	RefID       string                 `json:"refId"`
	Description string                 `json:"description"`
}

func (a *API) credit(ctx context.Context, r *http.Request, _ domain.Identity) (any, error) {
	var req adjustRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.Reason == "" {
		req.Reason = domain.TxAdminAdjustment
	}
	return a.ledger.Credit(ctx, req.StudentID, req.Amount, req.Reason, req.RefID)
}

func (a *API) debit(ctx context.Context, r *http.Request, _ domain.Identity) (any, error) {
	var req adjustRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.Reason == "" {
		req.Reason = domain.TxAdminAdjustment
	}
	return a.ledger.Debit(ctx, req.StudentID, req.Amount, req.Reason, req.Description)
}

type olympiadRequest struct {
	StudentID string `json:"studentId"`
	Rank      int    `json:"rank"`
	RefID     string `json:"refId"`
}

func (a *API) awardOlympiad(ctx context.Context, r *http.Request, _ domain.Identity) (any, error) {
	var req olympiadRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return a.ledger.AwardOlympiadRank(ctx, req.StudentID, req.Rank, req.RefID)
}

func (a *API) reconcile(ctx context.Context, r *http.Request, _ domain.Identity) (any, error) {
	return a.ledger.Reconcile(ctx, r.PathValue("studentId"))
}
