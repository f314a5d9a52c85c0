package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the reason recorded on a ledger entry.
type TransactionType string

const (
	TxQuizReward      TransactionType = "quiz_reward"
	TxOlympiadReward  TransactionType = "olympiad_reward"
	TxLessonReward    TransactionType = "lesson_reward"
	TxAdminAdjustment TransactionType = "admin_adjustment"
	TxWithdrawal      TransactionType = "withdrawal"
	TxRedemption      TransactionType = "redemption"
)

// Earning reports whether the type may be used for a credit.
func (t TransactionType) Earning() bool {
	switch t {
	case TxQuizReward, TxOlympiadReward, TxLessonReward, TxAdminAdjustment:
		return true
	}
	return false
}

// Spending reports whether the type may be used for a debit.
func (t TransactionType) Spending() bool {
	switch t {
	case TxWithdrawal, TxRedemption, TxAdminAdjustment:
		return true
	}
	return false
}

// CoinBalance is the cached running balance of one student.
type CoinBalance struct {
	StudentID      string    `json:"studentId"`
	CurrentBalance int64     `json:"currentBalance"`
	TotalEarned    int64     `json:"totalEarned"`
	TotalSpent     int64     `json:"totalSpent"`
	TotalWithdrawn int64     `json:"totalWithdrawn"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Consistent checks the accumulator identity and non-negativity.
func (b CoinBalance) Consistent() bool {
	return b.CurrentBalance >= 0 && b.TotalEarned-b.TotalSpent-b.TotalWithdrawn == b.CurrentBalance
}

// CoinTransaction is an append-only ledger entry. Amount is signed.
type CoinTransaction struct {
	ID           string          `json:"id"`
	StudentID    string          `json:"studentId"`
	Type         TransactionType `json:"type"`
	Amount       int64           `json:"amount"`
	BalanceAfter int64           `json:"balanceAfter"`
	Description  string          `json:"description,omitempty"`
	RefID        string          `json:"refId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// WithdrawalStatus is the review state of a withdrawal.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

// PayoutDetails says where approved money goes.
type PayoutDetails struct {
	Method  string `json:"method"`
	Account string `json:"account"`
}

// Withdrawal escrows coins until an admin approves or rejects it.
type Withdrawal struct {
	ID             string           `json:"id"`
	StudentID      string           `json:"studentId"`
	CoinAmount     int64            `json:"coinAmount"`
	CurrencyAmount decimal.Decimal  `json:"currencyAmount"`
	Currency       string           `json:"currency"`
	Payout         PayoutDetails    `json:"payout"`
	Status         WithdrawalStatus `json:"status"`
	Reason         string           `json:"reason,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	ProcessedAt    *time.Time       `json:"processedAt,omitempty"`
}

// Prize is a catalog item purchasable with coins.
type Prize struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	CostCoins     int64     `json:"costCoins"`
	StockQuantity int       `json:"stockQuantity"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Redemption records a prize purchase.
type Redemption struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	PrizeID   string    `json:"prizeId"`
	CoinCost  int64     `json:"coinCost"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reconciliation compares the cached balance with the transaction log.
type Reconciliation struct {
	StudentID    string      `json:"studentId"`
	Balance      CoinBalance `json:"balance"`
	LedgerSum    int64       `json:"ledgerSum"`
	Transactions int         `json:"transactions"`
	Balanced     bool        `json:"balanced"`
}
