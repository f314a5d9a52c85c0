package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CoinLedger is the only component that mutates coin balances.
type CoinLedger struct {
	store    Store
	rules    CoinRules
	now      func() time.Time
	log      *slog.Logger
	notifier Notifier
}

// LedgerOption customizes a CoinLedger.
type LedgerOption func(*CoinLedger)

// WithLedgerClock is used by tests for deterministic timestamps.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *CoinLedger) { l.now = now }
}

func WithLedgerLogger(log *slog.Logger) LedgerOption {
	return func(l *CoinLedger) { l.log = log }
}

func WithLedgerNotifier(n Notifier) LedgerOption {
	return func(l *CoinLedger) { l.notifier = n }
}

func NewCoinLedger(store Store, rules CoinRules, opts ...LedgerOption) *CoinLedger {
	l := &CoinLedger{
		store: store,
		rules: rules,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetBalance returns the student's balance, creating a zero balance on first use.
func (l *CoinLedger) GetBalance(ctx context.Context, studentID string) (domain.CoinBalance, error) {
	var balance domain.CoinBalance
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		balance, err = tx.LockBalance(ctx, studentID)
		return err
	})
	return balance, err
}

// Credit adds coins to a student's balance.
func (l *CoinLedger) Credit(ctx context.Context, studentID string, amount int64, reason domain.TransactionType, refID string) (domain.CoinBalance, error) {
	var balance domain.CoinBalance
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		balance, err = l.credit(ctx, tx, studentID, amount, reason, describe(reason, refID), refID)
		return err
	})
	return balance, err
}

// Debit removes coins from a student's balance.
func (l *CoinLedger) Debit(ctx context.Context, studentID string, amount int64, reason domain.TransactionType, description string) (domain.CoinBalance, error) {
	var balance domain.CoinBalance
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		balance, err = l.debit(ctx, tx, studentID, amount, reason, description, "")
		return err
	})
	return balance, err
}

// credit runs inside the caller's transaction so quiz payouts commit with the ranks they pay for.
func (l *CoinLedger) credit(ctx context.Context, tx Tx, studentID string, amount int64, reason domain.TransactionType, description, refID string) (domain.CoinBalance, error) {
	if amount <= 0 {
		return domain.CoinBalance{}, fmt.Errorf("%w: credit of %d", domain.ErrInvalidAmount, amount)
	}
	if !reason.Earning() {
		return domain.CoinBalance{}, fmt.Errorf("%w: %q is not a credit reason", domain.ErrInvalidInput, reason)
	}
	balance, err := tx.LockBalance(ctx, studentID)
	if err != nil {
		return domain.CoinBalance{}, err
	}
	now := l.now()
	balance.CurrentBalance += amount
	balance.TotalEarned += amount
	balance.UpdatedAt = now
	if err := l.record(ctx, tx, balance, reason, amount, description, refID, now); err != nil {
		return domain.CoinBalance{}, err
	}
	return balance, nil
}

func (l *CoinLedger) debit(ctx context.Context, tx Tx, studentID string, amount int64, reason domain.TransactionType, description, refID string) (domain.CoinBalance, error) {
	if amount <= 0 {
		return domain.CoinBalance{}, fmt.Errorf("%w: debit of %d", domain.ErrInvalidAmount, amount)
	}
	if !reason.Spending() {
		return domain.CoinBalance{}, fmt.Errorf("%w: %q is not a debit reason", domain.ErrInvalidInput, reason)
	}
	balance, err := tx.LockBalance(ctx, studentID)
	if err != nil {
		return domain.CoinBalance{}, err
	}
	if balance.CurrentBalance < amount {
		return domain.CoinBalance{}, fmt.Errorf("%w: balance %d, requested %d", domain.ErrInsufficientBalance, balance.CurrentBalance, amount)
	}
	now := l.now()
	balance.CurrentBalance -= amount
	if reason == domain.TxWithdrawal {
		balance.TotalWithdrawn += amount
	} else {
		balance.TotalSpent += amount
	}
	balance.UpdatedAt = now
	if err := l.record(ctx, tx, balance, reason, -amount, description, refID, now); err != nil {
		return domain.CoinBalance{}, err
	}
	return balance, nil
}

func (l *CoinLedger) record(ctx context.Context, tx Tx, balance domain.CoinBalance, reason domain.TransactionType, signed int64, description, refID string, at time.Time) error {
	if err := tx.SaveBalance(ctx, balance); err != nil {
		return err
	}
	return tx.AppendTransaction(ctx, domain.CoinTransaction{
		ID:           uuid.NewString(),
		StudentID:    balance.StudentID,
		Type:         reason,
		Amount:       signed,
		BalanceAfter: balance.CurrentBalance,
		Description:  description,
		RefID:        refID,
		CreatedAt:    at,
	})
}

// Transactions lists a student's ledger entries, newest first.
func (l *CoinLedger) Transactions(ctx context.Context, studentID string) ([]domain.CoinTransaction, error) {
	var txs []domain.CoinTransaction
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		txs, err = tx.Transactions(ctx, studentID)
		return err
	})
	return txs, err
}

// Reconcile recomputes the balance from the transaction log.
func (l *CoinLedger) Reconcile(ctx context.Context, studentID string) (domain.Reconciliation, error) {
	var rec domain.Reconciliation
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		balance, err := tx.LockBalance(ctx, studentID)
		if err != nil {
			return err
		}
		txs, err := tx.Transactions(ctx, studentID)
		if err != nil {
			return err
		}
		var sum int64
		for _, t := range txs {
			sum += t.Amount
		}
		rec = domain.Reconciliation{
			StudentID:    studentID,
			Balance:      balance,
			LedgerSum:    sum,
			Transactions: len(txs),
			Balanced:     balance.Consistent() && sum == balance.CurrentBalance,
		}
		return nil
	})
	return rec, err
}

// RequestWithdrawal escrows coins immediately and files a pending withdrawal.
func (l *CoinLedger) RequestWithdrawal(ctx context.Context, studentID string, coins int64, payout domain.PayoutDetails) (domain.Withdrawal, error) {
	if coins < l.rules.MinWithdrawal {
		return domain.Withdrawal{}, fmt.Errorf("%w: %d < %d", domain.ErrBelowMinimum, coins, l.rules.MinWithdrawal)
	}
	if payout.Method == "" || payout.Account == "" {
		return domain.Withdrawal{}, fmt.Errorf("%w: payout method and account are required", domain.ErrInvalidInput)
	}
	w := domain.Withdrawal{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		CoinAmount:     coins,
		CurrencyAmount: l.rules.CoinRate.Mul(decimal.NewFromInt(coins)),
		Currency:       l.rules.Currency,
		Payout:         payout,
		Status:         domain.WithdrawalPending,
		CreatedAt:      l.now(),
	}
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := l.debit(ctx, tx, studentID, coins, domain.TxWithdrawal, "withdrawal request", w.ID); err != nil {
			return err
		}
		return tx.InsertWithdrawal(ctx, w)
	})
	if err != nil {
		return domain.Withdrawal{}, err
	}
	l.log.Info("withdrawal requested", "withdrawal", w.ID, "student", studentID, "coins", coins)
	return w, nil
}

// ProcessWithdrawal approves or rejects a pending withdrawal. Rejection refunds the escrow.
func (l *CoinLedger) ProcessWithdrawal(ctx context.Context, withdrawalID string, approve bool, reason string) (domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		w, err = tx.LockWithdrawal(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if w.Status != domain.WithdrawalPending {
			return fmt.Errorf("%w: withdrawal %s is %s", domain.ErrInvalidState, w.ID, w.Status)
		}
		now := l.now()
		w.ProcessedAt = &now
		w.Reason = reason
		if approve {
			w.Status = domain.WithdrawalCompleted
		} else {
			w.Status = domain.WithdrawalRejected
			desc := "withdrawal refund"
			if reason != "" {
				desc += ": " + reason
			}
			if _, err := l.credit(ctx, tx, w.StudentID, w.CoinAmount, domain.TxAdminAdjustment, desc, w.ID); err != nil {
				return err
			}
		}
		return tx.SaveWithdrawal(ctx, w)
	})
	if err != nil {
		return domain.Withdrawal{}, err
	}
	l.notify(ctx, w.StudentID, fmt.Sprintf("Your withdrawal of %d coins was %s", w.CoinAmount, w.Status))
	return w, nil
}

// Withdrawals lists a student's withdrawals, newest first.
func (l *CoinLedger) Withdrawals(ctx context.Context, studentID string) ([]domain.Withdrawal, error) {
	var ws []domain.Withdrawal
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		ws, err = tx.Withdrawals(ctx, studentID)
		return err
	})
	return ws, err
}

// CreatePrize adds a catalog item.
func (l *CoinLedger) CreatePrize(ctx context.Context, name, description string, cost int64, stock int) (domain.Prize, error) {
	if name == "" || cost <= 0 || stock < 0 {
		return domain.Prize{}, fmt.Errorf("%w: prize needs a name, positive cost and non-negative stock", domain.ErrInvalidInput)
	}
	p := domain.Prize{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   description,
		CostCoins:     cost,
		StockQuantity: stock,
		Active:        true,
		CreatedAt:     l.now(),
	}
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertPrize(ctx, p)
	})
	return p, err
}

// Prizes lists the catalog.
func (l *CoinLedger) Prizes(ctx context.Context) ([]domain.Prize, error) {
	var prizes []domain.Prize
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		prizes, err = tx.Prizes(ctx)
		return err
	})
	return prizes, err
}

// RedeemPrize debits the prize cost and reserves one unit of stock in one transaction.
func (l *CoinLedger) RedeemPrize(ctx context.Context, studentID, prizeID string) (domain.Redemption, error) {
	var r domain.Redemption
	err := l.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		prize, err := tx.LockPrize(ctx, prizeID)
		if err != nil {
			return err
		}
		if !prize.Active {
			return fmt.Errorf("%w: prize %s", domain.ErrNotFound, prizeID)
		}
		if prize.StockQuantity <= 0 {
			return fmt.Errorf("%w: prize %s", domain.ErrOutOfStock, prizeID)
		}
		r = domain.Redemption{
			ID:        uuid.NewString(),
			StudentID: studentID,
			PrizeID:   prize.ID,
			CoinCost:  prize.CostCoins,
			CreatedAt: l.now(),
		}
		if _, err := l.debit(ctx, tx, studentID, prize.CostCoins, domain.TxRedemption, "redeemed "+prize.Name, r.ID); err != nil {
			return err
		}
		prize.StockQuantity--
		if err := tx.SavePrize(ctx, prize); err != nil {
			return err
		}
		return tx.InsertRedemption(ctx, r)
	})
	if err != nil {
		return domain.Redemption{}, err
	}
	l.notify(ctx, studentID, fmt.Sprintf("You redeemed a prize for %d coins", r.CoinCost))
	return r, nil
}

// AwardOlympiadRank credits the configured olympiad reward for a final rank.
func (l *CoinLedger) AwardOlympiadRank(ctx context.Context, studentID string, rank int, refID string) (domain.CoinBalance, error) {
	if rank < 1 {
		return domain.CoinBalance{}, fmt.Errorf("%w: rank %d", domain.ErrInvalidInput, rank)
	}
	return l.Credit(ctx, studentID, l.rules.olympiadReward(rank), domain.TxOlympiadReward, refID)
}

func (l *CoinLedger) notify(ctx context.Context, userID, message string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(ctx, userID, message); err != nil {
		l.log.Warn("notify failed", "user", userID, "err", err)
	}
}

func describe(reason domain.TransactionType, refID string) string {
	if refID == "" {
		return string(reason)
	}
	return string(reason) + " " + refID
}
