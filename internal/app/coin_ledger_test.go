package app_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"classroom-quiz-service/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var bank = domain.PayoutDetails{Method: "bank", Account: "DE89370400440532013000"}

func TestBalanceIdentityHoldsOverRandomOperations(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		amount := int64(rnd.Intn(50) + 1)
		var err error
		switch rnd.Intn(3) {
		case 0:
			_, err = h.ledger.Credit(ctx, "s1", amount, domain.TxLessonReward, "lesson")
		case 1:
			_, err = h.ledger.Debit(ctx, "s1", amount, domain.TxRedemption, "shop")
		default:
			_, err = h.ledger.Debit(ctx, "s1", amount, domain.TxAdminAdjustment, "correction")
		}
		if err != nil && !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("op %d: %v", i, err)
		}
		b, err := h.ledger.GetBalance(ctx, "s1")
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if b.CurrentBalance < 0 || !b.Consistent() {
			t.Fatalf("op %d broke the balance identity: %+v", i, b)
		}
	}
	rec, err := h.ledger.Reconcile(ctx, "s1")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !rec.Balanced || rec.LedgerSum != rec.Balance.CurrentBalance {
		t.Fatalf("ledger does not reconcile: %+v", rec)
	}
}

func TestWithdrawalRejectRefunds(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	if _, err := h.ledger.Credit(ctx, "s1", 2000, domain.TxOlympiadReward, "olympiad-1"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	w, err := h.ledger.RequestWithdrawal(ctx, "s1", 1500, bank)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if w.Status != domain.WithdrawalPending || !w.CurrencyAmount.Equal(decimal.RequireFromString("15")) || w.Currency != "USD" {
		t.Fatalf("unexpected withdrawal %+v", w)
	}
	b, _ := h.ledger.GetBalance(ctx, "s1")
	if b.CurrentBalance != 500 || b.TotalWithdrawn != 1500 {
		t.Fatalf("coins should be escrowed, got %+v", b)
	}

	rejected, err := h.ledger.ProcessWithdrawal(ctx, w.ID, false, "account closed")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.WithdrawalRejected || rejected.ProcessedAt == nil || rejected.Reason != "account closed" {
		t.Fatalf("unexpected rejected withdrawal %+v", rejected)
	}
	b, _ = h.ledger.GetBalance(ctx, "s1")
	if b.CurrentBalance != 2000 || !b.Consistent() {
		t.Fatalf("refund should restore 2000, got %+v", b)
	}
	txs, _ := h.ledger.Transactions(ctx, "s1")
	if len(txs) != 3 {
		t.Fatalf("expected credit, debit and refund, got %d", len(txs))
	}
	refund := txs[0]
	if refund.Type != domain.TxAdminAdjustment || refund.Amount != 1500 || refund.RefID != w.ID || refund.BalanceAfter != 2000 {
		t.Fatalf("unexpected refund transaction %+v", refund)
	}
	if h.notifier.count("s1") != 1 {
		t.Fatalf("expected one withdrawal notification")
	}

	if _, err := h.ledger.ProcessWithdrawal(ctx, w.ID, true, ""); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("reprocessing should be invalid state, got %v", err)
	}
}

func TestWithdrawalApprove(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	if _, err := h.ledger.Credit(ctx, "s1", 1200, domain.TxLessonReward, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	w, err := h.ledger.RequestWithdrawal(ctx, "s1", 1000, bank)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	done, err := h.ledger.ProcessWithdrawal(ctx, w.ID, true, "")
	if err != nil || done.Status != domain.WithdrawalCompleted {
		t.Fatalf("approve: status=%s err=%v", done.Status, err)
	}
	b, _ := h.ledger.GetBalance(ctx, "s1")
	if b.CurrentBalance != 200 || b.TotalWithdrawn != 1000 {
		t.Fatalf("unexpected balance %+v", b)
	}
	ws, _ := h.ledger.Withdrawals(ctx, "s1")
	if len(ws) != 1 || ws[0].Status != domain.WithdrawalCompleted {
		t.Fatalf("unexpected withdrawals %+v", ws)
	}
}

func TestWithdrawalValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	if _, err := h.ledger.Credit(ctx, "s1", 500, domain.TxLessonReward, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := h.ledger.RequestWithdrawal(ctx, "s1", 999, bank); !errors.Is(err, domain.ErrBelowMinimum) {
		t.Fatalf("expected below minimum, got %v", err)
	}
	if _, err := h.ledger.RequestWithdrawal(ctx, "s1", 1000, domain.PayoutDetails{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := h.ledger.RequestWithdrawal(ctx, "s1", 1000, bank); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	ws, _ := h.ledger.Withdrawals(ctx, "s1")
	if len(ws) != 0 {
		t.Fatalf("failed requests must not be stored, got %d", len(ws))
	}
	if _, err := h.ledger.ProcessWithdrawal(ctx, "missing", true, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAmountValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	for _, amount := range []int64{0, -5} {
		if _, err := h.ledger.Credit(ctx, "s1", amount, domain.TxLessonReward, ""); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("credit %d: expected invalid amount, got %v", amount, err)
		}
		if _, err := h.ledger.Debit(ctx, "s1", amount, domain.TxRedemption, ""); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("debit %d: expected invalid amount, got %v", amount, err)
		}
	}
	if _, err := h.ledger.Credit(ctx, "s1", 5, domain.TxWithdrawal, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("withdrawal is not a credit reason, got %v", err)
	}
	if _, err := h.ledger.Debit(ctx, "s1", 5, domain.TxRedemption, ""); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	txs, _ := h.ledger.Transactions(ctx, "s1")
	if len(txs) != 0 {
		t.Fatalf("rejected operations must not be logged, got %d", len(txs))
	}
}

func TestRedeemPrize(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	prize, err := h.ledger.CreatePrize(ctx, "Sticker pack", "Holographic", 30, 1)
	if err != nil {
		t.Fatalf("create prize: %v", err)
	}
	if _, err := h.ledger.RedeemPrize(ctx, "s1", prize.ID); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	prizes, _ := h.ledger.Prizes(ctx)
	if prizes[0].StockQuantity != 1 {
		t.Fatalf("failed redemption must keep stock, got %d", prizes[0].StockQuantity)
	}

	if _, err := h.ledger.Credit(ctx, "s1", 100, domain.TxQuizReward, "quiz-1"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	r, err := h.ledger.RedeemPrize(ctx, "s1", prize.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if r.CoinCost != 30 || r.PrizeID != prize.ID {
		t.Fatalf("unexpected redemption %+v", r)
	}
	b, _ := h.ledger.GetBalance(ctx, "s1")
	if b.CurrentBalance != 70 || b.TotalSpent != 30 {
		t.Fatalf("unexpected balance %+v", b)
	}
	if _, err := h.ledger.RedeemPrize(ctx, "s1", prize.ID); !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if _, err := h.ledger.RedeemPrize(ctx, "s1", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := h.ledger.CreatePrize(ctx, "", "", 0, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestConcurrentDebitsNeverOverspend(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	if _, err := h.ledger.Credit(ctx, "s1", 100, domain.TxLessonReward, ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	var mu sync.Mutex
	succeeded := 0
	var g errgroup.Group
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := h.ledger.Debit(ctx, "s1", 10, domain.TxRedemption, "race")
			if errors.Is(err, domain.ErrInsufficientBalance) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if succeeded != 10 {
		t.Fatalf("expected exactly 10 debits, got %d", succeeded)
	}
	b, _ := h.ledger.GetBalance(ctx, "s1")
	if b.CurrentBalance != 0 || !b.Consistent() {
		t.Fatalf("unexpected balance %+v", b)
	}
}

func TestAwardOlympiadRank(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	cases := []struct {
		rank int
		want int64
	}{
		{1, 500},
		{2, 300},
		{3, 100},
		{4, 10},
		{27, 10},
	}
	var total int64
	for _, c := range cases {
		b, err := h.ledger.AwardOlympiadRank(ctx, "s2", c.rank, "olympiad-spring")
		if err != nil {
			t.Fatalf("rank %d: %v", c.rank, err)
		}
		total += c.want
		if b.CurrentBalance != total {
			t.Fatalf("rank %d: balance %d, want %d", c.rank, b.CurrentBalance, total)
		}
	}
	if _, err := h.ledger.AwardOlympiadRank(ctx, "s2", 0, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	txs, _ := h.ledger.Transactions(ctx, "s2")
	for _, tx := range txs {
		if tx.Type != domain.TxOlympiadReward || tx.RefID != "olympiad-spring" {
			t.Fatalf("unexpected transaction %+v", tx)
		}
	}
}

func TestLedgerFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.store.setFailAppend(true)
	if _, err := h.ledger.Credit(ctx, "s1", 10, domain.TxLessonReward, ""); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	h.store.setFailAppend(false)
	b, _ := h.ledger.GetBalance(ctx, "s1")
	if b.CurrentBalance != 0 || b.TotalEarned != 0 {
		t.Fatalf("balance changed without a transaction row: %+v", b)
	}
}
