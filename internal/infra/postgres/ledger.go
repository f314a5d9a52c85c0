package postgres

import (
	"context"
	"time"

	"classroom-quiz-service/internal/domain"
)

// LockBalance creates the zero balance on first use, then locks it.
func (t *storeTx) LockBalance(ctx context.Context, studentID string) (domain.CoinBalance, error) {
	_, err := t.tx.NewInsert().
		Model(&balanceRow{StudentID: studentID, UpdatedAt: time.Now()}).
		On("CONFLICT (student_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.CoinBalance{}, translate(err, "balance of "+studentID)
	}
	row := new(balanceRow)
	if err := t.tx.NewSelect().Model(row).Where("student_id = ?", studentID).For("UPDATE").Scan(ctx); err != nil {
		return domain.CoinBalance{}, translate(err, "balance of "+studentID)
	}
	return row.domain(), nil
}

func (t *storeTx) SaveBalance(ctx context.Context, b domain.CoinBalance) error {
	row := &balanceRow{
		StudentID:      b.StudentID,
		CurrentBalance: b.CurrentBalance,
		TotalEarned:    b.TotalEarned,
		TotalSpent:     b.TotalSpent,
		TotalWithdrawn: b.TotalWithdrawn,
		UpdatedAt:      b.UpdatedAt,
	}
	res, err := t.tx.NewUpdate().Model(row).WherePK().Exec(ctx)
	return updated(res, err, "balance of "+b.StudentID)
}

func (t *storeTx) AppendTransaction(ctx context.Context, tr domain.CoinTransaction) error {
	row := &transactionRow{
		ID:           tr.ID,
		StudentID:    tr.StudentID,
		Type:         string(tr.Type),
		Amount:       tr.Amount,
		BalanceAfter: tr.BalanceAfter,
		Description:  tr.Description,
		RefID:        tr.RefID,
		CreatedAt:    tr.CreatedAt,
	}
	_, err := t.tx.NewInsert().Model(row).Exec(ctx)
	return translate(err, "transaction "+tr.ID)
}

func (t *storeTx) Transactions(ctx context.Context, studentID string) ([]domain.CoinTransaction, error) {
	var rows []transactionRow
	err := t.tx.NewSelect().Model(&rows).Where("student_id = ?", studentID).Order("seq DESC").Scan(ctx)
	if err != nil {
		return nil, translate(err, "transactions of "+studentID)
	}
	out := make([]domain.CoinTransaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (t *storeTx) InsertWithdrawal(ctx context.Context, w domain.Withdrawal) error {
	_, err := t.tx.NewInsert().Model(newWithdrawalRow(w)).Exec(ctx)
	return translate(err, "withdrawal "+w.ID)
}

func (t *storeTx) LockWithdrawal(ctx context.Context, id string) (domain.Withdrawal, error) {
	row := new(withdrawalRow)
	if err := t.tx.NewSelect().Model(row).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
		return domain.Withdrawal{}, translate(err, "withdrawal "+id)
	}
	return row.domain(), nil
}

func (t *storeTx) SaveWithdrawal(ctx context.Context, w domain.Withdrawal) error {
	res, err := t.tx.NewUpdate().Model(newWithdrawalRow(w)).WherePK().Exec(ctx)
	return updated(res, err, "withdrawal "+w.ID)
}

func (t *storeTx) Withdrawals(ctx context.Context, studentID string) ([]domain.Withdrawal, error) {
	var rows []withdrawalRow
	err := t.tx.NewSelect().Model(&rows).Where("student_id = ?", studentID).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, translate(err, "withdrawals of "+studentID)
	}
	out := make([]domain.Withdrawal, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (t *storeTx) InsertPrize(ctx context.Context, p domain.Prize) error {
	_, err := t.tx.NewInsert().Model(newPrizeRow(p)).Exec(ctx)
	return translate(err, "prize "+p.ID)
}

func (t *storeTx) LockPrize(ctx context.Context, id string) (domain.Prize, error) {
	row := new(prizeRow)
	if err := t.tx.NewSelect().Model(row).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
		return domain.Prize{}, translate(err, "prize "+id)
	}
	return row.domain(), nil
}

func (t *storeTx) SavePrize(ctx context.Context, p domain.Prize) error {
	res, err := t.tx.NewUpdate().Model(newPrizeRow(p)).WherePK().Exec(ctx)
	return updated(res, err, "prize "+p.ID)
}

func (t *storeTx) Prizes(ctx context.Context) ([]domain.Prize, error) {
	var rows []prizeRow
	if err := t.tx.NewSelect().Model(&rows).Order("cost_coins ASC", "id ASC").Scan(ctx); err != nil {
		return nil, translate(err, "prizes")
	}
	out := make([]domain.Prize, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (t *storeTx) InsertRedemption(ctx context.Context, r domain.Redemption) error {
	row := &redemptionRow{
		ID:        r.ID,
		StudentID: r.StudentID,
		PrizeID:   r.PrizeID,
		CoinCost:  r.CoinCost,
		CreatedAt: r.CreatedAt,
	}
	_, err := t.tx.NewInsert().Model(row).Exec(ctx)
	return translate(err, "redemption "+r.ID)
}
