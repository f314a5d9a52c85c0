package postgres

import (
	"context"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Auditor scans every coin balance against its transaction log over a raw pgx pool.
type Auditor struct {
	pool *pgxpool.Pool
}

func NewAuditor(pool *pgxpool.Pool) *Auditor {
	return &Auditor{pool: pool}
}

const auditQuery = `
SELECT b.student_id, b.current_balance, b.total_earned, b.total_spent, b.total_withdrawn, b.updated_at,
       COALESCE(SUM(t.amount), 0)::bigint AS ledger_sum, COUNT(t.id)::int AS transactions
FROM coin_balances b
LEFT JOIN coin_transactions t ON t.student_id = b.student_id
GROUP BY b.student_id
ORDER BY b.student_id`

// Audit returns one reconciliation per balance row. Only unbalanced rows are returned when
// mismatchesOnly is set.
func (a *Auditor) Audit(ctx context.Context, mismatchesOnly bool) ([]domain.Reconciliation, error) {
	rows, err := a.pool.Query(ctx, auditQuery)
	if err != nil {
		return nil, fmt.Errorf("audit balances: %w", err)
	}
	defer rows.Close()

	var out []domain.Reconciliation
	for rows.Next() {
		var rec domain.Reconciliation
		b := &rec.Balance
		if err := rows.Scan(&b.StudentID, &b.CurrentBalance, &b.TotalEarned, &b.TotalSpent, &b.TotalWithdrawn, &b.UpdatedAt,
			&rec.LedgerSum, &rec.Transactions); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		rec.StudentID = b.StudentID
		rec.Balanced = b.Consistent() && rec.LedgerSum == b.CurrentBalance
		if mismatchesOnly && rec.Balanced {
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
