package cli

import (
	"encoding/json"
	"fmt"

	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewReconcileCmd audits every coin balance against its transaction log.
func NewReconcileCmd(configPath *string) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check coin balances against the transaction log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			log := newLogger(cfg)

			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			recs, err := postgres.NewAuditor(pool).Audit(cmd.Context(), !all)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(recs); err != nil {
				return err
			}
			mismatches := 0
			for _, rec := range recs {
				if !rec.Balanced {
					mismatches++
				}
			}
			if mismatches > 0 {
				return fmt.Errorf("%d unbalanced ledgers", mismatches)
			}
			log.Info("ledger balanced", "checked", len(recs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every balance, not only mismatches")
	return cmd
}
