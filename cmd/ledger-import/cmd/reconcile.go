package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ledger-import/internal/dedup"
	"ledger-import/internal/ledger"
	"ledger-import/internal/logger"
	"ledger-import/internal/statement"
	"ledger-import/internal/store"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile JOURNAL CSV OUTPUT",
	Short: "Import a statement and review it in one go",
	Long: `Learn payees and accounts from JOURNAL, read the bank statement CSV,
and review each new transaction. Reviewed entries are appended to OUTPUT.

Transactions already imported from the same file are detected and you are
asked whether to skip them.

Example:
  ledger-import reconcile main.ledger jan.csv new.ledger --account Liabilities:Visa
  ledger-import reconcile main.ledger jan.csv new.ledger --account Assets:Checking --start 2024-01-01`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := parseWindow(startDate, endDate)
		if err != nil {
			return err
		}
		h, err := loadHistory(ctx, args[0], account)
		if err != nil {
			return err
		}
		comp := newCompleter(h, account)
		defer comp.Persist()

		st, err := store.Open(ctx, cfg.StoreOptions())
		if err != nil {
			return err
		}
		defer st.Close()

		u, done, err := openUI(comp)
		if err != nil {
			return err
		}
		defer done()

		r := reviewRun{self: account, history: h, comp: comp, st: st, u: u, output: args[2]}
		return reconcileStatement(ctx, r, args[1], w)
	},
}

func init() {
	addAccountFlags(reconcileCmd, true)
}

// reconcileStatement imports csvPath through the duplicate check and
// reviews whatever was admitted.
func reconcileStatement(ctx context.Context, r reviewRun, csvPath string, w statement.Window) error {
	log := logger.FromContext(ctx)
	drafts, err := loadStatement(r.u, r.self, cfg.Account(r.self), csvPath, w)
	if err != nil {
		return err
	}
	det := dedup.New(r.st)
	admitted := make([]*ledger.Transaction, 0, len(drafts))
	for _, d := range drafts {
		ok, err := det.Admit(ctx, d, r.u.prompt, r.u.out)
		if err != nil {
			return err
		}
		if ok {
			admitted = append(admitted, d)
		}
	}
	log.Info().Str("csv", csvPath).Int("rows", len(drafts)).Int("admitted", len(admitted)).Msg("statement imported")
	if len(admitted) == 0 {
		fmt.Fprintln(r.u.out, "Nothing new to review.")
		return nil
	}
	return r.review(ctx, admitted)
}
