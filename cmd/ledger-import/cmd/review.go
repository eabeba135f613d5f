package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"ledger-import/internal/ledger"
	"ledger-import/internal/statement"
	"ledger-import/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review JOURNAL OUTPUT",
	Short: "Review transactions imported earlier",
	Long: `Go through the unreviewed transactions in the store that belong to
--account, suggesting accounts learned from JOURNAL. Reviewed entries are
appended to OUTPUT and marked reviewed in the store.

Example:
  ledger-import review main.ledger new.ledger --account Liabilities:Visa --end 2024-01-31`,
	Args: cobra.ExactArgs(2),
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

		r := reviewRun{self: account, history: h, comp: comp, st: st, u: u, output: args[1]}
		return reviewPending(ctx, r, w)
	},
}

func init() {
	addAccountFlags(reviewCmd, true)
}

// pending returns the unreviewed imports of self within w, oldest first.
func pending(ctx context.Context, st store.Store, self string, w statement.Window) ([]*ledger.Transaction, error) {
	from, to := dateBounds(w)
	all, err := st.Find(ctx, store.Imports, store.Query{From: from, To: to, Reviewed: store.Bool(false)})
	if err != nil {
		return nil, err
	}
	var out []*ledger.Transaction
	for _, t := range all {
		if p, ok := t.Primary(); ok && p.Account == self {
			out = append(out, t)
		}
	}
	sort.Stable(ledger.ByDate(out))
	return out, nil
}

func reviewPending(ctx context.Context, r reviewRun, w statement.Window) error {
	drafts, err := pending(ctx, r.st, r.self, w)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Fprintf(r.u.out, "Nothing to review for %s.\n", r.self)
		return nil
	}
	return r.review(ctx, drafts)
}
