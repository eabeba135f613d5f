package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ledger-import/internal/dedup"
	"ledger-import/internal/logger"
	"ledger-import/internal/prompt"
	"ledger-import/internal/statement"
	"ledger-import/internal/store"
	"ledger-import/internal/suggest"
)

var askPayee bool

var importCmd = &cobra.Command{
	Use:   "import CSV",
	Short: "Store a statement's transactions for a later review",
	Long: `Read the bank statement CSV and keep its transactions in the store as
unreviewed drafts. Run review to go through them.

With --ask-payee each transaction gets a payee name, picked from the payees
earlier imports gave to similar descriptions.

Example:
  ledger-import import jan.csv --account Liabilities:Visa --ask-payee`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(ctx, cfg.StoreOptions())
		if err != nil {
			return err
		}
		defer st.Close()

		u, done, err := openUI(nil)
		if err != nil {
			return err
		}
		defer done()

		n, err := importStatement(ctx, u, st, args[0], askPayee)
		if err != nil {
			return err
		}
		fmt.Fprintf(u.out, "%d transactions imported from %s\n", n, args[0])
		return nil
	},
}

func init() {
	addAccountFlags(importCmd, false)
	importCmd.Flags().BoolVar(&askPayee, "ask-payee", false, "Ask for a payee name for every transaction.")
}

// importStatement inserts the statement's drafts into the imports
// collection and returns how many were kept.
func importStatement(ctx context.Context, u ui, st store.Store, csvPath string, ask bool) (int, error) {
	log := logger.FromContext(ctx)
	drafts, err := loadStatement(u, account, cfg.Account(account), csvPath, statement.Window{})
	if err != nil {
		return 0, err
	}
	det := dedup.New(st)
	engine, err := suggest.New(cfg.SuggestOptions())
	if err != nil {
		return 0, err
	}
	var known map[string]string
	if ask {
		if known, err = det.KnownPayees(ctx); err != nil {
			return 0, err
		}
	}

	var n int
	for _, d := range drafts {
		skip, err := det.Skip(ctx, d, u.prompt, u.out)
		if err != nil {
			return n, err
		}
		if skip {
			continue
		}
		if ask {
			fmt.Fprintf(u.out, "\n%s || %s || %s\n", d.Date, d.Description, d.Accounts[0].AmountText())
			name, err := choosePayee(u, engine, known, d.Description)
			if err != nil {
				return n, err
			}
			if len(name) > 0 {
				d.Payee = name
			}
			if _, has := known[d.Description]; !has {
				known[d.Description] = d.Payee
			}
		}
		if err := st.Insert(ctx, store.Imports, d); err != nil {
			return n, err
		}
		n++
	}
	log.Info().Str("csv", csvPath).Int("rows", len(drafts)).Int("imported", n).Msg("statement imported")
	return n, nil
}

// choosePayee offers the payees of similar descriptions, or asks for a
// name when there are none.
func choosePayee(u ui, engine *suggest.Engine, known map[string]string, desc string) (string, error) {
	names := engine.ClosePayees(desc, known, cfg.Suggest.PayeeThreshold)
	if len(names) == 0 {
		fmt.Fprintln(u.out, "No close matches found for:", desc)
		return u.prompt.Ask("Enter Payee Name: ")
	}

	fmt.Fprintln(u.out, "\nClose Matches: (Select one)")
	valid := []string{"0"}
	for i, p := range names {
		fmt.Fprintf(u.out, "%d : %s\n", i+1, p)
		valid = append(valid, strconv.Itoa(i+1))
	}
	fmt.Fprintln(u.out, "0 : Other...")
	ans, err := prompt.Verified(u.prompt, u.out, "Enter your selection: ", valid...)
	if err != nil {
		return "", err
	}
	if ans == "0" {
		return u.prompt.Ask("Enter Payee Name: ")
	}
	i, _ := strconv.Atoi(ans)
	return names[i-1], nil
}
