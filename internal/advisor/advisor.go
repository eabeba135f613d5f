// Package advisor guesses accounts for a transaction that has no close
// payee match in the journal. Guesses are only shown to the operator; they
// never complete a transaction on their own.
package advisor

import (
	"context"
	"strings"

	"ledger-import/internal/ledger"
)

// MaxHints caps how many accounts an advisor returns.
const MaxHints = 5

type Advisor interface {
	// Advise returns likely offsetting accounts for t, best first.
	Advise(ctx context.Context, t *ledger.Transaction) ([]string, error)
}

// Terms splits a description into lowercase words with payment processor
// noise removed.
func Terms(desc string) []string {
	desc = strings.ToLower(desc)
	desc = strings.ReplaceAll(desc, "*", " ")
	return strings.Fields(desc)
}

// skipped reports accounts that say nothing about what a payment was for.
func skipped(account string) bool {
	switch {
	case strings.HasPrefix(account, "Assets:Reimbursements:"):
		return false
	case strings.HasPrefix(account, "Assets:"),
		strings.HasPrefix(account, "Equity:"),
		strings.HasPrefix(account, "Liabilities:"):
		return true
	}
	return false
}
