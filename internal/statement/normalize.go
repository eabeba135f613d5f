// Package statement turns rows of a bank CSV export into draft
// transactions for the statement's own account.
package statement

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"

	"ledger-import/internal/ledger"
)

var (
	ErrBothDebitAndCredit = errors.New("entry has both debit and credit")
	ErrNoAmount           = errors.New("entry has neither debit nor credit")
)

// Columns are zero-based indices into a CSV row. Debit and Credit may be the
// same column, in which case the sign of the value tells them apart.
type Columns struct {
	Date        int `yaml:"date"`
	Description int `yaml:"description"`
	Debit       int `yaml:"debit"`
	Credit      int `yaml:"credit"`
}

// Combined reports whether debits and credits share one column.
func (c Columns) Combined() bool { return c.Debit == c.Credit }

func (c Columns) width() int {
	return max(c.Date, c.Description, c.Debit, c.Credit) + 1
}

// Normalizer builds the statement account's side of each row.
type Normalizer struct {
	// Account is the account the statement belongs to.
	Account string
	Columns Columns
	// Currency prefixes every amount; "$" when empty.
	Currency string
}

func (n *Normalizer) currency() string {
	if len(n.Currency) == 0 {
		return "$"
	}
	return n.Currency
}

func (n *Normalizer) check(row []string) error {
	if w := n.Columns.width(); len(row) < w {
		return errors.Errorf("row has %d columns, need at least %d: %v", len(row), w, row)
	}
	return nil
}

// Amount returns the signed amount for the statement account. Money leaving
// the account (a debit) is negative, money arriving (a credit) positive.
// Digits are copied as they are; only the sign is touched.
func (n *Normalizer) Amount(row []string) (string, error) {
	if err := n.check(row); err != nil {
		return "", err
	}
	debit := strings.TrimSpace(row[n.Columns.Debit])
	credit := strings.TrimSpace(row[n.Columns.Credit])

	if n.Columns.Combined() {
		if len(debit) == 0 {
			return "", ErrNoAmount
		}
		// In a combined column a leading "-" marks a credit.
		if debit[0] == '-' {
			return n.currency() + debit[1:], nil
		}
		return n.currency() + "-" + debit, nil
	}

	switch {
	case len(debit) > 0 && len(credit) > 0:
		return "", ErrBothDebitAndCredit
	case len(debit) > 0:
		if debit[0] != '-' {
			debit = "-" + debit
		}
		return n.currency() + debit, nil
	case len(credit) > 0:
		return n.currency() + credit, nil
	}
	return "", ErrNoAmount
}

// ParseDate accepts whatever date layout the bank uses.
func ParseDate(s string) (time.Time, error) {
	tm, err := dateparse.ParseAny(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "unable to parse date %q", s)
	}
	return tm, nil
}

// Date returns the row's date as YYYY-MM-DD.
func (n *Normalizer) Date(row []string) (string, error) {
	if err := n.check(row); err != nil {
		return "", err
	}
	tm, err := ParseDate(row[n.Columns.Date])
	if err != nil {
		return "", err
	}
	return tm.Format(ledger.DateLayout), nil
}

// Draft builds an unreviewed transaction holding only the statement
// account's posting.
func (n *Normalizer) Draft(row []string, source string) (*ledger.Transaction, error) {
	date, err := n.Date(row)
	if err != nil {
		return nil, err
	}
	amount, err := n.Amount(row)
	if err != nil {
		return nil, errors.Wrapf(err, "row %v", row)
	}
	// The description keys payee history, so it takes the form the journal
	// header will give it back in.
	desc := ledger.HeaderName(row[n.Columns.Description])
	return &ledger.Transaction{
		SourceFile:  source,
		Date:        date,
		Description: desc,
		Payee:       desc,
		Accounts: []ledger.Posting{
			{Account: n.Account, Amount: ledger.Amount(amount)},
		},
	}, nil
}
