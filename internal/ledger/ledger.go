// Package ledger holds the transaction records shared by the importer, the
// review workflow, the store and the journal writer.
package ledger

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DateLayout is the ISO date every transaction carries.
const DateLayout = "2006-01-02"

var (
	ErrMultipleAutoBalance = errors.New("more than one posting without an amount")
	ErrTooFewPostings      = errors.New("reviewed transaction needs at least two postings")
	ErrUnbalanced          = errors.New("postings do not balance")
	ErrBadAccount          = errors.New("account name can't contain a tab, two spaces or ';'")
)

// UnknownPayee heads an entry whose bank description was blank.
const UnknownPayee = "Unknown"

// A journal header drops a leading status flag or (code) before the payee.
var rflag = regexp.MustCompile(`^(?:[*!]|\(\S+\))\s+`)

// Posting is one account line of a transaction. A nil Amount means the
// posting takes whatever balances the others.
type Posting struct {
	Account string  `json:"account" bson:"account"`
	Amount  *string `json:"amount,omitempty" bson:"amount,omitempty"`
	Comment string  `json:"comment,omitempty" bson:"comment,omitempty"`
}

// AutoBalance reports whether the posting has no explicit amount.
func (p Posting) AutoBalance() bool { return p.Amount == nil }

// AmountText returns the amount expression, or "" for an auto-balance posting.
func (p Posting) AmountText() string {
	if p.Amount == nil {
		return ""
	}
	return *p.Amount
}

// Amount returns a pointer to s, for building postings inline.
func Amount(s string) *string { return &s }

// Transaction is a bank transaction on its way to becoming a journal entry.
// Accounts[0] is always the account the statement belongs to.
type Transaction struct {
	ID          string    `json:"id" bson:"_id"`
	SourceFile  string    `json:"source_file" bson:"source_file"`
	Date        string    `json:"date" bson:"date"`
	Description string    `json:"description" bson:"description"`
	Payee       string    `json:"payee" bson:"payee"`
	Reviewed    bool      `json:"reviewed" bson:"reviewed"`
	Accounts    []Posting `json:"accounts" bson:"accounts"`
}

// Name is what the journal header shows: the payee if one was assigned,
// otherwise the bank's description.
func (t *Transaction) Name() string {
	if len(t.Payee) > 0 {
		return t.Payee
	}
	if len(t.Description) > 0 {
		return t.Description
	}
	return UnknownPayee
}

// HeaderName returns s as a journal header reads it back: on one line,
// without leading status flags or codes, and never empty.
func HeaderName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for {
		loc := rflag.FindStringIndex(s)
		if loc == nil {
			break
		}
		s = s[loc[1]:]
	}
	if len(s) == 0 {
		return UnknownPayee
	}
	return s
}

// CheckAccount rejects names a posting line can't hold: the journal splits
// postings on tabs and double spaces, and ';' starts a comment.
func CheckAccount(name string) error {
	if strings.ContainsAny(name, "\t;") || strings.Contains(name, "  ") {
		return errors.Wrapf(ErrBadAccount, "%q", name)
	}
	return nil
}

// Primary returns the statement account's posting.
func (t *Transaction) Primary() (Posting, bool) {
	if len(t.Accounts) == 0 {
		return Posting{}, false
	}
	return t.Accounts[0], true
}

// Clone returns a deep copy, so a completed copy can be stored without
// sharing postings with the draft.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.Accounts = make([]Posting, len(t.Accounts))
	for i, p := range t.Accounts {
		c.Accounts[i] = p
		if p.Amount != nil {
			c.Accounts[i].Amount = Amount(*p.Amount)
		}
	}
	return &c
}

// AutoBalanced returns how many postings lack an amount.
func (t *Transaction) AutoBalanced() int {
	var n int
	for _, p := range t.Accounts {
		if p.AutoBalance() {
			n++
		}
	}
	return n
}

// Residual sums every explicit amount.
func (t *Transaction) Residual() (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range t.Accounts {
		if p.AutoBalance() {
			continue
		}
		v, err := Eval(*p.Amount)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "posting %q", p.Account)
		}
		sum = sum.Add(v)
	}
	return sum, nil
}

// Balance checks the double-entry invariants: at most one auto-balance
// posting, and explicit amounts summing to zero (to the cent) when there is
// none.
func (t *Transaction) Balance() error {
	switch n := t.AutoBalanced(); {
	case n > 1:
		return ErrMultipleAutoBalance
	case n == 1:
		return nil
	}
	sum, err := t.Residual()
	if err != nil {
		return err
	}
	if !sum.Round(2).IsZero() {
		return errors.Wrapf(ErrUnbalanced, "off by %s", sum.Round(2).String())
	}
	return nil
}

// Validate runs Balance and, for reviewed transactions, the posting count.
func (t *Transaction) Validate() error {
	if t.Reviewed && len(t.Accounts) < 2 {
		return ErrTooFewPostings
	}
	return t.Balance()
}

type ByDate []*Transaction

func (b ByDate) Len() int               { return len(b) }
func (b ByDate) Less(i int, j int) bool { return b[i].Date < b[j].Date }
func (b ByDate) Swap(i int, j int)      { b[i], b[j] = b[j], b[i] }
