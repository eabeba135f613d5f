package reconcile

import (
	"strings"

	"github.com/pkg/errors"

	"ledger-import/internal/ledger"
)

// ErrMixedAutoBalance is an account given both explicit amounts and none.
var ErrMixedAutoBalance = errors.New("account has both explicit amounts and an auto-balance entry")

type splitEntry struct {
	account  string
	amounts  Amounts
	auto     bool
	comments []string
}

// Split collects the offsetting postings of one transaction. Entering an
// account again adds to its earlier entry.
type Split struct {
	entries []*splitEntry
	index   map[string]*splitEntry
}

func NewSplit() *Split {
	return &Split{index: make(map[string]*splitEntry)}
}

// Add records amounts for account. Empty amounts make the account the
// auto-balance posting.
func (s *Split) Add(account string, amounts Amounts, comment string) error {
	e, has := s.index[account]
	if !has {
		e = &splitEntry{account: account, auto: len(amounts) == 0}
		s.index[account] = e
		s.entries = append(s.entries, e)
	} else if e.auto != (len(amounts) == 0) {
		return errors.Wrapf(ErrMixedAutoBalance, "%s", account)
	}
	e.amounts = append(e.amounts, amounts...)
	if len(comment) > 0 {
		e.comments = append(e.comments, comment)
	}
	return nil
}

func (s *Split) Len() int { return len(s.entries) }

// Amounts returns what has been recorded for account so far.
func (s *Split) Amounts(account string) Amounts {
	if e, has := s.index[account]; has {
		return e.amounts
	}
	return nil
}

// Postings renders the split in entry order.
func (s *Split) Postings(currency, tax string) []ledger.Posting {
	out := make([]ledger.Posting, 0, len(s.entries))
	for _, e := range s.entries {
		p := ledger.Posting{Account: e.account, Comment: strings.Join(e.comments, "; ")}
		if !e.auto {
			p.Amount = ledger.Amount(e.amounts.Render(currency, tax))
		}
		out = append(out, p)
	}
	return out
}
