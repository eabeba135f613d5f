// Package dedup keeps a statement from being imported twice.
package dedup

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"ledger-import/internal/ledger"
	"ledger-import/internal/prompt"
	"ledger-import/internal/store"
)

const skipQuestion = "Duplicate import detected. Skip entry? (y/n) "

type Detector struct {
	store store.Store
}

func New(s store.Store) *Detector {
	return &Detector{store: s}
}

// Check reports whether an import from the same file, on the same date,
// with the same description and a posting of the same amount already
// exists.
func (d *Detector) Check(ctx context.Context, draft *ledger.Transaction) (bool, error) {
	primary, ok := draft.Primary()
	if !ok {
		return false, errors.Errorf("draft %q has no postings", draft.Description)
	}
	prior, err := d.store.Find(ctx, store.Imports, store.Query{
		SourceFile:  draft.SourceFile,
		Date:        draft.Date,
		Description: draft.Description,
	})
	if err != nil {
		return false, err
	}
	amount := primary.AmountText()
	for _, t := range prior {
		for _, p := range t.Accounts {
			if p.AmountText() == amount {
				return true, nil
			}
		}
	}
	return false, nil
}

// Skip reports whether draft should be left out. Only a likely duplicate
// is put to the operator; anything else is kept.
func (d *Detector) Skip(ctx context.Context, draft *ledger.Transaction,
	p prompt.Prompter, out io.Writer) (bool, error) {

	dup, err := d.Check(ctx, draft)
	if err != nil || !dup {
		return false, err
	}
	fmt.Fprintf(out, "\n%s || %s || %s\n", draft.Date, draft.Description, draft.Accounts[0].AmountText())
	return prompt.Confirm(p, out, skipQuestion)
}

// Admit inserts draft into the imports collection. When it looks like a
// duplicate the operator decides; a skipped draft is not inserted and Admit
// returns false. Proceeding leaves the earlier record untouched.
func (d *Detector) Admit(ctx context.Context, draft *ledger.Transaction,
	p prompt.Prompter, out io.Writer) (bool, error) {

	skip, err := d.Skip(ctx, draft, p, out)
	if err != nil || skip {
		return false, err
	}
	if err := d.store.Insert(ctx, store.Imports, draft); err != nil {
		return false, err
	}
	return true, nil
}

// KnownPayees maps each imported description to the payee first assigned
// to it.
func (d *Detector) KnownPayees(ctx context.Context) (map[string]string, error) {
	all, err := d.store.Find(ctx, store.Imports, store.Query{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, t := range all {
		if _, has := out[t.Description]; !has && len(t.Payee) > 0 {
			out[t.Description] = t.Payee
		}
	}
	return out, nil
}
