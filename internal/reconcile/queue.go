package reconcile

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"ledger-import/internal/ledger"
	"ledger-import/internal/logger"
)

type pending struct {
	txn  *ledger.Transaction
	pass int
}

// Run reviews drafts in order. Snoozed drafts go to the back of the queue
// and come up again on the next pass, with no limit on how often; the
// operator ends the loop by completing them or quitting. Run returns the
// completed transactions in completion order, together with ErrQuit or the
// error that stopped the session.
func (s *Session) Run(ctx context.Context, drafts []*ledger.Transaction) ([]*ledger.Transaction, error) {
	log := logger.FromContext(ctx)
	queue := make([]pending, 0, len(drafts))
	for _, t := range drafts {
		queue = append(queue, pending{txn: t, pass: 1})
	}

	var done []*ledger.Transaction
	pass, idx := 1, 0
	total := len(queue)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next.pass > pass {
			pass = next.pass
			idx = 0
			total = len(queue) + 1
			color.New(color.FgCyan).Fprintf(s.Out, "\nPass %d: %d snoozed transaction(s) left.\n", pass, total)
		}
		idx++

		fmt.Fprintln(s.Out)
		printSummary(s.Out, next.txn, idx, total)
		state, err := s.Review(ctx, next.txn)
		log.Debug().Str("desc", next.txn.Description).Stringer("state", state).Int("pass", pass).Msg("reviewed")
		if err != nil {
			return done, err
		}
		switch state {
		case Completed:
			done = append(done, next.txn)
		case Snoozed:
			queue = append(queue, pending{txn: next.txn, pass: next.pass + 1})
		}
	}
	return done, nil
}
