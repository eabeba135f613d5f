package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ledger-import/internal/advisor"
	"ledger-import/internal/completer"
	"ledger-import/internal/config"
	"ledger-import/internal/journal"
	"ledger-import/internal/ledger"
	"ledger-import/internal/logger"
	"ledger-import/internal/payee"
	"ledger-import/internal/prompt"
	"ledger-import/internal/reconcile"
	"ledger-import/internal/statement"
	"ledger-import/internal/store"
	"ledger-import/internal/suggest"
)

// Flags shared by the statement commands.
var (
	account   string
	startDate string
	endDate   string
)

func addAccountFlags(c *cobra.Command, window bool) {
	c.Flags().StringVar(&account, "account", "", "Ledger account the statement belongs to (required).")
	c.Flags().StringVar(&currency, "currency", "", "Currency for statement amounts (default from config, else $).")
	c.MarkFlagRequired("account")
	if window {
		c.Flags().StringVar(&startDate, "start", "", "Ignore entries before this date.")
		c.Flags().StringVar(&endDate, "end", "", "Ignore entries after this date.")
	}
}

// ui is how a command talks to the operator.
type ui struct {
	prompt prompt.Prompter
	out    io.Writer
}

// openUI starts a readline terminal, completing account names from comp
// when it is set.
func openUI(comp *completer.Completer) (ui, func(), error) {
	tc := prompt.TerminalConfig{HistoryFile: cfg.History}
	if comp != nil {
		tc.Complete = comp
	}
	term, err := prompt.NewTerminal(tc)
	if err != nil {
		return ui{}, nil, err
	}
	return ui{prompt: term, out: term.Stdout()}, func() { term.Close() }, nil
}

// parseWindow reads the --start and --end flags.
func parseWindow(start, end string) (statement.Window, error) {
	var w statement.Window
	var err error
	if len(start) > 0 {
		if w.Start, err = statement.ParseDate(start); err != nil {
			return w, errors.Wrap(err, "--start")
		}
	}
	if len(end) > 0 {
		if w.End, err = statement.ParseDate(end); err != nil {
			return w, errors.Wrap(err, "--end")
		}
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return w, errors.Errorf("--end %s is before --start %s", end, start)
	}
	return w, nil
}

// dateBounds turns a window into store query bounds.
func dateBounds(w statement.Window) (from, to string) {
	if !w.Start.IsZero() {
		from = w.Start.Format(ledger.DateLayout)
	}
	if !w.End.IsZero() {
		to = w.End.Format(ledger.DateLayout)
	}
	return from, to
}

var columnQuestions = []string{
	"Which entry contains the transaction date? ",
	"Which entry contains the description? ",
	"Which entry contains the debit amount? ",
	"Which entry contains the credit amount? ",
}

// askColumns lists the header (or the first row, when there is none) and
// asks which column is which.
func askColumns(u ui, st *statement.Statement) (statement.Columns, error) {
	sample := st.Header
	if sample == nil && len(st.Rows) > 0 {
		sample = st.Rows[0]
	}
	if len(sample) == 0 {
		return statement.Columns{}, errors.New("statement has no rows")
	}
	valid := make([]string, len(sample))
	for i, cell := range sample {
		valid[i] = strconv.Itoa(i)
		fmt.Fprintf(u.out, "%d : %s\n", i, cell)
	}
	var idx [4]int
	for i, q := range columnQuestions {
		ans, err := prompt.Verified(u.prompt, u.out, q, valid...)
		if err != nil {
			return statement.Columns{}, err
		}
		idx[i], _ = strconv.Atoi(ans)
	}
	return statement.Columns{Date: idx[0], Description: idx[1], Debit: idx[2], Credit: idx[3]}, nil
}

// loadStatement reads csvPath with the account's settings and returns the
// drafts inside w, oldest first.
func loadStatement(u ui, acc string, ac config.Account, csvPath string,
	w statement.Window) ([]*ledger.Transaction, error) {

	st, err := statement.ReadFile(csvPath, ac.ReadOptions())
	if err != nil {
		return nil, err
	}
	var cols statement.Columns
	if ac.Columns != nil {
		cols = *ac.Columns
	} else if cols, err = askColumns(u, st); err != nil {
		return nil, err
	}
	rows, err := st.Select(cols.Date, w)
	if err != nil {
		return nil, err
	}
	n := statement.Normalizer{Account: acc, Columns: cols, Currency: currencyFor(ac)}
	drafts := make([]*ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := n.Draft(row, csvPath)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, t)
	}
	return drafts, nil
}

// currencyFor prefers the --currency flag over the account's setting.
func currencyFor(ac config.Account) string {
	if len(currency) > 0 {
		return currency
	}
	return ac.Currency
}

// loadHistory parses the journal. A journal that does not exist yet has
// no history.
func loadHistory(ctx context.Context, path, self string) (*journal.History, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log := logger.FromContext(ctx)
		log.Warn().Str("journal", path).Msg("journal not found, starting without history")
		return &journal.History{Accounts: make(map[string]bool), Payees: payee.NewModel()}, nil
	}
	return journal.ParseFile(path, self)
}

// newCompleter knows every account in h, plus self.
func newCompleter(h *journal.History, self string) *completer.Completer {
	comp := completer.New(cfg.Shortcuts)
	for _, acc := range h.AccountNames() {
		comp.Register(acc)
	}
	comp.Register(self)
	return comp
}

// newAdvisor builds the configured advisor. An advisor that cannot be built
// is logged and left out; hints are never required.
func newAdvisor(ctx context.Context, h *journal.History, self string) advisor.Advisor {
	log := logger.FromContext(ctx)
	switch strings.ToLower(cfg.Advisor.Kind) {
	case "bayes":
		b, err := advisor.NewBayes(h, self)
		if err != nil {
			log.Debug().Err(err).Msg("bayes advisor disabled")
			return nil
		}
		return b
	case "claude":
		c, err := advisor.NewClaude(advisor.ClaudeConfig{
			APIKey: cfg.Advisor.APIKey,
			Model:  cfg.Advisor.Model,
			Self:   self,
		}, h)
		if err != nil {
			log.Warn().Err(err).Msg("claude advisor disabled")
			return nil
		}
		return c
	case "", "none":
		return nil
	}
	log.Warn().Str("kind", cfg.Advisor.Kind).Msg("unknown advisor")
	return nil
}

// storeRecorder keeps every reviewed transaction in the journal collection
// and marks its import reviewed.
type storeRecorder struct {
	st store.Store
}

func (r storeRecorder) Record(ctx context.Context, t *ledger.Transaction) error {
	if err := r.st.Insert(ctx, store.Journal, t.Clone()); err != nil {
		return err
	}
	if len(t.ID) == 0 {
		return nil
	}
	err := r.st.SetReviewed(ctx, store.Imports, t.ID, true)
	if errors.Cause(err) == store.ErrNotFound {
		log := logger.FromContext(ctx)
		log.Warn().Str("id", t.ID).Msg("reviewed transaction has no import record")
		return nil
	}
	return err
}

// reviewRun is everything a review session needs.
type reviewRun struct {
	self    string
	history *journal.History
	comp    *completer.Completer
	st      store.Store
	u       ui
	output  string
}

// review runs a session over drafts and appends what was completed to the
// output journal, also when the operator quits part way.
func (r reviewRun) review(ctx context.Context, drafts []*ledger.Transaction) error {
	log := logger.FromContext(ctx)
	engine, err := suggest.New(cfg.SuggestOptions())
	if err != nil {
		return err
	}
	fm, err := journal.NewFormatter(cfg.EntryTemplate)
	if err != nil {
		return err
	}
	s := &reconcile.Session{
		Model:     r.history.Payees,
		Engine:    engine,
		Prompt:    r.u.prompt,
		Out:       r.u.out,
		Registrar: r.comp,
		Walker:    r.comp,
		Recorder:  storeRecorder{st: r.st},
		Advisor:   newAdvisor(ctx, r.history, r.self),
		TaxFactor: cfg.TaxFactor,
		Currency:  currencyFor(cfg.Account(r.self)),
	}
	done, err := s.Run(ctx, drafts)
	if werr := fm.AppendFile(r.output, done); werr != nil {
		return werr
	}
	fmt.Fprintf(r.u.out, "%d of %d transactions written to %s\n", len(done), len(drafts), r.output)
	log.Info().Int("reviewed", len(done)).Int("drafts", len(drafts)).Str("output", r.output).Msg("review finished")
	if errors.Cause(err) == reconcile.ErrQuit {
		fmt.Fprintf(r.u.out, "%d left for a later review.\n", len(drafts)-len(done))
		return nil
	}
	return err
}
