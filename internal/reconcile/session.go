// Package reconcile walks the operator through each imported transaction:
// pick a suggested account, split across several, enter a new one, or put
// the transaction off until later in the session.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"ledger-import/internal/advisor"
	"ledger-import/internal/ledger"
	"ledger-import/internal/logger"
	"ledger-import/internal/payee"
	"ledger-import/internal/prompt"
	"ledger-import/internal/suggest"
)

// ErrQuit ends a session at the operator's request.
var ErrQuit = errors.New("review stopped")

const DefaultTaxFactor = "1.0775"

type State int

const (
	Drafted State = iota
	Suggesting
	Selecting
	Splitting
	EnteringNew
	Completed
	Snoozed
)

func (s State) String() string {
	switch s {
	case Drafted:
		return "drafted"
	case Suggesting:
		return "suggesting"
	case Selecting:
		return "selecting"
	case Splitting:
		return "splitting"
	case EnteringNew:
		return "entering-new"
	case Completed:
		return "completed"
	case Snoozed:
		return "snoozed"
	}
	return "unknown"
}

// Registrar learns account names the operator types.
type Registrar interface {
	Register(account string)
}

// Walker picks an account from the shortcut tree.
type Walker interface {
	Walk(p prompt.Prompter, out io.Writer) (string, error)
}

// Recorder persists a completed transaction.
type Recorder interface {
	Record(ctx context.Context, t *ledger.Transaction) error
}

// Session owns the payee model for one run. Model, Engine, Prompt and Out
// are required; the rest may be nil.
type Session struct {
	Model     *payee.Model
	Engine    *suggest.Engine
	Prompt    prompt.Prompter
	Out       io.Writer
	Registrar Registrar
	Walker    Walker
	Recorder  Recorder
	Advisor   advisor.Advisor
	// TaxFactor multiplies taxed split amounts; DefaultTaxFactor when empty.
	TaxFactor string
	// Currency prefixes typed amounts; "$" when empty.
	Currency string
}

func (s *Session) tax() string {
	if len(s.TaxFactor) == 0 {
		return DefaultTaxFactor
	}
	return s.TaxFactor
}

func (s *Session) currency() string {
	if len(s.Currency) == 0 {
		return "$"
	}
	return s.Currency
}

func (s *Session) register(account string) {
	if s.Registrar != nil {
		s.Registrar.Register(account)
	}
}

// menu is what the operator may answer at the selection prompt.
type menu struct {
	suggested []payee.Entry
}

func (m menu) print(w io.Writer) {
	for i, e := range m.suggested {
		fmt.Fprintf(w, "%d : %s\n", i+1, e.Account)
	}
	fmt.Fprintln(w, "o : Other / Split...")
	fmt.Fprintln(w, "n : New account")
	fmt.Fprintln(w, "s : Snooze")
	fmt.Fprintln(w, "q : Quit")
}

// pick returns the suggestion for a numeric answer.
func (m menu) pick(ans string) (string, bool) {
	i, err := strconv.Atoi(ans)
	if err != nil || i < 1 || i > len(m.suggested) {
		return "", false
	}
	return m.suggested[i-1].Account, true
}

// Review takes one draft to Completed or Snoozed. On Completed, t holds the
// chosen postings after the primary one and is marked reviewed.
func (s *Session) Review(ctx context.Context, t *ledger.Transaction) (State, error) {
	log := logger.FromContext(ctx)
	primary, ok := t.Primary()
	if !ok {
		return Drafted, errors.Errorf("transaction %q has no primary posting", t.Description)
	}

	res := s.Engine.Suggest(t.Description, s.Model)
	log.Debug().Str("key", res.Key).Int("matches", len(res.Matches)).Msg("suggest")
	m := menu{suggested: res.Accounts}
	state := Selecting
	if !res.Found() {
		state = Suggesting
		fmt.Fprintln(s.Out, "Could not find a previous transaction that is a close match.")
		s.hints(ctx, t)
	}
	m.print(s.Out)

	for {
		ans, err := s.Prompt.Ask("Enter selection: ")
		if err != nil {
			return state, err
		}
		var postings []ledger.Posting
		switch ans {
		case "o":
			postings, err = s.split(primary)
			if err != nil {
				return Splitting, err
			}
		case "n":
			postings, err = s.enterNew(primary)
			if err != nil {
				return EnteringNew, err
			}
			if postings == nil {
				m.print(s.Out)
				continue
			}
		case "s":
			return Snoozed, nil
		case "q":
			return state, ErrQuit
		default:
			acc, ok := m.pick(ans)
			if !ok {
				fmt.Fprintln(s.Out, "Invalid selection!")
				continue
			}
			postings = []ledger.Posting{{Account: acc}}
		}
		if err := s.complete(ctx, t, primary, res.Key, postings); err != nil {
			return state, err
		}
		return Completed, nil
	}
}

// hints shows what the advisor thinks. It never fails the review.
func (s *Session) hints(ctx context.Context, t *ledger.Transaction) {
	if s.Advisor == nil {
		return
	}
	hints, err := s.Advisor.Advise(ctx, t)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("advisor failed")
		return
	}
	printHints(s.Out, hints)
}

func (s *Session) complete(ctx context.Context, t *ledger.Transaction, primary ledger.Posting,
	key string, postings []ledger.Posting) error {

	t.Accounts = append([]ledger.Posting{primary}, postings...)
	t.Reviewed = true
	if err := t.Validate(); err != nil {
		return errors.Wrapf(err, "completed transaction %q", t.Description)
	}
	if s.Recorder != nil {
		if err := s.Recorder.Record(ctx, t); err != nil {
			return err
		}
	}
	accounts := make([]string, 0, len(postings))
	for _, p := range postings {
		accounts = append(accounts, p.Account)
	}
	s.Model.Reinforce(key, accounts...)
	return nil
}

// askAccount reads an account name, offering the shortcut tree on "?".
// Names a journal posting can't hold are asked again.
func (s *Session) askAccount() (string, error) {
	for {
		acc, err := s.Prompt.Ask("Enter account name: ")
		if err != nil {
			return "", err
		}
		if acc == "?" {
			if s.Walker == nil {
				fmt.Fprintln(s.Out, "No account shortcuts available. Type the account name.")
				continue
			}
			if acc, err = s.Walker.Walk(s.Prompt, s.Out); err != nil {
				return "", err
			}
			if len(acc) == 0 {
				continue
			}
			fmt.Fprintf(s.Out, "Account: %s\n", acc)
		}
		if err := ledger.CheckAccount(acc); err != nil {
			fmt.Fprintln(s.Out, "Invalid account name: no tabs, double spaces or ';'.")
			continue
		}
		return acc, nil
	}
}

// askAmounts reads amounts until they parse.
func (s *Session) askAmounts() (Amounts, string, error) {
	for {
		in, err := s.Prompt.Ask("Enter space-separated amounts. Append '*' to untaxed amounts: ")
		if err != nil {
			return nil, "", err
		}
		amounts, comment, err := ParseAmounts(in)
		if errors.Cause(err) == ErrBadAmount {
			fmt.Fprintln(s.Out, "Invalid format.")
			continue
		}
		return amounts, comment, err
	}
}

// balanced checks postings against the primary one.
func balanced(primary ledger.Posting, postings []ledger.Posting) error {
	t := &ledger.Transaction{Accounts: append([]ledger.Posting{primary}, postings...)}
	return t.Balance()
}

// split gathers accounts until an empty name. A split that is empty,
// declares two auto-balance postings, mixes both kinds on one account, or
// does not balance is discarded and started over.
func (s *Session) split(primary ledger.Posting) ([]ledger.Posting, error) {
	for {
		sp := NewSplit()
		var conflict error
		for {
			acc, err := s.askAccount()
			if err != nil {
				return nil, err
			}
			if len(acc) == 0 {
				break
			}
			s.register(acc)
			amounts, comment, err := s.askAmounts()
			if err != nil {
				return nil, err
			}
			if err := sp.Add(acc, amounts, comment); err != nil {
				conflict = err
				break
			}
		}

		if conflict == nil {
			if sp.Len() == 0 {
				fmt.Fprintln(s.Out, "Split needs at least one account. Starting over.")
				continue
			}
			postings := sp.Postings(s.currency(), s.tax())
			if conflict = balanced(primary, postings); conflict == nil {
				return postings, nil
			}
		}
		fmt.Fprintf(s.Out, "Split discarded: %v. Starting over.\n", conflict)
	}
}

// enterNew reads one account and its amounts. An empty name returns nil
// postings so the caller can show the menu again.
func (s *Session) enterNew(primary ledger.Posting) ([]ledger.Posting, error) {
	acc, err := s.askAccount()
	if err != nil || len(acc) == 0 {
		return nil, err
	}
	s.register(acc)
	amounts, comment, err := s.askAmounts()
	if err != nil {
		return nil, err
	}
	p := ledger.Posting{Account: acc, Comment: comment}
	if len(amounts) > 0 {
		p.Amount = ledger.Amount(amounts.Render(s.currency(), s.tax()))
	}
	postings := []ledger.Posting{p}
	if err := balanced(primary, postings); err != nil {
		fmt.Fprintf(s.Out, "Not recorded: %v.\n", err)
		return nil, nil
	}
	return postings, nil
}
