package advisor

import (
	"context"
	"strings"
	"testing"

	"ledger-import/internal/journal"
	"ledger-import/internal/ledger"
)

const history = `2024/01/02 WHOLE FOODS MARKET
	Expenses:Food:Groceries		$52.10
	Assets:Checking

2024/01/05 SHELL OIL 57444
	Expenses:Auto:Gas		$40.00
	Assets:Checking

2024/01/09 WHOLE FOODS MARKET
	Expenses:Food:Groceries		$18.40
	Assets:Checking

2024/01/12 CHEVRON 0091
	Expenses:Auto:Gas		$35.00
	Assets:Checking

2024/01/15 TRADER JOES
	Expenses:Food:Groceries		$22.75
	Assets:Checking
`

func parse(t *testing.T) *journal.History {
	t.Helper()
	h, err := journal.Parse(strings.NewReader(history), "Assets:Checking")
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestTerms(t *testing.T) {
	got := Terms("SQ *Blue Bottle  Coffee")
	if strings.Join(got, "|") != "sq|blue|bottle|coffee" {
		t.Errorf("Terms = %v", got)
	}
}

func TestBayesAdvise(t *testing.T) {
	b, err := NewBayes(parse(t), "Assets:Checking")
	if err != nil {
		t.Fatal(err)
	}
	hints, err := b.Advise(context.Background(), &ledger.Transaction{Description: "WHOLE FOODS MARKET #10"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hints) == 0 || hints[0] != "Expenses:Food:Groceries" {
		t.Errorf("hints = %v", hints)
	}
	for _, h := range hints {
		if h == "Assets:Checking" {
			t.Errorf("self account offered: %v", hints)
		}
	}
}

func TestBayesTooFewClasses(t *testing.T) {
	h, err := journal.Parse(strings.NewReader("2024/01/02 X\n\tExpenses:Food\t\t$1\n\tAssets:Checking\n"), "Assets:Checking")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewBayes(h, "Assets:Checking"); err != ErrTooFewClasses {
		t.Errorf("NewBayes err = %v", err)
	}
}

func TestClaudeNeedsKey(t *testing.T) {
	if _, err := NewClaude(ClaudeConfig{}, parse(t)); err == nil {
		t.Errorf("expected error without API key")
	}
}

func TestClaudeAdvise(t *testing.T) {
	c := &Claude{model: DefaultModel, accounts: chart(parse(t), "Assets:Checking")}
	var sent string
	c.send = func(_ context.Context, prompt string) (string, error) {
		sent = prompt
		return "```json\n{\"accounts\": [\"Expenses:Auto:Gas\", \"Expenses:Made:Up\"], \"reasoning\": \"fuel\"}\n```", nil
	}
	txn := &ledger.Transaction{
		Date:        "2024-02-01",
		Description: "ARCO 4411",
		Accounts:    []ledger.Posting{{Account: "Assets:Checking", Amount: ledger.Amount("$-30.00")}},
	}
	hints, err := c.Advise(context.Background(), txn)
	if err != nil {
		t.Fatal(err)
	}
	if len(hints) != 1 || hints[0] != "Expenses:Auto:Gas" {
		t.Errorf("hints = %v", hints)
	}
	for _, want := range []string{"ARCO 4411", "$-30.00", "Expenses:Food:Groceries", "CHEVRON 0091"} {
		if !strings.Contains(sent, want) {
			t.Errorf("prompt is missing %q", want)
		}
	}
	if strings.Contains(sent, `"name": "Assets:Checking"`) {
		t.Errorf("prompt offers the self account")
	}
}

func TestClaudeBadResponse(t *testing.T) {
	c := &Claude{send: func(context.Context, string) (string, error) { return "no idea", nil }}
	if _, err := c.Advise(context.Background(), &ledger.Transaction{}); err == nil {
		t.Errorf("expected error for response without JSON")
	}
}
