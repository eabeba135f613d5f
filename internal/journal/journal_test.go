package journal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"ledger-import/internal/ledger"
)

const self = "Liabilities:CapitalOne"

const sample = `; personal journal
account Expenses:Food
    ; csv-account: food

2024/01/02 * (1001) Costco  ; weekly run
    Expenses:Food               $25.00
    Expenses:Household          $10.00  ; paper towels
    Liabilities:CapitalOne

2024/01/09 Costco
	Expenses:Food		$31.17
	Liabilities:CapitalOne

2024-01-10 ! Shell Oil
    ; filled up before the trip
    Expenses:Gas    $40.00
    Liabilities:CapitalOne
`

func TestParse(t *testing.T) {
	h, err := Parse(strings.NewReader(sample), self)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	for _, acc := range []string{"Expenses:Food", "Expenses:Household", "Expenses:Gas", self} {
		if !h.Accounts[acc] {
			t.Errorf("account %s missing from %v", acc, h.AccountNames())
		}
	}

	costco := h.Payees.Counter("Costco")
	if costco == nil {
		t.Fatalf("payee Costco missing, have %v", h.Payees.Payees())
	}
	if costco.Count("Expenses:Food") != 2 || costco.Count("Expenses:Household") != 1 {
		t.Errorf("Costco counts = %+v", costco.MostCommon(0))
	}
	if costco.Count(self) != 0 {
		t.Errorf("self account must not be counted")
	}
	if h.Payees.Counter("Shell Oil").Count("Expenses:Gas") != 1 {
		t.Errorf("Shell Oil counts = %+v", h.Payees.Counter("Shell Oil").MostCommon(0))
	}

	if len(h.Transactions) != 3 {
		t.Fatalf("parsed %d transactions, want 3", len(h.Transactions))
	}
	first := h.Transactions[0]
	if first.Date != "2024/01/02" || first.Description != "Costco" {
		t.Errorf("first header = %q %q", first.Date, first.Description)
	}
	if len(first.Accounts) != 3 {
		t.Fatalf("first postings = %+v", first.Accounts)
	}
	if first.Accounts[1].AmountText() != "$10.00" || first.Accounts[1].Comment != "paper towels" {
		t.Errorf("second posting = %+v", first.Accounts[1])
	}
	if !first.Accounts[2].AutoBalance() {
		t.Errorf("last posting should auto-balance: %+v", first.Accounts[2])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"badHeader", "Costco without a date\n    Expenses:Food  $1\n", "invalid transaction header"},
		{"outside", "    Expenses:Food  $1\n", "line outside transaction"},
		{"afterBlank", "2024-01-01 Costco\n    Expenses:Food  $1\n\n    Expenses:Gas  $2\n", "line outside transaction"},
		{"tooManyFields", "2024-01-01 Costco\n    Expenses:Food  $1  extra\n", "invalid posting format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in), self)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Msg != tt.msg {
				t.Errorf("Msg = %q, want %q", pe.Msg, tt.msg)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	txn := &ledger.Transaction{
		Date:        "2024-02-03",
		Description: "SQ *BLUE BOTTLE",
		Payee:       "Blue Bottle",
		Accounts: []ledger.Posting{
			{Account: self, Amount: ledger.Amount("$-15.83")},
			{Account: "Expenses:Food", Comment: "coffee"},
		},
	}
	want := "2024-02-03 Blue Bottle\n" +
		"\tLiabilities:CapitalOne\t\t$-15.83\n" +
		"\tExpenses:Food\t; coffee\n" +
		"\n"
	if got := Format(txn); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	posting := func(acc string) []ledger.Posting {
		return []ledger.Posting{
			{Account: self, Amount: ledger.Amount("$-1.00")},
			{Account: acc},
		}
	}
	txns := []*ledger.Transaction{
		{
			Date:        "2024-03-05",
			Description: "Trader Joes",
			Accounts: []ledger.Posting{
				{Account: self, Amount: ledger.Amount("$-20.97")},
				{Account: "Expenses:Food", Amount: ledger.Amount("($12.50*1.0775 + $7.50)"), Comment: "groceries; wine"},
			},
		},
		{
			Date:        "2024-03-01",
			Description: "Shell Oil",
			Accounts: []ledger.Posting{
				{Account: self, Amount: ledger.Amount("$-40.00")},
				{Account: "Expenses:Gas"},
			},
		},
		{Date: "2024-03-06", Description: "", Accounts: posting("Expenses:Misc")},
		{Date: "2024-03-07", Description: "* STARBUCKS", Accounts: posting("Expenses:Coffee")},
		{Date: "2024-03-08", Description: "(1234) ACME", Accounts: posting("Expenses:Tools")},
		{Date: "2024-03-09", Description: "raw", Payee: "! PENDING", Accounts: posting("Expenses:Eating Out")},
	}
	wantName := map[string]string{
		"2024-03-01": "Shell Oil",
		"2024-03-05": "Trader Joes",
		"2024-03-06": ledger.UnknownPayee,
		"2024-03-07": "STARBUCKS",
		"2024-03-08": "ACME",
		"2024-03-09": "PENDING",
	}

	var buf bytes.Buffer
	if err := WriteBatch(&buf, txns); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	h, err := Parse(&buf, self)
	if err != nil {
		t.Fatalf("Parse of serialized batch: %v\n%s", err, buf.String())
	}
	if len(h.Transactions) != len(txns) {
		t.Fatalf("got %d transactions back", len(h.Transactions))
	}
	byDate := make(map[string]*ledger.Transaction)
	for _, txn := range txns {
		byDate[txn.Date] = txn
	}
	for _, got := range h.Transactions {
		orig := byDate[got.Date]
		if orig == nil {
			t.Fatalf("unexpected date %s", got.Date)
		}
		if got.Description != wantName[got.Date] {
			t.Errorf("header = %q, want %q", got.Description, wantName[got.Date])
		}
		if got.Description != ledger.HeaderName(orig.Name()) {
			t.Errorf("header %q differs from HeaderName(%q)", got.Description, orig.Name())
		}
		if len(got.Accounts) != len(orig.Accounts) {
			t.Fatalf("postings = %+v, want %+v", got.Accounts, orig.Accounts)
		}
		for i := range orig.Accounts {
			if got.Accounts[i].Account != orig.Accounts[i].Account ||
				got.Accounts[i].AmountText() != orig.Accounts[i].AmountText() {
				t.Errorf("posting %d = %+v, want %+v", i, got.Accounts[i], orig.Accounts[i])
			}
		}
	}
	if h.Transactions[0].Date != "2024-03-01" {
		t.Errorf("batch not sorted: first is %s", h.Transactions[0].Date)
	}
	// Payee history is keyed by the header as written.
	if c := h.Payees.Counter("STARBUCKS"); c.Count("Expenses:Coffee") != 1 {
		t.Errorf("STARBUCKS counts = %+v", c.MostCommon(0))
	}
}

func TestFormatterTemplate(t *testing.T) {
	txn := &ledger.Transaction{
		Date:        "2024-02-03",
		Description: "SQ *BLUE BOTTLE",
		SourceFile:  "feb.csv",
		Accounts: []ledger.Posting{
			{Account: self, Amount: ledger.Amount("$-15.83")},
			{Account: "Expenses:Food"},
		},
	}
	f, err := NewFormatter("{{.Date}} * {{.Header}}\n    ; source: {{.Source}}\n" +
		"{{range .Postings}}    {{printf \"%-24s\" .Account}}{{.Amount}}\n{{end}}\n")
	if err != nil {
		t.Fatal(err)
	}
	got, err := f.Format(txn)
	if err != nil {
		t.Fatal(err)
	}
	want := "2024-02-03 * SQ *BLUE BOTTLE\n" +
		"    ; source: feb.csv\n" +
		"    Liabilities:CapitalOne  $-15.83\n" +
		"    Expenses:Food           \n" +
		"\n"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if _, err := Parse(strings.NewReader(got), self); err != nil {
		t.Errorf("custom entry does not parse: %v", err)
	}

	def, err := NewFormatter("")
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := def.Format(txn); s != Format(txn) {
		t.Errorf("empty template = %q, want the default %q", s, Format(txn))
	}
	if _, err := NewFormatter("{{.Date"); err == nil {
		t.Errorf("expected an error for a malformed template")
	}
	if id, _ := mustFormatter(t, "{{uuid}}").Format(txn); len(id) != 36 {
		t.Errorf("uuid = %q", id)
	}
	if _, err := mustFormatter(t, "{{.Missing}}").Format(txn); err == nil {
		t.Errorf("expected an error for an unknown field")
	}
}

func mustFormatter(t *testing.T, text string) *Formatter {
	t.Helper()
	f, err := NewFormatter(text)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestParseFileIncludes(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2023.ledger")
	if err := os.WriteFile(sub, []byte("2023-12-30 Costco\n    Expenses:Food  $5\n    Liabilities:CapitalOne\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	main := filepath.Join(dir, "main.ledger")
	body := "include 2023.ledger\n2024-01-01 Costco\n    Expenses:Household  $2\n    Liabilities:CapitalOne\n"
	if err := os.WriteFile(main, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := ParseFile(main, self)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	c := h.Payees.Counter("Costco")
	if c.Count("Expenses:Food") != 1 || c.Count("Expenses:Household") != 1 {
		t.Errorf("counts = %+v", c.MostCommon(0))
	}
}

func TestAppendFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.ledger")
	if err := os.WriteFile(out, []byte("2020-01-01 Old\n    Expenses:Food  $1\n    Assets:Cash\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	txn := &ledger.Transaction{Date: "2024-01-01", Description: "New", Accounts: []ledger.Posting{
		{Account: "Assets:Cash", Amount: ledger.Amount("$-1")},
		{Account: "Expenses:Food"},
	}}
	if err := AppendFile(out, []*ledger.Transaction{txn}); err != nil {
		t.Fatalf("AppendFile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "2020-01-01 Old\n") {
		t.Errorf("existing content rewritten: %q", data)
	}
	if !strings.HasSuffix(string(data), Format(txn)) {
		t.Errorf("new entry not appended: %q", data)
	}
}
