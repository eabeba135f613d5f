package ledger

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func TestEval(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"$-12.34", "-12.34"},
		{"$50.00", "50"},
		{"$1,234.56", "1234.56"},
		{"($12.50*1.0775 + $7.50)", "20.969375"},
		{"(($10 + $5) + $1.25)", "16.25"},
		{"-$3", "-3"},
		{"12.50 USD", "12.5"},
		{"($9 / 3)", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr)
			if err != nil {
				t.Fatalf("Eval(%q) error: %v", tt.expr, err)
			}
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("Eval(%q) = %s, want %s", tt.expr, got, want)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	for _, expr := range []string{"", "$", "(1 + 2", "1 +", "1.2.3", "$1 / 0", "1 2"} {
		if _, err := Eval(expr); err == nil {
			t.Errorf("Eval(%q) expected error", expr)
		}
	}
}

func TestBalance(t *testing.T) {
	t.Run("autoBalance", func(t *testing.T) {
		txn := Transaction{Accounts: []Posting{
			{Account: "Liabilities:CapitalOne", Amount: Amount("$-20.00")},
			{Account: "Expenses:Food"},
		}}
		if err := txn.Balance(); err != nil {
			t.Errorf("Balance() = %v, want nil", err)
		}
	})

	t.Run("twoAutoBalance", func(t *testing.T) {
		txn := Transaction{Accounts: []Posting{
			{Account: "Liabilities:CapitalOne", Amount: Amount("$-20.00")},
			{Account: "Expenses:Food"},
			{Account: "Expenses:Gas"},
		}}
		if err := txn.Balance(); !errors.Is(err, ErrMultipleAutoBalance) {
			t.Errorf("Balance() = %v, want ErrMultipleAutoBalance", err)
		}
	})

	t.Run("explicitWithTax", func(t *testing.T) {
		txn := Transaction{Accounts: []Posting{
			{Account: "Liabilities:CapitalOne", Amount: Amount("$-20.97")},
			{Account: "Expenses:Food", Amount: Amount("($12.50*1.0775 + $7.50)")},
		}}
		if err := txn.Balance(); err != nil {
			t.Errorf("Balance() = %v, want nil", err)
		}
	})

	t.Run("unbalanced", func(t *testing.T) {
		txn := Transaction{Accounts: []Posting{
			{Account: "Liabilities:CapitalOne", Amount: Amount("$-20.00")},
			{Account: "Expenses:Food", Amount: Amount("$15")},
		}}
		if err := txn.Balance(); !errors.Is(err, ErrUnbalanced) {
			t.Errorf("Balance() = %v, want ErrUnbalanced", err)
		}
	})
}

func TestValidateReviewed(t *testing.T) {
	txn := Transaction{Reviewed: true, Accounts: []Posting{
		{Account: "Liabilities:CapitalOne", Amount: Amount("$-20.00")},
	}}
	if err := txn.Validate(); err != ErrTooFewPostings {
		t.Errorf("Validate() = %v, want ErrTooFewPostings", err)
	}
}

func TestClone(t *testing.T) {
	txn := &Transaction{Date: "2024-01-02", Accounts: []Posting{
		{Account: "Assets:Checking", Amount: Amount("$5")},
	}}
	c := txn.Clone()
	*c.Accounts[0].Amount = "$6"
	c.Accounts = append(c.Accounts, Posting{Account: "Expenses:Food"})
	if txn.Accounts[0].AmountText() != "$5" || len(txn.Accounts) != 1 {
		t.Errorf("Clone shares state with original: %+v", txn.Accounts)
	}
}

func TestByDate(t *testing.T) {
	txns := []*Transaction{{Date: "2024-03-01"}, {Date: "2023-12-31"}, {Date: "2024-01-15"}}
	sort.Stable(ByDate(txns))
	if txns[0].Date != "2023-12-31" || txns[2].Date != "2024-03-01" {
		t.Errorf("unexpected order: %s %s %s", txns[0].Date, txns[1].Date, txns[2].Date)
	}
}

func TestHeaderName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Costco", "Costco"},
		{"  SQ *BLUE   BOTTLE ", "SQ *BLUE BOTTLE"},
		{"", UnknownPayee},
		{"* STARBUCKS", "STARBUCKS"},
		{"! PENDING", "PENDING"},
		{"(1234) ACME", "ACME"},
		{"* (1234) ! ACME", "ACME"},
		{"*STARBUCKS", "*STARBUCKS"},
		{"* ", "*"},
	}
	for _, tt := range tests {
		if got := HeaderName(tt.in); got != tt.want {
			t.Errorf("HeaderName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := (&Transaction{}).Name(); got != UnknownPayee {
		t.Errorf("Name() of a blank transaction = %q", got)
	}
}

func TestCheckAccount(t *testing.T) {
	for _, name := range []string{"Expenses:Food", "Expenses:Eating Out", ""} {
		if err := CheckAccount(name); err != nil {
			t.Errorf("CheckAccount(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"Expenses:Food\t$5", "Expenses:Eating  Out", "Expenses;tip"} {
		if err := CheckAccount(name); errors.Cause(err) != ErrBadAccount {
			t.Errorf("CheckAccount(%q) = %v, want ErrBadAccount", name, err)
		}
	}
}
