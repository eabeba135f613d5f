package config

import (
	"os"
	"path/filepath"
	"testing"

	"ledger-import/internal/statement"
	"ledger-import/internal/store"
)

const sample = `
accounts:
  Liabilities:Visa:
    columns:
      date: 0
      description: 2
      debit: 5
      credit: 6
    currency: "EUR "
    comma: ";"
    header: "no"
  Assets:Checking:
    backslash_escapes: true
suggest:
  threshold: 85
  noise: ["AMZN MKTP "]
tax_factor: "1.0925"
store:
  backend: sqlite
advisor:
  kind: claude
  model: claude-test
entry_template: |
  {{.Date}} * {{.Header}}
  {{range .Postings}}    {{.Account}}  {{.Amount}}
  {{end}}
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("LEDGER_IMPORT_MONGO_URI", "mongodb://localhost:27017")

	c, err := Load(dir, "", "")
	if err != nil {
		t.Fatal(err)
	}
	visa := c.Account("Liabilities:Visa")
	if visa.Columns == nil || *visa.Columns != (statement.Columns{Date: 0, Description: 2, Debit: 5, Credit: 6}) {
		t.Errorf("columns = %+v", visa.Columns)
	}
	opt := visa.ReadOptions()
	if opt.Comma != ';' || opt.Header != statement.HeaderAbsent || visa.Currency != "EUR " {
		t.Errorf("visa = %+v / %+v", visa, opt)
	}
	if !c.Account("Assets:Checking").ReadOptions().BackslashEscapes {
		t.Errorf("backslash escapes not read")
	}
	if c.Account("Unknown").Columns != nil {
		t.Errorf("unknown account has columns")
	}

	if c.Suggest.Threshold != 85 || c.Suggest.PayeeThreshold != DefaultPayeeThreshold || c.Suggest.Limit != 5 {
		t.Errorf("suggest = %+v", c.Suggest)
	}
	if got := c.SuggestOptions().Noise; len(got) != 1 || got[0] != "AMZN MKTP " {
		t.Errorf("noise = %v", got)
	}
	if c.TaxFactor != "1.0925" {
		t.Errorf("tax = %s", c.TaxFactor)
	}
	so := c.StoreOptions()
	if so.Backend != store.SQLite || so.Path != filepath.Join(dir, "ledger-import.sqlite") || so.URI != "mongodb://localhost:27017" {
		t.Errorf("store = %+v", so)
	}
	if c.Advisor.Kind != "claude" || c.Advisor.Model != "claude-test" || c.Advisor.APIKey != "sk-test" {
		t.Errorf("advisor = %+v", c.Advisor)
	}
	if c.Shortcuts != filepath.Join(dir, "shortcuts.yaml") {
		t.Errorf("shortcuts = %s", c.Shortcuts)
	}
	if want := "{{.Date}} * {{.Header}}\n{{range .Postings}}    {{.Account}}  {{.Amount}}\n{{end}}\n"; c.EntryTemplate != want {
		t.Errorf("entry template = %q, want %q", c.EntryTemplate, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.TaxFactor != DefaultTaxFactor || c.Store.Backend != store.Bolt || c.Advisor.Kind != "bayes" {
		t.Errorf("defaults = %+v", c)
	}
	if c.Store.Path != filepath.Join(dir, "ledger-import.db") {
		t.Errorf("store path = %s", c.Store.Path)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	if err := os.WriteFile(env, []byte("ANTHROPIC_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "")
	os.Unsetenv("ANTHROPIC_API_KEY")

	c, err := Load(dir, "", env)
	if err != nil {
		t.Fatal(err)
	}
	if c.Advisor.APIKey != "from-dotenv" {
		t.Errorf("api key = %q", c.Advisor.APIKey)
	}
	if _, err := Load(dir, "", filepath.Join(dir, "missing.env")); err == nil {
		t.Errorf("expected error for missing env file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("accounts: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, path, ""); err == nil {
		t.Errorf("expected error for bad yaml")
	}
}
