// Package config loads ~/.ledger-import/config.yaml and secrets from the
// environment or a .env file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"ledger-import/internal/statement"
	"ledger-import/internal/store"
	"ledger-import/internal/suggest"
)

const (
	DefaultTaxFactor      = "1.0775"
	DefaultPayeeThreshold = 60
	fileName              = "config.yaml"
)

// Account holds per statement account settings, keyed by ledger account
// name in the config file.
type Account struct {
	// Columns, when set, skips asking the operator which column is which.
	Columns  *statement.Columns `yaml:"columns"`
	Currency string             `yaml:"currency"`
	// Comma is the CSV delimiter; "," when empty.
	Comma            string `yaml:"comma"`
	BackslashEscapes bool   `yaml:"backslash_escapes"`
	// Header is "auto", "yes" or "no".
	Header string `yaml:"header"`
}

// ReadOptions turns the account settings into statement reader options.
func (a Account) ReadOptions() statement.ReadOptions {
	opt := statement.ReadOptions{BackslashEscapes: a.BackslashEscapes}
	if r := []rune(a.Comma); len(r) > 0 {
		opt.Comma = r[0]
	}
	switch strings.ToLower(a.Header) {
	case "yes", "true":
		opt.Header = statement.HeaderPresent
	case "no", "false":
		opt.Header = statement.HeaderAbsent
	}
	return opt
}

type Suggest struct {
	Threshold      int      `yaml:"threshold"`
	PayeeThreshold int      `yaml:"payee_threshold"`
	Limit          int      `yaml:"limit"`
	Noise          []string `yaml:"noise"`
}

type Store struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	Database string `yaml:"database"`
	// URI comes from LEDGER_IMPORT_MONGO_URI only.
	URI string `yaml:"-"`
}

type Advisor struct {
	// Kind is "none", "bayes" or "claude".
	Kind  string `yaml:"kind"`
	Model string `yaml:"model"`
	// APIKey comes from ANTHROPIC_API_KEY only.
	APIKey string `yaml:"-"`
}

type Config struct {
	// Dir holds the config file, the default store and the shortcut file.
	Dir       string             `yaml:"-"`
	Accounts  map[string]Account `yaml:"accounts"`
	Suggest   Suggest            `yaml:"suggest"`
	TaxFactor string             `yaml:"tax_factor"`
	Store     Store              `yaml:"store"`
	Advisor   Advisor            `yaml:"advisor"`
	Shortcuts string             `yaml:"shortcuts"`
	History   string             `yaml:"history"`

	// EntryTemplate is the text/template for output journal entries; the
	// journal package's default when empty.
	EntryTemplate string `yaml:"entry_template"`
}

// DefaultDir is $HOME/.ledger-import.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".ledger-import")
}

// Default returns the settings used when no config file exists.
func Default(dir string) *Config {
	return &Config{
		Dir:      dir,
		Accounts: make(map[string]Account),
		Suggest: Suggest{
			Threshold:      suggest.DefaultThreshold,
			PayeeThreshold: DefaultPayeeThreshold,
			Limit:          suggest.DefaultLimit,
		},
		TaxFactor: DefaultTaxFactor,
		Store:     Store{Backend: store.Bolt},
		Advisor:   Advisor{Kind: "bayes"},
		Shortcuts: "shortcuts.yaml",
		History:   "history",
	}
}

// Load reads path over the defaults; a missing file is fine. dir is used
// for relative file names when path is empty, and defaults to DefaultDir.
// A .env file in the working directory, or envFile when given, is loaded
// into the environment before secrets are read.
func Load(dir, path, envFile string) (*Config, error) {
	if len(envFile) > 0 {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(err, "failed to load env file %s", envFile)
		}
	} else {
		_ = godotenv.Load()
	}

	if len(dir) == 0 {
		dir = DefaultDir()
	}
	if len(path) == 0 {
		path = filepath.Join(dir, fileName)
	}
	c := Default(dir)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrapf(err, "unable to read config %s", path)
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, errors.Wrapf(err, "unable to unmarshal yaml config at %s", path)
		}
	}
	c.fill()
	c.Store.URI = os.Getenv("LEDGER_IMPORT_MONGO_URI")
	c.Advisor.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	return c, nil
}

// fill restores defaults the file zeroed out and resolves relative paths
// against Dir.
func (c *Config) fill() {
	def := Default(c.Dir)
	if c.Accounts == nil {
		c.Accounts = make(map[string]Account)
	}
	if c.Suggest.Threshold <= 0 {
		c.Suggest.Threshold = def.Suggest.Threshold
	}
	if c.Suggest.PayeeThreshold <= 0 {
		c.Suggest.PayeeThreshold = def.Suggest.PayeeThreshold
	}
	if c.Suggest.Limit <= 0 {
		c.Suggest.Limit = def.Suggest.Limit
	}
	if len(c.TaxFactor) == 0 {
		c.TaxFactor = def.TaxFactor
	}
	if len(c.Store.Backend) == 0 {
		c.Store.Backend = def.Store.Backend
	}
	if len(c.Store.Path) == 0 {
		c.Store.Path = store.DefaultPath(c.Dir, c.Store.Backend)
	}
	if len(c.Advisor.Kind) == 0 {
		c.Advisor.Kind = def.Advisor.Kind
	}
	if len(c.Shortcuts) == 0 {
		c.Shortcuts = def.Shortcuts
	}
	if len(c.History) == 0 {
		c.History = def.History
	}
	c.Store.Path = c.resolve(c.Store.Path)
	c.Shortcuts = c.resolve(c.Shortcuts)
	c.History = c.resolve(c.History)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Account returns the settings for account, or zero settings.
func (c *Config) Account(account string) Account {
	return c.Accounts[account]
}

// StoreOptions converts the store section for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:  c.Store.Backend,
		Path:     c.Store.Path,
		URI:      c.Store.URI,
		Database: c.Store.Database,
	}
}

// SuggestOptions converts the suggest section for suggest.New.
func (c *Config) SuggestOptions() suggest.Options {
	return suggest.Options{
		Threshold: c.Suggest.Threshold,
		Limit:     c.Suggest.Limit,
		Noise:     c.Suggest.Noise,
	}
}
