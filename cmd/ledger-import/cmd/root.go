// Package cmd provides the ledger-import commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ledger-import/internal/config"
	"ledger-import/internal/logger"
	"ledger-import/internal/store"
)

var (
	confDir  string
	cfgFile  string
	envFile  string
	debug    bool
	backend  string
	dbPath   string
	currency string

	cfg *config.Config
	ctx = context.Background()
)

var rootCmd = &cobra.Command{
	Use:   "ledger-import",
	Short: "Import bank CSV statements into a ledger journal",
	Long: `ledger-import reads a bank's CSV export, suggests the offsetting
account for each transaction from the payees in your existing journal, and
appends the entries you review to an output journal.

Imported drafts and reviewed entries are kept in a local store, so a
statement imported twice is caught and a review can be picked up later.

Example:
  ledger-import reconcile main.ledger jan.csv new.ledger --account Liabilities:Visa
  ledger-import import jan.csv --account Liabilities:Visa --ask-payee
  ledger-import review main.ledger new.ledger --account Liabilities:Visa`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New(debug)
		ctx = logger.WithContext(context.Background(), log)

		c, err := config.Load(confDir, cfgFile, envFile)
		if err != nil {
			return err
		}
		applyFlags(c)
		if err := os.MkdirAll(c.Dir, 0o755); err != nil {
			return errors.Wrapf(err, "unable to create directory: %v", c.Dir)
		}
		cfg = c
		log.Debug().Str("dir", cfg.Dir).Str("store", cfg.Store.Backend).Str("db", cfg.Store.Path).Msg("config loaded")
		return nil
	},
}

// applyFlags lets command line flags win over the config file.
func applyFlags(c *config.Config) {
	if len(backend) > 0 {
		c.Store.Backend = backend
		if len(dbPath) == 0 {
			c.Store.Path = store.DefaultPath(c.Dir, backend)
		}
	}
	if len(dbPath) > 0 {
		c.Store.Path = dbPath
	}
}

var errc = color.New(color.BgRed, color.FgWhite).FprintfFunc()

// Execute runs the command line. Errors are printed here; the caller only
// sets the exit status.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		errc(os.Stderr, "\tERROR: %v ", err)
		fmt.Fprintln(os.Stderr)
		if debug {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&confDir, "conf", config.DefaultDir(), "Config directory for the config file, store and shortcuts.")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is <conf>/config.yaml).")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "File with environment secrets (default is .env if present).")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging.")
	rootCmd.PersistentFlags().StringVar(&backend, "store", "", "Store backend: bolt, sqlite or mongo.")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file for the bolt and sqlite stores.")

	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reviewCmd)
}
