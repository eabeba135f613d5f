// Command ledger-import turns bank CSV statements into reviewed ledger
// journal entries.
package main

import (
	"os"

	"ledger-import/cmd/ledger-import/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
