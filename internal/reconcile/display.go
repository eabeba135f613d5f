package reconcile

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"ledger-import/internal/ledger"
)

const descLength = 40

// printSummary shows one line per transaction: review status, position in
// the pass, date, description and the statement amount.
func printSummary(w io.Writer, t *ledger.Transaction, idx, total int) {
	if t.Reviewed {
		color.New(color.BgGreen, color.FgBlack).Fprint(w, " R ")
	} else {
		color.New(color.BgRed, color.FgWhite).Fprint(w, " N ")
	}

	switch {
	case total > 999:
		color.New(color.BgBlue, color.FgWhite).Fprintf(w, " [%4d of %4d] ", idx, total)
	case total > 99:
		color.New(color.BgBlue, color.FgWhite).Fprintf(w, " [%3d of %3d] ", idx, total)
	default:
		color.New(color.BgBlue, color.FgWhite).Fprintf(w, " [%2d of %2d] ", idx, total)
	}

	color.New(color.BgYellow, color.FgBlack).Fprintf(w, " %10s ", t.Date)
	name := []rune(t.Name())
	desc := string(name)
	if len(name) > descLength {
		desc = string(name[:descLength])
	}
	color.New(color.BgWhite, color.FgBlack).Fprintf(w, " %-40s", desc)
	if p, ok := t.Primary(); ok {
		color.New(color.BgRed, color.FgWhite).Fprintf(w, " %12s ", p.AmountText())
	}
	fmt.Fprintln(w)
	if len(name) > descLength {
		color.New(color.BgWhite, color.FgBlack).Fprintf(w, "%6s %s ", "[DESC]", t.Name())
		fmt.Fprintln(w)
	}
}

func printHints(w io.Writer, hints []string) {
	if len(hints) == 0 {
		return
	}
	color.New(color.BgMagenta, color.FgWhite).Fprint(w, "[HINTS]")
	fmt.Fprintln(w)
	for i, h := range hints {
		color.New(color.FgCyan).Fprintf(w, "  %d. ", i+1)
		color.New(color.FgYellow).Fprintln(w, h)
	}
}
