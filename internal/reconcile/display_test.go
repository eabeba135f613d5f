package reconcile

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"ledger-import/internal/ledger"
)

func TestPrintSummaryMultibyte(t *testing.T) {
	long := strings.Repeat("é", descLength) + " CAFÉ"
	txn := draft(long, "$-4.50")

	var buf bytes.Buffer
	printSummary(&buf, txn, 1, 3)
	out := buf.String()
	if !utf8.ValidString(out) {
		t.Fatalf("summary splits a rune: %q", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], strings.Repeat("é", descLength)) || strings.Contains(lines[0], "CAFÉ") {
		t.Errorf("summary line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[DESC]") || !strings.Contains(lines[1], long) {
		t.Errorf("description line = %q", lines[1])
	}

	// Exactly descLength runes fits on one line however many bytes it takes.
	buf.Reset()
	printSummary(&buf, draft(strings.Repeat("ü", descLength), "$-1.00"), 1, 1)
	if strings.Contains(buf.String(), "[DESC]") {
		t.Errorf("full description repeated for a name that fits:\n%s", buf.String())
	}

	buf.Reset()
	printSummary(&buf, &ledger.Transaction{Date: "2024-01-03"}, 1, 1)
	if !strings.Contains(buf.String(), ledger.UnknownPayee) {
		t.Errorf("blank transaction summary:\n%s", buf.String())
	}
}
