// Package journal reads ledger journals into account usage history and
// writes reviewed transactions back out in the same text format.
package journal

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"ledger-import/internal/ledger"
	"ledger-import/internal/payee"
)

var (
	rcomment = regexp.MustCompile(`(?:  +| *\t+);`)
	rsplit   = regexp.MustCompile(`(?: *\t+|  )+`)
	rheader  = regexp.MustCompile(`^(\d+\S*)\s+(?:[*!]\s+)?(?:\(\S+\)\s+)?(.*)`)
	racc     = regexp.MustCompile(`^account\s+(.*)`)
)

// ParseError is a malformed journal line. Parsing stops at the first one.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// History is what a journal teaches us.
type History struct {
	// Accounts holds every account name seen in a posting or declaration.
	Accounts map[string]bool
	// Payees counts, per payee, the accounts used other than the self account.
	Payees *payee.Model
	// Transactions holds the parsed entries, postings in journal order.
	Transactions []*ledger.Transaction
}

// AccountNames returns Accounts sorted.
func (h *History) AccountNames() []string {
	out := make([]string, 0, len(h.Accounts))
	for acc := range h.Accounts {
		out = append(out, acc)
	}
	sort.Strings(out)
	return out
}

type scanState int

const (
	outside scanState = iota
	inTxn
	inDirective
)

// stripComment drops an inline comment and returns it separately.
func stripComment(line string) (string, string) {
	loc := rcomment.FindStringIndex(line)
	if loc == nil {
		return line, ""
	}
	return line[:loc[0]], strings.TrimSpace(line[loc[1]:])
}

// Parse scans journal text. self is the account the statements being
// imported belong to; it is recorded in Accounts but never counted for a
// payee, since it never needs suggesting.
//
// Besides transactions, top level `;`/`#` comment lines and `account`
// declarations (with their indented sub-lines) are accepted.
func Parse(r io.Reader, self string) (*History, error) {
	h := &History{
		Accounts: make(map[string]bool),
		Payees:   payee.NewModel(),
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)

	state := outside
	var cur *ledger.Transaction
	var lineNo int
	for s.Scan() {
		lineNo++
		line := strings.TrimRight(s.Text(), " \t\r\n")

		switch {
		case len(line) == 0:
			state = outside
			cur = nil

		case line[0] == ' ' || line[0] == '\t':
			if state == inDirective {
				continue
			}
			if state != inTxn {
				return nil, &ParseError{Line: lineNo, Text: line, Msg: "line outside transaction"}
			}
			body, comment := stripComment(strings.TrimLeft(line, " \t"))
			if strings.HasPrefix(body, ";") {
				// A note under the header or a posting.
				continue
			}
			fields := rsplit.Split(body, -1)
			if len(fields) > 2 {
				return nil, &ParseError{Line: lineNo, Text: body, Msg: "invalid posting format"}
			}
			p := ledger.Posting{Account: strings.TrimSpace(fields[0]), Comment: comment}
			if len(fields) == 2 {
				if amt := strings.TrimSpace(fields[1]); len(amt) > 0 {
					p.Amount = ledger.Amount(amt)
				}
			}
			cur.Accounts = append(cur.Accounts, p)
			h.Accounts[p.Account] = true
			if p.Account != self {
				h.Payees.Increment(cur.Description, p.Account)
			}

		case line[0] == ';' || line[0] == '#':
			continue

		default:
			if m := racc.FindStringSubmatch(line); m != nil {
				if acc, _ := stripComment(strings.TrimSpace(m[1])); len(acc) > 0 {
					h.Accounts[strings.TrimSpace(acc)] = true
				}
				state = inDirective
				cur = nil
				continue
			}
			header, _ := stripComment(line)
			m := rheader.FindStringSubmatch(header)
			if m == nil {
				return nil, &ParseError{Line: lineNo, Text: header, Msg: "invalid transaction header"}
			}
			cur = &ledger.Transaction{Date: m[1], Description: m[2], Reviewed: true}
			h.Transactions = append(h.Transactions, cur)
			h.Payees.Touch(cur.Description)
			state = inTxn
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read journal")
	}
	return h, nil
}
