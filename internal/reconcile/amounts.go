package reconcile

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var ramount = regexp.MustCompile(`^-?\d+(\.\d\d)?\*?$`)

// ErrBadAmount is a malformed amount list; the operator is asked again.
var ErrBadAmount = errors.New("invalid amount format")

// Part is one typed amount. Taxed parts are multiplied by the tax factor
// when rendered.
type Part struct {
	Value string
	Taxed bool
}

// Amounts is what the operator typed for one account, possibly over
// several entries.
type Amounts []Part

// ParseAmounts reads "12.50 7.50* ; note" into parts and a comment. A
// trailing "*" marks an untaxed value. Everything after the first ";" is
// the comment. An empty amount list is valid and means auto-balance.
func ParseAmounts(input string) (Amounts, string, error) {
	pieces := strings.Split(input, ";")
	for i := range pieces {
		pieces[i] = strings.TrimSpace(pieces[i])
	}
	var comment string
	if len(pieces) > 1 {
		comment = strings.Join(pieces[1:], ";")
	}
	var out Amounts
	for _, tok := range strings.Fields(pieces[0]) {
		if !ramount.MatchString(tok) {
			return nil, "", errors.Wrapf(ErrBadAmount, "%q", tok)
		}
		if strings.HasSuffix(tok, "*") {
			out = append(out, Part{Value: strings.TrimSuffix(tok, "*")})
		} else {
			out = append(out, Part{Value: tok, Taxed: true})
		}
	}
	return out, comment, nil
}

// Render writes the parts as a ledger expression, e.g.
// "($12.50*1.0775 + $7.50)". Parts keep the order they were typed in.
func (a Amounts) Render(currency, tax string) string {
	if len(a) == 0 {
		return ""
	}
	terms := make([]string, 0, len(a))
	for _, p := range a {
		if p.Taxed {
			terms = append(terms, currency+p.Value+"*"+tax)
		} else {
			terms = append(terms, currency+p.Value)
		}
	}
	return "(" + strings.Join(terms, " + ") + ")"
}
