package ledger

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Eval computes the value of a ledger amount expression such as "$-12.34" or
// "($12.50*1.0775 + $7.50)". Commodity symbols and thousands separators are
// ignored; only + - * / and parentheses are understood.
func Eval(expr string) (decimal.Decimal, error) {
	toks, err := lex(expr)
	if err != nil {
		return decimal.Zero, err
	}
	if len(toks) == 0 {
		return decimal.Zero, errors.Errorf("empty amount %q", expr)
	}
	e := evaluator{toks: toks}
	v, err := e.sum()
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "amount %q", expr)
	}
	if e.pos != len(e.toks) {
		return decimal.Zero, errors.Errorf("amount %q: unexpected %q", expr, e.toks[e.pos].text)
	}
	return v, nil
}

type token struct {
	op   byte // 0 for numbers
	num  decimal.Decimal
	text string
}

func lex(expr string) ([]token, error) {
	var toks []token
	rs := []rune(expr)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r), r == ',':
			i++
		case strings.ContainsRune("+-*/()", r):
			toks = append(toks, token{op: byte(r), text: string(r)})
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.' || rs[j] == ',') {
				j++
			}
			text := strings.ReplaceAll(string(rs[i:j]), ",", "")
			d, err := decimal.NewFromString(text)
			if err != nil {
				return nil, errors.Wrapf(err, "bad number %q", text)
			}
			toks = append(toks, token{num: d, text: text})
			i = j
		default:
			// Commodity marker.
			i++
		}
	}
	return toks, nil
}

type evaluator struct {
	toks []token
	pos  int
}

func (e *evaluator) peek() byte {
	if e.pos >= len(e.toks) {
		return 0
	}
	if e.toks[e.pos].op == 0 {
		return 'n'
	}
	return e.toks[e.pos].op
}

func (e *evaluator) sum() (decimal.Decimal, error) {
	v, err := e.product()
	if err != nil {
		return v, err
	}
	for {
		switch e.peek() {
		case '+':
			e.pos++
			r, err := e.product()
			if err != nil {
				return v, err
			}
			v = v.Add(r)
		case '-':
			e.pos++
			r, err := e.product()
			if err != nil {
				return v, err
			}
			v = v.Sub(r)
		default:
			return v, nil
		}
	}
}

func (e *evaluator) product() (decimal.Decimal, error) {
	v, err := e.unary()
	if err != nil {
		return v, err
	}
	for {
		switch e.peek() {
		case '*':
			e.pos++
			r, err := e.unary()
			if err != nil {
				return v, err
			}
			v = v.Mul(r)
		case '/':
			e.pos++
			r, err := e.unary()
			if err != nil {
				return v, err
			}
			if r.IsZero() {
				return v, errors.New("division by zero")
			}
			v = v.Div(r)
		default:
			return v, nil
		}
	}
}

func (e *evaluator) unary() (decimal.Decimal, error) {
	switch e.peek() {
	case '-':
		e.pos++
		v, err := e.unary()
		return v.Neg(), err
	case '+':
		e.pos++
		return e.unary()
	case '(':
		e.pos++
		v, err := e.sum()
		if err != nil {
			return v, err
		}
		if e.peek() != ')' {
			return v, errors.New("missing )")
		}
		e.pos++
		return v, nil
	case 'n':
		v := e.toks[e.pos].num
		e.pos++
		return v, nil
	case 0:
		return decimal.Zero, errors.New("unexpected end")
	default:
		return decimal.Zero, errors.Errorf("unexpected %q", e.toks[e.pos].text)
	}
}
