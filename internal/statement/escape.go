package statement

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrDanglingEscape is a statement that ends inside a quoted field right
// after a backslash.
var ErrDanglingEscape = errors.New("backslash at end of input")

type lexState int

const (
	fieldStart lexState = iota
	bare
	quoted
	// a quote inside a quoted field: closing, or the first of "".
	quoteSeen
	escaped
)

// unescape rewrites the backslash escapes some banks put inside quoted
// fields into plain CSV: \" becomes "", and \n, \t and \\ become the
// character they name. Other escapes, and backslashes outside quotes, are
// kept as written. Bytes are copied through untouched, so exports that are
// not UTF-8 survive.
func unescape(r io.Reader, comma rune) (io.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read statement")
	}
	if utf8.RuneLen(comma) < 0 {
		return nil, errors.Errorf("invalid delimiter %q", comma)
	}
	sep := make([]byte, utf8.RuneLen(comma))
	utf8.EncodeRune(sep, comma)

	var out bytes.Buffer
	out.Grow(len(data))
	state := fieldStart
	line := 1
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\n' {
			line++
		}
		if state == quoteSeen {
			if c == '"' {
				out.WriteByte(c)
				state = quoted
				continue
			}
			state = bare
		}

		switch state {
		case escaped:
			switch c {
			case '"':
				out.WriteString(`""`)
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			case '\\':
				out.WriteByte('\\')
			default:
				out.WriteByte('\\')
				out.WriteByte(c)
			}
			state = quoted

		case quoted:
			switch c {
			case '\\':
				state = escaped
			case '"':
				out.WriteByte(c)
				state = quoteSeen
			default:
				out.WriteByte(c)
			}

		default:
			if bytes.HasPrefix(data[i:], sep) {
				out.Write(sep)
				i += len(sep) - 1
				state = fieldStart
				continue
			}
			out.WriteByte(c)
			switch {
			case c == '\n':
				state = fieldStart
			case c == '"' && state == fieldStart:
				state = quoted
			case c == ' ' || c == '\t':
				// Leading blanks still allow a quoted field.
			default:
				state = bare
			}
		}
	}
	if state == escaped {
		return nil, errors.Wrapf(ErrDanglingEscape, "line %d", line)
	}
	return &out, nil
}
