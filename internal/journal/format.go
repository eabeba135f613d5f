package journal

import (
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"ledger-import/internal/ledger"
)

// DefaultTemplate writes the header, one tab-indented line per posting in
// order, and a trailing blank line.
const DefaultTemplate = "{{.Date}} {{.Header}}\n" +
	"{{range .Postings}}\t{{.Account}}{{with .Amount}}\t\t{{.}}{{end}}{{with .Comment}}\t; {{.}}{{end}}\n{{end}}" +
	"\n"

// entry is what a template sees.
type entry struct {
	Date        string
	Header      string
	Payee       string
	Description string
	Source      string
	Postings    []entryPosting
}

type entryPosting struct {
	Account string
	Amount  string
	Comment string
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func toEntry(t *ledger.Transaction) entry {
	e := entry{
		Date:        t.Date,
		Header:      ledger.HeaderName(t.Name()),
		Payee:       oneLine(t.Payee),
		Description: oneLine(t.Description),
		Source:      t.SourceFile,
		Postings:    make([]entryPosting, 0, len(t.Accounts)),
	}
	for _, p := range t.Accounts {
		e.Postings = append(e.Postings, entryPosting{
			Account: p.Account,
			Amount:  p.AmountText(),
			Comment: oneLine(p.Comment),
		})
	}
	return e
}

// Formatter renders transactions through a text/template.
type Formatter struct {
	tmpl *template.Template
}

// NewFormatter parses text, or DefaultTemplate when text is empty. Besides
// the entry fields a template may call uuid.
func NewFormatter(text string) (*Formatter, error) {
	if len(strings.TrimSpace(text)) == 0 {
		text = DefaultTemplate
	}
	tmpl, err := template.New("entry").Funcs(template.FuncMap{
		"uuid": uuid.NewString,
	}).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse entry template")
	}
	return &Formatter{tmpl: tmpl}, nil
}

var defaultFormatter = func() *Formatter {
	f, err := NewFormatter(DefaultTemplate)
	if err != nil {
		panic(err)
	}
	return f
}()

// Format renders t.
func (f *Formatter) Format(t *ledger.Transaction) (string, error) {
	var b strings.Builder
	if err := f.tmpl.Execute(&b, toEntry(t)); err != nil {
		return "", errors.Wrapf(err, "unable to format transaction %s %s", t.Date, t.Name())
	}
	return b.String(), nil
}

// WriteBatch writes txns to w ordered by date. Entries with the same date
// keep their relative order, and postings are never reordered.
func (f *Formatter) WriteBatch(w io.Writer, txns []*ledger.Transaction) error {
	sorted := make([]*ledger.Transaction, len(txns))
	copy(sorted, txns)
	sort.Stable(ledger.ByDate(sorted))
	for _, t := range sorted {
		s, err := f.Format(t)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, s); err != nil {
			return errors.Wrapf(err, "unable to write transaction %s %s", t.Date, t.Name())
		}
	}
	return nil
}

// AppendFile appends txns to the journal at path, creating it if needed.
// The existing contents are never rewritten.
func (f *Formatter) AppendFile(path string, txns []*ledger.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	of, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to open output file: %v", path)
	}
	if err := f.WriteBatch(of, txns); err != nil {
		of.Close()
		return err
	}
	return errors.Wrapf(of.Close(), "unable to close output file: %v", path)
}

// Format renders t with DefaultTemplate.
func Format(t *ledger.Transaction) string {
	s, _ := defaultFormatter.Format(t)
	return s
}

// WriteBatch writes txns to w with DefaultTemplate.
func WriteBatch(w io.Writer, txns []*ledger.Transaction) error {
	return defaultFormatter.WriteBatch(w, txns)
}

// AppendFile appends txns to path with DefaultTemplate.
func AppendFile(path string, txns []*ledger.Transaction) error {
	return defaultFormatter.AppendFile(path, txns)
}
