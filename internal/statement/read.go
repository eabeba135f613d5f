package statement

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// HeaderMode says how the first row of a statement is treated.
type HeaderMode int

const (
	// HeaderDetect guesses from the shape of the rows.
	HeaderDetect HeaderMode = iota
	HeaderPresent
	HeaderAbsent
)

type ReadOptions struct {
	// Comma is the field delimiter; ',' when zero.
	Comma rune
	// BackslashEscapes reads \", \n, \t and \\ inside quoted fields as
	// the characters they name.
	BackslashEscapes bool
	Header           HeaderMode
}

// Statement is a parsed bank export.
type Statement struct {
	// Header is nil when the export has none.
	Header []string
	Rows   [][]string
}

// Read parses a CSV statement. Blank rows are dropped.
func Read(r io.Reader, opt ReadOptions) (*Statement, error) {
	comma := ','
	if opt.Comma != 0 {
		comma = opt.Comma
	}
	if opt.BackslashEscapes {
		var err error
		if r, err = unescape(r, comma); err != nil {
			return nil, err
		}
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = comma

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "unable to read statement")
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	st := &Statement{Rows: rows}
	if len(rows) == 0 {
		return st, nil
	}
	header := false
	switch opt.Header {
	case HeaderPresent:
		header = true
	case HeaderDetect:
		header = HasHeader(rows)
	}
	if header {
		st.Header = rows[0]
		st.Rows = rows[1:]
	}
	return st, nil
}

// ReadFile opens path and reads it as a statement.
func ReadFile(path string, opt ReadOptions) (*Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open statement %s", path)
	}
	defer f.Close()
	return Read(f, opt)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if len(strings.TrimSpace(c)) > 0 {
			return false
		}
	}
	return true
}

// cellKind is -1 for numeric cells, or the cell length otherwise.
func cellKind(s string) int {
	s = strings.TrimSpace(s)
	num := strings.NewReplacer("$", "", ",", "").Replace(s)
	if _, err := strconv.ParseFloat(num, 64); err == nil && len(num) > 0 {
		return -1
	}
	return len(s)
}

const sniffRows = 20

// HasHeader guesses whether the first row names the columns. Each column
// whose cells in the sample below are consistently numeric, or consistently
// of one length, votes on whether the first row differs from them.
func HasHeader(rows [][]string) bool {
	if len(rows) < 2 {
		return false
	}
	header := rows[0]
	kinds := make(map[int]int)
	dropped := make(map[int]bool)
	for i, row := range rows[1:] {
		if i >= sniffRows {
			break
		}
		if len(row) != len(header) {
			continue
		}
		for col, cell := range row {
			if dropped[col] {
				continue
			}
			k := cellKind(cell)
			prev, ok := kinds[col]
			switch {
			case !ok:
				kinds[col] = k
			case prev != k:
				delete(kinds, col)
				dropped[col] = true
			}
		}
	}

	votes := 0
	for col, k := range kinds {
		hk := cellKind(header[col])
		if k == -1 {
			if hk == -1 {
				votes--
			} else {
				votes++
			}
			continue
		}
		if hk != k {
			votes++
		} else {
			votes--
		}
	}
	return votes > 0
}

// Window bounds statement dates, both ends inclusive. A zero time leaves
// that end open.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) contains(tm time.Time) bool {
	if !w.Start.IsZero() && tm.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && tm.After(w.End) {
		return false
	}
	return true
}

type datedRow struct {
	date time.Time
	row  []string
}

// Select keeps the rows whose date falls within w and returns them oldest
// first. Rows on the same date keep their file order.
func (s *Statement) Select(dateCol int, w Window) ([][]string, error) {
	var dated []datedRow
	for i, row := range s.Rows {
		if dateCol >= len(row) {
			return nil, errors.Errorf("row %d has no column %d: %v", i+1, dateCol, row)
		}
		tm, err := ParseDate(row[dateCol])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		if w.contains(tm) {
			dated = append(dated, datedRow{date: tm, row: row})
		}
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].date.Before(dated[j].date) })
	out := make([][]string, 0, len(dated))
	for _, d := range dated {
		out = append(out, d.row)
	}
	return out, nil
}
