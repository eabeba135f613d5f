package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pkg/errors"

	"ledger-import/internal/ledger"
)

const sqliteSchema = `
-- One row per record. doc holds the full transaction as JSON; the other
-- columns are copies used for lookups.
CREATE TABLE IF NOT EXISTS records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    coll TEXT NOT NULL,               -- 'imports' or 'journal'
    id TEXT NOT NULL,
    source_file TEXT NOT NULL,
    date TEXT NOT NULL,               -- YYYY-MM-DD
    description TEXT NOT NULL,
    payee TEXT NOT NULL,
    reviewed INTEGER NOT NULL DEFAULT 0,
    doc TEXT NOT NULL,
    UNIQUE(coll, id)
);

CREATE INDEX IF NOT EXISTS idx_records_lookup
    ON records(coll, source_file, date, description);

CREATE INDEX IF NOT EXISTS idx_records_date
    ON records(coll, date);
`

// SQLiteStore keeps all collections in one table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and makes
// sure the schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if len(path) == 0 {
		return nil, errors.New("sqlite store needs a file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL", path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Insert(ctx context.Context, coll string, t *ledger.Transaction) error {
	assignID(t)
	doc, err := json.Marshal(t)
	if err != nil {
		return errors.Wrapf(err, "unable to encode txn %s", t.ID)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (coll, id, source_file, date, description, payee, reviewed, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		coll, t.ID, t.SourceFile, t.Date, t.Description, t.Payee, t.Reviewed, string(doc))
	return errors.Wrapf(err, "failed to insert into %s", coll)
}

func (s *SQLiteStore) Find(ctx context.Context, coll string, q Query) ([]*ledger.Transaction, error) {
	where := []string{"coll = ?"}
	args := []interface{}{coll}
	add := func(cond string, v interface{}) {
		where = append(where, cond)
		args = append(args, v)
	}
	if len(q.SourceFile) > 0 {
		add("source_file = ?", q.SourceFile)
	}
	if len(q.Date) > 0 {
		add("date = ?", q.Date)
	}
	if len(q.Description) > 0 {
		add("description = ?", q.Description)
	}
	if len(q.Payee) > 0 {
		add("payee = ?", q.Payee)
	}
	if len(q.From) > 0 {
		add("date >= ?", q.From)
	}
	if len(q.To) > 0 {
		add("date <= ?", q.To)
	}
	if q.Reviewed != nil {
		add("reviewed = ?", *q.Reviewed)
	}

	query := "SELECT doc, reviewed FROM records WHERE " + strings.Join(where, " AND ") + " ORDER BY seq"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s", coll)
	}
	defer rows.Close()

	var out []*ledger.Transaction
	for rows.Next() {
		var doc string
		var reviewed bool
		if err := rows.Scan(&doc, &reviewed); err != nil {
			return nil, errors.Wrap(err, "failed to scan record")
		}
		var t ledger.Transaction
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return nil, errors.Wrap(err, "unable to decode record")
		}
		t.Reviewed = reviewed
		out = append(out, &t)
	}
	return out, errors.Wrap(rows.Err(), "failed to read records")
}

func (s *SQLiteStore) SetReviewed(ctx context.Context, coll string, id string, reviewed bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE records SET reviewed = ? WHERE coll = ? AND id = ?", reviewed, coll, id)
	if err != nil {
		return errors.Wrapf(err, "failed to update %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "id %s in %s", id, coll)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
