// Package store persists imported and reviewed transactions between runs.
// Three backends share one interface: a local bolt file (the default), a
// sqlite database and a MongoDB collection set.
package store

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"ledger-import/internal/ledger"
)

// Collections.
const (
	Imports = "imports"
	Journal = "journal"
)

var ErrNotFound = errors.New("record not found")

// Query selects records. Empty fields match anything. From and To bound the
// date inclusively; dates compare as YYYY-MM-DD strings.
type Query struct {
	SourceFile  string
	Date        string
	Description string
	Payee       string
	From        string
	To          string
	Reviewed    *bool
}

// Match reports whether t satisfies q.
func (q Query) Match(t *ledger.Transaction) bool {
	switch {
	case len(q.SourceFile) > 0 && t.SourceFile != q.SourceFile:
		return false
	case len(q.Date) > 0 && t.Date != q.Date:
		return false
	case len(q.Description) > 0 && t.Description != q.Description:
		return false
	case len(q.Payee) > 0 && t.Payee != q.Payee:
		return false
	case len(q.From) > 0 && t.Date < q.From:
		return false
	case len(q.To) > 0 && t.Date > q.To:
		return false
	case q.Reviewed != nil && t.Reviewed != *q.Reviewed:
		return false
	}
	return true
}

// Bool is a helper for Query.Reviewed.
func Bool(b bool) *bool { return &b }

// Store is implemented by every backend. Each call is atomic for the record
// it touches. Find returns records in insertion order.
type Store interface {
	// Insert saves t, assigning t.ID when it is empty.
	Insert(ctx context.Context, coll string, t *ledger.Transaction) error
	Find(ctx context.Context, coll string, q Query) ([]*ledger.Transaction, error)
	// SetReviewed flips the reviewed flag of the record with id, or returns
	// ErrNotFound.
	SetReviewed(ctx context.Context, coll string, id string, reviewed bool) error
	Close() error
}

func assignID(t *ledger.Transaction) {
	if len(t.ID) == 0 {
		t.ID = uuid.NewString()
	}
}

// Backend names.
const (
	Bolt   = "bolt"
	SQLite = "sqlite"
	Mongo  = "mongo"
)

type Options struct {
	Backend string
	// Path is the database file for bolt and sqlite.
	Path string
	// URI and Database locate the MongoDB deployment.
	URI      string
	Database string
}

// Open connects to the backend named in opt. A bolt store is opened when no
// backend is named.
func Open(ctx context.Context, opt Options) (Store, error) {
	switch strings.ToLower(opt.Backend) {
	case "", Bolt:
		return OpenBolt(opt.Path)
	case SQLite:
		return OpenSQLite(opt.Path)
	case Mongo:
		if len(opt.URI) == 0 {
			return nil, errors.New("mongo store needs a URI")
		}
		return ConnectMongo(ctx, opt.URI, opt.Database)
	}
	return nil, errors.Errorf("unknown store backend %q", opt.Backend)
}

// DefaultPath is where file backed stores live inside dir.
func DefaultPath(dir, backend string) string {
	if strings.ToLower(backend) == SQLite {
		return filepath.Join(dir, "ledger-import.sqlite")
	}
	return filepath.Join(dir, "ledger-import.db")
}
