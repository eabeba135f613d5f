package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"ledger-import/internal/ledger"
)

// BoltStore keeps each collection in two buckets: records keyed by an
// increasing sequence, and an index from record ID to that sequence.
type BoltStore struct {
	db *bolt.DB
}

func recordsBucket(coll string) []byte { return []byte(coll) }
func idsBucket(coll string) []byte     { return []byte(coll + ".ids") }

func OpenBolt(path string) (*BoltStore, error) {
	if len(path) == 0 {
		return nil, errors.New("bolt store needs a file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create directory for %s", path)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open bolt store %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, coll := range []string{Imports, Journal} {
			if _, err := tx.CreateBucketIfNotExists(recordsBucket(coll)); err != nil {
				return err
			}
			if _, err := tx.CreateBucketIfNotExists(idsBucket(coll)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to create buckets")
	}
	return &BoltStore{db: db}, nil
}

func buckets(tx *bolt.Tx, coll string) (recs, ids *bolt.Bucket, err error) {
	recs = tx.Bucket(recordsBucket(coll))
	ids = tx.Bucket(idsBucket(coll))
	if recs == nil || ids == nil {
		return nil, nil, errors.Errorf("unknown collection %q", coll)
	}
	return recs, ids, nil
}

func encode(t *ledger.Transaction) ([]byte, error) {
	var val bytes.Buffer
	if err := gob.NewEncoder(&val).Encode(t); err != nil {
		return nil, errors.Wrapf(err, "unable to encode txn %s", t.ID)
	}
	return val.Bytes(), nil
}

func decode(v []byte) (*ledger.Transaction, error) {
	var t ledger.Transaction
	if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&t); err != nil {
		return nil, errors.Wrapf(err, "unable to decode txn of length %d", len(v))
	}
	return &t, nil
}

func (s *BoltStore) Insert(_ context.Context, coll string, t *ledger.Transaction) error {
	assignID(t)
	val, err := encode(t)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		recs, ids, err := buckets(tx, coll)
		if err != nil {
			return err
		}
		if ids.Get([]byte(t.ID)) != nil {
			return errors.Errorf("record %s already exists in %s", t.ID, coll)
		}
		seq, err := recs.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		if err := recs.Put(key, val); err != nil {
			return err
		}
		return ids.Put([]byte(t.ID), key)
	})
}

func (s *BoltStore) Find(_ context.Context, coll string, q Query) ([]*ledger.Transaction, error) {
	var out []*ledger.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		recs, _, err := buckets(tx, coll)
		if err != nil {
			return err
		}
		c := recs.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			t, err := decode(v)
			if err != nil {
				return err
			}
			if q.Match(t) {
				out = append(out, t)
			}
		}
		return nil
	})
	return out, errors.Wrapf(err, "find in %s", coll)
}

func (s *BoltStore) SetReviewed(_ context.Context, coll string, id string, reviewed bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		recs, ids, err := buckets(tx, coll)
		if err != nil {
			return err
		}
		key := ids.Get([]byte(id))
		if key == nil {
			return errors.Wrapf(ErrNotFound, "id %s in %s", id, coll)
		}
		t, err := decode(recs.Get(key))
		if err != nil {
			return err
		}
		t.Reviewed = reviewed
		val, err := encode(t)
		if err != nil {
			return err
		}
		return recs.Put(key, val)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
