package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ledger-import/internal/ledger"
)

const defaultDatabase = "ledger_import"

// Collection is the part of *mongo.Collection the store uses.
type Collection interface {
	InsertOne(ctx context.Context, document interface{},
		opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{},
		opts ...*options.FindOptions) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{},
		opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// CollectionProvider hands out collections by name.
type CollectionProvider interface {
	Collection(name string) Collection
}

type databaseProvider struct {
	db *mongo.Database
}

func (p *databaseProvider) Collection(name string) Collection {
	return p.db.Collection(name)
}

// mongoRecord adds an insertion stamp so Find can return insertion order.
type mongoRecord struct {
	ledger.Transaction `bson:",inline"`
	Seq                int64 `bson:"seq"`
}

type MongoStore struct {
	provider CollectionProvider
	client   *mongo.Client
}

// NewMongoStore builds a store over provider. Close is a no-op unless the
// store opened the connection itself.
func NewMongoStore(provider CollectionProvider) *MongoStore {
	return &MongoStore{provider: provider}
}

// ConnectMongo dials uri and checks the deployment answers.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(err, "failed to ping MongoDB")
	}
	if len(database) == 0 {
		database = defaultDatabase
	}
	s := NewMongoStore(&databaseProvider{db: client.Database(database)})
	s.client = client
	return s, nil
}

func (s *MongoStore) Insert(ctx context.Context, coll string, t *ledger.Transaction) error {
	assignID(t)
	rec := mongoRecord{Transaction: *t, Seq: time.Now().UnixNano()}
	if _, err := s.provider.Collection(coll).InsertOne(ctx, rec); err != nil {
		return errors.Wrapf(err, "failed to insert into %s", coll)
	}
	return nil
}

func filterFor(q Query) bson.M {
	f := bson.M{}
	if len(q.SourceFile) > 0 {
		f["source_file"] = q.SourceFile
	}
	if len(q.Description) > 0 {
		f["description"] = q.Description
	}
	if len(q.Payee) > 0 {
		f["payee"] = q.Payee
	}
	if q.Reviewed != nil {
		f["reviewed"] = *q.Reviewed
	}
	switch {
	case len(q.Date) > 0:
		f["date"] = q.Date
	case len(q.From) > 0 || len(q.To) > 0:
		rng := bson.M{}
		if len(q.From) > 0 {
			rng["$gte"] = q.From
		}
		if len(q.To) > 0 {
			rng["$lte"] = q.To
		}
		f["date"] = rng
	}
	return f
}

func (s *MongoStore) Find(ctx context.Context, coll string, q Query) ([]*ledger.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cur, err := s.provider.Collection(coll).Find(ctx, filterFor(q), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s", coll)
	}
	var recs []mongoRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", coll)
	}
	out := make([]*ledger.Transaction, 0, len(recs))
	for i := range recs {
		t := recs[i].Transaction
		// Date ranges combined with an exact date are checked here.
		if q.Match(&t) {
			out = append(out, &t)
		}
	}
	return out, nil
}

func (s *MongoStore) SetReviewed(ctx context.Context, coll string, id string, reviewed bool) error {
	res, err := s.provider.Collection(coll).UpdateOne(ctx,
		bson.M{"_id": id}, bson.M{"$set": bson.M{"reviewed": reviewed}})
	if err != nil {
		return errors.Wrapf(err, "failed to update %s", id)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNotFound, "id %s in %s", id, coll)
	}
	return nil
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
