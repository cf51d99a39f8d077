package platform

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store is a connected document store session (spec §4.B).
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore dials the document store and verifies connectivity.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("platform: connecting to document store: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("platform: pinging document store: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

// Collection returns a typed handle over one named collection, document type T.
func Collection[T any](s *Store, name string) *Coll[T] {
	return &Coll[T]{coll: s.db.Collection(name)}
}

// Coll abstracts a typed collection: find-one, find-one-and-update (with
// upsert + return-after), replace, update-many, delete-many, and cursored
// find (spec §4.B).
type Coll[T any] struct {
	coll *mongo.Collection
}

// ErrNotFound mirrors mongo.ErrNoDocuments so callers need not import the
// driver directly to check for it.
var ErrNotFound = mongo.ErrNoDocuments

// FindOne fetches a single document matching filter.
func (c *Coll[T]) FindOne(ctx context.Context, filter bson.M) (T, error) {
	var out T
	err := c.coll.FindOne(ctx, filter).Decode(&out)
	if err != nil {
		return out, err
	}
	return out, nil
}

// FindOneAndUpdateUpsert applies update to the document matching filter,
// creating it if absent, and returns the document as it looks *after* the
// update (spec §4.B: "find-one-and-update with upsert + return-after"). This
// is the primitive behind diagnostic liveness upserts, authority-record
// upserts, and schedule toggles.
func (c *Coll[T]) FindOneAndUpdateUpsert(ctx context.Context, filter, update bson.M) (T, error) {
	var out T
	after := options.After
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(after)
	err := c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err != nil {
		return out, fmt.Errorf("platform: find-one-and-update upsert: %w", err)
	}
	return out, nil
}

// Replace overwrites the document matching filter with doc, optionally
// creating it (upsert) if absent.
func (c *Coll[T]) Replace(ctx context.Context, filter bson.M, doc T, upsert bool) error {
	opts := options.Replace().SetUpsert(upsert)
	_, err := c.coll.ReplaceOne(ctx, filter, doc, opts)
	if err != nil {
		return fmt.Errorf("platform: replace: %w", err)
	}
	return nil
}

// UpdateMany applies update to every document matching filter.
func (c *Coll[T]) UpdateMany(ctx context.Context, filter, update bson.M) (int64, error) {
	res, err := c.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("platform: update-many: %w", err)
	}
	return res.ModifiedCount, nil
}

// DeleteMany removes every document matching filter.
func (c *Coll[T]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("platform: delete-many: %w", err)
	}
	return res.DeletedCount, nil
}

// Find returns every document matching filter, decoded into a slice. opts
// may set sort/limit (used by the token-refresh sweep's "up to 10 users").
func (c *Coll[T]) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("platform: find: %w", err)
	}
	defer cur.Close(ctx)

	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("platform: decoding find cursor: %w", err)
	}
	return out, nil
}
