// Package mongostore implements the content, progress and audit stores on
// MongoDB.
//
// # Interface Implementation
//
//	var _ library.ContentStore = (*Store)(nil)
//	var _ library.ProgressStore = (*Store)(nil)
//	var _ audit.Store = (*Store)(nil)
//
// # Usage
//
//	store, err := mongostore.Connect(ctx, "mongodb://localhost:27017", "booklearn")
//	defer store.Close(ctx)
//
// Natural keys (bookId, partId, ...) carry unique indexes, so inserts are
// atomic insert-if-absent and duplicate key errors map to
// library.ErrConflict. Multi-document writes are not wrapped in
// transactions (standalone servers do not support them); child inserts
// re-check the parent after writing and roll themselves back.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mrlokans/booklearn/internal/library"
)

const (
	booksCollection     = "books"
	partsCollection     = "parts"
	chaptersCollection  = "chapters"
	questionsCollection = "questions"
	progressCollection  = "userprogresses"
	auditCollection     = "audit_events"
)

type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	books     *mongo.Collection
	parts     *mongo.Collection
	chapters  *mongo.Collection
	questions *mongo.Collection
	progress  *mongo.Collection
	audit     *mongo.Collection
}

// Connect opens a client, verifies it with a ping and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := New(client, database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Printf("Connected to MongoDB database %s", database)
	return s, nil
}

// New wraps an existing client.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:    client,
		db:        db,
		books:     db.Collection(booksCollection),
		parts:     db.Collection(partsCollection),
		chapters:  db.Collection(chaptersCollection),
		questions: db.Collection(questionsCollection),
		progress:  db.Collection(progressCollection),
		audit:     db.Collection(auditCollection),
	}
}

// EnsureIndexes creates the unique natural-key indexes and the parent
// lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(key string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}, Options: options.Index().SetUnique(true)}
	}
	lookup := func(keys ...string) mongo.IndexModel {
		d := bson.D{}
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		return mongo.IndexModel{Keys: d}
	}

	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.books:     {unique("bookId")},
		s.parts:     {unique("partId"), lookup("bookId")},
		s.chapters:  {unique("chapterId"), lookup("partId", "order"), lookup("bookId")},
		s.questions: {unique("questionId"), lookup("chapterId")},
		s.progress:  {unique("userId")},
		s.audit:     {{Keys: bson.D{{Key: "createdAt", Value: -1}}}, lookup("entityType")},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll.Name(), err)
		}
	}
	return nil
}

// Ping checks that the server answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, key, id, resource string) (*T, error) {
	var out T
	err := coll.FindOne(ctx, bson.M{key: id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, library.NotFound(resource, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", resource, id, err)
	}
	return &out, nil
}

// findAll returns matching documents in insertion order.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func exists(ctx context.Context, coll *mongo.Collection, key, id string) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.M{key: id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// insertIfAbsent relies on the unique index for key.
func insertIfAbsent(ctx context.Context, coll *mongo.Collection, doc any, resource, id string) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return library.Conflict(resource, id)
	}
	return err
}
