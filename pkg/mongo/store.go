package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store writes keyed documents into a collection.
type Store struct {
	log  *slog.Logger
	coll *mongo.Collection
}

func NewStore(log *slog.Logger, coll *mongo.Collection) *Store {
	return &Store{log: log, coll: coll}
}

// UpsertMany replaces each document whose keyField equals the matching key,
// inserting it when absent, in one unordered bulk write. It returns how many
// documents were stored, whether inserted or replaced.
func (s *Store) UpsertMany(ctx context.Context, keyField string, keys []any, docs []any) (int, error) {
	if len(keys) != len(docs) {
		return 0, fmt.Errorf("got %d keys for %d documents", len(keys), len(docs))
	}
	if len(docs) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, len(docs))
	for i, doc := range docs {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: keyField, Value: keys[i]}}).
			SetReplacement(doc).
			SetUpsert(true)
	}

	res, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	n := 0
	if res != nil {
		n = int(res.UpsertedCount + res.MatchedCount)
	}
	if err != nil {
		return n, fmt.Errorf("failed to upsert %d documents into %s: %w", len(docs), s.coll.Name(), err)
	}
	StoredDocumentsTotal.Add(float64(n))
	s.log.Debug("mongo: upserted documents", "collection", s.coll.Name(), "inserted", res.UpsertedCount, "replaced", res.MatchedCount)
	return n, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents in %s: %w", s.coll.Name(), err)
	}
	return n, nil
}
