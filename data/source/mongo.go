package source

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSource reads collections of one MongoDB database.
type MongoSource struct {
	db          *mongo.Database
	collections []string
}

// NewMongoSource wraps db. A non-empty collections list restricts the export.
func NewMongoSource(db *mongo.Database, collections []string) *MongoSource {
	return &MongoSource{db: db, collections: collections}
}

// Tables returns the configured collections or all collection names sorted.
func (s *MongoSource) Tables(ctx context.Context) ([]string, error) {
	if len(s.collections) > 0 {
		return append([]string(nil), s.collections...), nil
	}
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// FindMany returns every document of the collection.
func (s *MongoSource) FindMany(ctx context.Context, table string) ([]Row, error) {
	if len(s.collections) > 0 && !contains(s.collections, table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	cur, err := s.db.Collection(table).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", table, err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("find %s: %w", table, err)
	}
	out := make([]Row, len(docs))
	for i, d := range docs {
		out[i] = Row(d)
	}
	return out, nil
}
