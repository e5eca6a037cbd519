package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps every collection as a single document
// {_id: <collection>, records: [...], updatedAt} in one Mongo collection.
// Replacing that document is atomic, which gives whole-collection writes.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (m *MongoStore) Name() string { return "mongo" }

type mongoCollection struct {
	Name      string    `bson:"_id"`
	Records   []Record  `bson:"records"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (m *MongoStore) Read(ctx context.Context, name string) ([]Record, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	raw, err := m.col.FindOne(ctx, bson.M{"_id": name}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		// $setOnInsert leaves a collection created concurrently untouched
		seed := bson.M{"$setOnInsert": bson.M{"records": bson.A{}, "updatedAt": time.Now().UTC()}}
		if _, err := m.col.UpdateOne(ctx, bson.M{"_id": name}, seed, options.Update().SetUpsert(true)); err != nil {
			return nil, storageErr("initialize", name, err)
		}
		return []Record{}, nil
	}
	if err != nil {
		return nil, storageErr("read", name, err)
	}
	return decodeMongoCollection(name, raw)
}

// decodeMongoCollection converts a stored collection document to records in
// the same JSON form every other backend returns.
func decodeMongoCollection(name string, raw bson.Raw) ([]Record, error) {
	var doc struct {
		Records []bson.M `bson:"records"`
	}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("collection %q: %w: %w", name, ErrCorrupted, err)
	}
	vals := make([]any, len(doc.Records))
	for i, r := range doc.Records {
		vals[i] = plainValue(r)
	}
	// numbers come back as float64, as they do from a JSON file
	b, err := json.Marshal(vals)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w: %w", name, ErrCorrupted, err)
	}
	return decodeCollection(name, b)
}

// plainValue replaces BSON container and id types with maps, slices and
// strings that marshal to the expected JSON.
func plainValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

func (m *MongoStore) Write(ctx context.Context, name string, recs []Record) error {
	if err := checkName(name); err != nil {
		return err
	}
	if recs == nil {
		recs = []Record{}
	}
	doc := mongoCollection{Name: name, Records: recs, UpdatedAt: time.Now().UTC()}
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return storageErr("write", name, err)
	}
	return nil
}

