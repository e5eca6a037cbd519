// Package records persists named collections of JSON-shaped records.
//
// A Store reads and writes whole collections. Collections layers a
// per-collection lock over any Store so that read-modify-write cycles issued
// through Update are serialized within the process.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrCorrupted reports a persisted collection that could not be parsed.
	ErrCorrupted = errors.New("collection data corrupted")
	// ErrStorage reports an I/O failure in the backing store.
	ErrStorage = errors.New("record storage failure")
	// ErrInvalidName reports a collection name that cannot be persisted.
	ErrInvalidName = errors.New("invalid collection name")
)

// IDField is the identifier field carried by every record created through a manager.
const IDField = "_id"

// Record is a single entry in a collection.
type Record map[string]any

// ID returns the record identifier, or "" when absent.
func (r Record) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// Store is the persistence contract implemented by every backend.
//
// Read returns the collection in stored order. A missing collection is
// initialized as empty. Write replaces the whole collection; a concurrent
// Read observes either the previous or the new contents, never a mix.
type Store interface {
	Read(ctx context.Context, collection string) ([]Record, error)
	Write(ctx context.Context, collection string, recs []Record) error
}

// NewID returns a random identifier for a new record.
func NewID() string {
	return uuid.NewString()
}

// Encode converts a tagged struct into a Record.
func Encode(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return r, nil
}

// Decode fills v from a Record using v's json tags.
func Decode(r Record, v any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode record %s: %w", r.ID(), err)
	}
	return nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func encodeCollection(recs []Record) ([]byte, error) {
	if recs == nil {
		recs = []Record{}
	}
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return b, nil
}

func decodeCollection(name string, b []byte) ([]Record, error) {
	var recs []Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("collection %q: %w: %w", name, ErrCorrupted, err)
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

func storageErr(op, name string, err error) error {
	return fmt.Errorf("%s collection %q: %w: %w", op, name, ErrStorage, err)
}
