package records

import (
	"context"
	"errors"
	"sync"

	"github.com/karunyatrust/cms/pkg/logger"
	"github.com/karunyatrust/cms/pkg/metrics"
)

var log = logger.Named("records")

// Collections wraps a Store with one mutex per collection. Write and Update
// hold the collection's mutex, so an Update's read, mutation and write are
// never interleaved with another writer in this process. Read does not lock;
// backends guarantee whole-collection atomicity on their own.
type Collections struct {
	store   Store
	backend string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCollections returns a Collections over s.
func NewCollections(s Store) *Collections {
	backend := "custom"
	if n, ok := s.(interface{ Name() string }); ok {
		backend = n.Name()
	}
	return &Collections{store: s, backend: backend, locks: make(map[string]*sync.Mutex)}
}

// Backend names the underlying store.
func (c *Collections) Backend() string { return c.backend }

func (c *Collections) lock(name string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[name]
	if !ok {
		l = &sync.Mutex{}
		c.locks[name] = l
	}
	return l
}

// Read returns the collection's records in stored order.
func (c *Collections) Read(ctx context.Context, name string) ([]Record, error) {
	recs, err := c.store.Read(ctx, name)
	metrics.ObserveRecordOp(c.backend, "read", err)
	if errors.Is(err, ErrCorrupted) {
		log.Warnf("%v", err)
	}
	return recs, err
}

// Write replaces the collection.
func (c *Collections) Write(ctx context.Context, name string, recs []Record) error {
	l := c.lock(name)
	l.Lock()
	defer l.Unlock()
	return c.write(ctx, name, recs)
}

func (c *Collections) write(ctx context.Context, name string, recs []Record) error {
	err := c.store.Write(ctx, name, recs)
	metrics.ObserveRecordOp(c.backend, "write", err)
	return err
}

// Update reads the collection, applies fn and writes the result back while
// holding the collection's mutex. When fn returns an error nothing is written
// and the error is returned unchanged.
func (c *Collections) Update(ctx context.Context, name string, fn func([]Record) ([]Record, error)) ([]Record, error) {
	l := c.lock(name)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, err := c.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := c.write(ctx, name, next); err != nil {
		return nil, err
	}
	return next, nil
}
