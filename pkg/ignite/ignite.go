// Package ignite provides a high-performance key/value data store designed
// for fast read and write operations, inspired by Bitcask. It combines an
// in-memory positional index with an append-only log structure on disk to
// achieve a hot-path read that never touches disk beyond a single seeked
// read. It is designed for applications requiring fast, durable read/write
// access to UTF-8 string values, not as an eviction cache, and not with any
// notion of key expiry. Replay rejects a key or value that is not valid
// UTF-8 as a corrupt segment.
package ignite

import (
	"context"

	"github.com/ignitedb/ignite/internal/engine"
	"github.com/ignitedb/ignite/internal/metrics"
	"github.com/ignitedb/ignite/pkg/logger"
	"github.com/ignitedb/ignite/pkg/options"
)

// Instance is the primary entry point for interacting with the Ignite
// store. It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// NewInstance creates and initializes a new Ignite DB instance rooted at the
// directory named in opts (or options.DefaultDataDir if none is given). m is
// optional: a front end that exposes a /metrics endpoint passes its
// *metrics.Metrics so the engine's write/read/compaction collectors actually
// get observed; a front end with nothing scraping them (the one-shot CLI)
// passes nil and every Observe/Inc call along the engine's hot path is
// skipped.
func NewInstance(ctx context.Context, service string, m *metrics.Metrics, opts ...options.OptionFunc) (*Instance, error) {
	log, err := logger.New(service, logger.Config{})
	if err != nil {
		return nil, err
	}

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts, Metrics: m})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Set stores a key-value pair in the database. If the key already exists,
// its value is overwritten. The call returns once the record is durable.
func (i *Instance) Set(ctx context.Context, key string, value string) error {
	return i.engine.Set(key, value)
}

// Get retrieves the value associated with the given key. A missing key is
// not an error: ok is false and err is nil.
func (i *Instance) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	return i.engine.Get(key)
}

// Delete removes a key-value pair from the database, returning whether the
// key existed. Deleting an absent key is not an error.
func (i *Instance) Delete(ctx context.Context, key string) (existed bool, err error) {
	return i.engine.Remove(key)
}

// Reset discards all stored data and resets the store to a fresh, empty
// state. Two successive calls are equivalent to one.
func (i *Instance) Reset(ctx context.Context) error {
	return i.engine.Reset()
}

// Close gracefully shuts down the Ignite DB instance: it drains in-flight
// compaction, flushes and closes the active segment, and releases the
// index.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
