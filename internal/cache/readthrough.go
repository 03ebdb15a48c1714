// Package cache implements a read-through cache over any key-value store.
package cache

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type Source string

const (
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
)

// Store is the persistence side of the cache. Put must upsert.
type Store[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool, error)
	Put(ctx context.Context, key K, value V) error
	Delete(ctx context.Context, key K) error
}

// FetchFunc loads a value from the source of truth.
type FetchFunc[K ~string, V any] func(ctx context.Context, key K) (V, error)

type ReadThrough[K ~string, V any] struct {
	store Store[K, V]
	fetch FetchFunc[K, V]
	log   *logrus.Logger
	group singleflight.Group
}

func NewReadThrough[K ~string, V any](store Store[K, V], fetch FetchFunc[K, V], log *logrus.Logger) *ReadThrough[K, V] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReadThrough[K, V]{store: store, fetch: fetch, log: log}
}

// GetOrFetch returns the stored value for key, or fetches, stores and
// returns it. Fetch errors are returned without writing anything.
func (c *ReadThrough[K, V]) GetOrFetch(ctx context.Context, key K) (V, Source, error) {
	var zero V
	v, found, err := c.store.Get(ctx, key)
	if err != nil {
		return zero, "", fmt.Errorf("read cache %q: %w", key, err)
	}
	if found {
		c.log.WithField("key", key).Debug("cache hit")
		return v, SourceCache, nil
	}
	c.log.WithField("key", key).Debug("cache miss")
	v, err = c.load(ctx, key)
	if err != nil {
		return zero, "", err
	}
	return v, SourceRemote, nil
}

// Refresh fetches key from the source regardless of what is stored.
func (c *ReadThrough[K, V]) Refresh(ctx context.Context, key K) (V, error) {
	return c.load(ctx, key)
}

func (c *ReadThrough[K, V]) Invalidate(ctx context.Context, key K) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidate %q: %w", key, err)
	}
	return nil
}

// load collapses concurrent fetches of the same key. The shared call runs
// detached from any single caller's context so one caller giving up does
// not fail the others; each caller still returns as soon as its own
// context is done.
func (c *ReadThrough[K, V]) load(ctx context.Context, key K) (V, error) {
	var zero V
	ch := c.group.DoChan(string(key), func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		v, err := c.fetch(fctx, key)
		if err != nil {
			return nil, err
		}
		if err := c.store.Put(fctx, key, v); err != nil {
			return nil, fmt.Errorf("write cache %q: %w", key, err)
		}
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			c.log.WithField("key", key).Debug("shared in-flight fetch")
		}
		return res.Val.(V), nil
	}
}
