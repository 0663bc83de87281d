// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package remote provides the one fetch-state abstraction shared by the
feature tabs.

Every tab follows the same cycle: fetch on mount, show a loading flag,
replace the whole list on success, keep the previous list and surface the
error on failure, and refetch after each mutation. Collection captures
that cycle once instead of re-implementing it per tab.

Architecture:

  - Collection[T]: load/error/data states parameterized by entity type.
  - Mutate: runs a mutation then refetches, never patching incrementally.
  - RemoveWhere: the single exception — local filtering after a confirmed
    single-item delete.
*/
package remote

import (
	"context"
	"sync"
)

// Loader fetches the full remote list for a [Collection].
type Loader[T any] func(ctx context.Context) ([]T, error)

// Collection owns the client-side view of one remote list.
//
// # Ownership
//
// Each tab owns its own Collection; there is no shared store or cache
// between tabs, matching the original component-owned-state design.
type Collection[T any] struct {
	name string
	load Loader[T]

	mu      sync.Mutex
	items   []T
	err     error
	loading bool
}

// NewCollection constructs an empty [Collection] around a loader.
func NewCollection[T any](name string, load Loader[T]) *Collection[T] {
	return &Collection[T]{name: name, load: load}
}

/*
Load fetches the remote list and replaces the local view wholesale.

Description: On success the previous items are discarded entirely — no
merging. On failure the previous items are kept and the error is recorded
for rendering.

Parameters:
  - ctx: context.Context

Returns:
  - err: The loader's error, also retrievable via [Collection.Err]
*/
func (collection *Collection[T]) Load(ctx context.Context) error {
	collection.mu.Lock()
	collection.loading = true
	collection.mu.Unlock()

	items, err := collection.load(ctx)

	collection.mu.Lock()
	defer collection.mu.Unlock()
	collection.loading = false
	collection.err = err
	if err == nil {
		collection.items = items
	}
	return err
}

// Mutate runs a mutation and, only if it succeeds, refetches the list.
// A failed mutation leaves the local view untouched.
func (collection *Collection[T]) Mutate(ctx context.Context, mutate func(ctx context.Context) error) error {
	if err := mutate(ctx); err != nil {
		return err
	}
	return collection.Load(ctx)
}

// RemoveWhere drops matching items from the local view without a refetch.
// Call it only after the backend confirmed the delete.
func (collection *Collection[T]) RemoveWhere(match func(T) bool) {
	collection.mu.Lock()
	defer collection.mu.Unlock()

	kept := collection.items[:0]
	for _, item := range collection.items {
		if !match(item) {
			kept = append(kept, item)
		}
	}
	collection.items = kept
}

// Items returns the current local view of the list.
func (collection *Collection[T]) Items() []T {
	collection.mu.Lock()
	defer collection.mu.Unlock()
	return collection.items
}

// Err returns the error recorded by the most recent [Collection.Load].
func (collection *Collection[T]) Err() error {
	collection.mu.Lock()
	defer collection.mu.Unlock()
	return collection.err
}

// Loading reports whether a load is currently in flight.
func (collection *Collection[T]) Loading() bool {
	collection.mu.Lock()
	defer collection.mu.Unlock()
	return collection.loading
}

// Name returns the collection's identifier, used in log entries.
func (collection *Collection[T]) Name() string { return collection.name }
