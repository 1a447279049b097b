package kv

import (
	"context"
	"strings"
)

// Store is durable string-keyed storage. Writes are last-write-wins; there
// are no transactions across keys.
type Store interface {
	// Get returns domain.ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type scoped struct {
	inner  Store
	prefix string
}

// Scoped returns a Store whose keys live under namespace. Two scoped stores
// with different namespaces never see each other's keys.
func Scoped(inner Store, namespace string) Store {
	return &scoped{inner: inner, prefix: strings.TrimSuffix(namespace, ":") + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, s.prefix+key)
}
