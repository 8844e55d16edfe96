// Package storage is the durable client-side key-value state used for
// session persistence (token, username) across restarts.
package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrKeyNotFound is returned when a key does not exist.
var ErrKeyNotFound = errors.New("storage: key not found")

// Store is a small durable key-value contract. Implementations must be
// safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// normalizeKey lower-cases keys for case-insensitive storage.
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Memory is an in-process Store, the default when no durable path is
// configured. State is lost on Close.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[normalizeKey(key)]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[normalizeKey(key)] = value
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, normalizeKey(key))
	return nil
}

func (s *Memory) Close() error { return nil }
