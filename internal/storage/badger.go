package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"
)

// KeyValuePair is the badgerhold record for one stored key.
type KeyValuePair struct {
	Key       string `badgerhold:"key"`
	Value     string
	UpdatedAt int64
}

// Badger is a durable Store backed by an embedded badger database.
type Badger struct {
	store *badgerhold.Store
}

// OpenBadger opens (or creates) the database at dir.
func OpenBadger(dir string) (*Badger, error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	opts.Logger = nil
	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return &Badger{store: store}, nil
}

func (s *Badger) Get(_ context.Context, key string) (string, error) {
	var pair KeyValuePair
	err := s.store.Get(normalizeKey(key), &pair)
	if err == badgerhold.ErrNotFound {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return pair.Value, nil
}

func (s *Badger) Set(_ context.Context, key, value string) error {
	pair := KeyValuePair{
		Key:       normalizeKey(key),
		Value:     value,
		UpdatedAt: time.Now().Unix(),
	}
	if err := s.store.Upsert(pair.Key, pair); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *Badger) Delete(_ context.Context, key string) error {
	err := s.store.Delete(normalizeKey(key), &KeyValuePair{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *Badger) Close() error { return s.store.Close() }
