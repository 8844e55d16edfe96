package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "auth.token", "tok-1"))
	v, err := s.Get(ctx, "auth.token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", v)

	// Upsert overwrites.
	require.NoError(t, s.Set(ctx, "auth.token", "tok-2"))
	v, err = s.Get(ctx, "auth.token")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", v)

	require.NoError(t, s.Delete(ctx, "auth.token"))
	_, err = s.Get(ctx, "auth.token")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "auth.username", "mina"))
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	v, err := s.Get(ctx, "auth.username")
	require.NoError(t, err)
	assert.Equal(t, "mina", v)
}

func TestBadgerDeleteMissingIsNoop(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.NoError(t, s.Delete(context.Background(), "never-set"))
}
