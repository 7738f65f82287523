package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type prefixKeyer struct{}

func (prefixKeyer) AccessSessionKey(accessID string) string { return "session:" + accessID }

func newTestManager(store *memoryStore) *Manager {
	return &Manager{store: store, keyer: prefixKeyer{}, ttl: time.Hour}
}

func TestGenerateAndHasSession(t *testing.T) {
	store := newMemoryStore()
	mgr := newTestManager(store)

	token, err := mgr.Generate(context.Background(), "a1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	ok, err := mgr.HasSession(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mgr.HasSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	store := newMemoryStore()
	mgr := newTestManager(store)

	token, err := mgr.Generate(context.Background(), "a1")
	require.NoError(t, err)

	newID, newToken, err := mgr.Rotate(context.Background(), "a1", token)
	require.NoError(t, err)
	assert.NotEqual(t, "a1", newID)
	assert.NotEqual(t, token, newToken)

	ok, err := mgr.HasSession(context.Background(), "a1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mgr.HasSession(context.Background(), newID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRotateRejectsWrongToken(t *testing.T) {
	store := newMemoryStore()
	mgr := newTestManager(store)

	_, err := mgr.Generate(context.Background(), "a1")
	require.NoError(t, err)

	_, _, err = mgr.Rotate(context.Background(), "a1", "bogus")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	mgr := newTestManager(store)

	_, err := mgr.Generate(context.Background(), "a1")
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(context.Background(), "a1"))
	require.NoError(t, mgr.Revoke(context.Background(), "a1"))

	ok, err := mgr.HasSession(context.Background(), "a1")
	require.NoError(t, err)
	assert.False(t, ok)
}
