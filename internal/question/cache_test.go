package question

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) List(ctx context.Context) ([]Question, error) {
	args := m.Called(ctx)
	qs, _ := args.Get(0).([]Question)
	return qs, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, id string) (Question, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Question), args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, q Question) (Question, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(Question), args.Error(1)
}

func (m *mockStore) Replace(ctx context.Context, q Question) (Question, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(Question), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	backing := &mockStore{}
	q := sampleQuestion("a")

	backing.On("List", mock.Anything).Return([]Question{q}, nil).Once()
	backing.On("Get", mock.Anything, "a").Return(q, nil).Once()

	store := NewCachedStore(backing, cache, zerolog.Nop())

	for i := 0; i < 3; i++ {
		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Question{q}, all)

		got, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, q, got)
	}

	backing.AssertExpectations(t)
	assert.True(t, mr.Exists("questions:0:all"))
	assert.True(t, mr.Exists("questions:0:item:a"))
}

func TestCachedStoreInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)
	backing := &mockStore{}
	a, b := sampleQuestion("a"), sampleQuestion("b")

	backing.On("List", mock.Anything).Return([]Question{a}, nil).Once()
	backing.On("Insert", mock.Anything, b).Return(b, nil).Once()
	backing.On("List", mock.Anything).Return([]Question{a, b}, nil).Once()

	store := NewCachedStore(backing, cache, zerolog.Nop())

	first, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	_, err = store.Insert(ctx, b)
	require.NoError(t, err)

	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	second, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)
	backing.AssertExpectations(t)
}

func TestCachedStoreFailedWriteKeepsGeneration(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)
	backing := &mockStore{}
	backing.On("Delete", mock.Anything, "missing").Return(ErrNotFound)

	store := NewCachedStore(backing, cache, zerolog.Nop())
	assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrNotFound)

	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)
}

func TestCachedStoreFallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	backing := &mockStore{}
	q := sampleQuestion("a")
	backing.On("Get", mock.Anything, "a").Return(q, nil).Twice()

	store := NewCachedStore(backing, cache, zerolog.Nop())
	mr.Close()

	for i := 0; i < 2; i++ {
		got, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, q, got)
	}
	backing.AssertExpectations(t)
}

func TestCachedStoreDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	backing := &mockStore{}
	backing.On("Get", mock.Anything, "nope").Return(Question{}, ErrNotFound)

	store := NewCachedStore(backing, cache, zerolog.Nop())
	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("questions:0:item:nope"))
}
