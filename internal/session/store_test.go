package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/course-creator/internal/cache"
	"github.com/spherical-ai/course-creator/internal/config"
	"github.com/spherical-ai/course-creator/internal/domain"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	backend := cache.NewMemoryClient(100)
	t.Cleanup(func() { _ = backend.Close() })
	return NewStore(backend, time.Hour)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	id := NewID()

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageEmpty, state.Stage())

	saved := domain.SessionState{
		Request:      &domain.CourseRequest{Title: "Go", Description: "Intro"},
		Outline:      domain.FailedResult(domain.StepStructure, "Error generating course outline: x", errors.New("x")),
		OutlineEdits: 2,
		UpdatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, id, saved))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
	assert.Equal(t, domain.StageOutlineReady, loaded.Stage())

	require.NoError(t, store.Delete(ctx, id))
	loaded, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageEmpty, loaded.Stage())
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	a, b := NewID(), NewID()

	require.NoError(t, store.Save(ctx, a, domain.SessionState{Outline: domain.Generated("A")}))

	other, err := store.Load(ctx, b)
	require.NoError(t, err)
	assert.Nil(t, other.Outline)

	mine, err := store.Load(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "A", mine.OutlineText())
}

// failingBackend returns err from every operation.
type failingBackend struct{ err error }

func (f failingBackend) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingBackend) Set(context.Context, string, []byte, time.Duration) error { return f.err }
func (f failingBackend) Delete(context.Context, string) error { return f.err }
func (f failingBackend) Ping(context.Context) error { return f.err }
func (f failingBackend) Close() error { return nil }

func TestStore_BackendErrors(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	store := NewStore(failingBackend{err: cause}, time.Hour)

	_, err := store.Load(ctx, NewID())
	assert.True(t, domain.IsType(err, domain.ErrorTypeStore))
	assert.ErrorIs(t, err, cause)

	err = store.Save(ctx, NewID(), domain.SessionState{})
	assert.True(t, domain.IsType(err, domain.ErrorTypeStore))

	err = store.Delete(ctx, NewID())
	assert.True(t, domain.IsType(err, domain.ErrorTypeStore))

	assert.ErrorIs(t, store.Ping(ctx), cause)
}

func TestStore_CorruptState(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemoryClient(10)
	defer backend.Close()
	store := NewStore(backend, time.Hour)

	id := NewID()
	require.NoError(t, backend.Set(ctx, key(id), []byte("{not json"), time.Hour))

	_, err := store.Load(ctx, id)
	assert.True(t, domain.IsType(err, domain.ErrorTypeStore))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(NewID()))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("../../etc/passwd"))
	assert.NotEqual(t, NewID(), NewID())
}

func TestNewBackend(t *testing.T) {
	backend, err := NewBackend(config.SessionConfig{Driver: "memory", MaxEntries: 5})
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryClient{}, backend)
	_ = backend.Close()

	_, err = NewBackend(config.SessionConfig{Driver: "bolt"})
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}
