package redis

import (
	"context"
	"io"
	"testing"
	"time"

	"HelmetGuard/internal/entity"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReplacesLatest(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	_, err := store.GetLatest(ctx, "s1")
	assert.ErrorIs(t, err, ErrResultNotFound)

	require.NoError(t, store.SetLatest(ctx, "s1", &entity.DetectionResult{Timestamp: "first"}))
	require.NoError(t, store.SetLatest(ctx, "s1", &entity.DetectionResult{Timestamp: "second"}))
	require.NoError(t, store.SetLatest(ctx, "s2", &entity.DetectionResult{Timestamp: "other"}))

	got, err := store.GetLatest(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Timestamp)

	got, err = store.GetLatest(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "other", got.Timestamp)

	require.NoError(t, store.Clear(ctx, "s1"))
	_, err = store.GetLatest(ctx, "s1")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestMemoryStoreExpires(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute).(*memoryStore)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.SetLatest(ctx, "s1", &entity.DetectionResult{Timestamp: "t"}))

	now = now.Add(30 * time.Second)
	_, err := store.GetLatest(ctx, "s1")
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.GetLatest(ctx, "s1")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestMemoryStoreKeepsDetections(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	in := &entity.DetectionResult{
		Timestamp: "t",
		HelmetResults: []entity.HelmetResult{
			{Status: entity.NoHelmetStatus, Message: "경고: 헬멧 미착용"},
		},
		Warning: "경고: 헬멧 미착용",
	}
	require.NoError(t, store.SetLatest(ctx, "s1", in))

	in.Warning = "mutated after store"

	got, err := store.GetLatest(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "경고: 헬멧 미착용", got.Warning)
	assert.Equal(t, 1, got.CountStatus(entity.NoHelmetStatus))
}

func TestNewFallsBackToMemoryWithoutAddress(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := New(Config{TTL: time.Minute}, logger)
	_, ok := store.(*memoryStore)
	assert.True(t, ok)
	assert.NoError(t, store.Close())
}
