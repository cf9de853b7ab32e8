package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketBurst(t *testing.T) {
	tb := NewTokenBucket(time.Hour, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "token %d should be available", i+1)
	}
	assert.False(t, tb.Allow(), "bucket should be exhausted")
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(50*time.Millisecond, 1)
	require.True(t, tb.Allow())

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(time.Hour, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, tb.Wait(ctx))
}

func TestPerMinuteDefaults(t *testing.T) {
	tb := PerMinute(0, 0)
	assert.True(t, tb.Allow())
}

func TestUnlimited(t *testing.T) {
	limiter := Unlimited()
	for i := 0; i < 1000; i++ {
		require.True(t, limiter.Allow())
	}
	assert.NoError(t, limiter.Wait(context.Background()))
}
