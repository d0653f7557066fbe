package httpmiddleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustion(t *testing.T) {
	l := NewTokenBucket(3, 60)

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("1.2.3.4"), "request %d within capacity", i)
	}
	assert.False(t, l.allow("1.2.3.4"))

	// Other clients have their own bucket.
	assert.True(t, l.allow("5.6.7.8"))
}

func TestTokenBucketRefill(t *testing.T) {
	clock := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("ip"))
	assert.True(t, l.allow("ip"))
	assert.False(t, l.allow("ip"))

	// 60/min refills one token per second.
	clock = clock.Add(time.Second)
	assert.True(t, l.allow("ip"))
	assert.False(t, l.allow("ip"))

	// Refill never exceeds capacity.
	clock = clock.Add(time.Hour)
	assert.True(t, l.allow("ip"))
	assert.True(t, l.allow("ip"))
	assert.False(t, l.allow("ip"))
}

func TestTokenBucketDefaultCapacity(t *testing.T) {
	l := NewTokenBucket(0, 5)
	for i := 0; i < 5; i++ {
		assert.True(t, l.allow("ip"))
	}
	assert.False(t, l.allow("ip"))
}
