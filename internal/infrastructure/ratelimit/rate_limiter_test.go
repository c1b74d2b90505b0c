package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustion(t *testing.T) {
	bucket := NewTokenBucket(3, 1, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := bucket.Allow()
		assert.True(t, allowed, "call %d", i)
	}

	allowed, wait := bucket.Allow()
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))
}

func TestTokenBucketRefill(t *testing.T) {
	bucket := NewTokenBucket(1, 1, 10*time.Millisecond)

	allowed, _ := bucket.Allow()
	assert.True(t, allowed)
	allowed, _ = bucket.Allow()
	assert.False(t, allowed)

	time.Sleep(15 * time.Millisecond)

	allowed, _ = bucket.Allow()
	assert.True(t, allowed)
}

func TestLimiterIsolatesUsersAndActions(t *testing.T) {
	rl := NewRateLimiter()

	// Drain user-a's chat creation allowance.
	for i := 0; i < 5; i++ {
		allowed, _ := rl.Allow("user-a", "create_chat")
		assert.True(t, allowed)
	}
	allowed, _ := rl.Allow("user-a", "create_chat")
	assert.False(t, allowed)

	// Other users and other actions are unaffected.
	allowed, _ = rl.Allow("user-b", "create_chat")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("user-a", "send_message")
	assert.True(t, allowed)
}

func TestCleanupRacesTraffic(t *testing.T) {
	rl := NewRateLimiter()

	// Cleanup runs while buckets are being created and consumed. Run
	// with the race detector to verify the bucket state stays guarded.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			rl.Allow(fmt.Sprintf("user-%d", i%10), "send_message")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			rl.Cleanup()
		}
	}()
	wg.Wait()

	// The limiter stays usable afterwards.
	allowed, _ := rl.Allow("user-99", "send_message")
	assert.True(t, allowed)
}
