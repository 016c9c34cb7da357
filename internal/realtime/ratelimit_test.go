package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterBudgetAndRollover(t *testing.T) {
	limiter := NewRateLimiter(60)
	current := time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	allowed := 0
	for i := 0; i < 61; i++ {
		if limiter.Allow("conn-1") {
			allowed++
		}
	}
	require.Equal(t, 60, allowed)
	require.False(t, limiter.Allow("conn-1"))

	// minute boundary rolls over, budget resets
	current = current.Add(time.Minute)
	require.True(t, limiter.Allow("conn-1"))
}

func TestRateLimiterIsolatesConnections(t *testing.T) {
	limiter := NewRateLimiter(2)

	require.True(t, limiter.Allow("conn-1"))
	require.True(t, limiter.Allow("conn-1"))
	require.False(t, limiter.Allow("conn-1"))

	require.True(t, limiter.Allow("conn-2"))
}

func TestRateLimiterForget(t *testing.T) {
	limiter := NewRateLimiter(60)

	require.True(t, limiter.Allow("conn-1"))
	require.True(t, limiter.Tracked("conn-1"))

	limiter.Forget("conn-1")
	require.False(t, limiter.Tracked("conn-1"))
}

func TestRateLimiterZeroLimitDefaults(t *testing.T) {
	limiter := NewRateLimiter(0)
	require.Equal(t, 60, limiter.limit)
}
