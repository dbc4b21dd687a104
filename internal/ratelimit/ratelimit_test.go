package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	l := New(1, 3)
	defer l.Close()

	for i := range 3 {
		require.True(t, l.Allow("10.0.0.1"), "request %d should be within burst", i)
	}
	require.False(t, l.Allow("10.0.0.1"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(1, 1)
	defer l.Close()

	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))

	// A different client still has a full bucket.
	require.True(t, l.Allow("10.0.0.2"))
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	l := New(1000, 1000)
	defer l.Close()

	done := make(chan struct{}, 20)
	for range 20 {
		go func() {
			for range 10 {
				l.Allow("10.0.0.1")
			}
			done <- struct{}{}
		}()
	}
	for range 20 {
		<-done
	}
}
