package checkout

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountdownTicksAndExpiresOnce(t *testing.T) {
	c := NewCountdown(50 * time.Millisecond)
	c.interval = 10 * time.Millisecond

	var mu sync.Mutex
	var ticks []int
	expired := make(chan struct{}, 2)

	c.Start(func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}, func() { expired <- struct{}{} })

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("countdown did not expire")
	}

	mu.Lock()
	got := append([]int(nil), ticks...)
	mu.Unlock()
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		require.Less(t, got[i], got[i-1], "remaining time must decrease monotonically")
	}

	select {
	case <-expired:
		t.Fatal("expire fired more than once")
	case <-time.After(50 * time.Millisecond):
	}

	c.Cancel()
	c.Cancel()
}

func TestCountdownCancelPreventsExpiry(t *testing.T) {
	c := NewCountdown(30 * time.Millisecond)
	c.interval = 10 * time.Millisecond

	expired := make(chan struct{}, 1)
	c.Start(nil, func() { expired <- struct{}{} })
	c.Cancel()

	select {
	case <-expired:
		t.Fatal("expire fired after cancel")
	case <-time.After(80 * time.Millisecond):
	}

	c.Cancel()
}
