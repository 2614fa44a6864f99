package checkout

import (
	"sync"
	"time"
)

// Countdown is a cancellable, single-shot-on-expiry countdown. It ticks once
// per interval with monotonically decreasing remaining time and calls
// onExpire exactly once when remaining reaches zero, after which it is inert.
type Countdown struct {
	duration time.Duration
	interval time.Duration

	mu       sync.Mutex
	started  bool
	finished bool
	stop     chan struct{}
}

// NewCountdown builds a countdown over the given duration ticking once per
// second.
func NewCountdown(duration time.Duration) *Countdown {
	return &Countdown{
		duration: duration,
		interval: time.Second,
		stop:     make(chan struct{}),
	}
}

// Start begins the countdown. Subsequent calls are no-ops. Both callbacks are
// optional; they are invoked from the countdown's own goroutine.
func (c *Countdown) Start(onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	if c.started || c.finished {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run(onTick, onExpire)
}

func (c *Countdown) run(onTick func(remaining int), onExpire func()) {
	remaining := int(c.duration / c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			remaining--
			if remaining <= 0 {
				if c.tryFinish() && onExpire != nil {
					onExpire()
				}
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}

// Cancel stops the countdown. It is idempotent and safe to call after expiry
// or from multiple goroutines.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	close(c.stop)
}

// tryFinish claims the terminal slot; it loses to a concurrent Cancel.
func (c *Countdown) tryFinish() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return false
	}
	c.finished = true
	return true
}
