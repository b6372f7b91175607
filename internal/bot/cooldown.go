package bot

import (
	"sync"
	"time"
)

// cooldowns rate-limits a command per user.
type cooldowns struct {
	mu     sync.Mutex
	period time.Duration
	last   map[string]time.Time
}

func newCooldowns(period time.Duration) *cooldowns {
	return &cooldowns{period: period, last: make(map[string]time.Time)}
}

// take records a use at now and returns zero, or returns how long the user
// still has to wait without recording anything.
func (c *cooldowns) take(user string, now time.Time) time.Duration {
	if c.period <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if at, ok := c.last[user]; ok {
		if wait := at.Add(c.period).Sub(now); wait > 0 {
			return wait
		}
	}
	c.last[user] = now
	for u, at := range c.last {
		if now.Sub(at) >= c.period {
			delete(c.last, u)
		}
	}
	return 0
}
