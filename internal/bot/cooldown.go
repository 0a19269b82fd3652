package bot

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// cooldowns allows one use per period and channel.
type cooldowns struct {
	period time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newCooldowns(period time.Duration) *cooldowns {
	return &cooldowns{period: period, limiters: make(map[string]*rate.Limiter)}
}

func (c *cooldowns) get(channel string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[channel]
	if !ok {
		lim = rate.NewLimiter(rate.Every(c.period), 1)
		c.limiters[channel] = lim
	}
	return lim
}

// take consumes the channel's slot at now. When the slot is not free it
// returns the remaining wait and consumes nothing. A zero period never
// blocks.
func (c *cooldowns) take(channel string, now time.Time) (*rate.Reservation, time.Duration) {
	if c.period <= 0 {
		return nil, 0
	}
	r := c.get(channel).ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return nil, d
	}
	return r, 0
}

// release gives a slot back, for uses that turned out not to count.
func release(r *rate.Reservation, now time.Time) {
	if r != nil {
		r.CancelAt(now)
	}
}

func wholeSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// humanDuration words d for chat replies: "1 minute", "90 seconds".
func humanDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		if n := int(d / time.Minute); n != 1 {
			return fmt.Sprintf("%d minutes", n)
		}
		return "1 minute"
	}
	if n := wholeSeconds(d); n != 1 {
		return fmt.Sprintf("%d seconds", n)
	}
	return "1 second"
}
