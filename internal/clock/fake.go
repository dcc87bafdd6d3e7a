package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for tests. Tickers fire during
// Advance, in deadline order, once per crossed interval. Safe for
// concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	next     time.Time
	interval time.Duration
	channel  chan time.Time
	stopped  bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NewTicker registers a ticker firing every d after the current fake
// time. Panics if d <= 0, matching time.NewTicker.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ticker := &fakeTicker{
		next:     c.current.Add(d),
		interval: d,
		channel:  make(chan time.Time, 1),
	}
	c.tickers = append(c.tickers, ticker)

	return &Ticker{
		C: ticker.channel,
		stopFunc: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			ticker.stopped = true
		},
	}
}

// Advance moves the fake time forward by d, firing due tickers in
// deadline order. Sends are non-blocking: like a real ticker, a tick
// is dropped when the previous one has not been consumed.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.current.Add(d)
	for {
		earliest := c.earliestDueLocked(target)
		if earliest == nil {
			break
		}
		c.current = earliest.next
		select {
		case earliest.channel <- earliest.next:
		default:
		}
		earliest.next = earliest.next.Add(earliest.interval)
	}
	c.current = target
}

// earliestDueLocked returns the live ticker with the soonest deadline
// at or before target, or nil when none is due.
func (c *FakeClock) earliestDueLocked(target time.Time) *fakeTicker {
	var earliest *fakeTicker
	for _, ticker := range c.tickers {
		if ticker.stopped || ticker.next.After(target) {
			continue
		}
		if earliest == nil || ticker.next.Before(earliest.next) {
			earliest = ticker
		}
	}
	return earliest
}
