// Package clock drives automatic game-day advances on a cron schedule.
package clock

import (
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DayClock ticks the game day forward on a schedule and invokes the
// advance callback with the new day number. The day counter can be reset
// when a saved game is loaded.
type DayClock struct {
	cron    *cron.Cron
	advance func(day int)

	mu  sync.Mutex
	day int
}

// New creates a clock from a cron spec (descriptors like "@every 1m" are
// accepted). The callback runs on the cron goroutine.
func New(spec string, advance func(day int)) (*DayClock, error) {
	c := &DayClock{
		cron:    cron.New(),
		advance: advance,
	}
	if _, err := c.cron.AddFunc(spec, c.tick); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *DayClock) tick() {
	c.mu.Lock()
	c.day++
	day := c.day
	c.mu.Unlock()

	c.advance(day)
}

// SetDay resets the counter, e.g. after loading a save. The next tick
// advances to day+1.
func (c *DayClock) SetDay(day int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.day = day
}

// Start begins ticking in a background goroutine.
func (c *DayClock) Start() {
	c.cron.Start()
	slog.Info("day clock started")
}

// Stop halts the schedule. Running callbacks finish before Stop returns.
func (c *DayClock) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	slog.Info("day clock stopped")
}
