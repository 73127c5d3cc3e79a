package interview

import (
	"time"

	"alfredoptarigan/voice-screener/internal/clock"
)

// loopTimer runs its callback on the session loop. Stop is also called on the
// loop, so a callback already posted when Stop runs is still dropped.
type loopTimer struct {
	t    clock.Timer
	done bool
}

func (l *loopTimer) Stop() bool {
	if l.done {
		return false
	}
	l.done = true
	if l.t != nil {
		l.t.Stop()
	}
	return true
}

// schedule is the speech.Scheduler of the session.
func (c *Controller) schedule(d time.Duration, f func()) clock.Timer {
	lt := &loopTimer{}
	lt.t = c.deps.Clock.AfterFunc(d, func() {
		c.post(func() {
			if lt.done || c.closed {
				return
			}
			lt.done = true
			f()
		})
	})
	return lt
}

// after replaces the named timer.
func (c *Controller) after(name string, d time.Duration, f func()) {
	if prev, ok := c.timers[name]; ok {
		prev.Stop()
	}
	c.timers[name] = c.schedule(d, f).(*loopTimer)
}

func (c *Controller) clearTimers() {
	for name, t := range c.timers {
		t.Stop()
		delete(c.timers, name)
	}
}
