package clock

import (
	"sync"
	"time"
)

var _ Clock = (*Fake)(nil)

func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Fake is a manually driven clock. Tasks run synchronously on Tick.
type Fake struct {
	mtx   sync.Mutex
	now   time.Time
	tasks []*fakeTask
}

type fakeTask struct {
	mtx     sync.Mutex
	fn      func()
	stopped bool
}

func (t *fakeTask) Stop() {
	t.mtx.Lock()
	t.stopped = true
	t.mtx.Unlock()
}

func (t *fakeTask) isStopped() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.stopped
}

func (c *Fake) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *Fake) Every(_ time.Duration, fn func()) Task {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	t := &fakeTask{fn: fn}
	c.tasks = append(c.tasks, t)
	return t
}

// Advance moves the clock forward without firing tasks.
func (c *Fake) Advance(d time.Duration) {
	c.mtx.Lock()
	c.now = c.now.Add(d)
	c.mtx.Unlock()
}

// Tick advances the clock by one second and fires every live task once.
// Tasks created while ticking fire from the next tick on.
func (c *Fake) Tick() {
	c.mtx.Lock()
	c.now = c.now.Add(time.Second)
	alive := c.tasks[:0]
	for _, t := range c.tasks {
		if !t.isStopped() {
			alive = append(alive, t)
		}
	}
	c.tasks = alive
	pending := make([]*fakeTask, len(alive))
	copy(pending, alive)
	c.mtx.Unlock()

	for _, t := range pending {
		if t.isStopped() {
			continue
		}
		t.fn()
	}
}

// Active returns the number of tasks that have not been stopped.
func (c *Fake) Active() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	var n int
	for _, t := range c.tasks {
		if !t.isStopped() {
			n++
		}
	}
	return n
}
