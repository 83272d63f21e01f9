// Package clock abstracts wall time and periodic tasks so that timed
// behaviour can be driven manually in tests.
package clock

import (
	"sync"
	"time"
)

// Task is a handle to a periodic function. Stop never blocks and may be
// called more than once.
type Task interface {
	Stop()
}

type Clock interface {
	Now() time.Time
	// Every calls fn once per interval d until the returned task is stopped.
	Every(d time.Duration, fn func()) Task
}

var _ Clock = (*Real)(nil)

func NewReal() *Real {
	return &Real{}
}

// Real runs every task on its own goroutine driven by a time.Ticker.
type Real struct {
	wg sync.WaitGroup
}

func (c *Real) Now() time.Time {
	return time.Now()
}

func (c *Real) Every(d time.Duration, fn func()) Task {
	t := &realTask{stopCh: make(chan struct{})}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-t.stopCh:
				return
			case <-ticker.C:
				select {
				case <-t.stopCh:
					return
				default:
				}
				fn()
			}
		}
	}()

	return t
}

// Wait blocks until every task goroutine started by this clock has returned.
func (c *Real) Wait() {
	c.wg.Wait()
}

type realTask struct {
	once   sync.Once
	stopCh chan struct{}
}

func (t *realTask) Stop() {
	t.once.Do(func() {
		close(t.stopCh)
	})
}
