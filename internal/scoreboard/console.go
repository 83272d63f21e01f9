package scoreboard

import (
	"fmt"
	"io"
	"sync"

	"github.com/tkwin-games/tkwin/internal/bout"
)

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

var _ bout.Notifier = (*Console)(nil)

// Console writes one line per notification.
type Console struct {
	mtx sync.Mutex
	w   io.Writer
}

func (c *Console) Notify(evt bout.Event) {
	line := RenderEvent(evt)
	if line == "" {
		return
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	_, _ = fmt.Fprintln(c.w, line)
}

// Multi fans a notification out to every notifier in order.
type Multi []bout.Notifier

func (m Multi) Notify(evt bout.Event) {
	for _, n := range m {
		n.Notify(evt)
	}
}
