package judge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/clock"
	"github.com/tkwin-games/tkwin/internal/logging"
)

// PollInterval is the fixed controller sampling period.
const PollInterval = 30 * time.Millisecond

var ErrNoDevices = fmt.Errorf("no controllers attached")

type DeviceState struct {
	Buttons []bool
	Hat     Hat
}

// Device is a physical controller. Enumeration and driver access live
// outside of this package.
type Device interface {
	Poll() (DeviceState, error)
}

type Config struct {
	Devices []Device
	Judges  int
	Mapping Mapping
	Clock   clock.Clock
	Handler func(evt bout.JudgeEvent)
}

func NewPoller(config Config) (*Poller, error) {
	if len(config.Devices) == 0 {
		return nil, ErrNoDevices
	}
	if config.Handler == nil {
		return nil, fmt.Errorf("judge handler is required")
	}
	if config.Clock == nil {
		config.Clock = clock.NewReal()
	}
	if config.Mapping.Buttons == nil && config.Mapping.Hat == nil {
		config.Mapping = DefaultMapping()
	}

	return &Poller{config: config}, nil
}

// Poller samples controllers and reports rising edges as judge events.
// Controller i belongs to judge slot i. A single controller is shared by
// every slot and polled by one loop.
type Poller struct {
	mtx    sync.Mutex
	config Config
	tasks  []clock.Task
	sema   sync.Once
}

// Controllers is the number of attached controllers, used by the engine to
// decide whether consensus is required.
func (p *Poller) Controllers() int {
	return len(p.config.Devices)
}

func (p *Poller) Run(ctx context.Context) {
	p.sema.Do(func() {
		loops := p.config.Judges
		if loops > len(p.config.Devices) || loops <= 0 {
			loops = len(p.config.Devices)
		}

		p.mtx.Lock()
		defer p.mtx.Unlock()
		for slot := 0; slot < loops; slot++ {
			p.tasks = append(p.tasks, p.watch(ctx, slot))
		}
	})
}

func (p *Poller) Stop() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for _, task := range p.tasks {
		task.Stop()
	}
	p.tasks = nil
}

func (p *Poller) watch(ctx context.Context, slot int) clock.Task {
	logger := logging.FromContext(ctx).Named("judge.Poller")
	device := p.config.Devices[slot]
	w := &watcher{slot: slot, mapping: p.config.Mapping}

	var mtx sync.Mutex
	var task clock.Task
	stop := func() {
		mtx.Lock()
		task.Stop()
		mtx.Unlock()
	}

	mtx.Lock()
	defer mtx.Unlock()
	task = p.config.Clock.Every(PollInterval, func() {
		if ctx.Err() != nil {
			stop()
			return
		}

		state, err := device.Poll()
		if err != nil {
			logger.Errorf("controller %d poll: %v", slot, err)
			stop()
			return
		}

		now := p.config.Clock.Now()
		for _, evt := range w.observe(state) {
			evt.At = now
			p.config.Handler(evt)
		}
	})

	return task
}

// watcher keeps the previous sample of one controller.
type watcher struct {
	slot    int
	mapping Mapping
	buttons []bool
	hat     Hat
}

func (w *watcher) observe(state DeviceState) []bout.JudgeEvent {
	var events []bout.JudgeEvent
	for i, pressed := range state.Buttons {
		was := i < len(w.buttons) && w.buttons[i]
		if !pressed || was {
			continue
		}
		if b, ok := w.mapping.Buttons[i]; ok {
			events = append(events, bout.JudgeEvent{Judge: w.slot, Side: b.Side, Action: b.Action})
		}
	}

	if state.Hat != w.hat && state.Hat != HatNeutral {
		if b, ok := w.mapping.Hat[state.Hat]; ok {
			events = append(events, bout.JudgeEvent{Judge: w.slot, Side: b.Side, Action: b.Action})
		}
	}

	w.buttons = append(w.buttons[:0], state.Buttons...)
	w.hat = state.Hat
	return events
}
