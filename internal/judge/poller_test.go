package judge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/clock"
)

type scriptedDevice struct {
	mtx    sync.Mutex
	states []DeviceState
	err    error
}

func (d *scriptedDevice) Poll() (DeviceState, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if len(d.states) == 0 {
		if d.err != nil {
			return DeviceState{}, d.err
		}
		return DeviceState{}, nil
	}
	s := d.states[0]
	d.states = d.states[1:]
	return s, nil
}

func pressed(buttons ...int) DeviceState {
	s := DeviceState{Buttons: make([]bool, 10)}
	for _, b := range buttons {
		s.Buttons[b] = true
	}
	return s
}

type collector struct {
	mtx    sync.Mutex
	events []bout.JudgeEvent
}

func (c *collector) handle(evt bout.JudgeEvent) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.events = append(c.events, evt)
}

func TestWatcherRisingEdges(t *testing.T) {
	t.Parallel()

	w := &watcher{slot: 1, mapping: DefaultMapping()}
	steps := []struct {
		state DeviceState
		want  []bout.JudgeEvent
	}{
		{state: pressed(0), want: []bout.JudgeEvent{{Judge: 1, Side: bout.SideRed, Action: bout.ActionPoints(1)}}},
		{state: pressed(0)},
		{state: pressed()},
		{state: pressed(0, 6), want: []bout.JudgeEvent{
			{Judge: 1, Side: bout.SideRed, Action: bout.ActionPoints(1)},
			{Judge: 1, Side: bout.SideBlue, Action: bout.ActionGamJeom},
		}},
		{state: DeviceState{Buttons: make([]bool, 8), Hat: HatLeft}, want: []bout.JudgeEvent{
			{Judge: 1, Side: bout.SideBlue, Action: bout.ActionPoints(4)},
		}},
		{state: DeviceState{Buttons: make([]bool, 8), Hat: HatLeft}},
		{state: DeviceState{Buttons: make([]bool, 8)}},
		{state: pressed(9)},
	}

	for i, step := range steps {
		got := w.observe(step.state)
		if len(got) != len(step.want) {
			t.Fatalf("step %d: expected %v got %v", i, step.want, got)
		}
		for j := range got {
			if got[j] != step.want[j] {
				t.Errorf("step %d: expected %+v got %+v", i, step.want[j], got[j])
			}
		}
	}
}

func TestDefaultMappingCoversAllActions(t *testing.T) {
	t.Parallel()

	m := DefaultMapping()
	seen := map[Binding]bool{}
	for _, b := range m.Buttons {
		seen[b] = true
	}
	for _, b := range m.Hat {
		seen[b] = true
	}

	for _, side := range []bout.Side{bout.SideBlue, bout.SideRed} {
		for n := 1; n <= 5; n++ {
			if !seen[Binding{Side: side, Action: bout.ActionPoints(n)}] {
				t.Errorf("%s +%d not mapped", side, n)
			}
		}
		if !seen[Binding{Side: side, Action: bout.ActionGamJeom}] {
			t.Errorf("%s gam-jeom not mapped", side)
		}
	}
}

func TestPollerSharedDevice(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(time.Now())
	dev := &scriptedDevice{states: []DeviceState{pressed(1), pressed(1), pressed()}}
	col := &collector{}
	p, err := NewPoller(Config{Devices: []Device{dev}, Judges: 3, Clock: c, Handler: col.handle})
	if err != nil {
		t.Fatal(err)
	}
	p.Run(context.Background())
	defer p.Stop()

	if c.Active() != 1 {
		t.Fatalf("expected one loop for a shared controller got %d", c.Active())
	}
	for i := 0; i < 3; i++ {
		c.Tick()
	}

	col.mtx.Lock()
	defer col.mtx.Unlock()
	if len(col.events) != 1 {
		t.Fatalf("expected 1 event got %d", len(col.events))
	}
	if col.events[0].At.IsZero() {
		t.Error("event has no timestamp")
	}
	if p.Controllers() != 1 {
		t.Errorf("expected 1 controller got %d", p.Controllers())
	}
}

func TestPollerStopsOnDeviceError(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(time.Now())
	devices := []Device{
		&scriptedDevice{err: errors.New("unplugged")},
		&scriptedDevice{},
	}
	p, err := NewPoller(Config{Devices: devices, Judges: 2, Clock: c, Handler: func(bout.JudgeEvent) {}})
	if err != nil {
		t.Fatal(err)
	}
	p.Run(context.Background())
	defer p.Stop()

	c.Tick()
	if c.Active() != 1 {
		t.Errorf("expected the healthy loop only got %d", c.Active())
	}
}

func TestNewPollerRequiresDevices(t *testing.T) {
	t.Parallel()

	if _, err := NewPoller(Config{Handler: func(bout.JudgeEvent) {}}); !errors.Is(err, ErrNoDevices) {
		t.Errorf("expected ErrNoDevices got %v", err)
	}
}
