package judge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	jsEventButton = 0x01
	jsEventAxis   = 0x02
	jsEventInit   = 0x80

	// axes reported by the Linux joystick driver for the first hat switch
	defaultHatXAxis = 6
	defaultHatYAxis = 7

	hatThreshold = 16384
)

var ErrDeviceClosed = errors.New("device closed")

// jsEvent mirrors struct js_event from linux/joystick.h.
type jsEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

// OpenJoystick opens a Linux joystick device node such as /dev/input/js0.
func OpenJoystick(path string) (*Joystick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open joystick %s: %w", path, err)
	}
	return newJoystick(path, f), nil
}

func newJoystick(name string, r io.ReadCloser) *Joystick {
	j := &Joystick{
		name:  name,
		r:     r,
		hatX:  defaultHatXAxis,
		hatY:  defaultHatYAxis,
		done:  make(chan struct{}),
		state: DeviceState{Buttons: []bool{}},
	}
	go j.readLoop()
	return j
}

// Joystick keeps the latest state of a device from its event stream so it
// can be sampled at a fixed rate.
type Joystick struct {
	mtx   sync.Mutex
	name  string
	r     io.ReadCloser
	hatX  uint8
	hatY  uint8
	state DeviceState
	err   error
	done  chan struct{}
	once  sync.Once
}

func (j *Joystick) Name() string {
	return j.name
}

func (j *Joystick) Poll() (DeviceState, error) {
	j.mtx.Lock()
	defer j.mtx.Unlock()

	if j.err != nil {
		return DeviceState{}, j.err
	}
	buttons := make([]bool, len(j.state.Buttons))
	copy(buttons, j.state.Buttons)
	return DeviceState{Buttons: buttons, Hat: j.state.Hat}, nil
}

// Close releases the device, the read loop exits once its pending read fails.
func (j *Joystick) Close() error {
	var err error
	j.once.Do(func() {
		err = j.r.Close()
	})
	return err
}

func (j *Joystick) readLoop() {
	defer close(j.done)
	for {
		var evt jsEvent
		if err := binary.Read(j.r, binary.LittleEndian, &evt); err != nil {
			j.mtx.Lock()
			j.err = fmt.Errorf("read %s: %w", j.name, ErrDeviceClosed)
			j.mtx.Unlock()
			return
		}
		j.apply(evt)
	}
}

func (j *Joystick) apply(evt jsEvent) {
	j.mtx.Lock()
	defer j.mtx.Unlock()

	switch evt.Type &^ jsEventInit {
	case jsEventButton:
		n := int(evt.Number)
		for len(j.state.Buttons) <= n {
			j.state.Buttons = append(j.state.Buttons, false)
		}
		j.state.Buttons[n] = evt.Value != 0
	case jsEventAxis:
		switch evt.Number {
		case j.hatX:
			j.state.Hat.X = axisDirection(evt.Value)
		case j.hatY:
			// the driver reports up as negative
			j.state.Hat.Y = -axisDirection(evt.Value)
		}
	}
}

func axisDirection(v int16) int {
	switch {
	case v <= -hatThreshold:
		return -1
	case v >= hatThreshold:
		return 1
	}
	return 0
}
