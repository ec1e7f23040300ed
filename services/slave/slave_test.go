package slave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barnybug/homepanel/lib/adc"
	"github.com/barnybug/homepanel/lib/link"
	"github.com/barnybug/homepanel/lib/tick"
	"github.com/barnybug/homepanel/protocol"
	"github.com/barnybug/homepanel/pubsub/dummy"
)

type harness struct {
	node   *Node
	master link.Link
	ticks  *tick.Manual
	sensor *adc.Static
	pub    *dummy.Publisher
	done   chan error
}

func newHarness(t *testing.T) *harness {
	master, slave := link.Pipe()
	h := &harness{
		master: master,
		ticks:  &tick.Manual{},
		sensor: adc.NewStatic(adc.LM35.Raw(24)),
		pub:    &dummy.Publisher{},
		done:   make(chan error, 1),
	}
	var err error
	h.node, err = NewNode(Parts{
		Link:        slave,
		Sensor:      h.sensor,
		Scale:       adc.LM35,
		Ticks:       h.ticks,
		SampleTicks: 10,
		Setpoint:    24,
		Names:       map[string]string{"room1": "Kitchen"},
		Publisher:   h.pub,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		h.done <- h.node.Dispatcher.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *harness) transfer(t *testing.T, out byte) byte {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	in, err := h.master.Transfer(ctx, out)
	require.NoError(t, err)
	return in
}

func (h *harness) status(t *testing.T, dev protocol.Device) byte {
	op, _ := protocol.Encode(protocol.ActionStatus, dev)
	assert.Equal(t, byte(protocol.Idle), h.transfer(t, byte(op)))
	return h.transfer(t, byte(protocol.DemandResponse))
}

func (h *harness) send(t *testing.T, action protocol.Action, dev protocol.Device) {
	op, _ := protocol.Encode(action, dev)
	h.transfer(t, byte(op))
	// the next exchange only starts once the command has been handled
	h.transfer(t, byte(protocol.Idle))
}

func TestStatusFollowsTurnOn(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, byte(0x00), h.status(t, protocol.Room1))

	assert.Equal(t, byte(protocol.Idle), h.transfer(t, 0x21))
	assert.Equal(t, byte(0x01), h.status(t, protocol.Room1))
	assert.Equal(t, byte(0x00), h.status(t, protocol.Room2))

	h.send(t, protocol.ActionTurnOff, protocol.Room1)
	assert.Equal(t, byte(0x00), h.status(t, protocol.Room1))
	assert.Equal(t, []string{"on", "off"}, h.pub.States("device/room1"))
}

func TestEveryDevice(t *testing.T) {
	h := newHarness(t)
	for _, dev := range protocol.Devices {
		if dev == protocol.AirCond {
			continue
		}
		h.send(t, protocol.ActionTurnOn, dev)
		assert.Equal(t, protocol.OnStatus, h.status(t, dev), dev.String())
	}
	snapshot := h.node.Registry.Snapshot()
	assert.Len(t, snapshot, len(protocol.Devices))
	assert.False(t, snapshot[protocol.AirCond])
	assert.True(t, snapshot[protocol.TV])
}

func TestAirCondStartsControlLoop(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.ticks.Subscribed())

	h.send(t, protocol.ActionTurnOn, protocol.AirCond)
	assert.True(t, h.ticks.Subscribed())
	assert.True(t, h.node.Registry.Get(protocol.AirCond))

	// a second turn on leaves the running loop alone
	h.send(t, protocol.ActionTurnOn, protocol.AirCond)
	assert.True(t, h.ticks.Subscribed())

	// cold: the loop switches the air conditioning off
	h.sensor.Set(adc.LM35.Raw(20))
	h.ticks.Tick(9)
	_, sampled := h.node.Controller.Reading()
	assert.False(t, sampled)
	h.ticks.Tick(1)
	reading, sampled := h.node.Controller.Reading()
	assert.True(t, sampled)
	assert.Equal(t, 20, reading)
	assert.Equal(t, protocol.OffStatus, h.status(t, protocol.AirCond))

	// hot: back on
	h.sensor.Set(adc.LM35.Raw(30))
	h.ticks.Tick(10)
	assert.Equal(t, protocol.OnStatus, h.status(t, protocol.AirCond))

	h.send(t, protocol.ActionTurnOff, protocol.AirCond)
	assert.False(t, h.ticks.Subscribed())
	assert.False(t, h.node.Registry.Get(protocol.AirCond))

	temps := 0
	for _, ev := range h.pub.Events() {
		if ev.Topic == "temp" {
			temps++
		}
	}
	assert.Equal(t, 2, temps)
}

func TestSetTemperature(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, byte(protocol.Idle), h.transfer(t, byte(protocol.SetTemperature)))
	h.transfer(t, 37)
	h.transfer(t, byte(protocol.Idle))
	assert.Equal(t, 37, h.node.Controller.Setpoint())

	// out of range values are dropped
	h.transfer(t, byte(protocol.SetTemperature))
	h.transfer(t, 120)
	h.transfer(t, byte(protocol.Idle))
	assert.Equal(t, 37, h.node.Controller.Setpoint())
}

func TestUnknownOpcode(t *testing.T) {
	h := newHarness(t)
	h.transfer(t, 0x77)
	h.transfer(t, 0x17)
	assert.Equal(t, byte(0x00), h.status(t, protocol.Room1))
	assert.Empty(t, h.pub.Events())
}

func TestLinkClosed(t *testing.T) {
	master, slave := link.Pipe()
	node, err := NewNode(Parts{Link: slave, Sensor: adc.NewStatic(0), Ticks: &tick.Manual{}})
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		done <- node.Dispatcher.Serve(context.Background())
	}()
	link.Close(master)
	select {
	case err := <-done:
		assert.Equal(t, link.ErrClosed, err)
	case <-time.After(time.Second):
		t.Fatal("serve did not end")
	}
}

type flakyLink struct {
	link.Link
	failures int
}

func (self *flakyLink) Transfer(ctx context.Context, out byte) (byte, error) {
	if self.failures > 0 {
		self.failures--
		return 0, link.ErrLink
	}
	return self.Link.Transfer(ctx, out)
}

func TestLinkErrorContinues(t *testing.T) {
	master, slave := link.Pipe()
	node, err := NewNode(Parts{Link: &flakyLink{Link: slave, failures: 3}, Sensor: adc.NewStatic(0), Ticks: &tick.Manual{}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- node.Dispatcher.Serve(ctx)
	}()
	in, err := master.Transfer(ctx, 0x23)
	require.NoError(t, err)
	assert.Equal(t, byte(protocol.Idle), in)
	_, err = master.Transfer(ctx, byte(protocol.Idle))
	require.NoError(t, err)
	assert.True(t, node.Registry.Get(protocol.Room3))
	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))
}

func TestNewNodeMissingParts(t *testing.T) {
	_, err := NewNode(Parts{Sensor: adc.NewStatic(0), Ticks: &tick.Manual{}})
	assert.ErrorIs(t, err, ErrMissingConfig)
	_, slave := link.Pipe()
	_, err = NewNode(Parts{Link: slave, Ticks: &tick.Manual{}})
	assert.ErrorIs(t, err, ErrMissingConfig)
	_, err = NewNode(Parts{Link: slave, Sensor: adc.NewStatic(0)})
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestAtSetpointFollowsLastCommand(t *testing.T) {
	h := newHarness(t)
	// the sensor reads exactly the setpoint and the controller has not
	// commanded cooling, so the first sample switches the line back off
	h.send(t, protocol.ActionTurnOn, protocol.AirCond)
	assert.Equal(t, protocol.OnStatus, h.status(t, protocol.AirCond))
	h.ticks.Tick(10)
	assert.Equal(t, protocol.OffStatus, h.status(t, protocol.AirCond))
	assert.True(t, h.ticks.Subscribed())

	h.sensor.Set(adc.LM35.Raw(26))
	h.ticks.Tick(10)
	h.sensor.Set(adc.LM35.Raw(24))
	h.ticks.Tick(10)
	assert.Equal(t, protocol.OnStatus, h.status(t, protocol.AirCond))
}

type slowSensor struct {
	raw   uint16
	delay time.Duration
}

func (self slowSensor) Sample() (uint16, error) {
	time.Sleep(self.delay)
	return self.raw, nil
}

func TestTurnOffWinsOverSampleInFlight(t *testing.T) {
	_, end := link.Pipe()
	node, err := NewNode(Parts{
		Link:        end,
		Sensor:      slowSensor{raw: adc.LM35.Raw(40), delay: 50 * time.Millisecond},
		Scale:       adc.LM35,
		Ticks:       tick.NewTicker(time.Millisecond),
		SampleTicks: 1,
		Setpoint:    24,
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, node.Dispatcher.Handle(ctx, 0x26))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, node.Dispatcher.Handle(ctx, 0x36))
	assert.False(t, node.Dispatcher.Running())
	assert.False(t, node.Registry.Get(protocol.AirCond))
	time.Sleep(100 * time.Millisecond)
	assert.False(t, node.Registry.Get(protocol.AirCond), "air conditioning switched back on after turn off")
}
