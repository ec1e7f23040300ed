package slave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barnybug/homepanel/lib/adc"
	"github.com/barnybug/homepanel/protocol"
	"github.com/barnybug/homepanel/pubsub/dummy"
)

type sample struct {
	path  string
	value float64
}

type fakeRecorder struct {
	samples []sample
	flushed int
}

func (self *fakeRecorder) Add(path string, at time.Time, value float64) error {
	self.samples = append(self.samples, sample{path, value})
	return nil
}

func (self *fakeRecorder) Flush() error {
	self.flushed++
	return nil
}

func newController(t *testing.T, raw uint16) (*Controller, *adc.Static, *dummy.Publisher) {
	pub := &dummy.Publisher{}
	registry, err := NewRegistry(nil, pub)
	require.NoError(t, err)
	sensor := adc.NewStatic(raw)
	c, err := NewController(registry, sensor, adc.LM35, 10, 24)
	require.NoError(t, err)
	return c, sensor, pub
}

func TestHysteresis(t *testing.T) {
	c, _, _ := newController(t, 0)
	aircond := func() bool { return c.registry.Get(protocol.AirCond) }

	assert.False(t, c.Apply(24))
	assert.True(t, c.Apply(25))
	// inside the band the line holds, however often it is sampled
	for i := 0; i < 5; i++ {
		assert.True(t, c.Apply(24))
	}
	assert.True(t, aircond())
	assert.False(t, c.Apply(23))
	for i := 0; i < 5; i++ {
		assert.False(t, c.Apply(24))
	}
	assert.False(t, c.Apply(0))
	assert.True(t, c.Apply(99))
}

func TestHysteresisFollowsSetpoint(t *testing.T) {
	c, _, _ := newController(t, 0)
	c.SetSetpoint(0)
	assert.Equal(t, 0, c.Setpoint())
	assert.True(t, c.Apply(1))
	assert.True(t, c.Apply(0))
	c.SetSetpoint(30)
	assert.False(t, c.Apply(29))
}

func TestSampleEveryTenTicks(t *testing.T) {
	c, _, pub := newController(t, adc.LM35.Raw(27))
	rec := &fakeRecorder{}
	c.Record(rec)

	for i := 0; i < 9; i++ {
		c.Tick()
	}
	_, sampled := c.Reading()
	assert.False(t, sampled)
	c.Tick()
	reading, sampled := c.Reading()
	assert.True(t, sampled)
	assert.Equal(t, 27, reading)
	assert.True(t, c.registry.Get(protocol.AirCond))
	assert.Equal(t, []sample{{"temperature", 27}}, rec.samples)

	for i := 0; i < 20; i++ {
		c.Tick()
	}
	assert.Len(t, rec.samples, 3)

	var temps int
	for _, ev := range pub.Events() {
		if ev.Topic == "temp" {
			temps++
			assert.Equal(t, 27, ev.Fields["temp"])
			assert.Equal(t, 24, ev.Fields["target"])
			assert.Equal(t, true, ev.Fields["cooling"])
		}
	}
	assert.Equal(t, 3, temps)
	assert.Equal(t, []string{"on"}, pub.States("device/aircond"))
}

func TestResetRestartsCount(t *testing.T) {
	c, _, _ := newController(t, adc.LM35.Raw(20))
	for i := 0; i < 9; i++ {
		c.Tick()
	}
	c.Reset()
	c.Tick()
	_, sampled := c.Reading()
	assert.False(t, sampled)
}

func TestRegistry(t *testing.T) {
	pub := &dummy.Publisher{}
	r, err := NewRegistry(map[string]string{"room1": "Kitchen", "TV": "Lounge TV"}, pub)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", r.Name(protocol.Room1))
	assert.Equal(t, "Lounge TV", r.Name(protocol.TV))
	assert.Equal(t, "Air Cond.", r.Name(protocol.AirCond))

	assert.True(t, r.Set(protocol.Room2, true))
	assert.False(t, r.Set(protocol.Room2, true))
	assert.True(t, r.Get(protocol.Room2))
	assert.False(t, r.Set(protocol.Device(9), true))
	assert.False(t, r.Get(protocol.Device(9)))
	assert.Equal(t, []string{"on"}, pub.States("device/room2"))

	_, err = NewRegistry(map[string]string{"garage": "Garage"}, nil)
	assert.Error(t, err)
}

func TestAtSetpointDrivesLineToLastCommand(t *testing.T) {
	c, _, _ := newController(t, adc.LM35.Raw(24))
	// switched on by hand, never commanded by the controller
	c.registry.Set(protocol.AirCond, true)
	require.NoError(t, c.Sample())
	assert.False(t, c.registry.Get(protocol.AirCond))

	assert.True(t, c.Apply(30))
	c.registry.Set(protocol.AirCond, false)
	assert.True(t, c.Apply(24))
	assert.True(t, c.registry.Get(protocol.AirCond))
}
