package slave

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/lib/adc"
	"github.com/barnybug/homepanel/lib/graphite"
	"github.com/barnybug/homepanel/protocol"
	"github.com/barnybug/homepanel/pubsub"
)

// Controller is the air conditioning thermostat. It runs on the tick source
// while the air conditioning is switched on, sampling the sensor every
// SampleTicks ticks.
//
// A reading above the setpoint commands the air conditioning on, below
// commands it off, and at the setpoint the line is driven to the last command
// the controller gave, whatever was switched by hand in between.
type Controller struct {
	SampleTicks int

	registry  *Registry
	sampler   adc.Sampler
	scale     adc.Scale
	publisher pubsub.Publisher
	recorder  graphite.Recorder

	setpoint      atomic.Int32
	lastCommanded atomic.Bool
	ticks         atomic.Int32
	reading       atomic.Int32
	sampled       atomic.Bool
}

func NewController(registry *Registry, sampler adc.Sampler, scale adc.Scale, sampleTicks, setpoint int) (*Controller, error) {
	switch {
	case registry == nil:
		return nil, errors.Wrap(ErrMissingConfig, "device registry")
	case sampler == nil:
		return nil, errors.Wrap(ErrMissingConfig, "temperature sensor")
	}
	if sampleTicks < 1 {
		sampleTicks = 1
	}
	self := &Controller{
		SampleTicks: sampleTicks,
		registry:    registry,
		sampler:     sampler,
		scale:       scale,
		publisher:   registry.publisher,
		recorder:    graphite.Discard{},
	}
	self.setpoint.Store(int32(setpoint))
	return self, nil
}

// Record sends every sample to recorder.
func (self *Controller) Record(recorder graphite.Recorder) {
	self.recorder = recorder
}

func (self *Controller) Setpoint() int {
	return int(self.setpoint.Load())
}

func (self *Controller) SetSetpoint(value int) {
	old := self.setpoint.Swap(int32(value))
	zap.S().Infow("Setpoint", "from", old, "to", value)
}

// Reading is the last sampled temperature, if there has been one.
func (self *Controller) Reading() (int, bool) {
	return int(self.reading.Load()), self.sampled.Load()
}

// Reset restarts the sample count.
func (self *Controller) Reset() {
	self.ticks.Store(0)
}

// Tick is the tick handler.
func (self *Controller) Tick() {
	if self.ticks.Add(1) < int32(self.SampleTicks) {
		return
	}
	self.ticks.Store(0)
	if err := self.Sample(); err != nil {
		zap.S().Errorw("Sampling temperature", "error", err)
	}
}

// Sample reads the sensor once and applies the result.
func (self *Controller) Sample() error {
	raw, err := self.sampler.Sample()
	if err != nil {
		return err
	}
	reading := self.scale.Degrees(raw)
	self.reading.Store(int32(reading))
	self.sampled.Store(true)
	cooling := self.Apply(reading)

	setpoint := self.Setpoint()
	self.publisher.Emit(pubsub.NewTemperature(reading, setpoint, cooling))
	now := time.Now()
	if err := self.recorder.Add("temperature", now, float64(reading)); err != nil {
		zap.S().Warnw("Recording temperature", "error", err)
	}
	return nil
}

// Apply is one step of the three way hysteresis. It returns whether the air
// conditioning is now on.
func (self *Controller) Apply(reading int) bool {
	setpoint := self.Setpoint()
	switch {
	case reading >= setpoint+1:
		self.lastCommanded.Store(true)
	case reading <= setpoint-1:
		self.lastCommanded.Store(false)
	}
	on := self.lastCommanded.Load()
	self.registry.Set(protocol.AirCond, on)
	return on
}
