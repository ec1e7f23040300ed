// Package adc samples the temperature sensor on the slave panel.
package adc

import (
	"sync/atomic"
)

// Sampler returns one raw 10 bit conversion.
type Sampler interface {
	Sample() (uint16, error)
}

// Scale converts raw samples into degrees. The defaults suit an LM35 on a
// 5V reference: 4.88mV per step and 10mV per degree.
type Scale struct {
	MilliVoltsPerStep   float64 `yaml:"millivolts_per_step"`
	MilliVoltsPerDegree float64 `yaml:"millivolts_per_degree"`
}

var LM35 = Scale{MilliVoltsPerStep: 4.88, MilliVoltsPerDegree: 10}

// Degrees truncates to whole degrees, as the controller compares integers.
func (s Scale) Degrees(raw uint16) int {
	if s.MilliVoltsPerDegree == 0 {
		s = LM35
	}
	mv := int(float64(raw) * s.MilliVoltsPerStep)
	return mv / int(s.MilliVoltsPerDegree)
}

// Raw is the inverse of Degrees, rounded up so that Degrees(Raw(d)) == d.
func (s Scale) Raw(degrees int) uint16 {
	if s.MilliVoltsPerDegree == 0 {
		s = LM35
	}
	for raw := uint16(0); raw < 1024; raw++ {
		if s.Degrees(raw) >= degrees {
			return raw
		}
	}
	return 1023
}

// Static is a sensor whose value is set by hand, for tests and the simulator.
type Static struct {
	raw atomic.Uint32
}

func NewStatic(raw uint16) *Static {
	s := &Static{}
	s.Set(raw)
	return s
}

func (self *Static) Set(raw uint16) {
	self.raw.Store(uint32(raw))
}

func (self *Static) Sample() (uint16, error) {
	return uint16(self.raw.Load()), nil
}
