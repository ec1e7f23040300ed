package slave

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/protocol"
	"github.com/barnybug/homepanel/pubsub"
)

// Registry holds the output line of every device. Lines are read by the
// status API and the control loop while the command loop writes them, so each
// is a single atomic flag.
type Registry struct {
	lines     map[protocol.Device]*atomic.Bool
	names     map[protocol.Device]string
	publisher pubsub.Publisher
}

// NewRegistry creates every device switched off. names gives optional
// friendly names, keyed by device identifier.
func NewRegistry(names map[string]string, publisher pubsub.Publisher) (*Registry, error) {
	if publisher == nil {
		publisher = pubsub.Discard{}
	}
	self := &Registry{
		lines: lo.SliceToMap(protocol.Devices, func(dev protocol.Device) (protocol.Device, *atomic.Bool) {
			return dev, &atomic.Bool{}
		}),
		names:     map[protocol.Device]string{},
		publisher: publisher,
	}
	for id, name := range names {
		dev, err := protocol.ParseDevice(id)
		if err != nil {
			return nil, errors.Wrap(err, "slave.devices")
		}
		self.names[dev] = name
	}
	return self, nil
}

func (self *Registry) Get(dev protocol.Device) bool {
	line, ok := self.lines[dev]
	return ok && line.Load()
}

// Set drives a device line. A change of state is logged and published.
func (self *Registry) Set(dev protocol.Device, on bool) bool {
	line, ok := self.lines[dev]
	if !ok {
		return false
	}
	changed := line.Swap(on) != on
	if changed {
		zap.S().Infow("Device", "device", dev, "name", self.Name(dev), "on", on)
		self.publisher.Emit(pubsub.NewDevice(dev.String(), on))
	}
	return changed
}

// Name is the friendly name of a device, or its panel label.
func (self *Registry) Name(dev protocol.Device) string {
	if name, ok := self.names[dev]; ok {
		return name
	}
	return dev.Label()
}

// Snapshot returns the state of every device.
func (self *Registry) Snapshot() map[protocol.Device]bool {
	return lo.MapValues(self.lines, func(line *atomic.Bool, _ protocol.Device) bool {
		return line.Load()
	})
}
