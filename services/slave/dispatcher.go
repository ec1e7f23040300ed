package slave

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/config"
	"github.com/barnybug/homepanel/lib/link"
	"github.com/barnybug/homepanel/lib/tick"
	"github.com/barnybug/homepanel/protocol"
)

var ErrMissingConfig = config.ErrMissingConfig

// Dispatcher answers the master. It owns the link and the tick source, and
// starts the control loop when the air conditioning is switched on.
type Dispatcher struct {
	link       link.Link
	registry   *Registry
	controller *Controller
	ticks      tick.Source
	stopLoop   func()
	reply      byte
}

func NewDispatcher(l link.Link, registry *Registry, controller *Controller, ticks tick.Source) (*Dispatcher, error) {
	switch {
	case l == nil:
		return nil, errors.Wrap(ErrMissingConfig, "link")
	case registry == nil:
		return nil, errors.Wrap(ErrMissingConfig, "device registry")
	case controller == nil:
		return nil, errors.Wrap(ErrMissingConfig, "controller")
	case ticks == nil:
		return nil, errors.Wrap(ErrMissingConfig, "tick source")
	}
	return &Dispatcher{
		link:       l,
		registry:   registry,
		controller: controller,
		ticks:      ticks,
		reply:      byte(protocol.Idle),
	}, nil
}

// Serve runs the command loop until the link closes or ctx is done. A failed
// transfer is logged and the loop carries on.
func (self *Dispatcher) Serve(ctx context.Context) error {
	defer self.stop()
	for {
		in, err := self.link.Transfer(ctx, self.reply)
		self.reply = byte(protocol.Idle)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, link.ErrClosed) {
				zap.S().Infow("Link closed")
				return err
			}
			zap.S().Errorw("Link error", "error", err)
			continue
		}
		if err := self.Handle(ctx, protocol.Opcode(in)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, link.ErrClosed) {
				return err
			}
			zap.S().Errorw("Handling command", "opcode", protocol.Opcode(in), "error", err)
		}
	}
}

// Handle carries out one opcode. A status answer goes out on the next
// transfer.
func (self *Dispatcher) Handle(ctx context.Context, op protocol.Opcode) error {
	action, dev := op.Decode()
	switch action {
	case protocol.ActionStatus:
		on := self.registry.Get(dev)
		zap.S().Debugw("Status", "device", dev, "on", on)
		self.reply = protocol.StatusByte(on)
	case protocol.ActionTurnOn:
		self.registry.Set(dev, true)
		if dev == protocol.AirCond {
			self.start()
		}
	case protocol.ActionTurnOff:
		if dev == protocol.AirCond {
			// a sample in flight must not switch the line back on
			self.stop()
		}
		self.registry.Set(dev, false)
	case protocol.ActionSetTemperature:
		value, err := self.link.Transfer(ctx, byte(protocol.Idle))
		if err != nil {
			return err
		}
		if value > protocol.MaxTemperature {
			return errors.Errorf("setpoint %d out of range", value)
		}
		self.controller.SetSetpoint(int(value))
	default:
		if op != protocol.Idle && op != protocol.DemandResponse {
			zap.S().Warnw("Unknown opcode", "opcode", fmt.Sprintf("0x%02x", byte(op)))
		}
	}
	return nil
}

// Running reports whether the control loop is on the tick source.
func (self *Dispatcher) Running() bool {
	return self.stopLoop != nil
}

func (self *Dispatcher) start() {
	if self.stopLoop != nil {
		return
	}
	self.controller.Reset()
	stop, err := self.ticks.Subscribe(self.controller.Tick)
	if err != nil {
		zap.S().Errorw("Starting control loop", "error", err)
		return
	}
	self.stopLoop = stop
	zap.S().Infow("Control loop started", "setpoint", self.controller.Setpoint())
}

func (self *Dispatcher) stop() {
	if self.stopLoop == nil {
		return
	}
	self.stopLoop()
	self.stopLoop = nil
	zap.S().Infow("Control loop stopped")
}
