package master

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/lib/link"
	"github.com/barnybug/homepanel/protocol"
	"github.com/barnybug/homepanel/services/auth"
	"github.com/barnybug/homepanel/util"
)

// Dispatcher turns menu commands into opcodes on the link. It makes no
// retries: the protocol is unacknowledged and a repeated command could be
// applied twice.
type Dispatcher struct {
	// Settle is the gap left after every transfer for the slave to act.
	Settle time.Duration

	link  link.Link
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(l link.Link, settle time.Duration) (*Dispatcher, error) {
	if l == nil {
		return nil, errors.Wrap(auth.ErrMissingConfig, "link")
	}
	return &Dispatcher{Settle: settle, link: l, sleep: util.Sleep}, nil
}

func (self *Dispatcher) transfer(ctx context.Context, out byte) (byte, error) {
	in, err := self.link.Transfer(ctx, out)
	if err != nil {
		return 0, err
	}
	zap.S().Debugw("Transfer", "out", fmt.Sprintf("0x%02x", out), "in", fmt.Sprintf("0x%02x", in))
	return in, self.sleep(ctx, self.Settle)
}

func (self *Dispatcher) send(ctx context.Context, action protocol.Action, dev protocol.Device) error {
	op, err := protocol.Encode(action, dev)
	if err != nil {
		return errors.Wrap(auth.ErrInvalidInput, err.Error())
	}
	_, err = self.transfer(ctx, byte(op))
	return err
}

// Status asks the slave whether a device is on. The answer is fetched with a
// second transfer.
func (self *Dispatcher) Status(ctx context.Context, dev protocol.Device) (bool, error) {
	if err := self.send(ctx, protocol.ActionStatus, dev); err != nil {
		return false, err
	}
	in, err := self.transfer(ctx, byte(protocol.DemandResponse))
	if err != nil {
		return false, err
	}
	switch in {
	case protocol.OnStatus:
		return true, nil
	case protocol.OffStatus:
		return false, nil
	}
	zap.S().Warnw("Unexpected status", "device", dev, "response", fmt.Sprintf("0x%02x", in))
	return false, errors.Wrapf(link.ErrLink, "status of %s: unexpected response 0x%02x", dev, in)
}

func (self *Dispatcher) TurnOn(ctx context.Context, dev protocol.Device) error {
	return self.send(ctx, protocol.ActionTurnOn, dev)
}

func (self *Dispatcher) TurnOff(ctx context.Context, dev protocol.Device) error {
	return self.send(ctx, protocol.ActionTurnOff, dev)
}

// SetTemperature sends a new setpoint, 0 to 99 degrees.
func (self *Dispatcher) SetTemperature(ctx context.Context, value int) error {
	if value < 0 || value > protocol.MaxTemperature {
		return errors.Wrapf(auth.ErrInvalidInput, "temperature %d out of range", value)
	}
	if err := self.send(ctx, protocol.ActionSetTemperature, 0); err != nil {
		return err
	}
	_, err := self.transfer(ctx, byte(value))
	return err
}
