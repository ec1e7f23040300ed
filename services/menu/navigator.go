// Package menu is the control menu shown once a session has started. Keys
// move between screens, and device screens drive the slave through a
// Dispatcher until the session runs out.
package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/lib/keypad"
	"github.com/barnybug/homepanel/lib/lcd"
	"github.com/barnybug/homepanel/lib/link"
	"github.com/barnybug/homepanel/protocol"
	"github.com/barnybug/homepanel/services/auth"
	"github.com/barnybug/homepanel/util"
)

// KeyReader delivers keys for the live session, failing with
// auth.ErrSessionExpired once it has timed out.
type KeyReader interface {
	Key(ctx context.Context) (keypad.Key, error)
}

// Dispatcher carries menu commands to the slave.
type Dispatcher interface {
	Status(ctx context.Context, dev protocol.Device) (bool, error)
	TurnOn(ctx context.Context, dev protocol.Device) error
	TurnOff(ctx context.Context, dev protocol.Device) error
	SetTemperature(ctx context.Context, value int) error
}

// column of the tens digit on the temperature prompt
const tempColumn = 10

type Navigator struct {
	MessageDelay time.Duration

	graph      *Graph
	keys       KeyReader
	display    lcd.Display
	dispatcher Dispatcher
	node       Node
	role       auth.Role

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewNavigator(graph *Graph, keys KeyReader, display lcd.Display, dispatcher Dispatcher, messageDelay time.Duration) (*Navigator, error) {
	switch {
	case graph == nil:
		return nil, errors.Wrap(auth.ErrMissingConfig, "menu graph")
	case keys == nil:
		return nil, errors.Wrap(auth.ErrMissingConfig, "key reader")
	case display == nil:
		return nil, errors.Wrap(auth.ErrMissingConfig, "display")
	case dispatcher == nil:
		return nil, errors.Wrap(auth.ErrMissingConfig, "dispatcher")
	}
	return &Navigator{
		MessageDelay: messageDelay,
		graph:        graph,
		keys:         keys,
		display:      display,
		dispatcher:   dispatcher,
		node:         Main,
		sleep:        util.Sleep,
	}, nil
}

// Node is the screen currently shown.
func (self *Navigator) Node() Node {
	return self.node
}

// Run drives the menu for a session, starting at the main screen. It returns
// nil when the session expires.
func (self *Navigator) Run(ctx context.Context, session *auth.Session) error {
	if session == nil || session.Role == auth.RoleNone {
		return auth.ErrSessionExpired
	}
	self.role = session.Role
	self.node = Main
	err := self.loop(ctx)
	if errors.Is(err, auth.ErrSessionExpired) {
		zap.S().Infow("Menu abandoned", "role", self.role, "node", self.node)
		return nil
	}
	return err
}

func (self *Navigator) loop(ctx context.Context) error {
	for {
		line1, line2 := Prompt(self.node, self.role)
		self.show(line1, line2)
		k, err := self.keys.Key(ctx)
		if err != nil {
			return err
		}
		to, action, ok := self.graph.Step(self.node, self.role, k)
		if !ok {
			zap.S().Debugw("Wrong menu key", "node", self.node, "key", k)
			if err := self.wrongInput(ctx); err != nil {
				return err
			}
			continue
		}
		if action != "" {
			if err := self.perform(ctx, action); err != nil {
				return err
			}
		}
		self.node = to
	}
}

// Prompt is the two line screen for a node.
func Prompt(node Node, role auth.Role) (string, string) {
	switch node {
	case Main:
		if role == auth.Admin {
			return "1:Room1 2:Room2", "3:Room3 4:More"
		}
		return "1:Room1 2:Room2", "3:Room3 4:Room4"
	case More:
		return "1:Room4 2:TV", "3:Air Cond.4:RET"
	case AirCond:
		return "1:Set temp.", "2:Control  0:RET"
	}
	return string(node), ""
}

func (self *Navigator) perform(ctx context.Context, action string) error {
	if action == ActionTemperature {
		return self.temperature(ctx)
	}
	dev, err := protocol.ParseDevice(action)
	if err != nil {
		return errors.Wrapf(auth.ErrInvalidInput, "menu action %q", action)
	}
	return self.device(ctx, dev)
}

func (self *Navigator) show(line1, line2 string) {
	self.display.Clear()
	self.display.Print(0, 0, line1)
	if line2 != "" {
		self.display.Print(1, 0, line2)
	}
}

func (self *Navigator) message(ctx context.Context, line1, line2 string) error {
	self.show(line1, line2)
	return self.sleep(ctx, self.MessageDelay)
}

func (self *Navigator) wrongInput(ctx context.Context) error {
	return self.message(ctx, "Wrong input", "")
}

// linkFailure reports a failed exchange with the slave. The session carries
// on.
func (self *Navigator) linkFailure(ctx context.Context, dev fmt.Stringer, err error) error {
	if !errors.Is(err, link.ErrLink) && !errors.Is(err, link.ErrClosed) {
		return err
	}
	zap.S().Errorw("Link failed", "device", dev, "error", err)
	return self.message(ctx, "Link error", "")
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// device runs the on/off dialog for one device. It always ends back on the
// node that opened it.
func (self *Navigator) device(ctx context.Context, dev protocol.Device) error {
	for {
		on, err := self.dispatcher.Status(ctx, dev)
		if err != nil {
			return self.linkFailure(ctx, dev, err)
		}
		self.show(fmt.Sprintf("%s S:%s", dev.Label(), onOff(on)), "1-On 2-Off 0-RET")
		k, err := self.keys.Key(ctx)
		if err != nil {
			return err
		}
		switch k {
		case keypad.Key1:
			err = self.dispatcher.TurnOn(ctx, dev)
		case keypad.Key2:
			err = self.dispatcher.TurnOff(ctx, dev)
		case keypad.Key0:
			return nil
		default:
			if err := self.wrongInput(ctx); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return self.linkFailure(ctx, dev, err)
		}
		zap.S().Infow("Device switched", "device", dev, "on", k == keypad.Key1, "role", self.role)
		return nil
	}
}

func tempPrompt(entered string) string {
	return "Set temp.:" + entered + strings.Repeat("_", 2-len(entered)) + "°C"
}

// temperature collects a two digit setpoint and sends it. A key that is not a
// digit re-prompts for that digit only.
func (self *Navigator) temperature(ctx context.Context) error {
	entered := ""
	self.show(tempPrompt(entered), "")
	for len(entered) < 2 {
		k, err := self.keys.Key(ctx)
		if err != nil {
			return err
		}
		if !k.IsDigit() {
			if err := self.wrongInput(ctx); err != nil {
				return err
			}
			self.show(tempPrompt(entered), "")
			continue
		}
		self.display.Print(0, tempColumn+len(entered), k.String())
		entered += k.String()
	}
	tens, _ := keypad.Key(entered[0]).Digit()
	ones, _ := keypad.Key(entered[1]).Digit()
	value := tens*10 + ones
	if err := self.dispatcher.SetTemperature(ctx, value); err != nil {
		return self.linkFailure(ctx, protocol.AirCond, err)
	}
	zap.S().Infow("Setpoint sent", "setpoint", value, "role", self.role)
	return self.message(ctx, "Temperature Sent", "")
}
