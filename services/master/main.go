// Package master is the keypad and display node: it logs users in and runs the
// control menu, sending commands to the slave over the link.
package master

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/config"
	"github.com/barnybug/homepanel/lib/eeprom"
	"github.com/barnybug/homepanel/lib/keypad"
	"github.com/barnybug/homepanel/lib/lcd"
	"github.com/barnybug/homepanel/lib/link"
	"github.com/barnybug/homepanel/lib/tick"
	"github.com/barnybug/homepanel/pubsub"
	"github.com/barnybug/homepanel/services"
	"github.com/barnybug/homepanel/services/auth"
	"github.com/barnybug/homepanel/services/menu"
	"github.com/barnybug/homepanel/util"
)

// Node is an assembled master panel.
type Node struct {
	Auth *auth.Authenticator
	Menu *menu.Navigator
}

// Parts are the collaborators a master node is built from.
type Parts struct {
	Policy    auth.Policy
	Memory    eeprom.Memory
	Keys      keypad.Source
	Display   lcd.Display
	Ticks     tick.Source
	Link      link.Link
	Settle    time.Duration
	Publisher pubsub.Publisher
}

func NewNode(parts Parts) (*Node, error) {
	store, err := auth.NewCredentials(parts.Memory, parts.Policy.PinLength)
	if err != nil {
		return nil, err
	}
	authenticator, err := auth.New(parts.Policy, store, parts.Keys, parts.Display, parts.Ticks, parts.Publisher)
	if err != nil {
		return nil, err
	}
	dispatcher, err := NewDispatcher(parts.Link, parts.Settle)
	if err != nil {
		return nil, err
	}
	navigator, err := menu.NewNavigator(menu.DefaultGraph(), authenticator, parts.Display, dispatcher, parts.Policy.MessageDelay)
	if err != nil {
		return nil, err
	}
	return &Node{Auth: authenticator, Menu: navigator}, nil
}

// Run boots the panel and then serves one session after another.
func (self *Node) Run(ctx context.Context) error {
	if err := self.Auth.Boot(ctx); err != nil {
		return err
	}
	for {
		session, err := self.Auth.Login(ctx)
		if err != nil {
			return err
		}
		if err := self.Menu.Run(ctx, session); err != nil {
			return err
		}
		if err := self.Auth.Logout(ctx); err != nil {
			return err
		}
	}
}

// Service master. Fields left nil are opened from the configuration.
type Service struct {
	Link    link.Link
	Keys    keypad.Source
	Display lcd.Display
	Memory  eeprom.Memory
}

func (self *Service) ID() string {
	return "master"
}

func openKeypad(name string) (keypad.Source, io.Closer, error) {
	if name == "terminal" {
		t, err := keypad.OpenTerminal()
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	}
	e, err := keypad.OpenEvdev(name)
	if err != nil {
		return nil, nil, err
	}
	return e, e, nil
}

func openDisplay(name string) (lcd.Display, error) {
	switch name {
	case "console":
		return lcd.NewConsole(os.Stdout), nil
	case "none":
		return lcd.NewScreen(), nil
	}
	return nil, errors.Errorf("unknown display: %s", name)
}

func (self *Service) open(conf *config.Config) (func(), error) {
	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}
	if self.Link == nil {
		if err := conf.ValidateMaster(); err != nil {
			return cleanup, err
		}
		port, err := link.OpenSerial(conf.Master.Link.Device, conf.Master.Link.Baud, link.Clock)
		if err != nil {
			return cleanup, err
		}
		closers = append(closers, port)
		self.Link = port
	}
	if self.Keys == nil {
		keys, closer, err := openKeypad(conf.Master.Keypad)
		if err != nil {
			return cleanup, errors.Wrap(err, "keypad")
		}
		closers = append(closers, closer)
		self.Keys = keys
	}
	if self.Display == nil {
		display, err := openDisplay(conf.Master.Display)
		if err != nil {
			return cleanup, err
		}
		self.Display = display
	}
	if self.Memory == nil {
		path := util.ExpandUser(conf.Master.Storage)
		file, err := eeprom.OpenFile(path)
		if err != nil {
			return cleanup, errors.Wrapf(err, "credential storage %s", path)
		}
		closers = append(closers, file)
		self.Memory = file
	}
	return cleanup, nil
}

func (self *Service) Run(ctx context.Context) error {
	conf := services.Config
	if conf == nil {
		return errors.Wrap(config.ErrMissingConfig, "master")
	}
	cleanup, err := self.open(conf)
	defer cleanup()
	if err != nil {
		return err
	}

	node, err := NewNode(Parts{
		Policy:    auth.PolicyFromConfig(conf.Policy),
		Memory:    self.Memory,
		Keys:      self.Keys,
		Display:   self.Display,
		Ticks:     tick.NewTicker(conf.Policy.Tick.Duration),
		Link:      self.Link,
		Settle:    conf.Master.Link.Settle.Duration,
		Publisher: services.Publisher,
	})
	if err != nil {
		return err
	}
	zap.S().Infow("Master ready", "keypad", conf.Master.Keypad, "display", conf.Master.Display)
	err = node.Run(ctx)
	if errors.Is(err, keypad.ErrClosed) {
		zap.S().Infow("Keypad closed")
		return nil
	}
	return err
}
