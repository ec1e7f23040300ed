// Package slave is the actuator node: it switches the device lines on command
// from the master and runs the air conditioning thermostat.
package slave

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/barnybug/homepanel/config"
	"github.com/barnybug/homepanel/lib/adc"
	"github.com/barnybug/homepanel/lib/graphite"
	"github.com/barnybug/homepanel/lib/link"
	"github.com/barnybug/homepanel/lib/tick"
	"github.com/barnybug/homepanel/pubsub"
	"github.com/barnybug/homepanel/services"
	"github.com/barnybug/homepanel/services/api"
)

// FlushInterval is how often buffered samples are sent to graphite.
var FlushInterval = time.Minute

// Node is an assembled slave.
type Node struct {
	Registry   *Registry
	Controller *Controller
	Dispatcher *Dispatcher
}

// Parts are the collaborators a slave node is built from.
type Parts struct {
	Link        link.Link
	Sensor      adc.Sampler
	Scale       adc.Scale
	Ticks       tick.Source
	SampleTicks int
	Setpoint    int
	Names       map[string]string
	Publisher   pubsub.Publisher
}

func NewNode(parts Parts) (*Node, error) {
	registry, err := NewRegistry(parts.Names, parts.Publisher)
	if err != nil {
		return nil, err
	}
	controller, err := NewController(registry, parts.Sensor, parts.Scale, parts.SampleTicks, parts.Setpoint)
	if err != nil {
		return nil, err
	}
	dispatcher, err := NewDispatcher(parts.Link, registry, controller, parts.Ticks)
	if err != nil {
		return nil, err
	}
	return &Node{Registry: registry, Controller: controller, Dispatcher: dispatcher}, nil
}

// Service slave. Fields left nil are opened from the configuration.
type Service struct {
	Link   link.Link
	Sensor adc.Sampler
}

func (self *Service) ID() string {
	return "slave"
}

func openSensor(conf config.SensorConf) (adc.Sampler, io.Closer, error) {
	if conf.Static != nil {
		return adc.NewStatic(*conf.Static), nil, nil
	}
	m, err := adc.OpenModbus(adc.ModbusConfig{
		Address:  conf.Address,
		SlaveId:  conf.Slave_Id,
		Register: conf.Register,
		Baud:     conf.Baud,
	})
	if err != nil {
		return nil, nil, err
	}
	return m, m, nil
}

func (self *Service) open(conf *config.Config) (func(), error) {
	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}
	if self.Link == nil {
		if err := conf.ValidateSlave(); err != nil {
			return cleanup, err
		}
		port, err := link.OpenSerial(conf.Slave.Link.Device, conf.Slave.Link.Baud, link.Follow)
		if err != nil {
			return cleanup, err
		}
		closers = append(closers, port)
		self.Link = port
	}
	if self.Sensor == nil {
		if conf.Slave.Sensor.Address == "" && conf.Slave.Sensor.Static == nil {
			return cleanup, errors.Wrap(config.ErrMissingConfig, "slave.sensor")
		}
		sensor, closer, err := openSensor(conf.Slave.Sensor)
		if err != nil {
			return cleanup, errors.Wrap(err, "sensor")
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		self.Sensor = sensor
	}
	return cleanup, nil
}

func (self *Service) Run(ctx context.Context) error {
	conf := services.Config
	if conf == nil {
		return errors.Wrap(config.ErrMissingConfig, "slave")
	}
	cleanup, err := self.open(conf)
	defer cleanup()
	if err != nil {
		return err
	}

	node, err := NewNode(Parts{
		Link:   self.Link,
		Sensor: self.Sensor,
		Scale: adc.Scale{
			MilliVoltsPerStep:   conf.Slave.Scale.Millivolts_Per_Step,
			MilliVoltsPerDegree: conf.Slave.Scale.Millivolts_Per_Degree,
		},
		Ticks:       tick.NewTicker(conf.Policy.Tick.Duration),
		SampleTicks: conf.Slave.Sample_Ticks,
		Setpoint:    conf.Slave.Setpoint,
		Names:       conf.Slave.Devices,
		Publisher:   services.Publisher,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	if conf.Graphite.Host != "" {
		gr := graphite.New(conf.Graphite.Host, conf.Graphite.Prefix)
		node.Controller.Record(gr)
		g.Go(func() error {
			flushLoop(ctx, gr)
			return nil
		})
	}
	if conf.Endpoints.Api != "" {
		server := api.New(conf.Endpoints.Api, node.Registry, node.Controller)
		g.Go(func() error {
			return server.Serve(ctx)
		})
	}
	g.Go(func() error {
		// the slave ends with its command loop
		defer cancel()
		zap.S().Infow("Slave ready", "setpoint", node.Controller.Setpoint())
		err := node.Dispatcher.Serve(ctx)
		if errors.Is(err, link.ErrClosed) {
			return nil
		}
		return err
	})
	return g.Wait()
}

func flushLoop(ctx context.Context, recorder graphite.Recorder) {
	t := time.NewTicker(FlushInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := recorder.Flush(); err != nil {
				zap.S().Warnw("Flushing to graphite", "error", err)
			}
		case <-ctx.Done():
			recorder.Flush()
			return
		}
	}
}
