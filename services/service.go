// Package services runs the long lived parts of a panel node: the master and
// slave control loops and the status API.
package services

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/barnybug/homepanel/config"
	"github.com/barnybug/homepanel/pubsub"
	"github.com/barnybug/homepanel/pubsub/mqtt"
)

// Service interface
type Service interface {
	ID() string
	Run(ctx context.Context) error
}

var serviceMap = map[string]Service{}

var Config *config.Config

// Publisher receives the events of every service. It discards them until
// SetupBroker connects a broker.
var Publisher pubsub.Publisher = pubsub.Discard{}

// SetupLogging installs the global zap logger at the given level.
func SetupLogging(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}
	conf := zap.NewProductionConfig()
	conf.Level = zap.NewAtomicLevelAt(lvl)
	conf.Encoding = "console"
	conf.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	conf.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	conf.OutputPaths = []string{"stdout"}
	conf.DisableStacktrace = true
	logger, err := conf.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// SetupBroker connects the event publisher when a broker is configured.
func SetupBroker() {
	url := Config.Endpoints.Mqtt.Broker
	if url == "" {
		zap.S().Infow("No mqtt broker configured, events are not published")
		return
	}
	pub, err := mqtt.NewPublisher(url)
	if err != nil {
		zap.S().Warnw("Broker unavailable, events are not published", "error", err)
		return
	}
	zap.S().Infow("Connected", "broker", url)
	Publisher = pub
}

func Register(service Service) {
	if _, exists := serviceMap[service.ID()]; exists {
		zap.S().Fatalw("Duplicate service registered", "service", service.ID())
	}
	serviceMap[service.ID()] = service
}

func Registered(id string) (Service, bool) {
	s, ok := serviceMap[id]
	return s, ok
}

// Launch runs the named services until one of them fails or ctx is done.
// The first failure cancels the others.
func Launch(ctx context.Context, ids []string) error {
	var enabled []Service
	for _, id := range ids {
		service, ok := serviceMap[id]
		if !ok {
			return errors.Errorf("service %s does not exist", id)
		}
		enabled = append(enabled, service)
	}
	return Run(ctx, enabled...)
}

// Run starts services directly, without registering them.
func Run(ctx context.Context, ss ...Service) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, service := range ss {
		service := service
		g.Go(func() error {
			zap.S().Infow("Starting", "service", service.ID(), "pid", os.Getpid())
			err := service.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrapf(err, "service %s", service.ID())
			}
			zap.S().Infow("Stopped", "service", service.ID())
			return nil
		})
	}
	return g.Wait()
}

func Shutdown() {
	if p, ok := Publisher.(*mqtt.Publisher); ok {
		p.Close()
	}
	zap.L().Sync()
}
