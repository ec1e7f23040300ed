package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/barnybug/homepanel/config"
	"github.com/barnybug/homepanel/lib/adc"
	"github.com/barnybug/homepanel/lib/eeprom"
	"github.com/barnybug/homepanel/lib/keypad"
	"github.com/barnybug/homepanel/lib/lcd"
	"github.com/barnybug/homepanel/lib/link"
	"github.com/barnybug/homepanel/services"
	"github.com/barnybug/homepanel/services/master"
	"github.com/barnybug/homepanel/services/slave"
	"github.com/barnybug/homepanel/util"
)

// lead ends the simulation when the wrapped service stops.
type lead struct {
	services.Service
	cancel context.CancelFunc
}

func (self lead) Run(ctx context.Context) error {
	defer self.cancel()
	return self.Service.Run(ctx)
}

// simConfig is the configuration file if there is one, or the example
// configuration with every outside connection removed.
func simConfig() (*config.Config, error) {
	conf, err := config.Open()
	if err == nil {
		return conf, nil
	}
	if !errors.Is(err, config.ErrMissingConfig) {
		return nil, err
	}
	example := *config.ExampleConfig
	example.Endpoints = config.EndpointsConf{}
	example.Graphite = config.GraphiteConf{}
	return &example, nil
}

func newSimCmd() *cobra.Command {
	var (
		temperature int
		storage     string
	)
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run master and slave together on this console",
		Long: `Run master and slave together on this console.

The keyboard is the keypad (0-9, * and #) and the panel is drawn on the
terminal. The slave reads a fixed temperature. Press ctrl-c to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := simConfig()
			if err != nil {
				return err
			}
			if logLevel == "" {
				// logs would scroll the panel away
				conf.Log_Level = "error"
			}
			if err := start(conf); err != nil {
				return err
			}
			defer services.Shutdown()

			var mem eeprom.Memory = eeprom.NewMem()
			if storage != "" {
				file, err := eeprom.OpenFile(util.ExpandUser(storage))
				if err != nil {
					return err
				}
				defer file.Close()
				mem = file
			}
			keys, err := keypad.OpenTerminal()
			if err != nil {
				return err
			}
			defer keys.Close()

			masterEnd, slaveEnd := link.Pipe()
			defer link.Close(masterEnd)

			ctx, stop := signalContext()
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			return services.Run(ctx,
				lead{
					Service: &master.Service{Link: masterEnd, Keys: keys, Display: lcd.NewConsole(os.Stdout), Memory: mem},
					cancel:  cancel,
				},
				&slave.Service{Link: slaveEnd, Sensor: adc.NewStatic(adc.LM35.Raw(temperature))},
			)
		},
	}
	cmd.Flags().IntVar(&temperature, "temp", 24, "room temperature read by the slave")
	cmd.Flags().StringVar(&storage, "storage", "", "credential storage image, kept in memory when empty")
	return cmd
}
