// Command panel runs the nodes of the home control panel: the master with its
// keypad and display, the slave driving the device lines, or both together in
// one process as a simulator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/config"
	"github.com/barnybug/homepanel/lib/eeprom"
	"github.com/barnybug/homepanel/services"
	"github.com/barnybug/homepanel/services/master"
	"github.com/barnybug/homepanel/services/slave"
	"github.com/barnybug/homepanel/util"
)

var logLevel string

func registerServices() {
	services.Register(&master.Service{})
	services.Register(&slave.Service{})
}

// setup loads the configuration and starts logging and the broker.
func setup() error {
	conf, err := config.Open()
	if err != nil {
		return err
	}
	return start(conf)
}

func start(conf *config.Config) error {
	services.Config = conf
	level := conf.Log_Level
	if logLevel != "" {
		level = logLevel
	}
	if err := services.SetupLogging(level); err != nil {
		return err
	}
	services.SetupBroker()
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func launch(ids ...string) error {
	if err := setup(); err != nil {
		return err
	}
	defer services.Shutdown()
	registerServices()
	ctx, cancel := signalContext()
	defer cancel()
	return services.Launch(ctx, ids)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "panel",
		Short:         "Home control panel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overriding the configuration")

	root.AddCommand(&cobra.Command{
		Use:   "master",
		Short: "Run the keypad and display node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return launch("master")
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "slave",
		Short: "Run the device node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return launch("slave")
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "run SERVICE...",
		Short: "Run services by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return launch(args...)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print an example configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.ExampleYaml)
		},
	})
	root.AddCommand(newResetCmd(), newSimCmd(), newStatusCmd(), newEventsCmd())
	return root
}

func newResetCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase the stored passwords, so the panel boots as new",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				conf, err := config.Open()
				if err != nil {
					return err
				}
				path = conf.Master.Storage
			}
			path = util.ExpandUser(path)
			if err := eeprom.Erase(path); err != nil {
				return errors.Wrapf(err, "erasing %s", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Erased %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "storage", "", "credential storage image, default from the configuration")
	return cmd
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		zap.L().Sync()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
