package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/barnybug/homepanel/config"
	"github.com/barnybug/homepanel/pubsub"
	"github.com/barnybug/homepanel/pubsub/mqtt"
)

func describe(ev *pubsub.Event) string {
	at := ev.Timestamp.Local().Format("15:04:05")
	switch {
	case strings.HasPrefix(ev.Topic, "device/"):
		style := offStyle
		if ev.State() == "on" {
			style = onStyle
		}
		return fmt.Sprintf("%s device  %-8s %s", at, ev.Device(), style.Render(ev.State()))
	case ev.Topic == "temp":
		cooling := ""
		if ev.Fields["cooling"] == true {
			cooling = ", cooling"
		}
		return fmt.Sprintf("%s temp    %d°C, setpoint %d°C%s", at, ev.IntField("temp"), ev.IntField("target"), cooling)
	case ev.Topic == "session":
		return fmt.Sprintf("%s session %-8s %s", at, ev.StringField("role"), ev.StringField("state"))
	}
	return fmt.Sprintf("%s %s", at, ev)
}

// watch prints events until ctx is done.
func watch(ctx context.Context, w io.Writer, events <-chan *pubsub.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			fmt.Fprintln(w, describe(ev))
		}
	}
}

func newEventsCmd() *cobra.Command {
	var broker string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow the events panels publish to the broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if broker == "" {
				conf, err := config.Open()
				if err != nil {
					return err
				}
				broker = conf.Endpoints.Mqtt.Broker
			}
			if broker == "" {
				return errors.New("set PANEL_MQTT or --broker to the mqtt broker")
			}
			pub, err := mqtt.NewPublisher(broker)
			if err != nil {
				return err
			}
			defer pub.Close()
			events, err := pub.Subscribe()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			watch(ctx, cmd.OutOrStdout(), events)
			return nil
		},
	}
	cmd.Flags().StringVar(&broker, "broker", os.Getenv("PANEL_MQTT"), "mqtt broker, e.g. tcp://localhost:1883")
	return cmd
}
