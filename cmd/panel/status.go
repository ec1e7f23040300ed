package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	onStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type device struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

type temperature struct {
	Temp    *int `json:"temp"`
	Target  int  `json:"target"`
	Cooling bool `json:"cooling"`
}

var client = &http.Client{Timeout: 5 * time.Second}

func request(api, path string, v interface{}) error {
	uri := fmt.Sprintf("%s/%s", strings.TrimSuffix(api, "/"), path)
	resp, err := client.Get(uri)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("%s: %s %s", uri, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func printStatus(w io.Writer, devices map[string]device, temp temperature) {
	ids := lo.Keys(devices)
	sort.Strings(ids)
	for _, id := range ids {
		d := devices[id]
		style := offStyle
		if d.State == "on" {
			style = onStyle
		}
		fmt.Fprintf(w, "%-8s %-12s %s\n", d.ID, d.Name, style.Render(d.State))
	}
	reading := "-"
	if temp.Temp != nil {
		reading = fmt.Sprintf("%d°C", *temp.Temp)
	}
	fmt.Fprintf(w, "temperature %s, setpoint %d°C, cooling %t\n", reading, temp.Target, temp.Cooling)
}

func newStatusCmd() *cobra.Command {
	var api string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show device states from a running slave",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if api == "" {
				return errors.New("set PANEL_URL or --url to the slave api url")
			}
			var devices map[string]device
			if err := request(api, "devices", &devices); err != nil {
				return err
			}
			var temp temperature
			if err := request(api, "temperature", &temp); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), devices, temp)
			return nil
		},
	}
	cmd.Flags().StringVar(&api, "url", os.Getenv("PANEL_URL"), "slave api url, e.g. http://localhost:8723")
	return cmd
}
