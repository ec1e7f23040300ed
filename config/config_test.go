package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var yml = `
policy:
  admin_timeout: 100
  lockout_wait: 1m 30s
slave:
  sensor:
    static: 50
`

func ExampleOpenRaw() {
	config, _ := OpenRaw([]byte(yml))
	fmt.Println(config.Policy.Admin_Timeout, config.Policy.Guest_Timeout)
	fmt.Println(config.Policy.Lockout_Wait.Duration)
	fmt.Println(*config.Slave.Sensor.Static)
	// Output:
	// 100 3000
	// 1m30s
	// 50
}

func TestExampleConfig(t *testing.T) {
	c := ExampleConfig
	assert.Equal(t, 4, c.Policy.Pin_Length)
	assert.Equal(t, 10*time.Millisecond, c.Policy.Tick.Duration)
	assert.Equal(t, "/dev/ttyUSB0", c.Master.Link.Device)
	assert.Equal(t, byte(1), c.Slave.Sensor.Slave_Id)
	assert.Equal(t, "Kitchen", c.Slave.Devices["room1"])
	assert.Equal(t, "tcp://localhost:1883", c.Endpoints.Mqtt.Broker)
	assert.NoError(t, c.ValidateMaster())
	assert.NoError(t, c.ValidateSlave())
}

func TestDefaults(t *testing.T) {
	c, err := OpenRaw([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Policy.Tries)
	assert.Equal(t, 6000, c.Policy.Admin_Timeout)
	assert.Equal(t, 20*time.Second, c.Policy.Lockout_Wait.Duration)
	assert.Equal(t, 24, c.Slave.Setpoint)
	assert.Equal(t, 10, c.Slave.Sample_Ticks)
	assert.Equal(t, 4.88, c.Slave.Scale.Millivolts_Per_Step)
	assert.Equal(t, "info", c.Log_Level)

	assert.True(t, errors.Is(c.ValidateMaster(), ErrMissingConfig))
	assert.True(t, errors.Is(c.ValidateSlave(), ErrMissingConfig))
}

func TestBadDuration(t *testing.T) {
	_, err := OpenRaw([]byte("policy:\n  tick: often\n"))
	assert.Error(t, err)
}

func TestOpenEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "panel.yml")
	require.NoError(t, os.WriteFile(p, []byte(ExampleYaml), 0o644))
	t.Setenv("PANEL_CONFIG", p)
	t.Setenv("PANEL_MQTT", "tcp://broker:1883")
	t.Setenv("PANEL_LOG_LEVEL", "debug")

	c, err := Open()
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker:1883", c.Endpoints.Mqtt.Broker)
	assert.Equal(t, "debug", c.Log_Level)
	assert.Equal(t, ":8723", c.Endpoints.Api)
}

func TestOpenMissing(t *testing.T) {
	t.Setenv("PANEL_CONFIG", filepath.Join(t.TempDir(), "nope.yml"))
	_, err := Open()
	assert.True(t, errors.Is(err, ErrMissingConfig))
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg")
	assert.Equal(t, "/etc/xdg/homepanel/panel.yml", ConfigPath("panel.yml"))
}
