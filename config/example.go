package config

import "strings"

var ExampleYaml = `log_level: info
policy:
  pin_length: 4
  tries: 3
  admin_timeout: 6000
  guest_timeout: 3000
  tick: 10ms
  lockout_wait: 20s
  preview_delay: 500ms
  message_delay: 1s
master:
  keypad: terminal
  display: console
  storage: ~/.config/homepanel/eeprom.bin
  link:
    device: /dev/ttyUSB0
    baud: 9600
    settle: 1ms
slave:
  link:
    device: /dev/ttyUSB1
    baud: 9600
  sensor:
    address: tcp://192.168.1.50:502
    slave_id: 1
    register: 0
  scale:
    millivolts_per_step: 4.88
    millivolts_per_degree: 10
  sample_ticks: 10
  setpoint: 24
  devices:
    room1: Kitchen
    room2: Lounge
    room3: Bedroom
    room4: Study
endpoints:
  mqtt:
    broker: tcp://localhost:1883
  api: ":8723"
graphite:
  host: localhost
  prefix: homepanel
`

var ExampleConfig = Must(OpenReader(strings.NewReader(ExampleYaml)))

func Must(c *Config, err error) *Config {
	if err != nil {
		panic(err)
	}
	return c
}
