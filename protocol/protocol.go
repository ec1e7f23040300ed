// Package protocol defines the single byte command protocol spoken between the
// master panel and the slave actuator node.
//
// Every transfer exchanges one byte in each direction. Opcodes are partitioned
// by numeric range:
//
//	0x11-0x16  status query per device
//	0x21-0x26  turn on per device
//	0x31-0x36  turn off per device
//	0x40       set temperature, followed by one data byte 0-99
//	0xFE       status fetch filler (master side of the response transfer)
//	0xFF       idle / acknowledge
package protocol

import (
	"fmt"
	"strings"
)

// Opcode is a single byte on the master to slave link.
type Opcode byte

const (
	SetTemperature Opcode = 0x40
	// DemandResponse is clocked out by the master to fetch a status reply.
	DemandResponse Opcode = 0xFE
	// Idle is what either side sends when it has nothing to say.
	Idle Opcode = 0xFF

	statusBase  Opcode = 0x10
	turnOnBase  Opcode = 0x20
	turnOffBase Opcode = 0x30
)

// Response bytes for a status query.
const (
	OffStatus byte = 0x00
	OnStatus  byte = 0x01
)

// MaxTemperature is the largest setpoint expressible with two decimal digits.
const MaxTemperature = 99

// Device is the canonical code of an actuator on the slave.
type Device byte

const (
	Room1 Device = iota + 1
	Room2
	Room3
	Room4
	TV
	AirCond
)

// Devices lists every device in code order.
var Devices = []Device{Room1, Room2, Room3, Room4, TV, AirCond}

var deviceNames = map[Device]string{
	Room1:   "room1",
	Room2:   "room2",
	Room3:   "room3",
	Room4:   "room4",
	TV:      "tv",
	AirCond: "aircond",
}

var deviceLabels = map[Device]string{
	Room1:   "Room1",
	Room2:   "Room2",
	Room3:   "Room3",
	Room4:   "Room4",
	TV:      "TV",
	AirCond: "Air Cond.",
}

func (d Device) Valid() bool {
	return d >= Room1 && d <= AirCond
}

// String is the identifier used in config, events and the API.
func (d Device) String() string {
	if name, ok := deviceNames[d]; ok {
		return name
	}
	return fmt.Sprintf("device(%d)", byte(d))
}

// Label is the short name shown on the panel display.
func (d Device) Label() string {
	if label, ok := deviceLabels[d]; ok {
		return label
	}
	return d.String()
}

// ParseDevice looks a device up by identifier.
func ParseDevice(s string) (Device, error) {
	s = strings.ToLower(s)
	for dev, name := range deviceNames {
		if name == s {
			return dev, nil
		}
	}
	return 0, fmt.Errorf("unknown device: %s", s)
}

// Action is what a request asks the slave to do with a device.
type Action int

const (
	ActionNone Action = iota
	ActionStatus
	ActionTurnOn
	ActionTurnOff
	ActionSetTemperature
)

func (a Action) String() string {
	switch a {
	case ActionStatus:
		return "status"
	case ActionTurnOn:
		return "on"
	case ActionTurnOff:
		return "off"
	case ActionSetTemperature:
		return "set-temperature"
	}
	return "none"
}

// Encode maps a device action to its opcode. SetTemperature ignores dev.
func Encode(action Action, dev Device) (Opcode, error) {
	if action == ActionSetTemperature {
		return SetTemperature, nil
	}
	if !dev.Valid() {
		return Idle, fmt.Errorf("invalid device: %d", byte(dev))
	}
	switch action {
	case ActionStatus:
		return statusBase + Opcode(dev), nil
	case ActionTurnOn:
		return turnOnBase + Opcode(dev), nil
	case ActionTurnOff:
		return turnOffBase + Opcode(dev), nil
	}
	return Idle, fmt.Errorf("invalid action: %s", action)
}

// Decode classifies an opcode. Unknown bytes decode to ActionNone.
func (op Opcode) Decode() (Action, Device) {
	if op == SetTemperature {
		return ActionSetTemperature, 0
	}
	dev := Device(op & 0x0F)
	if !dev.Valid() {
		return ActionNone, 0
	}
	switch op & 0xF0 {
	case statusBase:
		return ActionStatus, dev
	case turnOnBase:
		return ActionTurnOn, dev
	case turnOffBase:
		return ActionTurnOff, dev
	}
	return ActionNone, 0
}

func (op Opcode) String() string {
	switch op {
	case Idle:
		return "idle"
	case DemandResponse:
		return "demand"
	}
	action, dev := op.Decode()
	switch action {
	case ActionNone:
		return fmt.Sprintf("unknown(0x%02x)", byte(op))
	case ActionSetTemperature:
		return action.String()
	}
	return fmt.Sprintf("%s/%s", dev, action)
}

// StatusByte encodes an on/off state for the status response.
func StatusByte(on bool) byte {
	if on {
		return OnStatus
	}
	return OffStatus
}
