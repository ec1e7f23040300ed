package protocol

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeRanges(t *testing.T) {
	for _, dev := range Devices {
		op, err := Encode(ActionStatus, dev)
		assert.NoError(t, err)
		assert.Equal(t, Opcode(0x10+byte(dev)), op)

		op, err = Encode(ActionTurnOn, dev)
		assert.NoError(t, err)
		assert.Equal(t, Opcode(0x20+byte(dev)), op)

		op, err = Encode(ActionTurnOff, dev)
		assert.NoError(t, err)
		assert.Equal(t, Opcode(0x30+byte(dev)), op)
	}
}

func TestEncodeInvalid(t *testing.T) {
	_, err := Encode(ActionTurnOn, Device(9))
	assert.Error(t, err)
	_, err = Encode(ActionNone, Room1)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	action, dev := Opcode(0x11).Decode()
	assert.Equal(t, ActionStatus, action)
	assert.Equal(t, Room1, dev)

	action, dev = Opcode(0x26).Decode()
	assert.Equal(t, ActionTurnOn, action)
	assert.Equal(t, AirCond, dev)

	action, _ = SetTemperature.Decode()
	assert.Equal(t, ActionSetTemperature, action)

	for _, op := range []Opcode{Idle, DemandResponse, 0x00, 0x17, 0x41, 0x10} {
		action, _ := op.Decode()
		assert.Equal(t, ActionNone, action, "opcode %s", op)
	}
}

func TestSentinelsDistinct(t *testing.T) {
	assert.NotEqual(t, Idle, DemandResponse)
	for _, op := range []Opcode{Idle, DemandResponse} {
		action, _ := op.Decode()
		assert.Equal(t, ActionNone, action)
	}
}

func TestParseDevice(t *testing.T) {
	dev, err := ParseDevice("AirCond")
	assert.NoError(t, err)
	assert.Equal(t, AirCond, dev)
	_, err = ParseDevice("garage")
	assert.Error(t, err)
}

func ExampleOpcode_String() {
	fmt.Println(Opcode(0x11))
	fmt.Println(Opcode(0x35))
	fmt.Println(SetTemperature)
	fmt.Println(Idle)
	fmt.Println(Opcode(0x99))
	// Output:
	// room1/status
	// tv/off
	// set-temperature
	// idle
	// unknown(0x99)
}
