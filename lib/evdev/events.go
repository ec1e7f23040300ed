package evdev

import (
	"syscall"
	"unsafe"
)

// Event types and values from linux/input-event-codes.h.
const (
	EvKey = 0x01

	KeyReleased = 0
	KeyPressed  = 1
	KeyRepeated = 2
)

type InputEvent struct {
	Time  syscall.Timeval // time in seconds since epoch at which event occurred
	Type  uint16          // event type - one of ecodes.EV_*
	Code  uint16          // event code related to the event type
	Value int32           // event value related to the event type
}

// IsKeyPress is true for the initial press of a key, ignoring release and
// autorepeat.
func (ev *InputEvent) IsKeyPress() bool {
	return ev.Type == EvKey && ev.Value == KeyPressed
}

var eventsize = int(unsafe.Sizeof(InputEvent{}))
