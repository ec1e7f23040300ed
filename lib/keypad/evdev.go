package keypad

import (
	"io"

	"github.com/barnybug/homepanel/lib/evdev"
	"go.uber.org/zap"
)

// linux key codes for the top row digits and the numeric keypad block.
var keyCodes = map[uint16]Key{
	2: Key1, 3: Key2, 4: Key3, 5: Key4, 6: Key5,
	7: Key6, 8: Key7, 9: Key8, 10: Key9, 11: Key0,
	12: KeyMinus, 13: KeyEquals, 28: KeyEquals,
	55: KeyMultiply, 74: KeyMinus, 78: KeyPlus, 83: KeyHash,
	96: KeyEquals, 98: KeyDivide,
	71: Key7, 72: Key8, 73: Key9,
	75: Key4, 76: Key5, 77: Key6,
	79: Key1, 80: Key2, 81: Key3, 82: Key0,
}

func convertKeyCode(code uint16) (Key, bool) {
	k, ok := keyCodes[code]
	return k, ok
}

// Evdev is a USB keypad read through the Linux input subsystem.
//
// Warning: this 'grabs' the configured input device exclusively, so no other
// consoles will receive input from it anymore.
type Evdev struct {
	dev *evdev.InputDevice
	ch  chan Key
}

func OpenEvdev(devname string) (*Evdev, error) {
	dev, err := evdev.Open(devname)
	if err != nil {
		return nil, err
	}
	if err := dev.Grab(); err != nil {
		dev.Close()
		return nil, err
	}
	return NewEvdev(dev), nil
}

// NewEvdev starts reading key presses from an already opened device.
func NewEvdev(dev *evdev.InputDevice) *Evdev {
	e := &Evdev{dev: dev, ch: make(chan Key, 16)}
	go e.run()
	return e
}

func (e *Evdev) run() {
	defer close(e.ch)
	for {
		code, err := e.dev.NextKeyPress()
		if err != nil {
			if err != io.EOF {
				zap.S().Warnw("Keypad read failed", "device", e.dev.Name(), "error", err)
			}
			return
		}
		if k, ok := convertKeyCode(code); ok {
			e.ch <- k
		}
	}
}

func (e *Evdev) Keys() <-chan Key {
	return e.ch
}

func (e *Evdev) Close() error {
	return e.dev.Close()
}
