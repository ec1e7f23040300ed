// Package evdev reads key events from a Linux input device, such as a USB
// numeric keypad wired to the master panel.
package evdev

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"syscall"
)

type InputDevice struct {
	devname string
	r       io.ReadCloser
	fd      uintptr
}

func Open(devname string) (*InputDevice, error) {
	f, err := os.Open(devname)
	if err != nil {
		return nil, err
	}
	return &InputDevice{devname: devname, r: f, fd: f.Fd()}, nil
}

// FromReader wraps a stream of raw input events. Grab is unsupported.
func FromReader(r io.ReadCloser) *InputDevice {
	return &InputDevice{devname: "reader", r: r}
}

func (self *InputDevice) Name() string {
	return self.devname
}

// Grab takes exclusive access so key presses don't reach the console too.
func (self *InputDevice) Grab() error {
	if self.fd == 0 {
		return syscall.ENOTTY
	}
	// taken from linux/input.h - hardcoded to avoid needing cgo.
	EVIOCGRAB := uintptr(0x40044590)
	_, _, errno := syscall.RawSyscall(syscall.SYS_IOCTL, self.fd, EVIOCGRAB, 1)
	if errno != 0 {
		return errno
	}
	return nil
}

func (self *InputDevice) ReadOne() (*InputEvent, error) {
	event := InputEvent{}
	buffer := make([]byte, eventsize)

	_, err := io.ReadFull(self.r, buffer)
	if err != nil {
		return &event, err
	}

	err = binary.Read(bytes.NewReader(buffer), binary.LittleEndian, &event)
	return &event, err
}

// NextKeyPress blocks until a key is pressed and returns its code.
func (self *InputDevice) NextKeyPress() (uint16, error) {
	for {
		ev, err := self.ReadOne()
		if err != nil {
			return 0, err
		}
		if ev.IsKeyPress() {
			return ev.Code, nil
		}
	}
}

func (self *InputDevice) Close() error {
	return self.r.Close()
}
