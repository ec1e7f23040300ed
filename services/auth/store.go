package auth

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/lib/eeprom"
)

// Credential layout in the panel EEPROM.
const (
	AdminStatusAddr uint16 = 0x10
	GuestStatusAddr uint16 = 0x11
	AdminPinAddr    uint16 = 0x12
	GuestPinAddr    uint16 = 0x16
	LockAddr        uint16 = 0x28

	// MaxPinLength is the size of a PIN block.
	MaxPinLength = 4

	passSet    byte = 0x01
	lockedFlag byte = 0x01
	writeTries      = 3
)

// Credentials is the persistent store of both PIN records and the lockout
// flag. It does no caching; every call goes to memory.
type Credentials struct {
	mem       eeprom.Memory
	pinLength int
}

func NewCredentials(mem eeprom.Memory, pinLength int) (*Credentials, error) {
	if mem == nil {
		return nil, errors.Wrap(ErrMissingConfig, "credential memory")
	}
	if pinLength < 1 || pinLength > MaxPinLength {
		return nil, errors.Errorf("pin length %d out of range 1-%d", pinLength, MaxPinLength)
	}
	return &Credentials{mem: mem, pinLength: pinLength}, nil
}

func addresses(role Role) (status, pin uint16, err error) {
	switch role {
	case Admin:
		return AdminStatusAddr, AdminPinAddr, nil
	case Guest:
		return GuestStatusAddr, GuestPinAddr, nil
	}
	return 0, 0, errors.Wrapf(ErrInvalidInput, "no credentials for role %s", role)
}

// Get returns the stored PIN and its status.
func (self *Credentials) Get(role Role) ([]byte, Status, error) {
	_, pinAddr, err := addresses(role)
	if err != nil {
		return nil, Unset, err
	}
	status, err := self.Status(role)
	if err != nil {
		return nil, Unset, err
	}
	pin, err := self.mem.ReadBlock(pinAddr, self.pinLength)
	if err != nil {
		return nil, status, errors.Wrapf(ErrStorage, "reading pin at 0x%02x: %s", pinAddr, err)
	}
	return pin, status, nil
}

func (self *Credentials) Status(role Role) (Status, error) {
	statusAddr, _, err := addresses(role)
	if err != nil {
		return Unset, err
	}
	b, err := self.mem.ReadCell(statusAddr)
	if err != nil {
		return Unset, errors.Wrapf(ErrStorage, "reading status at 0x%02x: %s", statusAddr, err)
	}
	if b == passSet {
		return Set, nil
	}
	return Unset, nil
}

func (self *Credentials) Set(role Role, pin []byte) error {
	_, pinAddr, err := addresses(role)
	if err != nil {
		return err
	}
	if len(pin) != self.pinLength {
		return errors.Wrapf(ErrInvalidInput, "pin must be %d keys", self.pinLength)
	}
	return self.write(pinAddr, pin)
}

func (self *Credentials) SetStatus(role Role, status Status) error {
	statusAddr, _, err := addresses(role)
	if err != nil {
		return err
	}
	b := eeprom.Erased
	if status == Set {
		b = passSet
	}
	return self.write(statusAddr, []byte{b})
}

func (self *Credentials) Locked() (bool, error) {
	b, err := self.mem.ReadCell(LockAddr)
	if err != nil {
		return false, errors.Wrapf(ErrStorage, "reading lock flag: %s", err)
	}
	return b == lockedFlag, nil
}

func (self *Credentials) SetLocked(locked bool) error {
	var b byte
	if locked {
		b = lockedFlag
	}
	return self.write(LockAddr, []byte{b})
}

// write programs a block and reads it back, retrying a few times.
func (self *Credentials) write(addr uint16, data []byte) error {
	var err error
	for i := 0; i < writeTries; i++ {
		if err = self.mem.WriteBlock(addr, data); err != nil {
			zap.S().Warnw("Storage write failed", "addr", addr, "attempt", i+1, "error", err)
			continue
		}
		var back []byte
		back, err = self.mem.ReadBlock(addr, len(data))
		if err == nil && bytes.Equal(back, data) {
			return nil
		}
		if err == nil {
			err = errors.New("verify mismatch")
		}
		zap.S().Warnw("Storage verify failed", "addr", addr, "attempt", i+1, "error", err)
	}
	return errors.Wrapf(ErrStorage, "writing 0x%02x: %s", addr, err)
}
