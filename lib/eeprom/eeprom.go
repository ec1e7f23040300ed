// Package eeprom provides byte addressed persistent memory, the way the panel's
// credential records are stored. An erased cell reads 0xFF.
package eeprom

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Size of the data EEPROM in bytes.
const Size = 256

// Erased is the value of a cell that has never been written.
const Erased byte = 0xFF

type Memory interface {
	ReadCell(addr uint16) (byte, error)
	WriteCell(addr uint16, value byte) error
	ReadBlock(addr uint16, n int) ([]byte, error)
	WriteBlock(addr uint16, data []byte) error
}

func checkRange(addr uint16, n int) error {
	if n < 0 || int(addr)+n > Size {
		return fmt.Errorf("eeprom: address 0x%02x+%d out of range", addr, n)
	}
	return nil
}

// Mem is a volatile image, used for tests and simulation.
type Mem struct {
	mu   sync.Mutex
	data [Size]byte
}

func NewMem() *Mem {
	m := &Mem{}
	for i := range m.data {
		m.data[i] = Erased
	}
	return m
}

func (m *Mem) ReadCell(addr uint16) (byte, error) {
	if err := checkRange(addr, 1); err != nil {
		return Erased, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[addr], nil
}

func (m *Mem) WriteCell(addr uint16, value byte) error {
	if err := checkRange(addr, 1); err != nil {
		return err
	}
	m.mu.Lock()
	m.data[addr] = value
	m.mu.Unlock()
	return nil
}

func (m *Mem) ReadBlock(addr uint16, n int) ([]byte, error) {
	if err := checkRange(addr, n); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, n)
	copy(out, m.data[addr:int(addr)+n])
	return out, nil
}

func (m *Mem) WriteBlock(addr uint16, data []byte) error {
	if err := checkRange(addr, len(data)); err != nil {
		return err
	}
	m.mu.Lock()
	copy(m.data[addr:], data)
	m.mu.Unlock()
	return nil
}

// File is an image persisted to disk so credentials survive restarts.
type File struct {
	mu sync.Mutex
	f  *os.File
}

// OpenFile opens the image at path, creating an erased one if missing.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < Size {
		blank := make([]byte, Size-info.Size())
		for i := range blank {
			blank[i] = Erased
		}
		if _, err := f.WriteAt(blank, info.Size()); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &File{f: f}, nil
}

func (e *File) ReadCell(addr uint16) (byte, error) {
	b, err := e.ReadBlock(addr, 1)
	if err != nil {
		return Erased, err
	}
	return b[0], nil
}

func (e *File) WriteCell(addr uint16, value byte) error {
	return e.WriteBlock(addr, []byte{value})
}

func (e *File) ReadBlock(addr uint16, n int) ([]byte, error) {
	if err := checkRange(addr, n); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]byte, n)
	if _, err := e.f.ReadAt(out, int64(addr)); err != nil && err != io.EOF {
		return nil, err
	}
	return out, nil
}

func (e *File) WriteBlock(addr uint16, data []byte) error {
	if err := checkRange(addr, len(data)); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.f.WriteAt(data, int64(addr)); err != nil {
		return err
	}
	return e.f.Sync()
}

func (e *File) Close() error {
	return e.f.Close()
}

// Erase resets every cell of the image at path.
func Erase(path string) error {
	e, err := OpenFile(path)
	if err != nil {
		return err
	}
	defer e.Close()
	blank := make([]byte, Size)
	for i := range blank {
		blank[i] = Erased
	}
	return e.WriteBlock(0, blank)
}
