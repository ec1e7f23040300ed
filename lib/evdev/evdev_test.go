package evdev

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(events ...InputEvent) io.ReadCloser {
	buf := &bytes.Buffer{}
	for _, ev := range events {
		binary.Write(buf, binary.LittleEndian, ev)
	}
	return io.NopCloser(buf)
}

func TestOpen(t *testing.T) {
	// hard to test this without grabbing a real input device,
	// so just basic test of functions and error handling.
	dev, err := Open("/dev/null")
	require.NoError(t, err)
	assert.Error(t, dev.Grab())
	_, err = dev.ReadOne()
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, dev.Close())
}

func TestNextKeyPress(t *testing.T) {
	dev := FromReader(encode(
		InputEvent{Type: 4, Code: 4, Value: 458783}, // EV_MSC scan code
		InputEvent{Type: EvKey, Code: 2, Value: KeyPressed},
		InputEvent{Type: EvKey, Code: 2, Value: KeyReleased},
		InputEvent{Type: EvKey, Code: 3, Value: KeyRepeated},
		InputEvent{Type: EvKey, Code: 11, Value: KeyPressed},
	))
	code, err := dev.NextKeyPress()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), code)

	code, err = dev.NextKeyPress()
	require.NoError(t, err)
	assert.Equal(t, uint16(11), code)

	_, err = dev.NextKeyPress()
	assert.Equal(t, io.EOF, err)
}

func TestGrabReader(t *testing.T) {
	dev := FromReader(encode())
	assert.Error(t, dev.Grab())
}
