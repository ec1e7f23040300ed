package eeprom

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemErased(t *testing.T) {
	m := NewMem()
	b, err := m.ReadCell(0x10)
	require.NoError(t, err)
	assert.Equal(t, Erased, b)
}

func TestMemBlock(t *testing.T) {
	m := NewMem()
	require.NoError(t, m.WriteBlock(0x12, []byte("1234")))
	b, err := m.ReadBlock(0x12, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), b)

	// neighbours untouched
	n, _ := m.ReadCell(0x16)
	assert.Equal(t, Erased, n)
}

func TestMemRange(t *testing.T) {
	m := NewMem()
	assert.Error(t, m.WriteBlock(Size-2, []byte("abc")))
	_, err := m.ReadBlock(Size, 1)
	assert.Error(t, err)
}

func TestFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.eeprom")
	e, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, e.WriteCell(0x28, 0x01))
	require.NoError(t, e.Close())

	e, err = OpenFile(path)
	require.NoError(t, err)
	defer e.Close()
	b, err := e.ReadCell(0x28)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)
	b, err = e.ReadCell(0x29)
	require.NoError(t, err)
	assert.Equal(t, Erased, b)
}

func TestErase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.eeprom")
	e, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, e.WriteBlock(0x12, []byte("9999")))
	e.Close()

	require.NoError(t, Erase(path))
	e, err = OpenFile(path)
	require.NoError(t, err)
	defer e.Close()
	b, _ := e.ReadBlock(0x12, 4)
	assert.Equal(t, []byte{Erased, Erased, Erased, Erased}, b)
}
