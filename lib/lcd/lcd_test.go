package lcd

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	s := NewScreen()
	s.Print(0, 0, "Admin mode")
	s.Print(1, 0, "Enter Pass:")
	s.Print(1, 12, "*")
	assert.Equal(t, "Admin mode\nEnter Pass: *", s.Text())

	s.Clear()
	assert.Equal(t, "\n", s.Text())
}

func TestPrintClipped(t *testing.T) {
	s := NewScreen()
	s.Print(0, 10, "temperature")
	assert.Equal(t, "          temper", s.Line(0))
	s.Print(2, 0, "ignored")
	s.Print(-1, 0, "ignored")
	assert.Equal(t, "\n", s.Text()[16:])
}

func TestWideCharacter(t *testing.T) {
	s := NewScreen()
	s.Print(1, 0, "Set temp.:__°C")
	s.Print(1, 10, "2")
	assert.Equal(t, "Set temp.:2_°C", s.Line(1))
}

func TestLEDs(t *testing.T) {
	s := NewScreen()
	s.SetLED(LEDBlock, true)
	assert.True(t, s.LED(LEDBlock))
	assert.False(t, s.LED(LEDAdmin))
	s.SetLED(LED(7), true)
	s.SetLED(LEDBlock, false)
	assert.False(t, s.LED(LEDBlock))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Clear()
	r.Print(0, 0, "Wrong password")
	r.Print(1, 0, "Tries left:")
	r.Print(1, 12, "2")
	assert.Equal(t, []string{"Wrong password\n", "Wrong password\nTries left:", "Wrong password\nTries left: 2"}, r.Frames())
	assert.True(t, r.Shown("Tries left: 2"))
	r.Reset()
	assert.Empty(t, r.Frames())
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Print(0, 0, "Welcome to Smart")
	c.SetLED(LEDGuest, true)
	assert.Contains(t, buf.String(), "Welcome to Smart")
	assert.Contains(t, c.Render(), "guest")
}

func ExampleScreen_Text() {
	s := NewScreen()
	s.Print(0, 0, "1:Room1 2:Room2")
	s.Print(1, 0, "3:Room3 4:More")
	fmt.Println(s.Text())
	// Output:
	// 1:Room1 2:Room2
	// 3:Room3 4:More
}
