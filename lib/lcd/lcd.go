// Package lcd drives the 2x16 character display and the three indicator
// LEDs of the master panel.
package lcd

import (
	"strings"
	"sync"
)

const (
	Rows = 2
	Cols = 16
)

type LED int

const (
	LEDAdmin LED = iota
	LEDGuest
	LEDBlock
)

var ledNames = []string{"admin", "guest", "block"}

func (l LED) String() string {
	if l < 0 || int(l) >= len(ledNames) {
		return "unknown"
	}
	return ledNames[l]
}

// Display is the panel output. Rows and columns are zero based; text running
// past the last column is cut off.
type Display interface {
	Clear()
	Print(row, col int, text string)
	SetLED(led LED, on bool)
}

// Screen is the character buffer shared by the display implementations.
type Screen struct {
	mu    sync.Mutex
	cells [Rows][Cols]rune
	leds  [3]bool
}

func NewScreen() *Screen {
	s := &Screen{}
	s.clear()
	return s
}

func (self *Screen) clear() {
	for r := range self.cells {
		for c := range self.cells[r] {
			self.cells[r][c] = ' '
		}
	}
}

func (self *Screen) Clear() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.clear()
}

func (self *Screen) Print(row, col int, text string) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if row < 0 || row >= Rows {
		return
	}
	for _, ch := range text {
		if col >= Cols {
			break
		}
		if col >= 0 {
			self.cells[row][col] = ch
		}
		col++
	}
}

func (self *Screen) SetLED(led LED, on bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if led >= 0 && int(led) < len(self.leds) {
		self.leds[led] = on
	}
}

// Line returns a row with trailing blanks removed.
func (self *Screen) Line(row int) string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return strings.TrimRight(string(self.cells[row][:]), " ")
}

// Text is both rows joined with a newline, trailing blanks removed.
func (self *Screen) Text() string {
	return self.Line(0) + "\n" + self.Line(1)
}

func (self *Screen) LED(led LED) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.leds[led]
}

func (self *Screen) raw() [Rows]string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return [Rows]string{string(self.cells[0][:]), string(self.cells[1][:])}
}
