package lcd

import (
	"strings"
	"sync"
)

// Recorder is a display that remembers every screen shown, for tests.
type Recorder struct {
	*Screen
	mu     sync.Mutex
	frames []string
}

func NewRecorder() *Recorder {
	return &Recorder{Screen: NewScreen()}
}

func (self *Recorder) Print(row, col int, text string) {
	self.Screen.Print(row, col, text)
	self.record()
}

func (self *Recorder) record() {
	text := self.Text()
	self.mu.Lock()
	defer self.mu.Unlock()
	if n := len(self.frames); n > 0 && self.frames[n-1] == text {
		return
	}
	self.frames = append(self.frames, text)
}

// Frames returns each distinct screen content in the order it was shown.
func (self *Recorder) Frames() []string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]string(nil), self.frames...)
}

// Shown reports whether any frame contained the text.
func (self *Recorder) Shown(text string) bool {
	for _, f := range self.Frames() {
		if strings.Contains(f, text) {
			return true
		}
	}
	return false
}

// Reset forgets the frame history.
func (self *Recorder) Reset() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.frames = nil
}
