package keypad

import "sync"

// Script is a keypad driven by code, for tests and the simulator.
type Script struct {
	ch   chan Key
	once sync.Once
}

// NewScript returns a keypad with the given presses already queued.
func NewScript(presses string) *Script {
	s := &Script{ch: make(chan Key, 256)}
	s.Type(presses)
	return s
}

func (s *Script) Keys() <-chan Key {
	return s.ch
}

// Press queues keys. Symbols not on the keypad are still delivered so that
// callers can exercise invalid input handling.
func (s *Script) Press(keys ...Key) {
	for _, k := range keys {
		s.ch <- k
	}
}

// Type queues one key per character.
func (s *Script) Type(presses string) {
	for i := 0; i < len(presses); i++ {
		s.ch <- Key(presses[i])
	}
}

// Pending is the number of queued presses not yet read.
func (s *Script) Pending() int {
	return len(s.ch)
}

func (s *Script) Close() {
	s.once.Do(func() { close(s.ch) })
}
