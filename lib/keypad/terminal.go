package keypad

import (
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"
)

const ctrlC = 0x03

// Terminal reads single key presses from a console. Characters that are not
// on the keypad are dropped; ctrl-c closes the keypad.
type Terminal struct {
	ch    chan Key
	fd    int
	state *term.State
}

// OpenTerminal puts stdin into raw mode and starts reading keys.
func OpenTerminal() (*Terminal, error) {
	fd := int(os.Stdin.Fd())
	t := &Terminal{ch: make(chan Key, 16), fd: fd}
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		t.state = state
	}
	go t.run(os.Stdin)
	return t, nil
}

func (t *Terminal) run(r io.Reader) {
	defer close(t.ch)
	buf := make([]byte, 1)
	for {
		_, err := r.Read(buf)
		if err != nil {
			if err != io.EOF {
				zap.S().Warnw("Keypad read failed", "error", err)
			}
			return
		}
		if buf[0] == ctrlC {
			return
		}
		if k, ok := Parse(buf[0]); ok {
			t.ch <- k
		}
	}
}

func (t *Terminal) Keys() <-chan Key {
	return t.ch
}

// Close restores the console mode.
func (t *Terminal) Close() error {
	if t.state == nil {
		return nil
	}
	return term.Restore(t.fd, t.state)
}
