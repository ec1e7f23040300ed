package link

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

type Mode int

const (
	// Clock writes the outgoing byte and then waits for the answer (master).
	Clock Mode = iota
	// Follow waits for a byte and then answers (slave).
	Follow
)

// Stream runs the exchange over a byte stream such as a serial port.
//
// A Read returning no data and no error is taken as a read timeout, which
// lets a blocked transfer notice its context being cancelled.
type Stream struct {
	rw   io.ReadWriter
	mode Mode
	buf  [1]byte
}

func NewStream(rw io.ReadWriter, mode Mode) *Stream {
	return &Stream{rw: rw, mode: mode}
}

func (self *Stream) Transfer(ctx context.Context, out byte) (byte, error) {
	if self.mode == Clock {
		if err := self.write(out); err != nil {
			return 0, err
		}
		return self.read(ctx)
	}
	in, err := self.read(ctx)
	if err != nil {
		return 0, err
	}
	return in, self.write(out)
}

func (self *Stream) write(b byte) error {
	n, err := self.rw.Write([]byte{b})
	if err != nil {
		return errors.Wrap(ErrLink, err.Error())
	}
	if n != 1 {
		return errors.Wrap(ErrLink, "short write")
	}
	return nil
}

func (self *Stream) read(ctx context.Context) (byte, error) {
	for {
		n, err := self.rw.Read(self.buf[:])
		if n == 1 {
			return self.buf[0], nil
		}
		if err == io.EOF || err == io.ErrClosedPipe {
			return 0, ErrClosed
		}
		if err != nil {
			return 0, errors.Wrap(ErrLink, err.Error())
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
	}
}
