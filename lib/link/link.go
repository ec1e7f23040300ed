// Package link is the byte exchange between the master and slave panels.
//
// Every transfer swaps one byte in each direction. The master clocks the
// exchange: its Transfer returns once the slave has answered. The slave
// preloads its answer and its Transfer returns once the master has clocked
// it out. Both ends use the same signature.
package link

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Link is one end of the master/slave bus.
type Link interface {
	Transfer(ctx context.Context, out byte) (byte, error)
}

var (
	// ErrLink is a failed or short exchange.
	ErrLink = errors.New("link error")
	// ErrClosed means the other end has gone away for good.
	ErrClosed = errors.New("link closed")
)

type pipe struct {
	done chan struct{}
	once sync.Once
}

type pipeEnd struct {
	*pipe
	clock bool
	tx    chan<- byte
	rx    <-chan byte
}

// Pipe connects a master and a slave in memory.
func Pipe() (master, slave Link) {
	down := make(chan byte, 1)
	up := make(chan byte, 1)
	p := &pipe{done: make(chan struct{})}
	return &pipeEnd{pipe: p, clock: true, tx: down, rx: up},
		&pipeEnd{pipe: p, tx: up, rx: down}
}

func (self *pipeEnd) Transfer(ctx context.Context, out byte) (byte, error) {
	if self.clock {
		if err := self.send(ctx, out); err != nil {
			return 0, err
		}
		return self.recv(ctx)
	}
	in, err := self.recv(ctx)
	if err != nil {
		return 0, err
	}
	return in, self.send(ctx, out)
}

func (self *pipeEnd) send(ctx context.Context, b byte) error {
	select {
	case self.tx <- b:
		return nil
	case <-self.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (self *pipeEnd) recv(ctx context.Context) (byte, error) {
	select {
	case b := <-self.rx:
		return b, nil
	case <-self.done:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Close tears down both ends of a pipe.
func Close(l Link) {
	if p, ok := l.(*pipeEnd); ok {
		p.once.Do(func() { close(p.done) })
	}
}
