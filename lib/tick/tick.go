// Package tick is the periodic hardware timer of a panel. A source drives at
// most one handler at a time; handlers must be short as they run on the
// timer's own goroutine.
package tick

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultPeriod matches the 10ms timer interrupt of the panels.
const DefaultPeriod = 10 * time.Millisecond

var ErrBusy = errors.New("tick source already has a handler")

type Source interface {
	// Subscribe starts calling handler every tick. The returned stop function
	// is idempotent, returns only once no call of handler is in progress, and
	// frees the source for another handler. It must not be called from handler.
	Subscribe(handler func()) (stop func(), err error)
}

type slot struct {
	mu      sync.Mutex
	handler func()
	gen     int
}

func (self *slot) take(handler func()) (int, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.handler != nil {
		return 0, ErrBusy
	}
	self.handler = handler
	self.gen++
	return self.gen, nil
}

func (self *slot) release(gen int) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.gen == gen {
		self.handler = nil
	}
}

func (self *slot) current() func() {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.handler
}

// Ticker is a source driven by the wall clock.
type Ticker struct {
	slot
	period time.Duration
}

func NewTicker(period time.Duration) *Ticker {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Ticker{period: period}
}

func (self *Ticker) Period() time.Duration {
	return self.period
}

func (self *Ticker) Subscribe(handler func()) (func(), error) {
	gen, err := self.take(handler)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		t := time.NewTicker(self.period)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				// a tick may be ready together with done
				select {
				case <-done:
					return
				default:
				}
				handler()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
			self.release(gen)
		})
	}, nil
}

// Manual is a source advanced by hand, for tests.
type Manual struct {
	slot
}

func (self *Manual) Subscribe(handler func()) (func(), error) {
	gen, err := self.take(handler)
	if err != nil {
		return nil, err
	}
	return func() { self.release(gen) }, nil
}

// Tick fires n ticks synchronously. Ticks with no handler are lost.
func (self *Manual) Tick(n int) {
	for i := 0; i < n; i++ {
		if h := self.current(); h != nil {
			h()
		}
	}
}

// Subscribed reports whether a handler is attached.
func (self *Manual) Subscribed() bool {
	return self.current() != nil
}
