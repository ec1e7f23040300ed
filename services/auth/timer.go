package auth

import (
	"sync"
	"sync/atomic"

	"github.com/barnybug/homepanel/lib/tick"
)

// Timer counts the ticks of a live session. The tick handler is the only
// writer; the foreground reads the count and waits on the expiry channel, so
// there is no multi-field state to tear.
type Timer struct {
	elapsed atomic.Uint32
	limit   uint32
	expired chan struct{}
	once    sync.Once
	stop    func()
}

// StartTimer subscribes a fresh timer to the tick source. It expires once
// limit ticks have elapsed.
func StartTimer(src tick.Source, limit int) (*Timer, error) {
	t := &Timer{limit: uint32(limit), expired: make(chan struct{})}
	if limit <= 0 {
		t.expire()
	}
	stop, err := src.Subscribe(t.tick)
	if err != nil {
		return nil, err
	}
	t.stop = stop
	return t, nil
}

func (self *Timer) tick() {
	if self.elapsed.Add(1) >= self.limit {
		self.expire()
	}
}

func (self *Timer) expire() {
	self.once.Do(func() { close(self.expired) })
}

// Elapsed is the number of ticks since the session started.
func (self *Timer) Elapsed() int {
	return int(self.elapsed.Load())
}

// Expired is closed when the session runs out of time.
func (self *Timer) Expired() <-chan struct{} {
	return self.expired
}

// IsExpired reports expiry; once true it stays true.
func (self *Timer) IsExpired() bool {
	select {
	case <-self.expired:
		return true
	default:
		return false
	}
}

// Stop detaches the timer from its tick source.
func (self *Timer) Stop() {
	if self.stop != nil {
		self.stop()
	}
}
