package dummy

import (
	"sync"

	"github.com/barnybug/homepanel/pubsub"
)

// Dummy Publisher for testing
type Publisher struct {
	mu     sync.Mutex
	events []*pubsub.Event
}

func (self *Publisher) ID() string {
	return "dummy"
}

func (self *Publisher) Emit(ev *pubsub.Event) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.events = append(self.events, ev)
}

func (self *Publisher) Events() []*pubsub.Event {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]*pubsub.Event(nil), self.events...)
}

// States lists the state field of every event on topic, in order.
func (self *Publisher) States(topic string) []string {
	var states []string
	for _, ev := range self.Events() {
		if ev.Topic == topic {
			states = append(states, ev.State())
		}
	}
	return states
}
