package mqtt

import (
	"strings"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/pubsub"
)

// Subscribe delivers every panel event on the broker to the returned channel.
// The channel is never closed; stop reading once done with the Publisher.
func (pub *Publisher) Subscribe() (<-chan *pubsub.Event, error) {
	ch := make(chan *pubsub.Event, 16)
	token := pub.client.Subscribe(Prefix+"#", 1, func(client MQTT.Client, msg MQTT.Message) {
		if ev := decode(msg); ev != nil {
			ch <- ev
		}
	})
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.Errorf("mqtt: subscribing on %s timed out", pub.broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "mqtt: subscribing on %s", pub.broker)
	}
	return ch, nil
}

func decode(msg MQTT.Message) *pubsub.Event {
	ev := pubsub.Parse(string(msg.Payload()))
	if ev == nil {
		zap.S().Debugw("Ignoring message", "topic", msg.Topic())
		return nil
	}
	if topic := strings.TrimPrefix(msg.Topic(), Prefix); ev.Topic != topic {
		zap.S().Debugw("Topic mismatch", "topic", msg.Topic(), "event", ev.Topic)
	}
	ev.Retained = msg.Retained()
	return ev
}
