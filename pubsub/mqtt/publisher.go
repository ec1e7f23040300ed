package mqtt

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/barnybug/homepanel/pubsub"
)

// Prefix is prepended to every topic.
const Prefix = "homepanel/"

const connectTimeout = 5 * time.Second

// Publisher for mqtt
type Publisher struct {
	broker string
	client MQTT.Client
}

func clientID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("homepanel/%s-%d-%d", hostname, os.Getpid(), rand.Int())
}

// NewPublisher connects to the broker, e.g. "tcp://localhost:1883".
func NewPublisher(broker string) (*Publisher, error) {
	opts := MQTT.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID()).
		SetCleanSession(true).
		SetAutoReconnect(true)
	return Connect(broker, MQTT.NewClient(opts))
}

// Connect wraps an existing client.
func Connect(broker string, client MQTT.Client) (*Publisher, error) {
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.Errorf("mqtt: connecting to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "mqtt: connecting to %s", broker)
	}
	return &Publisher{broker: broker, client: client}, nil
}

// ID of Publisher
func (pub *Publisher) ID() string {
	return "mqtt: " + pub.broker
}

// Emit an event. Failures are logged, a panel keeps working without its
// broker.
func (pub *Publisher) Emit(ev *pubsub.Event) {
	token := pub.client.Publish(Prefix+ev.Topic, 1, ev.Retained, ev.Bytes())
	go func() {
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			zap.S().Warnw("Publish failed", "topic", ev.Topic, "error", token.Error())
		}
	}()
}

func (pub *Publisher) Close() {
	pub.client.Disconnect(250)
}
