package mqtt

import (
	"errors"
	"testing"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barnybug/homepanel/pubsub"
)

type token struct {
	err error
}

func (t *token) Wait() bool                     { return true }
func (t *token) WaitTimeout(time.Duration) bool { return true }
func (t *token) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *token) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type mockClient struct {
	MQTT.Client
	connectErr   error
	subscribeErr error
	published    []published
	subscribed   string
	handler      MQTT.MessageHandler
}

func (m *mockClient) Connect() MQTT.Token {
	return &token{err: m.connectErr}
}

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	m.published = append(m.published, published{topic, qos, retained, payload.([]byte)})
	return &token{}
}

func (m *mockClient) Subscribe(topic string, qos byte, callback MQTT.MessageHandler) MQTT.Token {
	m.subscribed = topic
	m.handler = callback
	return &token{err: m.subscribeErr}
}

func (m *mockClient) Disconnect(quiesce uint) {}

type message struct {
	MQTT.Message
	topic    string
	payload  string
	retained bool
}

func (m message) Topic() string   { return m.topic }
func (m message) Payload() []byte { return []byte(m.payload) }
func (m message) Retained() bool  { return m.retained }

func TestEmit(t *testing.T) {
	client := &mockClient{}
	pub, err := Connect("tcp://broker:1883", client)
	require.NoError(t, err)
	assert.Equal(t, "mqtt: tcp://broker:1883", pub.ID())

	pub.Emit(pubsub.NewDevice("tv", true))
	require.Len(t, client.published, 1)
	p := client.published[0]
	assert.Equal(t, "homepanel/device/tv", p.topic)
	assert.Equal(t, byte(1), p.qos)
	assert.True(t, p.retained)
	assert.Contains(t, string(p.payload), `"state":"on"`)
	pub.Close()
}

func TestConnectError(t *testing.T) {
	_, err := Connect("tcp://broker:1883", &mockClient{connectErr: errors.New("refused")})
	assert.ErrorContains(t, err, "refused")
}

func TestSubscribe(t *testing.T) {
	client := &mockClient{}
	pub, err := Connect("tcp://broker:1883", client)
	require.NoError(t, err)
	events, err := pub.Subscribe()
	require.NoError(t, err)
	assert.Equal(t, "homepanel/#", client.subscribed)

	// what one panel emits, another reads back
	pub.Emit(pubsub.NewDevice("aircond", true))
	p := client.published[0]
	client.handler(client, message{topic: p.topic, payload: string(p.payload), retained: p.retained})
	client.handler(client, message{topic: "homepanel/junk", payload: "not json"})
	client.handler(client, message{topic: "homepanel/temp", payload: `{"topic":"temp","temp":27,"target":24,"cooling":true}`})

	ev := <-events
	assert.Equal(t, "device/aircond", ev.Topic)
	assert.Equal(t, "aircond", ev.Device())
	assert.Equal(t, "on", ev.State())
	assert.True(t, ev.Retained)

	ev = <-events
	assert.Equal(t, "temp", ev.Topic)
	assert.Equal(t, int64(27), ev.IntField("temp"))
	assert.Equal(t, int64(24), ev.IntField("target"))
	assert.False(t, ev.Retained)
	assert.Empty(t, events)
}

func TestSubscribeError(t *testing.T) {
	pub, err := Connect("tcp://broker:1883", &mockClient{subscribeErr: errors.New("not authorized")})
	require.NoError(t, err)
	_, err = pub.Subscribe()
	assert.ErrorContains(t, err, "not authorized")
}
