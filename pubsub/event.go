// Package pubsub carries panel events (sessions, device states and
// temperature samples) to whoever is listening.
package pubsub

import (
	"encoding/json"
	"time"
)

type Fields map[string]interface{}

type Event struct {
	Topic     string
	Timestamp time.Time
	Fields    Fields
	// Retained events are kept by the broker as the last known state.
	Retained bool
}

func NewEvent(topic string, fields Fields) *Event {
	if fields == nil {
		fields = Fields{}
	}
	timestamp := time.Now().UTC()
	if ts, ok := fields["timestamp"].(string); ok {
		delete(fields, "timestamp")
		timestamp, _ = time.Parse(TimeFormat, ts)
	}
	return &Event{Topic: topic, Timestamp: timestamp, Fields: fields}
}

// NewSession reports a session transition: login, logout, timeout or lockout.
func NewSession(role, state string) *Event {
	return NewEvent("session", Fields{"role": role, "state": state})
}

// NewDevice reports the output state of a device on the slave.
func NewDevice(device string, on bool) *Event {
	state := "off"
	if on {
		state = "on"
	}
	ev := NewEvent("device/"+device, Fields{"device": device, "state": state})
	ev.Retained = true
	return ev
}

// NewTemperature reports one control loop sample.
func NewTemperature(reading, setpoint int, cooling bool) *Event {
	return NewEvent("temp", Fields{"temp": reading, "target": setpoint, "cooling": cooling})
}

const TimeFormat = "2006-01-02 15:04:05.000000"

func (event *Event) Map() map[string]interface{} {
	data := make(map[string]interface{})
	data["topic"] = event.Topic
	data["timestamp"] = event.Timestamp.Format(TimeFormat)
	for k, v := range event.Fields {
		data[k] = v
	}
	return data
}

func (event *Event) Bytes() []byte {
	v, _ := json.Marshal(event.Map())
	return v
}

func (event *Event) String() string {
	return string(event.Bytes())
}

func (event *Event) StringField(name string) string {
	ret, _ := event.Fields[name].(string)
	return ret
}

func (event *Event) IntField(name string) int64 {
	switch v := event.Fields[name].(type) {
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func (event *Event) Device() string {
	return event.StringField("device")
}

func (event *Event) State() string {
	return event.StringField("state")
}

func Parse(msg string) *Event {
	var fields map[string]interface{}
	err := json.Unmarshal([]byte(msg), &fields)
	if err != nil {
		return nil
	}
	topic, ok := fields["topic"].(string)
	if !ok {
		return nil
	}
	delete(fields, "topic")
	return NewEvent(topic, fields)
}
