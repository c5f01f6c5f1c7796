package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

// EventMeta is the metadata carried as headers on every message the portal writes.
type EventMeta struct {
	EventID   string
	EventType string
}

// ExtractEventMeta reads the event headers. EventID stays empty when the
// producer sent none; the message key names an aggregate, not an event.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	eventID := HeaderValue(msg.Headers, "event_id")
	eventType := HeaderValue(msg.Headers, "event_type")
	if eventType == "" {
		eventType = msg.Topic
	}
	return EventMeta{EventID: eventID, EventType: eventType}
}

// Headers renders meta as Kafka headers.
func (m EventMeta) Headers() []kafka.Header {
	return []kafka.Header{
		{Key: "event_id", Value: []byte(m.EventID)},
		{Key: "event_type", Value: []byte(m.EventType)},
	}
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
