package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrTopicRequired is returned when the topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrClosed is returned when the client was already closed.
	ErrClosed = io.ErrClosedPipe
)

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer consumes messages from a topic. Consume blocks until ctx is
// canceled, then returns nil once in-flight handlers finish.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. A nil return acknowledges it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte
	// Key is used by Kafka for partitioning and by Pub/Sub as ordering key.
	Key []byte
	// Headers are string metadata carried alongside the body.
	Headers map[string]string
}

// Message is a received message.
type Message struct {
	ID        string
	Topic     string
	Body      []byte
	Key       []byte
	Headers   map[string]string
	Timestamp time.Time
	// Attempt counts deliveries of this message, starting at 1.
	Attempt int
}

// Header returns the value of header key, or "".
func (m Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}
