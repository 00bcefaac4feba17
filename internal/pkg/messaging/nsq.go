package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nsqio/go-nsq"
)

// ErrNSQAddrRequired is returned when neither nsqd nor lookupd addresses are set.
var ErrNSQAddrRequired = errors.New("messaging: nsq address is required")

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// ProducerAddr is the nsqd address used for publishing.
	ProducerAddr string
	// LookupdAddrs are nsqlookupd HTTP addresses used by consumers.
	LookupdAddrs []string
	// NSQDAddrs are nsqd addresses used by consumers when no lookupd is set.
	NSQDAddrs []string
}

// NSQ is a messaging implementation backed by NSQ. NSQ carries no headers,
// so headers and body travel in a JSON envelope.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer
}

type nsqEnvelope struct {
	Headers map[string]string `json:"headers,omitempty"`
	Key     []byte            `json:"key,omitempty"`
	Body    []byte            `json:"body"`
}

// NewNSQ constructs an NSQ messaging client.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" {
		return nil, ErrNSQAddrRequired
	}

	producer, err := nsq.NewProducer(cfg.ProducerAddr, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq producer: %w", err)
	}
	producer.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{cfg: cfg, producer: producer}, nil
}

// Close stops the producer.
func (n *NSQ) Close() error {
	n.producer.Stop()
	return nil
}

// Publish sends msg to topic.
func (n *NSQ) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	body, err := json.Marshal(nsqEnvelope{Headers: msg.Headers, Key: msg.Key, Body: msg.Body})
	if err != nil {
		return fmt.Errorf("messaging: nsq encode: %w", err)
	}

	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

// Consume reads topic on the channel named by WithGroup. Failed messages are
// requeued by nsqd until WithMaxAttempts is reached.
func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if len(n.cfg.LookupdAddrs) == 0 && len(n.cfg.NSQDAddrs) == 0 {
		return ErrNSQAddrRequired
	}

	co := newConsumeOptions(opts...)

	ccfg := nsq.NewConfig()
	ccfg.MaxAttempts = uint16(co.maxAttempts)
	ccfg.MaxInFlight = co.concurrency

	consumer, err := nsq.NewConsumer(topic, co.group, ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)

	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		msg, err := fromNSQ(topic, m)
		if err != nil {
			// undecodable payloads never succeed, finish them
			return nil
		}
		return callHandlerWithRecover(ctx, DriverNSQ, handler, msg)
	}), co.concurrency)

	if len(n.cfg.LookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.NSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
	case <-consumer.StopChan:
	}
	return nil
}

func fromNSQ(topic string, m *nsq.Message) (Message, error) {
	var env nsqEnvelope
	if err := json.Unmarshal(m.Body, &env); err != nil {
		return Message{}, err
	}

	return Message{
		ID:        string(m.ID[:]),
		Topic:     topic,
		Body:      env.Body,
		Key:       env.Key,
		Headers:   env.Headers,
		Timestamp: time.Unix(0, m.Timestamp),
		Attempt:   int(m.Attempts),
	}, nil
}
