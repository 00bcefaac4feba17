package messaging

import (
	"context"
	"maps"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// InProcConfig configures the in-process bus.
type InProcConfig struct {
	// Buffer is the per-group queue size. Publish blocks while a queue is full.
	Buffer int
}

// InProc is an in-memory Messaging implementation for single-node runs and
// tests. Messages published before any consumer subscribes are dropped.
type InProc struct {
	buffer int
	seq    atomic.Uint64
	closed atomic.Bool

	mu     sync.RWMutex
	queues map[string]map[string]chan Message // topic -> group -> queue
}

// NewInProc returns an in-process bus.
func NewInProc(cfg InProcConfig) *InProc {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	return &InProc{buffer: cfg.Buffer, queues: map[string]map[string]chan Message{}}
}

// Publish fans msg out to every group subscribed to topic.
func (b *InProc) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if b.closed.Load() {
		return ErrClosed
	}

	m := Message{
		ID:        strconv.FormatUint(b.seq.Inc(), 10),
		Topic:     topic,
		Body:      append([]byte(nil), msg.Body...),
		Key:       append([]byte(nil), msg.Key...),
		Headers:   maps.Clone(msg.Headers),
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	queues := make([]chan Message, 0, len(b.queues[topic]))
	for _, q := range b.queues[topic] {
		queues = append(queues, q)
	}
	b.mu.RUnlock()

	for _, q := range queues {
		select {
		case q <- m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Consume handles messages of topic until ctx is canceled.
func (b *InProc) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if b.closed.Load() {
		return ErrClosed
	}

	co := newConsumeOptions(opts...)
	q := b.queue(topic, co.group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case m := <-q:
					_ = deliver(ctx, DriverInProc, handler, m, co.maxAttempts)
				}
			}
		})
	}
	wg.Wait()

	return nil
}

func (b *InProc) queue(topic, group string) chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	groups, ok := b.queues[topic]
	if !ok {
		groups = map[string]chan Message{}
		b.queues[topic] = groups
	}

	q, ok := groups[group]
	if !ok {
		q = make(chan Message, b.buffer)
		groups[group] = q
	}
	return q
}

// Subscribed reports whether any group listens on topic.
func (b *InProc) Subscribed(topic string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.queues[topic]) > 0
}

// Close rejects further publishes and consumers.
func (b *InProc) Close() error {
	b.closed.Store(true)
	return nil
}
