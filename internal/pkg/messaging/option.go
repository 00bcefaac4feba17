package messaging

const (
	defaultGroup       = "default"
	defaultConcurrency = 1
	defaultMaxAttempts = 3
)

type consumeOptions struct {
	// group is the Kafka consumer group, NSQ channel, NATS queue group or
	// Pub/Sub subscription, depending on the driver.
	group       string
	concurrency int
	maxAttempts int
}

// ConsumeOption configures consumer behavior.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{
		group:       defaultGroup,
		concurrency: defaultConcurrency,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	return co
}

// WithGroup sets the consumer group. Consumers sharing a group split the
// stream; every group receives every message.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) {
		if group != "" {
			o.group = group
		}
	}
}

// WithConcurrency sets how many handlers run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMaxAttempts bounds how often a failing message is delivered.
func WithMaxAttempts(n int) ConsumeOption {
	return func(o *consumeOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}
