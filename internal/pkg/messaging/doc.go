// Package messaging publishes and consumes events over a pluggable broker.
//
// Producers and consumers depend on the Messaging interface. Drivers exist for
// an in-process bus, NATS, Kafka, NSQ and Google Pub/Sub; NewFromDriver picks
// one by name. Every driver acknowledges a message only after its handler
// returns nil, and retries a failing handler up to WithMaxAttempts.
package messaging
