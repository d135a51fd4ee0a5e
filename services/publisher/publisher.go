package publisher

import "context"

// Publisher forwards newly collected records to downstream consumers
type Publisher interface {
	// Publish publishes a message to the stream of key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
