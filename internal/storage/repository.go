package storage

import "context"

// Repository is the dedupe store: it records which source messages have
// already been forwarded. Records are only ever inserted and checked, never
// mutated. The processor's check-then-insert sequence is safe because
// messages are consumed serially; an implementation shared across processes
// must make Insert a conditional write (see RedisRepository).
type Repository interface {
	// Contains reports whether the (channel, message) pair was already
	// forwarded.
	Contains(ctx context.Context, channelID int64, messageID int) (bool, error)

	// Insert records the pair as forwarded. Inserting an existing pair is
	// not an error.
	Insert(ctx context.Context, channelID int64, messageID int) error

	// Close gracefully shuts down the backing store.
	Close() error
}
