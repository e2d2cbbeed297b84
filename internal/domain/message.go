package domain

import "time"

// MessageEvent is one inbound post from the monitored source channel.
// The platform client delivers events at-least-once, so the same
// (ChannelID, MessageID) pair may arrive more than once.
type MessageEvent struct {
	// ChannelID is the Telegram chat ID of the source channel.
	ChannelID int64

	// MessageID is the message ID within that channel. Unique per channel.
	MessageID int

	// Text is the raw message text (or caption, for media posts).
	Text string
}

// Status is the terminal state of one processing pass.
type Status string

const (
	// StatusSkipped means the message was not forwarded: either it carried
	// no recognized product links, or it was already forwarded earlier.
	StatusSkipped Status = "SKIPPED"

	// StatusSent means the message was rewritten, enhanced, forwarded, and
	// recorded in the dedupe store.
	StatusSent Status = "SENT"

	// StatusFailed means the outbound send failed. The message is NOT
	// recorded, so a redelivery of the same event will be retried.
	StatusFailed Status = "FAILED"
)

// Skip reasons carried in Outcome.Reason.
const (
	ReasonNoLinks   = "no_links"
	ReasonDuplicate = "duplicate"
	ReasonSendError = "send_error"
)

// Outcome describes how one message was handled.
type Outcome struct {
	Status Status
	Reason string

	// Rewritten is the number of links replaced with affiliate URLs.
	Rewritten int

	// Unresolved is the number of recognized links left untouched because
	// their redirect could not be resolved to a product.
	Unresolved int

	// Err carries the send error for StatusFailed outcomes.
	Err error

	// Elapsed is the wall time of the whole processing pass.
	Elapsed time.Duration
}

// ProductRef identifies a product on the source marketplace: the extracted
// product ID plus the host the ID was found on.
type ProductRef struct {
	ID   string
	Host string
}

// Replacement maps one matched substring to its affiliate-tagged URL.
type Replacement struct {
	Original  string
	Affiliate string
}

// RewriteResult is the full output of one rewrite pass over a message text.
type RewriteResult struct {
	// Replacements holds one entry per distinct matched substring. Empty
	// means the text carried no rewritable links.
	Replacements []Replacement

	// Unresolved lists matched short links whose redirect could not be
	// resolved. They stay in the text as-is.
	Unresolved []string
}

// HasLinks reports whether the rewrite pass produced any replacement.
func (r RewriteResult) HasLinks() bool {
	return len(r.Replacements) > 0
}
