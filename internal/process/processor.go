// Package process implements the per-message state machine: dedupe check,
// link rewrite, cosmetic enhancement, send, record. Messages are handled one
// at a time; nothing here is safe for concurrent calls and nothing needs to
// be, since the platform client delivers events serially.
package process

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"dealgram/internal/domain"
	"dealgram/internal/enhance"
	"dealgram/internal/observe"
	"dealgram/internal/rewrite"
	"dealgram/internal/storage"
)

// Sender is the outbound sink: it delivers one text to a destination chat.
type Sender interface {
	Send(ctx context.Context, channelID int64, text string) error
}

// Processor decides, per inbound message, whether to forward it and produces
// at most one outbound message.
type Processor struct {
	rewriter    *rewrite.Rewriter
	store       storage.Repository
	sender      Sender
	observer    observe.Observer
	destChannel int64
	log         logrus.FieldLogger
}

// New creates a Processor forwarding to destChannel.
func New(rewriter *rewrite.Rewriter, store storage.Repository, sender Sender, observer observe.Observer, destChannel int64, logger logrus.FieldLogger) *Processor {
	return &Processor{
		rewriter:    rewriter,
		store:       store,
		sender:      sender,
		observer:    observer,
		destChannel: destChannel,
		log:         logger.WithField("component", "processor"),
	}
}

// Process runs one message through the state machine and reports the
// terminal outcome through the observer. Per-message failures never
// propagate as errors; the outcome carries them instead.
func (p *Processor) Process(ctx context.Context, ev domain.MessageEvent) domain.Outcome {
	start := time.Now()
	log := p.log.WithFields(logrus.Fields{
		"channel_id": ev.ChannelID,
		"message_id": ev.MessageID,
	})

	seen, err := p.store.Contains(ctx, ev.ChannelID, ev.MessageID)
	if err != nil {
		// The source redelivers, so a duplicate forward is the cheaper
		// failure mode than silently dropping a deal. Treat as unseen.
		log.WithError(err).Warn("Dedupe check failed, treating message as new")
	}
	if seen {
		return p.finish(ev, start, domain.Outcome{Status: domain.StatusSkipped, Reason: domain.ReasonDuplicate})
	}

	if !p.rewriter.Detect(ev.Text) {
		return p.finish(ev, start, domain.Outcome{Status: domain.StatusSkipped, Reason: domain.ReasonNoLinks})
	}

	result := p.rewriter.Rewrite(ctx, ev.Text)
	for _, u := range result.Unresolved {
		p.observer.LinkUnresolved(ev, u)
	}

	text := rewrite.Apply(ev.Text, result.Replacements)
	text = enhance.Enhance(text)

	if err := p.sender.Send(ctx, p.destChannel, text); err != nil {
		return p.finish(ev, start, domain.Outcome{
			Status:     domain.StatusFailed,
			Reason:     domain.ReasonSendError,
			Rewritten:  len(result.Replacements),
			Unresolved: len(result.Unresolved),
			Err:        err,
		})
	}

	if err := p.store.Insert(ctx, ev.ChannelID, ev.MessageID); err != nil {
		// The forward succeeded; a failed record only risks one duplicate
		// on redelivery.
		log.WithError(err).Error("Failed to record forwarded message")
	}

	return p.finish(ev, start, domain.Outcome{
		Status:     domain.StatusSent,
		Rewritten:  len(result.Replacements),
		Unresolved: len(result.Unresolved),
	})
}

func (p *Processor) finish(ev domain.MessageEvent, start time.Time, out domain.Outcome) domain.Outcome {
	out.Elapsed = time.Since(start)
	p.observer.MessageOutcome(ev, out)
	return out
}
