package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"dealgram/internal/process"
)

// Sender delivers processed messages to the destination channel.
type Sender struct {
	bot *tgbot.Bot
	log logrus.FieldLogger
}

// NewSender creates the Telegram outbound sink on an existing bot instance.
func NewSender(b *tgbot.Bot, logger logrus.FieldLogger) *Sender {
	return &Sender{
		bot: b,
		log: logger.WithField("component", "sender"),
	}
}

// Send posts text to channelID with Markdown formatting, matching the
// formatting markers the enhancement rules emit.
func (s *Sender) Send(ctx context.Context, channelID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    channelID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %d: %w", channelID, err)
	}
	return nil
}

// RetryPolicy bounds the RetrySender backoff.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries a handful of times over a few seconds, enough
// to ride out transient Telegram API hiccups without reordering forwards.
func DefaultRetryPolicy(maxRetries uint64) RetryPolicy {
	return RetryPolicy{
		MaxRetries:      maxRetries,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// RetrySender wraps a Sender with exponential backoff. The processor itself
// never retries; redelivery policy lives entirely in this wrapper.
type RetrySender struct {
	next   process.Sender
	policy RetryPolicy
	log    logrus.FieldLogger
}

// NewRetrySender decorates next with the given policy.
func NewRetrySender(next process.Sender, policy RetryPolicy, logger logrus.FieldLogger) *RetrySender {
	return &RetrySender{
		next:   next,
		policy: policy,
		log:    logger.WithField("component", "retry_sender"),
	}
}

// Send attempts the delivery, backing off between failures until the policy
// is exhausted or ctx is cancelled.
func (s *RetrySender) Send(ctx context.Context, channelID int64, text string) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := s.next.Send(ctx, channelID, text)
		if err != nil {
			s.log.WithError(err).WithField("attempt", attempt).Warn("Send attempt failed")
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.policy.InitialInterval
	b.MaxInterval = s.policy.MaxInterval

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, s.policy.MaxRetries), ctx))
}
