package bot

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"dealgram/internal/config"
	"dealgram/internal/domain"
)

// Processor is the synchronous message handler the listener feeds.
type Processor interface {
	Process(ctx context.Context, ev domain.MessageEvent) domain.Outcome
}

// Handler wires Telegram updates into the processor. Only posts from the
// configured source channel are turned into events; everything else is
// ignored apart from the /start greeting in direct chats.
type Handler struct {
	bot       *tgbot.Bot
	cfg       config.Config
	processor Processor
	log       logrus.FieldLogger
}

// NewHandler registers the update handlers on b.
func NewHandler(b *tgbot.Bot, cfg config.Config, processor Processor, logger logrus.FieldLogger) *Handler {
	h := &Handler{
		bot:       b,
		cfg:       cfg,
		processor: processor,
		log:       logger.WithField("component", "bot_handler"),
	}
	h.registerHandlers()
	h.log.Info("Telegram bot handler initialized")
	return h
}

// registerHandlers sets up the command and channel-post handlers.
func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandlerMatchFunc(h.matchSourcePost, h.channelPostHandler)
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.WithField("source_channel_id", h.cfg.SourceChannelID).Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

// matchSourcePost selects channel posts from the monitored channel.
func (h *Handler) matchSourcePost(update *models.Update) bool {
	return update.ChannelPost != nil && update.ChannelPost.Chat.ID == h.cfg.SourceChannelID
}

// channelPostHandler converts one channel post into a MessageEvent and runs
// it through the processor.
func (h *Handler) channelPostHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	post := update.ChannelPost

	text := post.Text
	if text == "" {
		text = post.Caption
	}
	if text == "" {
		return
	}

	ev := domain.MessageEvent{
		ChannelID: post.Chat.ID,
		MessageID: post.ID,
		Text:      text,
	}
	out := h.processor.Process(ctx, ev)
	h.log.WithFields(logrus.Fields{
		"message_id": ev.MessageID,
		"status":     string(out.Status),
	}).Debug("Channel post handled")
}

// startHandler handles the /start command in direct chats.
func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.log.WithFields(logrus.Fields{
		"user_id": update.Message.From.ID,
		"command": "/start",
	})
	log.Info("Received /start command")

	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "Dealgram forwards deals from its source channel with affiliate links applied. There is nothing to configure here.",
	})
	if err != nil {
		log.WithError(err).Error("Failed to send greeting")
	}
}
