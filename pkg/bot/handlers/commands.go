package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
)

const helpText = "Ancestral Lingo: aprende Kichwa y Shuar jugando.\n\n" +
	"Comandos:\n" +
	"/start: ir al inicio y elegir una lección\n" +
	"/lesson: volver a mostrar la pantalla actual\n" +
	"/goals: ver metas y reclamar logros"

func validMessage(update *models.Update) bool {
	return update != nil && update.Message != nil && update.Message.From != nil && update.Message.Chat.ID != 0
}

func (h *Handler) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleStart")
		return
	}
	chatID, userID := update.Message.Chat.ID, update.Message.From.ID
	h.timers.Cancel(chatID, userID)
	out := h.game.Home(chatID, userID)
	h.sendFrame(ctx, b, chatID, userID, out.Frame)
}

func (h *Handler) HandleGoals(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleGoals")
		return
	}
	chatID, userID := update.Message.Chat.ID, update.Message.From.ID
	h.timers.Cancel(chatID, userID)
	out := h.game.Goals(chatID, userID)
	h.sendFrame(ctx, b, chatID, userID, out.Frame)
}

// HandleLesson re-posts the current screen, so a lesson buried under other
// messages can be continued at the bottom of the chat.
func (h *Handler) HandleLesson(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		logger.Error("invalid update in HandleLesson")
		return
	}
	chatID, userID := update.Message.Chat.ID, update.Message.From.ID
	h.sendFrame(ctx, b, chatID, userID, h.game.Current(chatID, userID))
}

func DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		logger.Error("received invalid update in DefaultHandler")
		return
	}
	if update.Message.Chat.ID == 0 {
		logger.Error("chat ID is zero in DefaultHandler")
		return
	}
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   helpText,
	}); err != nil {
		logger.Error("failed to send message in DefaultHandler", "error", err)
	}
}
