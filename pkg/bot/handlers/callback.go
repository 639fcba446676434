package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/ancestral-lingo/pkg/bot/game"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
	"github.com/smith3v/ancestral-lingo/pkg/progress"
	"github.com/smith3v/ancestral-lingo/pkg/session"
	"github.com/smith3v/ancestral-lingo/pkg/ui"
)

const (
	noticeNotActive    = "No activo"
	noticeEmptyLesson  = "Esta categoría aún no tiene palabras"
	noticeNotClaimable = "Este logro aún no está completado"
	noticeUnavailable  = "No disponible"
)

func (h *Handler) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleCallback")
		return
	}

	callbackID := update.CallbackQuery.ID
	answerCallback := func(text string) {
		if callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer callback query", "error", err)
		}
	}

	action, err := ui.ParseCallbackData(update.CallbackQuery.Data)
	if err != nil {
		logger.Debug("ignoring callback", "data", update.CallbackQuery.Data, "error", err)
		answerCallback(noticeNotActive)
		return
	}

	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil || message.Message.Chat.ID == 0 {
		answerCallback(noticeNotActive)
		return
	}
	chatID := message.Message.Chat.ID
	messageID := message.Message.ID
	userID := update.CallbackQuery.From.ID

	if action.Kind == ui.ActionNoop {
		answerCallback("")
		return
	}
	if action.Kind == ui.ActionSay {
		if text, ok := h.game.AudioText(chatID, userID); ok {
			go h.speak(ctx, chatID, text)
		}
		answerCallback("")
		return
	}

	h.game.SetMessageID(chatID, userID, messageID)
	out, err := h.dispatch(chatID, userID, action)
	if err != nil {
		answerCallback(errorNotice(err))
		return
	}
	if out.Changed {
		editFrame(ctx, b, chatID, userID, messageID, out.Frame)
		h.scheduleEffects(ctx, b, chatID, userID, out)
	}
	answerCallback(out.Notice)
}

func (h *Handler) dispatch(chatID, userID int64, action ui.Action) (game.Outcome, error) {
	switch action.Kind {
	case ui.ActionToggleLanguage:
		return h.game.ToggleLanguage(chatID, userID), nil
	case ui.ActionStart:
		h.timers.Cancel(chatID, userID)
		return h.game.Start(chatID, userID, action.Category)
	case ui.ActionOption:
		return h.game.SelectOption(chatID, userID, action.Question, action.Option), nil
	case ui.ActionCheck:
		return h.game.Check(chatID, userID), nil
	case ui.ActionCard:
		return h.game.SelectCard(chatID, userID, action.Question, action.Card), nil
	case ui.ActionContinue:
		h.timers.Cancel(chatID, userID)
		return h.game.Continue(chatID, userID), nil
	case ui.ActionQuit, ui.ActionHome:
		h.timers.Cancel(chatID, userID)
		return h.game.Home(chatID, userID), nil
	case ui.ActionRetry:
		h.timers.Cancel(chatID, userID)
		return h.game.Retry(chatID, userID)
	case ui.ActionGoals:
		return h.game.Goals(chatID, userID), nil
	case ui.ActionClaim:
		return h.game.Claim(chatID, userID, action.ID)
	default:
		return game.Outcome{}, nil
	}
}

func errorNotice(err error) string {
	switch {
	case errors.Is(err, session.ErrEmptyLesson):
		return noticeEmptyLesson
	case errors.Is(err, progress.ErrNotClaimable):
		return noticeNotClaimable
	case errors.Is(err, game.ErrNoLesson), errors.Is(err, game.ErrUnknownCategory),
		errors.Is(err, progress.ErrUnknownAchievement):
		return noticeNotActive
	default:
		logger.Error("callback action failed", "error", err)
		return noticeUnavailable
	}
}
