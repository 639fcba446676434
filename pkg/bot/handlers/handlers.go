// Package handlers connects Telegram updates to the game manager. Every
// player has one game message that is edited in place as they play.
package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/ancestral-lingo/pkg/bot/game"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
	"github.com/smith3v/ancestral-lingo/pkg/speech"
	"github.com/smith3v/ancestral-lingo/pkg/ui"
)

type Options struct {
	Manager       *game.Manager
	Timers        *game.Timers
	Speaker       speech.Speaker
	SpeechLang    string
	SpeechRate    float64
	AudioDelay    time.Duration
	MismatchDelay time.Duration
}

type Handler struct {
	game          *game.Manager
	timers        *game.Timers
	speaker       speech.Speaker
	speechLang    string
	speechRate    float64
	audioDelay    time.Duration
	mismatchDelay time.Duration
}

func New(opts Options) *Handler {
	if opts.Manager == nil {
		opts.Manager = game.NewManager(game.Options{})
	}
	if opts.Timers == nil {
		opts.Timers = game.NewTimers()
	}
	if opts.Speaker == nil {
		opts.Speaker = speech.Nop{}
	}
	return &Handler{
		game:          opts.Manager,
		timers:        opts.Timers,
		speaker:       opts.Speaker,
		speechLang:    opts.SpeechLang,
		speechRate:    opts.SpeechRate,
		audioDelay:    opts.AudioDelay,
		mismatchDelay: opts.MismatchDelay,
	}
}

func renderFrame(frame game.Frame) (string, *models.InlineKeyboardMarkup, error) {
	switch frame.Screen {
	case game.ScreenGoals:
		return ui.RenderGoals(frame.Progress)
	case game.ScreenLesson:
		return ui.RenderLesson(frame.Session)
	case game.ScreenResult:
		return ui.RenderResult(frame.Session, frame.Progress)
	default:
		return ui.RenderHome(ui.HomeModel{
			Language: frame.Language,
			Progress: frame.Progress,
			Resume:   frame.Resume,
		})
	}
}

// sendFrame posts the screen as a new message and makes it the player's game
// message.
func (h *Handler) sendFrame(ctx context.Context, b *bot.Bot, chatID, userID int64, frame game.Frame) {
	text, keyboard, err := renderFrame(frame)
	if err != nil {
		logger.Error("failed to render screen", "user_id", userID, "screen", frame.Screen, "error", err)
		return
	}
	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		logger.Error("failed to send screen", "user_id", userID, "error", err)
		return
	}
	h.game.SetMessageID(chatID, userID, msg.ID)
}

func editFrame(ctx context.Context, b *bot.Bot, chatID, userID int64, messageID int, frame game.Frame) {
	text, keyboard, err := renderFrame(frame)
	if err != nil {
		logger.Error("failed to render screen", "user_id", userID, "screen", frame.Screen, "error", err)
		return
	}
	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to edit screen", "user_id", userID, "message_id", messageID, "error", err)
	}
}

func (h *Handler) speak(ctx context.Context, chatID int64, text string) {
	h.speaker.Speak(ctx, chatID, speech.Request{
		Text: text,
		Lang: h.speechLang,
		Rate: h.speechRate,
	})
}

// scheduleEffects arms the delayed follow-ups an outcome asks for.
func (h *Handler) scheduleEffects(ctx context.Context, b *bot.Bot, chatID, userID int64, out game.Outcome) {
	question := out.Frame.Session.Index
	if out.Listen != "" {
		h.timers.Schedule(chatID, userID, game.TimerAudio, h.audioDelay, func() {
			if text, ok := h.game.ListenText(chatID, userID, question); ok {
				h.speak(ctx, chatID, text)
			}
		})
	}
	if out.Mismatch {
		h.timers.Schedule(chatID, userID, game.TimerMismatch, h.mismatchDelay, func() {
			h.clearMismatch(ctx, b, chatID, userID, question)
		})
	}
}

func (h *Handler) clearMismatch(ctx context.Context, b *bot.Bot, chatID, userID int64, question int) {
	out := h.game.ClearMismatch(chatID, userID, question)
	if !out.Changed || out.Frame.MessageID == 0 {
		return
	}
	editFrame(ctx, b, chatID, userID, out.Frame.MessageID, out.Frame)
}
