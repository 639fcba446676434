package handlers

import (
	"bytes"
	"context"
	"strings"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
	"github.com/smith3v/ancestral-lingo/pkg/speech"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TelegramSpeaker sends fetched speech to the chat as an audio message.
type TelegramSpeaker struct {
	b       *bot.Bot
	fetcher speech.Fetcher
}

func NewTelegramSpeaker(b *bot.Bot, fetcher speech.Fetcher) *TelegramSpeaker {
	return &TelegramSpeaker{b: b, fetcher: fetcher}
}

func (s *TelegramSpeaker) Speak(ctx context.Context, chatID int64, req speech.Request) {
	audio, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		logger.Error("failed to fetch speech", "chat_id", chatID, "text", req.Text, "error", err)
		return
	}
	title := cases.Title(language.Spanish).String(req.Text)
	if _, err := s.b.SendAudio(ctx, &bot.SendAudioParams{
		ChatID: chatID,
		Audio: &models.InputFileUpload{
			Filename: audioFilename(req.Text),
			Data:     bytes.NewReader(audio),
		},
		Title: title,
	}); err != nil {
		logger.Error("failed to send speech", "chat_id", chatID, "error", err)
	}
}

// audioFilename keeps letters and digits of text, joined by dashes.
func audioFilename(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	name := strings.Join(fields, "-")
	if name == "" {
		name = "audio"
	}
	return name + ".mp3"
}
