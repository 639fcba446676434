package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/smith3v/ancestral-lingo/pkg/bot/game"
	"github.com/smith3v/ancestral-lingo/pkg/bot/handlers"
	"github.com/smith3v/ancestral-lingo/pkg/bot/reminders"
	"github.com/smith3v/ancestral-lingo/pkg/config"
	"github.com/smith3v/ancestral-lingo/pkg/db"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
	"github.com/smith3v/ancestral-lingo/pkg/speech"
	"github.com/smith3v/ancestral-lingo/pkg/ui"
	"github.com/smith3v/ancestral-lingo/pkg/vocab"
	flag "github.com/spf13/pflag"
)

type botSender struct {
	b *bot.Bot
}

func (s botSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := s.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

func main() {
	configPath := flag.StringP("config", "c", "config.json", "path to the JSON config file")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	if err := logger.Configure(logger.Options{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	if err := db.InitDB(cfg.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	store, err := vocab.LoadDir(cfg.Game.VocabularyDir)
	if err != nil {
		logger.Error("failed to load vocabulary", "dir", cfg.Game.VocabularyDir, "error", err)
		os.Exit(1)
	}
	location, err := cfg.Game.Location()
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Game.Timezone, "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := bot.New(cfg.Telegram.Token, bot.WithDefaultHandler(handlers.DefaultHandler))
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	var speaker speech.Speaker = speech.Nop{}
	if cfg.Speech.Enabled {
		speaker = handlers.NewTelegramSpeaker(b, speech.NewGoogleTTS("", nil))
	}

	manager := game.NewManager(game.Options{
		Store:         store,
		QuestionCount: cfg.Game.QuestionCount,
		Location:      location,
		IdleTimeout:   cfg.Game.IdleTimeout.Duration,
	})
	timers := game.NewTimers()
	defer timers.Stop()

	h := handlers.New(handlers.Options{
		Manager:       manager,
		Timers:        timers,
		Speaker:       speaker,
		SpeechLang:    cfg.Speech.Lang,
		SpeechRate:    cfg.Speech.Rate,
		AudioDelay:    cfg.Speech.AudioDelay.Duration,
		MismatchDelay: cfg.Game.MismatchDelay.Duration,
	})

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/lesson", bot.MatchTypeExact, h.HandleLesson)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/goals", bot.MatchTypeExact, h.HandleGoals)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, ui.CallbackPrefix, bot.MatchTypePrefix, h.HandleCallback)

	go manager.StartSweeper(ctx)
	go db.StartSnapshotCleanup(ctx, db.SnapshotCleanupInterval, cfg.Game.SnapshotRetention.Duration)
	if cfg.Reminders.Enabled {
		go reminders.StartStreakReminders(ctx, botSender{b: b}, reminders.Options{
			Hour:     cfg.Reminders.Hour,
			Location: location,
		})
	}

	logger.Info("Starting bot...", "speech", cfg.Speech.Enabled, "timezone", location.String())
	b.Start(ctx)
}
