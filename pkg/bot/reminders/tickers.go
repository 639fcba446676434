// Package reminders nudges players whose daily streak ends tonight.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/smith3v/ancestral-lingo/pkg/db"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
	"github.com/smith3v/ancestral-lingo/pkg/progress"
)

const checkInterval = time.Minute

// Sender delivers a plain text message to a chat. Reminders go to the
// private chat of the user, whose id equals the user id.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Options struct {
	// Hour is the local hour from which reminders of the day are sent.
	Hour     int
	Location *time.Location
}

func StartStreakReminders(ctx context.Context, sender Sender, opts Options) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			processReminders(ctx, sender, now, opts)
		}
	}
}

// processReminders sends the reminders due at now and returns how many were
// delivered. Each user is reminded at most once per local day.
func processReminders(ctx context.Context, sender Sender, now time.Time, opts Options) int {
	location := opts.Location
	if location == nil {
		location = time.Local
	}
	local := now.In(location)
	if local.Hour() < opts.Hour {
		return 0
	}
	day := progress.Day(local)

	records, err := db.ListUnremindedProgress(day)
	if err != nil {
		logger.Error("failed to fetch users for reminders", "error", err)
		return 0
	}

	sent := 0
	for _, record := range records {
		p, err := progress.Decode(record.Payload)
		if err != nil || !progress.StreakAtRisk(p, local) {
			continue
		}
		if err := sender.SendMessage(ctx, record.UserID, reminderText(p.Streak)); err != nil {
			logger.Error("failed to send streak reminder", "user_id", record.UserID, "error", err)
			continue
		}
		if err := db.MarkReminded(record.UserID, day); err != nil {
			logger.Error("failed to update reminder state", "user_id", record.UserID, "error", err)
		}
		sent++
	}
	if sent > 0 {
		logger.Info("streak reminders sent", "count", sent, "day", day)
	}
	return sent
}

func reminderText(streak int) string {
	days := "días"
	if streak == 1 {
		days = "día"
	}
	return fmt.Sprintf("🔥 Tu racha de %d %s termina hoy. Completa una lección para mantenerla: /start", streak, days)
}
