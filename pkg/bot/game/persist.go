package game

import (
	"errors"
	"time"

	"github.com/smith3v/ancestral-lingo/pkg/db"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
	"github.com/smith3v/ancestral-lingo/pkg/progress"
	"github.com/smith3v/ancestral-lingo/pkg/session"
	"github.com/smith3v/ancestral-lingo/pkg/vocab"
)

// Persistence failures never reach the player: reads fall back to defaults
// and writes are logged.

func loadProgress(userID int64) progress.Progress {
	raw, err := db.LoadProgressPayload(userID)
	if err != nil {
		logDBError("failed to load progress", userID, err)
		return progress.Default()
	}
	p, err := progress.Decode(raw)
	if err != nil {
		logger.Error("stored progress is malformed, starting over", "user_id", userID, "error", err)
	}
	return p
}

func saveProgress(userID int64, p progress.Progress, now time.Time) {
	raw, err := progress.Encode(p)
	if err != nil {
		logger.Error("failed to encode progress", "user_id", userID, "error", err)
		return
	}
	if err := db.SaveProgressPayload(userID, raw, now.UTC()); err != nil {
		logDBError("failed to save progress", userID, err)
	}
}

func loadSnapshot(chatID, userID int64) *session.Snapshot {
	row, err := db.LoadSnapshot(chatID, userID)
	if err != nil {
		logDBError("failed to load session snapshot", userID, err)
		return nil
	}
	if row == nil {
		return nil
	}
	snap := session.DecodeSnapshot(row.Payload)
	if snap == nil {
		logger.Debug("discarding unusable session snapshot", "chat_id", chatID, "user_id", userID)
		deleteSnapshot(chatID, userID)
	}
	return snap
}

func saveSnapshot(chatID, userID int64, s session.Session, now time.Time) {
	raw, err := session.EncodeSnapshot(s.Snapshot())
	if err != nil {
		logger.Error("failed to encode session snapshot", "user_id", userID, "error", err)
		return
	}
	row := &db.SessionSnapshot{
		ChatID:    chatID,
		UserID:    userID,
		SessionID: s.State.SessionID,
		Language:  string(s.State.Language),
		Category:  string(s.State.Category),
		Payload:   raw,
		UpdatedAt: now.UTC(),
	}
	if err := db.SaveSnapshot(row); err != nil {
		logDBError("failed to save session snapshot", userID, err)
	}
}

func deleteSnapshot(chatID, userID int64) {
	if err := db.DeleteSnapshot(chatID, userID); err != nil {
		logDBError("failed to delete session snapshot", userID, err)
	}
}

// resumableCategory names the category of the saved lesson when it is in
// lang, for the resume marker of the home screen.
func resumableCategory(chatID, userID int64, lang vocab.Language) vocab.CategoryID {
	row, err := db.LoadSnapshot(chatID, userID)
	if err != nil {
		logDBError("failed to load session snapshot", userID, err)
		return ""
	}
	if row == nil || vocab.Language(row.Language) != lang {
		return ""
	}
	return vocab.CategoryID(row.Category)
}

func recordAttempt(p *player, endedAt time.Time) {
	s := p.session
	attempt := &db.LessonAttempt{
		UserID:     p.userID,
		SessionID:  s.State.SessionID,
		Language:   string(s.State.Language),
		Category:   string(s.State.Category),
		Success:    s.Succeeded(),
		HeartsLeft: s.State.Hearts,
		XPEarned:   s.State.LessonXP,
		Questions:  len(s.Questions),
		Resumed:    p.resumed,
		StartedAt:  p.startedAt.UTC(),
		EndedAt:    endedAt.UTC(),
	}
	if err := db.RecordLessonAttempt(attempt); err != nil {
		logDBError("failed to record lesson attempt", p.userID, err)
	}
}

// logDBError keeps a bot without a database quiet: that is a configuration
// used by tests and local runs, not a failure.
func logDBError(msg string, userID int64, err error) {
	if errors.Is(err, db.ErrNoDatabase) {
		logger.Debug(msg, "user_id", userID, "error", err)
		return
	}
	logger.Error(msg, "user_id", userID, "error", err)
}
