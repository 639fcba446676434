package db

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoDatabase = errors.New("database is not initialized")

// LoadProgressPayload returns the stored ledger document of a user, or nil
// when the user has none yet.
func LoadProgressPayload(userID int64) ([]byte, error) {
	if DB == nil {
		return nil, ErrNoDatabase
	}
	var record ProgressRecord
	err := DB.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record.Payload, nil
}

func SaveProgressPayload(userID int64, payload []byte, now time.Time) error {
	if DB == nil {
		return ErrNoDatabase
	}
	record := ProgressRecord{
		UserID:    userID,
		Payload:   datatypes.JSON(payload),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&record).Error
}

// ListUnremindedProgress returns the ledgers of users not yet reminded on day.
func ListUnremindedProgress(day string) ([]ProgressRecord, error) {
	if DB == nil {
		return nil, ErrNoDatabase
	}
	var records []ProgressRecord
	if err := DB.Where("reminded_on <> ?", day).Order("user_id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func MarkReminded(userID int64, day string) error {
	if DB == nil {
		return ErrNoDatabase
	}
	return DB.Model(&ProgressRecord{}).Where("user_id = ?", userID).Update("reminded_on", day).Error
}

// LoadSnapshot returns nil without error when the user has no saved lesson
// in the chat.
func LoadSnapshot(chatID, userID int64) (*SessionSnapshot, error) {
	if DB == nil {
		return nil, ErrNoDatabase
	}
	var snapshot SessionSnapshot
	err := DB.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func SaveSnapshot(snapshot *SessionSnapshot) error {
	if snapshot == nil {
		return nil
	}
	if DB == nil {
		return ErrNoDatabase
	}
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}
	return DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "chat_id"},
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "language", "category", "payload", "updated_at"}),
	}).Create(snapshot).Error
}

func DeleteSnapshot(chatID, userID int64) error {
	if DB == nil {
		return ErrNoDatabase
	}
	return DB.Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&SessionSnapshot{}).Error
}

func RecordLessonAttempt(attempt *LessonAttempt) error {
	if attempt == nil {
		return nil
	}
	if DB == nil {
		return ErrNoDatabase
	}
	return DB.Create(attempt).Error
}

// AttemptSummary counts the finished lessons of a user.
type AttemptSummary struct {
	Total int64
	Won   int64
}

func SummarizeAttempts(userID int64) (AttemptSummary, error) {
	var summary AttemptSummary
	if DB == nil {
		return summary, ErrNoDatabase
	}
	if err := DB.Model(&LessonAttempt{}).Where("user_id = ?", userID).Count(&summary.Total).Error; err != nil {
		return summary, err
	}
	if err := DB.Model(&LessonAttempt{}).Where("user_id = ? AND success = ?", userID, true).Count(&summary.Won).Error; err != nil {
		return summary, err
	}
	return summary, nil
}
