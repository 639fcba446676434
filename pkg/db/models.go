package db

import (
	"time"

	"gorm.io/datatypes"
)

// ProgressRecord holds one user's progress ledger as a JSON document so new
// ledger fields need no migration.
type ProgressRecord struct {
	ID      uint           `gorm:"primaryKey"`
	UserID  int64          `gorm:"uniqueIndex"`
	Payload datatypes.JSON `gorm:"not null"`
	// RemindedOn is the local day of the last streak reminder.
	RemindedOn string `gorm:"size:10;not null;default:''"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SessionSnapshot is the resumable lesson of a user in a chat.
type SessionSnapshot struct {
	ID        uint           `gorm:"primaryKey"`
	ChatID    int64          `gorm:"index;uniqueIndex:idx_session_snapshot_user_chat"`
	UserID    int64          `gorm:"index;uniqueIndex:idx_session_snapshot_user_chat"`
	SessionID string         `gorm:"not null;default:''"`
	Language  string         `gorm:"not null;default:''"`
	Category  string         `gorm:"not null;default:''"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

// LessonAttempt is written once per finished lesson, won or lost.
type LessonAttempt struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     int64  `gorm:"index;index:idx_attempt_user_ended"`
	SessionID  string `gorm:"index;not null;default:''"`
	Language   string `gorm:"not null"`
	Category   string `gorm:"not null"`
	Success    bool   `gorm:"not null;default:false"`
	HeartsLeft int    `gorm:"not null;default:0"`
	XPEarned   int    `gorm:"not null;default:0"`
	Questions  int    `gorm:"not null;default:0"`
	Resumed    bool   `gorm:"not null;default:false"`
	StartedAt  time.Time
	EndedAt    time.Time `gorm:"not null;index:idx_attempt_user_ended"`
}
