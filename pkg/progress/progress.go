// Package progress keeps the per-user ledger: experience, daily streak,
// completed categories and claimed achievements.
package progress

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/smith3v/ancestral-lingo/pkg/vocab"
)

// LessonReward is the experience granted for a successful lesson.
const LessonReward = 15

const dateLayout = "2006-01-02"

type Progress struct {
	Experience          int             `json:"experience"`
	Streak              int             `json:"streak"`
	LastActivityDate    string          `json:"lastActivityDate"`
	LessonsCompleted    int             `json:"lessonsCompleted"`
	CompletedCategories map[string]bool `json:"completedCategories"`
	ClaimedAchievements []string        `json:"claimedAchievements"`
}

func Default() Progress {
	return Progress{
		CompletedCategories: map[string]bool{},
		ClaimedAchievements: []string{},
	}
}

// Decode merges raw over the defaults, so records written before a field
// existed still load. Unparsable input yields the defaults and the error.
func Decode(raw []byte) (Progress, error) {
	p := Default()
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Default(), err
	}
	if p.CompletedCategories == nil {
		p.CompletedCategories = map[string]bool{}
	}
	if p.ClaimedAchievements == nil {
		p.ClaimedAchievements = []string{}
	}
	return p, nil
}

func Encode(p Progress) ([]byte, error) {
	return json.Marshal(p)
}

func (p Progress) IsCompleted(lang vocab.Language, cat vocab.CategoryID) bool {
	return p.CompletedCategories[vocab.CompletionKey(lang, cat)]
}

func (p Progress) IsClaimed(id string) bool {
	return slices.Contains(p.ClaimedAchievements, id)
}

// CompleteLesson records a successful lesson finished at now. Dates are
// compared as calendar days in now's location.
func CompleteLesson(p Progress, lang vocab.Language, cat vocab.CategoryID, now time.Time) Progress {
	today := now.Format(dateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)

	switch p.LastActivityDate {
	case today:
		if p.Streak == 0 {
			p.Streak = 1
		}
	case yesterday:
		p.Streak++
	default:
		p.Streak = 1
	}

	p.Experience += LessonReward
	p.LessonsCompleted++
	p.LastActivityDate = today

	completed := make(map[string]bool, len(p.CompletedCategories)+1)
	maps.Copy(completed, p.CompletedCategories)
	completed[vocab.CompletionKey(lang, cat)] = true
	p.CompletedCategories = completed
	return p
}

// StreakAtRisk reports whether the streak survives only if a lesson is
// completed on the day of now: the last lesson was yesterday.
func StreakAtRisk(p Progress, now time.Time) bool {
	return p.Streak > 0 && p.LastActivityDate == now.AddDate(0, 0, -1).Format(dateLayout)
}

// Day formats the calendar day of t the way the ledger stores it.
func Day(t time.Time) string {
	return t.Format(dateLayout)
}
