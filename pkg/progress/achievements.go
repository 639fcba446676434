package progress

import (
	"errors"
	"slices"
)

type Metric string

const (
	MetricXP      Metric = "xp"
	MetricStreak  Metric = "streak"
	MetricLessons Metric = "lessons"
)

type Achievement struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Metric      Metric
	Threshold   int
	Reward      int
}

var Achievements = []Achievement{
	{ID: "streak_3", Title: "Constancia", Description: "Alcanza una racha de 3 días", Icon: "⚡", Metric: MetricStreak, Threshold: 3, Reward: 50},
	{ID: "xp_100", Title: "Estudiante Dedicado", Description: "Gana 100 XP en total", Icon: "⭐", Metric: MetricXP, Threshold: 100, Reward: 30},
	{ID: "lessons_5", Title: "Ratón de Biblioteca", Description: "Completa 5 lecciones", Icon: "📖", Metric: MetricLessons, Threshold: 5, Reward: 40},
	{ID: "xp_500", Title: "Sabio Ancestral", Description: "Gana 500 XP en total", Icon: "👑", Metric: MetricXP, Threshold: 500, Reward: 100},
	{ID: "streak_7", Title: "Imparable", Description: "Alcanza una racha de 7 días", Icon: "⚡", Metric: MetricStreak, Threshold: 7, Reward: 150},
}

var (
	ErrUnknownAchievement = errors.New("unknown achievement")
	ErrNotClaimable       = errors.New("achievement is not completed yet")
)

func LookupAchievement(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

func Value(p Progress, metric Metric) int {
	switch metric {
	case MetricXP:
		return p.Experience
	case MetricStreak:
		return p.Streak
	case MetricLessons:
		return p.LessonsCompleted
	default:
		return 0
	}
}

func Completed(p Progress, a Achievement) bool {
	return Value(p, a.Metric) >= a.Threshold
}

// Claimable reports a completed achievement whose reward was not taken yet.
func Claimable(p Progress, a Achievement) bool {
	return Completed(p, a) && !p.IsClaimed(a.ID)
}

// Percent is the progress toward the threshold, capped at 100.
func Percent(p Progress, a Achievement) int {
	if a.Threshold <= 0 {
		return 100
	}
	percent := Value(p, a.Metric) * 100 / a.Threshold
	return min(max(percent, 0), 100)
}

// Claim grants the reward once. Claiming twice returns p unchanged and
// false; claiming before the threshold is reached is an error.
func Claim(p Progress, a Achievement) (Progress, bool, error) {
	if p.IsClaimed(a.ID) {
		return p, false, nil
	}
	if !Completed(p, a) {
		return p, false, ErrNotClaimable
	}
	p.Experience += a.Reward
	claimed := make([]string, 0, len(p.ClaimedAchievements)+1)
	claimed = append(claimed, p.ClaimedAchievements...)
	p.ClaimedAchievements = append(claimed, a.ID)
	return p, true, nil
}

// ClaimableCount is shown on the goals button.
func ClaimableCount(p Progress) int {
	return len(slices.DeleteFunc(slices.Clone(Achievements), func(a Achievement) bool {
		return !Claimable(p, a)
	}))
}
