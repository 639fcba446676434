// Package lesson builds the question sequence of one lesson from a
// vocabulary category.
package lesson

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/smith3v/ancestral-lingo/pkg/vocab"
)

const (
	DefaultQuestionCount = 8
	MaxDistractors       = 3
	MatchingPairs        = 3
	MatchingInstruction  = "Empareja las palabras"

	translateThreshold = 0.35
	listeningThreshold = 0.60
)

// KindForRoll maps a uniform draw in [0,1) onto the cumulative kind
// thresholds 0.35 / 0.60 / 1.0.
func KindForRoll(roll float64) Kind {
	switch {
	case roll < translateThreshold:
		return KindTranslateToSpanish
	case roll < listeningThreshold:
		return KindListening
	default:
		return KindMatching
	}
}

// Generator is not safe for concurrent use; callers hold one per goroutine
// or serialize access.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
	typeRoll func() float64
}

func NewGenerator(src rand.Source, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	g := &Generator{
		rng: rand.New(src),
		now: now,
	}
	g.typeRoll = g.rng.Float64
	return g
}

// SetKindRoll replaces the draw that picks each question's kind. A constant
// roll yields lessons of a single kind.
func (g *Generator) SetKindRoll(roll func() float64) {
	if roll == nil {
		roll = g.rng.Float64
	}
	g.typeRoll = roll
}

// Generate returns count questions drawn from items. The answer item is
// sampled with replacement, so a lesson may repeat words. An empty item list
// yields no questions.
func (g *Generator) Generate(items []vocab.Item, count int) []Question {
	if len(items) == 0 {
		return nil
	}
	if count <= 0 {
		count = DefaultQuestionCount
	}

	stamp := g.now().UnixMilli()
	questions := make([]Question, 0, count)
	for i := 0; i < count; i++ {
		item := items[g.rng.Intn(len(items))]
		distractors := g.distractors(items, item)
		id := fmt.Sprintf("q-%d-%d", stamp, i)

		switch KindForRoll(g.typeRoll()) {
		case KindTranslateToSpanish:
			options := make([]string, 0, len(distractors)+1)
			options = append(options, item.Translation)
			for _, d := range distractors {
				options = append(options, d.Translation)
			}
			g.shuffleStrings(options)
			questions = append(questions, Question{
				ID:   id,
				Kind: KindTranslateToSpanish,
				Choice: &Choice{
					Prompt:        item.Native,
					AudioText:     item.Native,
					CorrectAnswer: item.Translation,
					Options:       options,
				},
			})
		case KindListening:
			options := make([]string, 0, len(distractors)+1)
			options = append(options, item.Native)
			for _, d := range distractors {
				options = append(options, d.Native)
			}
			g.shuffleStrings(options)
			questions = append(questions, Question{
				ID:   id,
				Kind: KindListening,
				Choice: &Choice{
					AudioText:     item.Native,
					CorrectAnswer: item.Native,
					Options:       options,
				},
			})
		default:
			questions = append(questions, Question{
				ID:       id,
				Kind:     KindMatching,
				Matching: g.matching(items),
			})
		}
	}
	return questions
}

// distractors picks up to MaxDistractors distinct items that share neither
// side with the answer, so the correct option appears exactly once.
func (g *Generator) distractors(items []vocab.Item, answer vocab.Item) []vocab.Item {
	others := make([]vocab.Item, 0, len(items))
	for _, candidate := range items {
		if candidate.Native != answer.Native && candidate.Translation != answer.Translation {
			others = append(others, candidate)
		}
	}
	return g.sample(others, MaxDistractors)
}

func (g *Generator) matching(items []vocab.Item) *Matching {
	round := g.sample(items, MatchingPairs)
	cards := make([]Card, 0, len(round)*2)
	for idx, item := range round {
		matchID := fmt.Sprintf("pair-%d", idx)
		cards = append(cards,
			Card{ID: matchID + "-n", Text: item.Native, Side: SideNative, MatchID: matchID},
			Card{ID: matchID + "-s", Text: item.Translation, Side: SideTranslation, MatchID: matchID},
		)
	}
	g.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Matching{
		Instruction: MatchingInstruction,
		Cards:       cards,
	}
}

// sample returns up to limit items chosen without replacement via an index
// permutation; the input slice is left untouched.
func (g *Generator) sample(items []vocab.Item, limit int) []vocab.Item {
	if limit > len(items) {
		limit = len(items)
	}
	perm := g.rng.Perm(len(items))
	selected := make([]vocab.Item, 0, limit)
	for i := 0; i < limit; i++ {
		selected = append(selected, items[perm[i]])
	}
	return selected
}

func (g *Generator) shuffleStrings(values []string) {
	g.rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
}
