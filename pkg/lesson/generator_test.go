package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/smith3v/ancestral-lingo/pkg/vocab"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(rand.NewSource(seed), fixedNow)
}

func TestKindForRoll(t *testing.T) {
	tests := []struct {
		roll float64
		want Kind
	}{
		{roll: 0, want: KindTranslateToSpanish},
		{roll: 0.1, want: KindTranslateToSpanish},
		{roll: 0.3499, want: KindTranslateToSpanish},
		{roll: 0.35, want: KindListening},
		{roll: 0.5999, want: KindListening},
		{roll: 0.6, want: KindMatching},
		{roll: 0.999, want: KindMatching},
	}
	for _, tt := range tests {
		if got := KindForRoll(tt.roll); got != tt.want {
			t.Fatalf("KindForRoll(%v) = %s, want %s", tt.roll, got, tt.want)
		}
	}
}

func TestGenerateEmptyCategory(t *testing.T) {
	g := newTestGenerator(1)
	if got := g.Generate(nil, 8); len(got) != 0 {
		t.Fatalf("expected no questions for empty category, got %d", len(got))
	}
}

func TestGenerateInvariantsForEveryCategory(t *testing.T) {
	store := vocab.Default()
	for seed := int64(1); seed <= 20; seed++ {
		g := newTestGenerator(seed)
		for _, lang := range vocab.Languages {
			for _, category := range vocab.Categories {
				items := store.Items(lang, category.ID)
				questions := g.Generate(items, 8)
				if len(questions) != 8 {
					t.Fatalf("%s/%s: expected 8 questions, got %d", lang, category.ID, len(questions))
				}
				for _, q := range questions {
					if err := q.Validate(); err != nil {
						t.Fatalf("%s/%s seed %d: %v", lang, category.ID, seed, err)
					}
					if q.Kind == KindMatching && len(q.Matching.Cards) != MatchingPairs*2 {
						t.Fatalf("expected %d cards, got %d", MatchingPairs*2, len(q.Matching.Cards))
					}
				}
			}
		}
	}
}

func TestGenerateDefaultCount(t *testing.T) {
	g := newTestGenerator(3)
	questions := g.Generate(vocab.Default().Items(vocab.Kichwa, vocab.Food), 0)
	if len(questions) != DefaultQuestionCount {
		t.Fatalf("expected default count %d, got %d", DefaultQuestionCount, len(questions))
	}
}

func TestGenerateForcedTranslateQuestion(t *testing.T) {
	items := vocab.Default().Items(vocab.Kichwa, vocab.Numbers)
	if len(items) != 16 {
		t.Fatalf("expected 16 numbers, got %d", len(items))
	}
	g := newTestGenerator(42)
	g.typeRoll = func() float64 { return 0.1 }

	questions := g.Generate(items, 8)
	if len(questions) != 8 {
		t.Fatalf("expected 8 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if q.Kind != KindTranslateToSpanish {
			t.Fatalf("expected translate question, got %s", q.Kind)
		}
		if len(q.Choice.Options) != 4 {
			t.Fatalf("expected 4 options, got %d", len(q.Choice.Options))
		}
		var source *vocab.Item
		for i := range items {
			if items[i].Native == q.Choice.Prompt {
				source = &items[i]
			}
		}
		if source == nil {
			t.Fatalf("prompt %q is not a category item", q.Choice.Prompt)
		}
		if q.Choice.CorrectAnswer != source.Translation {
			t.Fatalf("expected correct answer %q, got %q", source.Translation, q.Choice.CorrectAnswer)
		}
		if q.Choice.AudioText != source.Native {
			t.Fatalf("expected audio text to be the native word")
		}
	}
}

func TestGenerateForcedListeningQuestion(t *testing.T) {
	items := vocab.Default().Items(vocab.Shuar, vocab.Animals)
	g := newTestGenerator(7)
	g.typeRoll = func() float64 { return 0.5 }

	for _, q := range g.Generate(items, 5) {
		if q.Kind != KindListening {
			t.Fatalf("expected listening question, got %s", q.Kind)
		}
		if q.Choice.Prompt != "" {
			t.Fatalf("listening questions carry no text prompt")
		}
		if q.Choice.CorrectAnswer != q.Choice.AudioText {
			t.Fatalf("listening answer must be the spoken native word")
		}
	}
}

func TestGenerateSmallCategoryLimitsOptions(t *testing.T) {
	items := []vocab.Item{
		{Native: "Ari", Translation: "Sí"},
		{Native: "Mana", Translation: "No"},
	}
	g := newTestGenerator(5)
	g.typeRoll = func() float64 { return 0.9 }

	for _, q := range g.Generate(items, 4) {
		if err := q.Validate(); err != nil {
			t.Fatalf("invalid question: %v", err)
		}
		if got := q.Matching.PairCount(); got != 2 {
			t.Fatalf("expected 2 pairs from a 2-item category, got %d", got)
		}
	}

	g.typeRoll = func() float64 { return 0 }
	for _, q := range g.Generate(items, 4) {
		if len(q.Choice.Options) != 2 {
			t.Fatalf("expected 2 options, got %d", len(q.Choice.Options))
		}
	}
}

func TestGenerateSameSeedIsDeterministic(t *testing.T) {
	items := vocab.Default().Items(vocab.Kichwa, vocab.Colors)
	first, err := json.Marshal(newTestGenerator(99).Generate(items, 8))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	second, err := json.Marshal(newTestGenerator(99).Generate(items, 8))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected identical lessons for identical seeds")
	}
}

func TestGenerateQuestionIDs(t *testing.T) {
	questions := newTestGenerator(1).Generate(vocab.Default().Items(vocab.Kichwa, vocab.Food), 3)
	for i, q := range questions {
		want := fmt.Sprintf("q-%d-%d", fixedNow().UnixMilli(), i)
		if q.ID != want {
			t.Fatalf("expected id %q, got %q", want, q.ID)
		}
	}
}

func TestValidateRejectsBrokenQuestions(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want error
	}{
		{
			name: "duplicate correct option",
			q: Question{ID: "q", Kind: KindTranslateToSpanish, Choice: &Choice{
				CorrectAnswer: "Uno", Options: []string{"Uno", "Dos", "Uno"},
			}},
			want: ErrCorrectNotOnce,
		},
		{
			name: "missing correct option",
			q: Question{ID: "q", Kind: KindListening, Choice: &Choice{
				CorrectAnswer: "Shuk", Options: []string{"Ishkay"},
			}},
			want: ErrCorrectNotOnce,
		},
		{
			name: "matching without payload",
			q:    Question{ID: "q", Kind: KindMatching},
			want: ErrMissingPayload,
		},
		{
			name: "choice with matching payload",
			q:    Question{ID: "q", Kind: KindListening, Choice: &Choice{}, Matching: &Matching{}},
			want: ErrMissingPayload,
		},
		{
			name: "unbalanced pair",
			q: Question{ID: "q", Kind: KindMatching, Matching: &Matching{Cards: []Card{
				{ID: "a", MatchID: "pair-0", Side: SideNative},
				{ID: "b", MatchID: "pair-0", Side: SideNative},
			}}},
			want: ErrUnbalancedPairs,
		},
		{
			name: "duplicate card ids",
			q: Question{ID: "q", Kind: KindMatching, Matching: &Matching{Cards: []Card{
				{ID: "a", MatchID: "pair-0", Side: SideNative},
				{ID: "a", MatchID: "pair-0", Side: SideTranslation},
			}}},
			want: ErrDuplicateCardIDs,
		},
		{
			name: "unknown kind",
			q:    Question{ID: "q", Kind: "translate_to_native"},
			want: ErrUnknownKind,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.q.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMatchingCardLookup(t *testing.T) {
	m := &Matching{Cards: []Card{
		{ID: "pair-0-n", Text: "Puka", Side: SideNative, MatchID: "pair-0"},
		{ID: "pair-0-s", Text: "Rojo", Side: SideTranslation, MatchID: "pair-0"},
	}}
	card, ok := m.Card("pair-0-s")
	if !ok || card.Text != "Rojo" {
		t.Fatalf("expected to find translation card, got %+v", card)
	}
	if _, ok := m.Card("pair-9-n"); ok {
		t.Fatalf("unexpected card found")
	}
	if m.PairCount() != 1 {
		t.Fatalf("expected one pair")
	}
}
