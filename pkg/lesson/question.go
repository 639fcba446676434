package lesson

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindTranslateToSpanish Kind = "translate_to_spanish"
	KindListening          Kind = "listening"
	KindMatching           Kind = "matching"
)

type Side string

const (
	SideNative      Side = "native"
	SideTranslation Side = "translation"
)

// Question is a tagged union: Kind selects which payload is set.
type Question struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"type"`
	Choice   *Choice   `json:"choice,omitempty"`
	Matching *Matching `json:"matching,omitempty"`
}

// Choice backs the translate and listening kinds.
type Choice struct {
	Prompt        string   `json:"question,omitempty"`
	AudioText     string   `json:"audioText,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Options       []string `json:"options"`
}

type Matching struct {
	Instruction string `json:"question"`
	Cards       []Card `json:"pairs"`
}

type Card struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Side    Side   `json:"type"`
	MatchID string `json:"matchId"`
}

var (
	ErrMissingPayload   = errors.New("question payload does not match its kind")
	ErrCorrectNotOnce   = errors.New("correct answer must appear exactly once among options")
	ErrUnbalancedPairs  = errors.New("every match id must appear once per side")
	ErrUnknownKind      = errors.New("unknown question kind")
	ErrDuplicateCardIDs = errors.New("card ids must be unique")
)

func (k Kind) IsChoice() bool {
	return k == KindTranslateToSpanish || k == KindListening
}

// Validate checks the invariants of the question's kind.
func (q Question) Validate() error {
	switch q.Kind {
	case KindTranslateToSpanish, KindListening:
		if q.Choice == nil || q.Matching != nil {
			return fmt.Errorf("%s: %w", q.ID, ErrMissingPayload)
		}
		return q.Choice.validate(q.ID)
	case KindMatching:
		if q.Matching == nil || q.Choice != nil {
			return fmt.Errorf("%s: %w", q.ID, ErrMissingPayload)
		}
		return q.Matching.validate(q.ID)
	default:
		return fmt.Errorf("%s: %w %q", q.ID, ErrUnknownKind, q.Kind)
	}
}

func (c *Choice) validate(id string) error {
	found := 0
	for _, option := range c.Options {
		if option == c.CorrectAnswer {
			found++
		}
	}
	if found != 1 {
		return fmt.Errorf("%s: %w", id, ErrCorrectNotOnce)
	}
	return nil
}

func (m *Matching) validate(id string) error {
	type sides struct{ native, translation int }
	counts := make(map[string]*sides)
	seen := make(map[string]struct{}, len(m.Cards))
	for _, card := range m.Cards {
		if _, dup := seen[card.ID]; dup {
			return fmt.Errorf("%s: %w", id, ErrDuplicateCardIDs)
		}
		seen[card.ID] = struct{}{}
		entry := counts[card.MatchID]
		if entry == nil {
			entry = &sides{}
			counts[card.MatchID] = entry
		}
		switch card.Side {
		case SideNative:
			entry.native++
		case SideTranslation:
			entry.translation++
		default:
			return fmt.Errorf("%s: %w", id, ErrUnbalancedPairs)
		}
	}
	if len(counts) == 0 {
		return fmt.Errorf("%s: %w", id, ErrUnbalancedPairs)
	}
	for _, entry := range counts {
		if entry.native != 1 || entry.translation != 1 {
			return fmt.Errorf("%s: %w", id, ErrUnbalancedPairs)
		}
	}
	return nil
}

// PairCount is the number of distinct match ids on the board.
func (m *Matching) PairCount() int {
	if m == nil {
		return 0
	}
	ids := make(map[string]struct{}, len(m.Cards)/2)
	for _, card := range m.Cards {
		ids[card.MatchID] = struct{}{}
	}
	return len(ids)
}

func (m *Matching) Card(id string) (Card, bool) {
	if m == nil {
		return Card{}, false
	}
	for _, card := range m.Cards {
		if card.ID == id {
			return card, true
		}
	}
	return Card{}, false
}
