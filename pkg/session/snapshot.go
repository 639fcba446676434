package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smith3v/ancestral-lingo/pkg/lesson"
)

// Snapshot is the resumable form of an unfinished lesson.
type Snapshot struct {
	State        GameState         `json:"gameState"`
	Questions    []lesson.Question `json:"questions"`
	CurrentIndex int               `json:"currentIndex"`
	MatchedPairs []string          `json:"matchedPairs"`
}

var errInvalidSnapshot = errors.New("invalid session snapshot")

func (s Session) Snapshot() Snapshot {
	return Snapshot{
		State:        s.State,
		Questions:    s.Questions,
		CurrentIndex: s.Index,
		MatchedPairs: append([]string(nil), s.MatchedPairs...),
	}
}

func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// DecodeSnapshot returns nil for absent, unparsable or inconsistent data:
// a broken snapshot is the same as no snapshot.
func DecodeSnapshot(raw []byte) *Snapshot {
	if len(raw) == 0 {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil
	}
	if err := snap.validate(); err != nil {
		return nil
	}
	return &snap
}

func (snap Snapshot) validate() error {
	if snap.State.View != ViewLesson {
		return fmt.Errorf("%w: view %q", errInvalidSnapshot, snap.State.View)
	}
	if !snap.State.Language.Valid() || !snap.State.Category.Valid() {
		return fmt.Errorf("%w: unknown language or category", errInvalidSnapshot)
	}
	if len(snap.Questions) == 0 || snap.CurrentIndex < 0 || snap.CurrentIndex >= len(snap.Questions) {
		return fmt.Errorf("%w: index %d of %d", errInvalidSnapshot, snap.CurrentIndex, len(snap.Questions))
	}
	if snap.State.Hearts < 0 || snap.State.Hearts > StartingHearts {
		return fmt.Errorf("%w: hearts %d", errInvalidSnapshot, snap.State.Hearts)
	}
	for _, q := range snap.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("%w: %w", errInvalidSnapshot, err)
		}
	}
	return nil
}

// Restore rebuilds a session from a snapshot. Per-question UI state
// (selection, feedback) is not persisted and starts over, except that a
// solved board or an empty heart bar still has to be acknowledged.
func Restore(snap Snapshot) Session {
	s := Session{
		State:        snap.State,
		Questions:    snap.Questions,
		Index:        snap.CurrentIndex,
		MatchedPairs: append([]string(nil), snap.MatchedPairs...),
		Status:       StatusIdle,
	}
	s.State.View = ViewLesson
	if q, ok := s.Current(); ok && q.Kind == lesson.KindMatching {
		if len(s.MatchedPairs) >= q.Matching.PairCount() {
			s.Status = StatusCorrect
		}
	}
	if s.State.Hearts == 0 {
		s.Status = StatusIncorrect
	}
	return s
}
