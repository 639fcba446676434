// Package session is the lesson state machine. Every transition is a pure
// function: it takes the current Session value and returns the next one
// without touching the previous value's slices.
package session

import (
	"errors"
	"slices"

	"github.com/smith3v/ancestral-lingo/pkg/lesson"
	"github.com/smith3v/ancestral-lingo/pkg/progress"
	"github.com/smith3v/ancestral-lingo/pkg/vocab"
)

type View string

const (
	ViewHome   View = "home"
	ViewLesson View = "lesson"
	ViewResult View = "result"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"
)

const (
	StartingHearts = 5
	LessonReward   = progress.LessonReward
)

var ErrEmptyLesson = errors.New("category has no vocabulary")

// GameState is the part of a session that survives in a snapshot as "state".
type GameState struct {
	View      View             `json:"view"`
	Language  vocab.Language   `json:"activeLanguage,omitempty"`
	Category  vocab.CategoryID `json:"activeCategory,omitempty"`
	Hearts    int              `json:"hearts"`
	LessonXP  int              `json:"currentLessonXP"`
	SessionID string           `json:"sessionId,omitempty"`
}

type Session struct {
	State        GameState
	Questions    []lesson.Question
	Index        int
	MatchedPairs []string

	Status         Status
	SelectedOption string
	SelectedCard   string
	MismatchCard   string
	Complete       bool
}

// Home is the initial state of every player.
func Home() Session {
	return Session{
		State:  GameState{View: ViewHome, Hearts: StartingHearts},
		Status: StatusIdle,
	}
}

type Request struct {
	Language vocab.Language
	Category vocab.CategoryID
	Generate func() []lesson.Question
	NewID    func() string
}

// Start resumes saved when it belongs to the requested language and category,
// otherwise it generates a fresh lesson. The bool reports a resume.
func Start(saved *Snapshot, req Request) (Session, bool, error) {
	if saved != nil &&
		saved.State.View == ViewLesson &&
		saved.State.Language == req.Language &&
		saved.State.Category == req.Category {
		return Restore(*saved), true, nil
	}

	var questions []lesson.Question
	if req.Generate != nil {
		questions = req.Generate()
	}
	if len(questions) == 0 {
		return Home(), false, ErrEmptyLesson
	}

	id := ""
	if req.NewID != nil {
		id = req.NewID()
	}
	return Session{
		State: GameState{
			View:      ViewLesson,
			Language:  req.Language,
			Category:  req.Category,
			Hearts:    StartingHearts,
			SessionID: id,
		},
		Questions: questions,
		Status:    StatusIdle,
	}, false, nil
}

// Current returns the question on screen.
func (s Session) Current() (lesson.Question, bool) {
	if s.State.View != ViewLesson || s.Index < 0 || s.Index >= len(s.Questions) {
		return lesson.Question{}, false
	}
	return s.Questions[s.Index], true
}

// Resumable reports whether the session must be snapshotted.
func (s Session) Resumable() bool {
	return s.State.View == ViewLesson && len(s.Questions) > 0 && !s.Complete
}

func (s Session) Succeeded() bool {
	return s.State.View == ViewResult && s.State.LessonXP > 0
}

func (s Session) IsMatched(matchID string) bool {
	return slices.Contains(s.MatchedPairs, matchID)
}

// SelectOption marks a choice option; it is ignored once the answer is checked.
func SelectOption(s Session, option string) (Session, bool) {
	q, ok := s.Current()
	if !ok || !q.Kind.IsChoice() || s.Status != StatusIdle {
		return s, false
	}
	if !slices.Contains(q.Choice.Options, option) {
		return s, false
	}
	s.SelectedOption = option
	return s, true
}

type Verdict struct {
	Applied bool
	Correct bool
}

// Check evaluates the selected option against the current choice question.
// A wrong answer costs one heart and must be acknowledged with Continue.
func Check(s Session) (Session, Verdict) {
	q, ok := s.Current()
	if !ok || !q.Kind.IsChoice() || s.Status != StatusIdle || s.SelectedOption == "" {
		return s, Verdict{}
	}
	if s.SelectedOption == q.Choice.CorrectAnswer {
		s.Status = StatusCorrect
		return s, Verdict{Applied: true, Correct: true}
	}
	s.Status = StatusIncorrect
	s.State.Hearts = loseHeart(s.State.Hearts)
	return s, Verdict{Applied: true}
}

type CardResult int

const (
	CardIgnored CardResult = iota
	CardSelected
	CardDeselected
	CardMatched
	CardMismatched
)

type CardOutcome struct {
	Result CardResult
	// Solved is set when the match resolved the last pair of the board.
	Solved bool
}

// SelectCard applies one tap on a matching card.
func SelectCard(s Session, cardID string) (Session, CardOutcome) {
	q, ok := s.Current()
	if !ok || q.Kind != lesson.KindMatching || s.Status != StatusIdle {
		return s, CardOutcome{}
	}
	card, ok := q.Matching.Card(cardID)
	if !ok || s.IsMatched(card.MatchID) {
		return s, CardOutcome{}
	}
	s.MismatchCard = ""

	if s.SelectedCard == "" {
		s.SelectedCard = cardID
		return s, CardOutcome{Result: CardSelected}
	}
	if s.SelectedCard == cardID {
		s.SelectedCard = ""
		return s, CardOutcome{Result: CardDeselected}
	}

	previous, ok := q.Matching.Card(s.SelectedCard)
	if ok && previous.MatchID == card.MatchID {
		matched := make([]string, 0, len(s.MatchedPairs)+1)
		matched = append(matched, s.MatchedPairs...)
		s.MatchedPairs = append(matched, card.MatchID)
		s.SelectedCard = ""
		solved := len(s.MatchedPairs) >= q.Matching.PairCount()
		if solved {
			s.Status = StatusCorrect
		}
		return s, CardOutcome{Result: CardMatched, Solved: solved}
	}

	// The wrong pick stays highlighted until ClearMismatch runs.
	s.MismatchCard = cardID
	s.State.Hearts = loseHeart(s.State.Hearts)
	if s.State.Hearts == 0 {
		s.Status = StatusIncorrect
	}
	return s, CardOutcome{Result: CardMismatched}
}

// ClearMismatch drops the selection after a mismatch highlight expires.
func ClearMismatch(s Session) (Session, bool) {
	if s.MismatchCard == "" {
		return s, false
	}
	s.SelectedCard = ""
	s.MismatchCard = ""
	return s, true
}

type Transition int

const (
	TransitionIgnored Transition = iota
	TransitionAdvanced
	TransitionFinished
)

// Continue acknowledges the feedback of the current question. Out of hearts
// or past the last question, the lesson moves to the result view.
func Continue(s Session) (Session, Transition) {
	if s.State.View != ViewLesson || s.Status == StatusIdle {
		return s, TransitionIgnored
	}
	if s.State.Hearts == 0 {
		return finish(s, false), TransitionFinished
	}
	if s.Index < len(s.Questions)-1 {
		s.Index++
		s.Status = StatusIdle
		s.SelectedOption = ""
		s.SelectedCard = ""
		s.MismatchCard = ""
		s.MatchedPairs = nil
		return s, TransitionAdvanced
	}
	return finish(s, true), TransitionFinished
}

func finish(s Session, success bool) Session {
	s.Complete = true
	s.State.View = ViewResult
	s.State.LessonXP = 0
	if success {
		s.State.LessonXP = LessonReward
	}
	s.SelectedOption = ""
	s.SelectedCard = ""
	s.MismatchCard = ""
	return s
}

// ReturnHome leaves the result (or an abandoned lesson) for the home view.
// The snapshot of an abandoned lesson is left to the caller.
func ReturnHome(Session) Session {
	return Home()
}

func loseHeart(hearts int) int {
	if hearts <= 0 {
		return 0
	}
	return hearts - 1
}
