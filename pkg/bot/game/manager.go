// Package game owns the live players of the bot: their lesson sessions,
// cached progress and the persistence that keeps both across restarts.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smith3v/ancestral-lingo/pkg/lesson"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
	"github.com/smith3v/ancestral-lingo/pkg/progress"
	"github.com/smith3v/ancestral-lingo/pkg/random"
	"github.com/smith3v/ancestral-lingo/pkg/session"
	"github.com/smith3v/ancestral-lingo/pkg/vocab"
)

const (
	DefaultIdleTimeout = 30 * time.Minute
	SweeperInterval    = 1 * time.Minute
)

var (
	ErrNoLesson        = errors.New("no lesson in progress")
	ErrUnknownCategory = errors.New("unknown category")
)

// Screen is what the player's game message currently shows.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenGoals
	ScreenLesson
	ScreenResult
)

// Frame is a copy of everything needed to render a player's screen. It is
// safe to use after the manager lock is released.
type Frame struct {
	Screen    Screen
	Language  vocab.Language
	Session   session.Session
	Progress  progress.Progress
	Resume    vocab.CategoryID
	MessageID int
}

// Outcome reports the effect of one player action.
type Outcome struct {
	// Changed is false when the action was ignored and nothing needs redrawing.
	Changed bool
	Frame   Frame
	Notice  string
	// Listen carries the word to speak once a listening question appears.
	Listen string
	// Mismatch asks the caller to schedule ClearMismatch.
	Mismatch bool
}

type player struct {
	chatID         int64
	userID         int64
	screen         Screen
	language       vocab.Language
	session        session.Session
	resumed        bool
	startedAt      time.Time
	lastActivityAt time.Time
	messageID      int
}

// Options configures a Manager. Generator, when set, replaces the one built
// from Source.
type Options struct {
	Store         *vocab.Store
	Source        rand.Source
	Generator     *lesson.Generator
	Now           func() time.Time
	NewID         func() string
	QuestionCount int
	Location      *time.Location
	IdleTimeout   time.Duration
}

// Manager serializes all player state behind one mutex.
type Manager struct {
	mu        sync.Mutex
	players   map[string]*player
	progress  map[int64]progress.Progress
	store     *vocab.Store
	generator *lesson.Generator
	now       func() time.Time
	newID     func() string
	count     int
	location  *time.Location
	idle      time.Duration
}

func NewManager(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Source == nil {
		opts.Source = random.NewSource()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Store == nil {
		opts.Store = vocab.Default()
	}
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = lesson.DefaultQuestionCount
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Generator == nil {
		opts.Generator = lesson.NewGenerator(opts.Source, opts.Now)
	}
	return &Manager{
		players:   make(map[string]*player),
		progress:  make(map[int64]progress.Progress),
		store:     opts.Store,
		generator: opts.Generator,
		now:       opts.Now,
		newID:     opts.NewID,
		count:     opts.QuestionCount,
		location:  opts.Location,
		idle:      opts.IdleTimeout,
	}
}

func playerKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}

// playerLocked returns the player, creating it on the first interaction.
func (m *Manager) playerLocked(chatID, userID int64) *player {
	key := playerKey(chatID, userID)
	p := m.players[key]
	if p == nil {
		p = &player{
			chatID:   chatID,
			userID:   userID,
			screen:   ScreenHome,
			language: vocab.Kichwa,
			session:  session.Home(),
		}
		m.players[key] = p
	}
	p.lastActivityAt = m.now()
	return p
}

func (m *Manager) progressLocked(userID int64) progress.Progress {
	if p, ok := m.progress[userID]; ok {
		return p
	}
	p := loadProgress(userID)
	m.progress[userID] = p
	return p
}

func (m *Manager) setProgressLocked(userID int64, p progress.Progress) {
	m.progress[userID] = p
	saveProgress(userID, p, m.now())
}

func (m *Manager) frameLocked(p *player) Frame {
	frame := Frame{
		Screen:    p.screen,
		Language:  p.language,
		Session:   p.session,
		Progress:  m.progressLocked(p.userID),
		MessageID: p.messageID,
	}
	if p.screen == ScreenHome {
		frame.Resume = resumableCategory(p.chatID, p.userID, p.language)
	}
	return frame
}

func (m *Manager) changedLocked(p *player) Outcome {
	return Outcome{Changed: true, Frame: m.frameLocked(p)}
}

// Home shows the category screen. A lesson left this way stays resumable.
func (m *Manager) Home(chatID, userID int64) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	m.leaveLessonLocked(p)
	p.screen = ScreenHome
	return m.changedLocked(p)
}

func (m *Manager) Goals(chatID, userID int64) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	m.leaveLessonLocked(p)
	p.screen = ScreenGoals
	return m.changedLocked(p)
}

func (m *Manager) ToggleLanguage(chatID, userID int64) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	if p.screen != ScreenHome {
		return Outcome{Frame: m.frameLocked(p)}
	}
	p.language = p.language.Other()
	return m.changedLocked(p)
}

// Current returns the player's screen without changing it.
func (m *Manager) Current(chatID, userID int64) Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameLocked(m.playerLocked(chatID, userID))
}

// Start opens a lesson of category in the selected language, resuming the
// saved one when it belongs to the same pair.
func (m *Manager) Start(chatID, userID int64, category vocab.CategoryID) (Outcome, error) {
	if !category.Valid() {
		return Outcome{}, ErrUnknownCategory
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	return m.startLocked(p, category, loadSnapshot(chatID, userID))
}

// Retry discards the saved lesson and starts the same category over.
func (m *Manager) Retry(chatID, userID int64) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	category := p.session.State.Category
	if language := p.session.State.Language; language.Valid() {
		p.language = language
	}
	if !category.Valid() {
		return Outcome{Frame: m.frameLocked(p)}, ErrNoLesson
	}
	deleteSnapshot(chatID, userID)
	return m.startLocked(p, category, nil)
}

func (m *Manager) startLocked(p *player, category vocab.CategoryID, saved *session.Snapshot) (Outcome, error) {
	items := m.store.Items(p.language, category)
	s, resumed, err := session.Start(saved, session.Request{
		Language: p.language,
		Category: category,
		Generate: func() []lesson.Question { return m.generator.Generate(items, m.count) },
		NewID:    m.newID,
	})
	if err != nil {
		logger.Info("lesson could not start", "user_id", p.userID, "language", p.language, "category", category, "error", err)
		return Outcome{Frame: m.frameLocked(p)}, err
	}

	p.session = s
	p.screen = ScreenLesson
	p.resumed = resumed
	p.startedAt = m.now()
	if !resumed {
		m.persistSessionLocked(p)
	}
	logger.Debug("lesson started", "user_id", p.userID, "session_id", s.State.SessionID, "resumed", resumed)

	out := m.changedLocked(p)
	out.Listen = listenText(s)
	if resumed {
		out.Notice = "Lección reanudada"
	}
	return out, nil
}

// SelectOption marks option for the question at index question. Taps on a
// message of an earlier question are ignored.
func (m *Manager) SelectOption(chatID, userID int64, question, option int) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	q, ok := m.activeQuestionLocked(p, question)
	if !ok || !q.Kind.IsChoice() || option < 0 || option >= len(q.Choice.Options) {
		return Outcome{Frame: m.frameLocked(p)}
	}
	next, changed := session.SelectOption(p.session, q.Choice.Options[option])
	if !changed {
		return Outcome{Frame: m.frameLocked(p)}
	}
	p.session = next
	return m.changedLocked(p)
}

func (m *Manager) Check(chatID, userID int64) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	if p.screen != ScreenLesson {
		return Outcome{Frame: m.frameLocked(p)}
	}
	if p.session.SelectedOption == "" && p.session.Status == session.StatusIdle {
		return Outcome{Frame: m.frameLocked(p), Notice: "Selecciona una opción"}
	}
	next, verdict := session.Check(p.session)
	if !verdict.Applied {
		return Outcome{Frame: m.frameLocked(p)}
	}
	p.session = next
	m.persistSessionLocked(p)
	out := m.changedLocked(p)
	out.Notice = "¡Excelente!"
	if !verdict.Correct {
		out.Notice = "Respuesta incorrecta"
	}
	return out
}

func (m *Manager) SelectCard(chatID, userID int64, question int, cardID string) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	if _, ok := m.activeQuestionLocked(p, question); !ok {
		return Outcome{Frame: m.frameLocked(p)}
	}
	next, card := session.SelectCard(p.session, cardID)
	if card.Result == session.CardIgnored {
		return Outcome{Frame: m.frameLocked(p)}
	}
	p.session = next

	if card.Result == session.CardMatched || card.Result == session.CardMismatched {
		m.persistSessionLocked(p)
	}
	out := m.changedLocked(p)
	switch card.Result {
	case session.CardMatched:
		if card.Solved {
			out.Notice = "¡Excelente!"
		}
	case session.CardMismatched:
		out.Notice = "No es un par"
		out.Mismatch = next.MismatchCard != ""
	}
	return out
}

// ClearMismatch drops the mismatch highlight of the question at index
// question once its display delay has passed.
func (m *Manager) ClearMismatch(chatID, userID int64, question int) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.players[playerKey(chatID, userID)]
	if p == nil || p.screen != ScreenLesson || p.session.Index != question {
		return Outcome{}
	}
	next, cleared := session.ClearMismatch(p.session)
	if !cleared {
		return Outcome{Frame: m.frameLocked(p)}
	}
	p.session = next
	return m.changedLocked(p)
}

// Continue acknowledges the feedback. Finishing a lesson records the attempt
// and, on success, credits the progress ledger.
func (m *Manager) Continue(chatID, userID int64) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	if p.screen != ScreenLesson {
		return Outcome{Frame: m.frameLocked(p)}
	}
	next, transition := session.Continue(p.session)
	switch transition {
	case session.TransitionAdvanced:
		p.session = next
		m.persistSessionLocked(p)
		out := m.changedLocked(p)
		out.Listen = listenText(next)
		return out
	case session.TransitionFinished:
		p.session = next
		p.screen = ScreenResult
		m.finishLocked(p)
		return m.changedLocked(p)
	default:
		return Outcome{Frame: m.frameLocked(p)}
	}
}

func (m *Manager) finishLocked(p *player) {
	now := m.now()
	s := p.session
	deleteSnapshot(p.chatID, p.userID)
	recordAttempt(p, now)
	if s.Succeeded() {
		updated := progress.CompleteLesson(m.progressLocked(p.userID), s.State.Language, s.State.Category, now.In(m.location))
		m.setProgressLocked(p.userID, updated)
	}
	logger.Info("lesson finished",
		"user_id", p.userID,
		"session_id", s.State.SessionID,
		"language", s.State.Language,
		"category", s.State.Category,
		"success", s.Succeeded(),
		"hearts", s.State.Hearts,
	)
}

// Claim credits the reward of a completed achievement once. Claims are made
// from the goals screen, which stays on display.
func (m *Manager) Claim(chatID, userID int64, achievementID string) (Outcome, error) {
	a, ok := progress.LookupAchievement(achievementID)
	if !ok {
		return Outcome{}, progress.ErrUnknownAchievement
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(chatID, userID)
	m.leaveLessonLocked(p)
	p.screen = ScreenGoals
	updated, applied, err := progress.Claim(m.progressLocked(userID), a)
	if err != nil {
		return Outcome{Frame: m.frameLocked(p)}, err
	}
	if !applied {
		return Outcome{Frame: m.frameLocked(p), Notice: "Ya reclamado"}, nil
	}
	m.setProgressLocked(userID, updated)
	logger.Info("achievement claimed", "user_id", userID, "achievement", a.ID, "reward", a.Reward)
	out := m.changedLocked(p)
	out.Notice = fmt.Sprintf("+%d XP", a.Reward)
	return out, nil
}

// AudioText is the word behind the replay button of the current question.
func (m *Manager) AudioText(chatID, userID int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.players[playerKey(chatID, userID)]
	if p == nil || p.screen != ScreenLesson {
		return "", false
	}
	q, ok := p.session.Current()
	if !ok || !q.Kind.IsChoice() || q.Choice.AudioText == "" {
		return "", false
	}
	p.lastActivityAt = m.now()
	return q.Choice.AudioText, true
}

// ListenText returns the word of the listening question at index question,
// if that question is still on screen.
func (m *Manager) ListenText(chatID, userID int64, question int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.players[playerKey(chatID, userID)]
	if p == nil || p.screen != ScreenLesson || p.session.Index != question {
		return "", false
	}
	text := listenText(p.session)
	return text, text != ""
}

// SetMessageID remembers the message that shows the player's screen.
func (m *Manager) SetMessageID(chatID, userID int64, messageID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerLocked(chatID, userID).messageID = messageID
}

func (m *Manager) activeQuestionLocked(p *player, question int) (lesson.Question, bool) {
	if p.screen != ScreenLesson || p.session.Index != question {
		return lesson.Question{}, false
	}
	return p.session.Current()
}

// leaveLessonLocked closes the lesson on screen; an unfinished one keeps its
// snapshot so the category shows as resumable.
func (m *Manager) leaveLessonLocked(p *player) {
	if p.screen == ScreenLesson && p.session.Resumable() {
		m.persistSessionLocked(p)
	}
	if lang := p.session.State.Language; lang.Valid() {
		p.language = lang
	}
	p.session = session.ReturnHome(p.session)
}

func (m *Manager) persistSessionLocked(p *player) {
	if !p.session.Resumable() {
		return
	}
	saveSnapshot(p.chatID, p.userID, p.session, m.now())
}

func listenText(s session.Session) string {
	q, ok := s.Current()
	if !ok || q.Kind != lesson.KindListening || s.Status != session.StatusIdle {
		return ""
	}
	return q.Choice.AudioText
}

// StartSweeper evicts idle players every SweeperInterval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(SweeperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.SweepIdle(); n > 0 {
				logger.Debug("idle players evicted", "count", n)
			}
		}
	}
}

// SweepIdle forgets players idle for longer than the idle timeout. Their
// unfinished lessons remain in the database and resume on the next visit.
func (m *Manager) SweepIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	evicted := 0
	active := make(map[int64]bool, len(m.players))
	for key, p := range m.players {
		if now.Sub(p.lastActivityAt) > m.idle {
			delete(m.players, key)
			evicted++
			continue
		}
		active[p.userID] = true
	}
	for userID := range m.progress {
		if !active[userID] {
			delete(m.progress, userID)
		}
	}
	return evicted
}
