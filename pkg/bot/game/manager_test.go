package game

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
	"testing/fstest"
	"time"

	"github.com/smith3v/ancestral-lingo/pkg/db"
	"github.com/smith3v/ancestral-lingo/pkg/internal/testutil"
	"github.com/smith3v/ancestral-lingo/pkg/lesson"
	"github.com/smith3v/ancestral-lingo/pkg/progress"
	"github.com/smith3v/ancestral-lingo/pkg/session"
	"github.com/smith3v/ancestral-lingo/pkg/vocab"
)

const (
	testChat int64 = 100
	testUser int64 = 200
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestManager(t *testing.T, clock *testClock) *Manager {
	t.Helper()
	testutil.SetupTestDB(t)
	ids := 0
	return NewManager(Options{
		Source: rand.NewSource(11),
		Now:    clock.Now,
		NewID: func() string {
			ids++
			return "session-" + string(rune('a'+ids-1))
		},
		QuestionCount: 4,
		Location:      time.UTC,
		IdleTimeout:   10 * time.Minute,
	})
}

func newClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)}
}

// answer resolves the current question correctly or, with wrong set, with a
// mistake, and returns the outcome of the resolving action.
func answer(t *testing.T, m *Manager, wrong bool) Outcome {
	t.Helper()
	frame := m.Current(testChat, testUser)
	q, ok := frame.Session.Current()
	if !ok {
		t.Fatalf("no question on screen")
	}
	index := frame.Session.Index

	if q.Kind.IsChoice() {
		pick := slices.Index(q.Choice.Options, q.Choice.CorrectAnswer)
		if wrong {
			pick = (pick + 1) % len(q.Choice.Options)
		}
		m.SelectOption(testChat, testUser, index, pick)
		return m.Check(testChat, testUser)
	}

	var out Outcome
	for _, matchID := range pairIDs(q) {
		native, translation := cardsOf(q, matchID)
		m.SelectCard(testChat, testUser, index, native)
		if wrong {
			other := otherCard(q, matchID)
			out = m.SelectCard(testChat, testUser, index, other)
			m.ClearMismatch(testChat, testUser, index)
			return out
		}
		out = m.SelectCard(testChat, testUser, index, translation)
	}
	return out
}

func pairIDs(q lesson.Question) []string {
	var ids []string
	for _, card := range q.Matching.Cards {
		if !slices.Contains(ids, card.MatchID) {
			ids = append(ids, card.MatchID)
		}
	}
	return ids
}

func cardsOf(q lesson.Question, matchID string) (string, string) {
	var native, translation string
	for _, card := range q.Matching.Cards {
		if card.MatchID != matchID {
			continue
		}
		if card.Side == lesson.SideNative {
			native = card.ID
		} else {
			translation = card.ID
		}
	}
	return native, translation
}

func otherCard(q lesson.Question, matchID string) string {
	for _, card := range q.Matching.Cards {
		if card.MatchID != matchID {
			return card.ID
		}
	}
	return ""
}

func TestStartPersistsSnapshotAndResumes(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)

	out, err := m.Start(testChat, testUser, vocab.Colors)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !out.Changed || out.Frame.Screen != ScreenLesson {
		t.Fatalf("expected lesson screen, got %+v", out.Frame.Screen)
	}
	sessionID := out.Frame.Session.State.SessionID
	if sessionID != "session-a" {
		t.Fatalf("expected generated session id, got %q", sessionID)
	}

	row, err := db.LoadSnapshot(testChat, testUser)
	if err != nil || row == nil {
		t.Fatalf("expected snapshot row, got %v", err)
	}
	if row.SessionID != sessionID || row.Language != "kichwa" || row.Category != "colors" {
		t.Fatalf("unexpected snapshot row %+v", row)
	}

	answer(t, m, false)
	m.Continue(testChat, testUser)

	home := m.Home(testChat, testUser)
	if home.Frame.Resume != vocab.Colors {
		t.Fatalf("expected colors to be resumable, got %q", home.Frame.Resume)
	}

	toggled := m.ToggleLanguage(testChat, testUser)
	if toggled.Frame.Language != vocab.Shuar || toggled.Frame.Resume != "" {
		t.Fatalf("resume marker belongs to kichwa only, got %+v", toggled.Frame)
	}
	m.ToggleLanguage(testChat, testUser)

	resumed, err := m.Start(testChat, testUser, vocab.Colors)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed.Frame.Session.State.SessionID != sessionID || resumed.Frame.Session.Index != 1 {
		t.Fatalf("expected to resume at question 2 of %s, got %+v", sessionID, resumed.Frame.Session.State)
	}
	if resumed.Notice == "" {
		t.Fatalf("expected a resume notice")
	}
}

func TestResumeSurvivesManagerRestart(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)
	if _, err := m.Start(testChat, testUser, vocab.Animals); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	answer(t, m, true)
	before := m.Current(testChat, testUser).Session

	restarted := NewManager(Options{Now: clock.Now, Source: rand.NewSource(2), Location: time.UTC})
	out, err := restarted.Start(testChat, testUser, vocab.Animals)
	if err != nil {
		t.Fatalf("start after restart failed: %v", err)
	}
	after := out.Frame.Session
	if after.State.SessionID != before.State.SessionID || after.State.Hearts != before.State.Hearts {
		t.Fatalf("expected restored lesson, got %+v want %+v", after.State, before.State)
	}
	if after.Questions[0].ID != before.Questions[0].ID {
		t.Fatalf("expected the same questions after restart")
	}
}

func TestCompletedLessonUpdatesProgress(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)
	if _, err := m.Start(testChat, testUser, vocab.Numbers); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var last Outcome
	for i := 0; i < 4; i++ {
		answer(t, m, false)
		last = m.Continue(testChat, testUser)
	}
	if last.Frame.Screen != ScreenResult || !last.Frame.Session.Succeeded() {
		t.Fatalf("expected successful result, got screen %v", last.Frame.Screen)
	}

	p := last.Frame.Progress
	if p.Experience != progress.LessonReward || p.LessonsCompleted != 1 || p.Streak != 1 {
		t.Fatalf("unexpected progress %+v", p)
	}
	if !p.IsCompleted(vocab.Kichwa, vocab.Numbers) || p.LastActivityDate != "2024-06-03" {
		t.Fatalf("unexpected completion data %+v", p)
	}

	if row, _ := db.LoadSnapshot(testChat, testUser); row != nil {
		t.Fatalf("finished lesson must not stay resumable")
	}
	stored, err := db.LoadProgressPayload(testUser)
	if err != nil || stored == nil {
		t.Fatalf("expected stored progress, got %v", err)
	}
	decoded, _ := progress.Decode(stored)
	if decoded.Experience != progress.LessonReward {
		t.Fatalf("expected persisted experience, got %+v", decoded)
	}
	summary, err := db.SummarizeAttempts(testUser)
	if err != nil || summary.Total != 1 || summary.Won != 1 {
		t.Fatalf("expected one won attempt, got %+v / %v", summary, err)
	}

	home := m.Home(testChat, testUser)
	if home.Frame.Screen != ScreenHome || home.Frame.Session.State.View != session.ViewHome {
		t.Fatalf("expected home after result, got %+v", home.Frame.Screen)
	}
}

func TestFailedLessonKeepsProgressAndAllowsRetry(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)
	m.count = 8
	forceKind(m, lesson.KindTranslateToSpanish)
	if _, err := m.Start(testChat, testUser, vocab.Food); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var out Outcome
	for i := 0; i < session.StartingHearts; i++ {
		answer(t, m, true)
		out = m.Continue(testChat, testUser)
	}
	if out.Frame.Screen != ScreenResult || out.Frame.Session.Succeeded() {
		t.Fatalf("expected failed result, got %+v", out.Frame.Session.State)
	}
	if out.Frame.Progress.Experience != 0 || out.Frame.Progress.Streak != 0 {
		t.Fatalf("failed lesson must not change progress, got %+v", out.Frame.Progress)
	}
	summary, _ := db.SummarizeAttempts(testUser)
	if summary.Total != 1 || summary.Won != 0 {
		t.Fatalf("expected one lost attempt, got %+v", summary)
	}

	retry, err := m.Retry(testChat, testUser)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if retry.Frame.Screen != ScreenLesson || retry.Frame.Session.State.Hearts != session.StartingHearts {
		t.Fatalf("expected a fresh lesson, got %+v", retry.Frame.Session.State)
	}
	if retry.Frame.Session.State.Category != vocab.Food {
		t.Fatalf("retry must keep the category, got %s", retry.Frame.Session.State.Category)
	}
}

func TestStaleQuestionTapsAreIgnored(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)
	if _, err := m.Start(testChat, testUser, vocab.Greetings); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if out := m.SelectOption(testChat, testUser, 3, 0); out.Changed {
		t.Fatalf("tap for another question must be ignored")
	}
	if out := m.SelectCard(testChat, testUser, 3, "pair-0-n"); out.Changed {
		t.Fatalf("card tap for another question must be ignored")
	}
	if out := m.Continue(testChat, testUser); out.Changed {
		t.Fatalf("continue before answering must be ignored")
	}
}

func TestMatchingMismatchRequestsClear(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)
	forceKind(m, lesson.KindMatching)
	if _, err := m.Start(testChat, testUser, vocab.Colors); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	q, _ := m.Current(testChat, testUser).Session.Current()
	ids := pairIDs(q)
	native, _ := cardsOf(q, ids[0])

	m.SelectCard(testChat, testUser, 0, native)
	out := m.SelectCard(testChat, testUser, 0, otherCard(q, ids[0]))
	if !out.Mismatch || out.Frame.Session.State.Hearts != session.StartingHearts-1 {
		t.Fatalf("expected mismatch with a lost heart, got %+v", out)
	}

	if cleared := m.ClearMismatch(testChat, testUser, 1); cleared.Changed {
		t.Fatalf("clear for another question must be ignored")
	}
	cleared := m.ClearMismatch(testChat, testUser, 0)
	if !cleared.Changed || cleared.Frame.Session.MismatchCard != "" || cleared.Frame.Session.SelectedCard != "" {
		t.Fatalf("expected mismatch to clear, got %+v", cleared.Frame.Session)
	}
}

func TestListeningQuestionRequestsAudio(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)
	forceKind(m, lesson.KindListening)
	out, err := m.Start(testChat, testUser, vocab.Animals)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	q, _ := out.Frame.Session.Current()
	if out.Listen == "" || out.Listen != q.Choice.AudioText {
		t.Fatalf("expected listen text %q, got %q", q.Choice.AudioText, out.Listen)
	}
	if text, ok := m.ListenText(testChat, testUser, 0); !ok || text != out.Listen {
		t.Fatalf("expected listen text for question 0")
	}
	if _, ok := m.ListenText(testChat, testUser, 1); ok {
		t.Fatalf("listen text for a later question must be refused")
	}
	if text, ok := m.AudioText(testChat, testUser); !ok || text != q.Choice.AudioText {
		t.Fatalf("expected replay text, got %q", text)
	}
}

func TestEmptyCategoryStaysHome(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)
	store, err := vocab.Load(fstest.MapFS{
		"kichwa.csv": {Data: []byte("category,native,translation\ncolors,Puka,Rojo\n")},
	}, ".")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	m.store = store

	out, err := m.Start(testChat, testUser, vocab.Numbers)
	if !errors.Is(err, session.ErrEmptyLesson) {
		t.Fatalf("expected ErrEmptyLesson, got %v", err)
	}
	if out.Frame.Screen != ScreenHome {
		t.Fatalf("expected to stay home, got %v", out.Frame.Screen)
	}
	if _, err := m.Start(testChat, testUser, "sentences"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestClaimAchievement(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)

	seeded := progress.Default()
	seeded.Experience = 110
	raw, _ := progress.Encode(seeded)
	if err := db.SaveProgressPayload(testUser, raw, clock.Now()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := m.Claim(testChat, testUser, "lessons_5"); !errors.Is(err, progress.ErrNotClaimable) {
		t.Fatalf("expected ErrNotClaimable, got %v", err)
	}
	if _, err := m.Claim(testChat, testUser, "bogus"); !errors.Is(err, progress.ErrUnknownAchievement) {
		t.Fatalf("expected ErrUnknownAchievement, got %v", err)
	}

	out, err := m.Claim(testChat, testUser, "xp_100")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if !out.Changed || out.Frame.Progress.Experience != 140 {
		t.Fatalf("expected 140 XP after claim, got %+v", out.Frame.Progress)
	}
	again, err := m.Claim(testChat, testUser, "xp_100")
	if err != nil || again.Changed || again.Frame.Progress.Experience != 140 {
		t.Fatalf("second claim must be a no-op, got %+v / %v", again, err)
	}

	stored, _ := db.LoadProgressPayload(testUser)
	decoded, _ := progress.Decode(stored)
	if !decoded.IsClaimed("xp_100") || decoded.Experience != 140 {
		t.Fatalf("claim must be persisted, got %+v", decoded)
	}
}

func TestSweepIdleEvictsPlayers(t *testing.T) {
	clock := newClock()
	m := newTestManager(t, clock)
	if _, err := m.Start(testChat, testUser, vocab.Colors); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	m.Home(testChat, 999)

	clock.Advance(5 * time.Minute)
	m.Current(testChat, 999)
	clock.Advance(6 * time.Minute)

	if evicted := m.SweepIdle(); evicted != 1 {
		t.Fatalf("expected one idle player, got %d", evicted)
	}
	m.mu.Lock()
	_, stillThere := m.players[playerKey(testChat, 999)]
	_, progressCached := m.progress[testUser]
	m.mu.Unlock()
	if !stillThere || progressCached {
		t.Fatalf("expected only the idle player and its progress to be dropped")
	}

	out, err := m.Start(testChat, testUser, vocab.Colors)
	if err != nil || out.Notice == "" {
		t.Fatalf("evicted player must resume from the database, got %v", err)
	}
}

func TestPlayerKey(t *testing.T) {
	if got := playerKey(10, 20); got != "10:20" {
		t.Fatalf("expected key to be %q, got %q", "10:20", got)
	}
}

// forceKind replaces the generator with one that only produces kind.
func forceKind(m *Manager, kind lesson.Kind) {
	var roll float64
	switch kind {
	case lesson.KindTranslateToSpanish:
		roll = 0.1
	case lesson.KindListening:
		roll = 0.5
	default:
		roll = 0.9
	}
	m.generator = lesson.NewGenerator(rand.NewSource(5), m.now)
	m.generator.SetKindRoll(func() float64 { return roll })
}
