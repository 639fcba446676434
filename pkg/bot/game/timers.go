package game

import (
	"fmt"
	"sync"
	"time"
)

// TimerKind separates the delayed effects a player can have pending.
type TimerKind string

const (
	TimerAudio    TimerKind = "audio"
	TimerMismatch TimerKind = "mismatch"
)

// Timers runs delayed callbacks keyed per player and kind. Scheduling a key
// again replaces the pending callback.
type Timers struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

func NewTimers() *Timers {
	return &Timers{pending: make(map[string]*time.Timer)}
}

func timerKey(chatID, userID int64, kind TimerKind) string {
	return fmt.Sprintf("%d:%d:%s", chatID, userID, kind)
}

func (t *Timers) Schedule(chatID, userID int64, kind TimerKind, delay time.Duration, fn func()) {
	key := timerKey(chatID, userID, kind)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if previous := t.pending[key]; previous != nil {
		previous.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if t.pending[key] != timer {
			t.mu.Unlock()
			return
		}
		delete(t.pending, key)
		t.mu.Unlock()
		fn()
	})
	t.pending[key] = timer
}

// Cancel drops every pending callback of the player.
func (t *Timers) Cancel(chatID, userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, kind := range []TimerKind{TimerAudio, TimerMismatch} {
		key := timerKey(chatID, userID, kind)
		if timer := t.pending[key]; timer != nil {
			timer.Stop()
			delete(t.pending, key)
		}
	}
}

func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Stop cancels everything and refuses new callbacks.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for key, timer := range t.pending {
		timer.Stop()
		delete(t.pending, key)
	}
}
