package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/ancestral-lingo/pkg/bot/game"
	"github.com/smith3v/ancestral-lingo/pkg/internal/testutil"
	"github.com/smith3v/ancestral-lingo/pkg/lesson"
	"github.com/smith3v/ancestral-lingo/pkg/logger"
	"github.com/smith3v/ancestral-lingo/pkg/speech"
)

type recordedRequest struct {
	path        string
	method      string
	contentType string
	body        []byte
}

type mockClient struct {
	mu       sync.Mutex
	requests []recordedRequest
	response string
}

func newMockClient() *mockClient {
	return &mockClient{
		response: `{"ok":true,"result":{"message_id":42}}`,
	}
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if err := req.Body.Close(); err != nil {
		return nil, fmt.Errorf("failed to close request body: %w", err)
	}
	m.mu.Lock()
	m.requests = append(m.requests, recordedRequest{
		path:        req.URL.Path,
		method:      req.Method,
		contentType: req.Header.Get("Content-Type"),
		body:        body,
	})
	response := m.response
	m.mu.Unlock()

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(response)),
		Header:     make(http.Header),
	}
	return resp, nil
}

func (m *mockClient) snapshot() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedRequest(nil), m.requests...)
}

// calls returns the recorded requests to the Bot API method, oldest first.
func (m *mockClient) calls(method string) []recordedRequest {
	var out []recordedRequest
	for _, req := range m.snapshot() {
		if strings.HasSuffix(req.path, "/"+method) {
			out = append(out, req)
		}
	}
	return out
}

func (m *mockClient) lastCall(t *testing.T, method string) recordedRequest {
	t.Helper()
	calls := m.calls(method)
	if len(calls) == 0 {
		t.Fatalf("expected a %s request", method)
	}
	return calls[len(calls)-1]
}

func (m *mockClient) lastMessageText(t *testing.T) string {
	t.Helper()
	requests := m.snapshot()
	if len(requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	text, _ := multipartField(t, requests[len(requests)-1], "text")
	return text
}

func multipartField(t *testing.T, req recordedRequest, fieldName string) (string, string) {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(req.contentType)
	if err != nil {
		t.Fatalf("failed to parse media type: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("unexpected media type: %s", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(req.body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FormName() == fieldName {
			data, err := io.ReadAll(part)
			if err != nil {
				t.Fatalf("failed to read multipart field: %v", err)
			}
			return string(data), part.FileName()
		}
	}
	t.Fatalf("field %q not found in request", fieldName)
	return "", ""
}

func newTestTelegramBot(t *testing.T, client *mockClient) *telegram.Bot {
	t.Helper()
	b, err := telegram.New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b
}

// recordingSpeaker hands every request to the test through a channel.
type recordingSpeaker struct {
	spoken chan speech.Request
}

func newRecordingSpeaker() *recordingSpeaker {
	return &recordingSpeaker{spoken: make(chan speech.Request, 8)}
}

func (s *recordingSpeaker) Speak(_ context.Context, _ int64, req speech.Request) {
	s.spoken <- req
}

// newTestHandler builds a handler whose lessons only contain kind and whose
// timers never fire during the test.
func newTestHandler(t *testing.T, kind lesson.Kind, speaker speech.Speaker) (*Handler, *game.Manager, *game.Timers) {
	t.Helper()
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	generator := lesson.NewGenerator(rand.NewSource(7), nil)
	switch kind {
	case lesson.KindTranslateToSpanish:
		generator.SetKindRoll(func() float64 { return 0.1 })
	case lesson.KindListening:
		generator.SetKindRoll(func() float64 { return 0.5 })
	case lesson.KindMatching:
		generator.SetKindRoll(func() float64 { return 0.9 })
	}

	manager := game.NewManager(game.Options{
		Generator:     generator,
		QuestionCount: 3,
		Location:      time.UTC,
	})
	timers := game.NewTimers()
	t.Cleanup(timers.Stop)

	h := New(Options{
		Manager:       manager,
		Timers:        timers,
		Speaker:       speaker,
		SpeechLang:    "es-ES",
		SpeechRate:    0.8,
		AudioDelay:    time.Hour,
		MismatchDelay: time.Hour,
	})
	return h, manager, timers
}

func newTestUpdate(text string, userID int64) *models.Update {
	return &models.Update{
		Message: &models.Message{
			From: &models.User{
				ID: userID,
			},
			Chat: models.Chat{
				ID: userID,
			},
			Text: text,
		},
	}
}

func newTestCallbackUpdate(data string, userID, chatID int64, messageID int) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "callback-1",
			From: models.User{ID: userID},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Type: models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{
					ID: messageID,
					Chat: models.Chat{
						ID:   chatID,
						Type: models.ChatTypePrivate,
					},
				},
			},
		},
	}
}
