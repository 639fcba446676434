// Package speech turns lesson words into spoken audio.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/language"
)

const (
	DefaultBaseURL = "https://translate.google.com/translate_tts"
	requestTimeout = 10 * time.Second
	maxAudioBytes  = 1 << 20
	cacheLimit     = 256
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var (
	ErrEmptyText     = errors.New("nothing to speak")
	ErrAudioTooLarge = errors.New("audio response too large")
)

// Request is one utterance. Lang is a BCP 47 tag such as "es-ES"; Rate
// below 1 asks for slower speech.
type Request struct {
	Text string
	Lang string
	Rate float64
}

// Speaker plays a request to a chat. Playback is fire-and-forget: a
// speaker reports its own failures and never blocks the game.
type Speaker interface {
	Speak(ctx context.Context, chatID int64, req Request)
}

// Nop is used when speech is disabled.
type Nop struct{}

func (Nop) Speak(context.Context, int64, Request) {}

// Fetcher returns encoded audio for a request.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// GoogleTTS fetches MP3 audio from the Google Translate speech endpoint and
// keeps a small in-memory cache, since lessons repeat the same words.
type GoogleTTS struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	cache map[string][]byte
}

func NewGoogleTTS(baseURL string, client *http.Client) *GoogleTTS {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &GoogleTTS{
		baseURL: baseURL,
		client:  client,
		cache:   make(map[string][]byte),
	}
}

func (g *GoogleTTS) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	params := QueryParams(req)
	key := params.Encode()

	g.mu.Lock()
	cached, ok := g.cache[key]
	g.mu.Unlock()
	if ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) > maxAudioBytes {
		return nil, ErrAudioTooLarge
	}

	g.mu.Lock()
	if len(g.cache) >= cacheLimit {
		clear(g.cache)
	}
	g.cache[key] = audio
	g.mu.Unlock()
	return audio, nil
}

// QueryParams builds the endpoint query for req. The endpoint only knows
// base languages, so "es-ES" is sent as "es".
func QueryParams(req Request) url.Values {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", req.Text)
	params.Set("tl", baseLanguage(req.Lang))
	params.Set("client", "tw-ob")
	params.Set("textlen", strconv.Itoa(len([]rune(req.Text))))
	if req.Rate > 0 && req.Rate < 1 {
		params.Set("ttsspeed", strconv.FormatFloat(req.Rate, 'f', 2, 64))
	}
	return params
}

func baseLanguage(tag string) string {
	if tag == "" {
		return "es"
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "es"
	}
	base, _ := parsed.Base()
	return base.String()
}
