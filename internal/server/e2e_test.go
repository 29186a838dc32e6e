package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/studyscroll/studyscroll/internal/generate"
	"github.com/studyscroll/studyscroll/internal/health"
	"github.com/studyscroll/studyscroll/internal/narrate"
	"github.com/studyscroll/studyscroll/internal/pipeline"
	"github.com/studyscroll/studyscroll/internal/resilience"
	"github.com/studyscroll/studyscroll/internal/server"
	"github.com/studyscroll/studyscroll/internal/session"
	"github.com/studyscroll/studyscroll/pkg/provider/llm"
	llmmock "github.com/studyscroll/studyscroll/pkg/provider/llm/mock"
	"github.com/studyscroll/studyscroll/pkg/provider/tts"
	ttsmock "github.com/studyscroll/studyscroll/pkg/provider/tts/mock"
)

// fourteenCards renders a well-formed 14-card model payload.
func fourteenCards(t *testing.T) string {
	t.Helper()
	cards := make([]map[string]any, 0, 14)
	for i := 0; i < 14; i++ {
		c := map[string]any{
			"type":  "example",
			"title": fmt.Sprintf("Card %d", i),
			"body":  strings.Repeat("knowledge ", 12),
			"order": i,
		}
		switch i {
		case 0:
			c["type"] = "concept"
		case 13:
			c["type"] = "summary"
		case 4, 9:
			c["type"] = "quiz"
			c["answer"] = "It depends."
		}
		cards = append(cards, c)
	}
	raw, err := json.Marshal(cards)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return string(raw)
}

// TestEndToEnd drives the whole stack with mock providers: a failing primary
// LLM, a healthy secondary, and a mock TTS returning 90 seconds of audio.
func TestEndToEnd(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{ProviderName: "gemini", CompleteErr: llm.ErrUnavailable}
	secondary := &llmmock.Provider{
		ProviderName:     "anthropic",
		CompleteResponse: &llm.Response{Content: fourteenCards(t)},
	}
	gen := generate.New(generate.Config{
		Attempts: 2,
		Breaker:  resilience.BreakerConfig{Threshold: 10, Cooldown: time.Hour},
	},
		resilience.Entry[llm.Provider]{Name: "gemini", Value: primary},
		resilience.Entry[llm.Provider]{Name: "anthropic", Value: secondary},
	)

	voice := &ttsmock.Provider{SynthesizeClip: &tts.Clip{
		PCM:        make([]byte, 90*24000*2),
		SampleRate: 24000,
		Channels:   1,
	}}
	synth := narrate.NewSynthesizer(voice, tts.Voice{ID: "alloy"})

	store, err := session.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	pipe := pipeline.New(gen, synth, store, testMetrics(t))
	srv := server.New(server.Config{ListenAddr: ":0"}, pipe, store, testMetrics(t), health.New())

	// Create.
	rec := postTopic(t, srv.Handler(), `{"topic": "how compilers work"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201; body %s", rec.Code, rec.Body)
	}
	var created struct {
		SessionID  string `json:"session_id"`
		Cards      []struct {
			Type  string `json:"type"`
			Order int    `json:"order"`
		} `json:"cards"`
		AudioReady bool `json:"audio_ready"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if len(created.Cards) != 14 {
		t.Fatalf("len(cards) = %d, want 14", len(created.Cards))
	}
	if !created.AudioReady {
		t.Fatal("audio_ready = false, want true")
	}
	if created.Cards[0].Type != "concept" || created.Cards[13].Type != "summary" {
		t.Errorf("boundary types = %s/%s, want concept/summary",
			created.Cards[0].Type, created.Cards[13].Type)
	}

	// The failing primary was retried then bypassed.
	if primary.CallCount() != 2 {
		t.Errorf("primary calls = %d, want 2", primary.CallCount())
	}
	if secondary.CallCount() != 1 {
		t.Errorf("secondary calls = %d, want 1", secondary.CallCount())
	}
	// One TTS call for the whole deck.
	if voice.CallCount() != 1 {
		t.Errorf("TTS calls = %d, want 1", voice.CallCount())
	}

	// Retrieve and check the alignment contract.
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+created.SessionID, nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	var got struct {
		Alignment []struct {
			Order int     `json:"order"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"alignment"`
		AudioURL string `json:"audio_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if len(got.Alignment) != 14 {
		t.Fatalf("len(alignment) = %d, want 14", len(got.Alignment))
	}
	covered := 0.0
	for i, sp := range got.Alignment {
		if sp.Order != i {
			t.Errorf("alignment[%d].order = %d, want %d", i, sp.Order, i)
		}
		if i > 0 && sp.Start < got.Alignment[i-1].End {
			t.Errorf("alignment[%d] overlaps previous", i)
		}
		covered += sp.End - sp.Start
	}
	total := got.Alignment[len(got.Alignment)-1].End
	if covered < total*0.95 {
		t.Errorf("alignment covers %.1fs of %.1fs, want at least 95%%", covered, total)
	}

	// Audio is served.
	req = httptest.NewRequest(http.MethodGet, got.AudioURL, nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET audio status = %d, want 200", rec.Code)
	}

	// A second run for the same topic produces a fresh id.
	secondary.Reset()
	rec = postTopic(t, srv.Handler(), `{"topic": "how compilers work"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second POST status = %d, want 201", rec.Code)
	}
	var again struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&again); err != nil {
		t.Fatalf("decode second create response: %v", err)
	}
	if again.SessionID == created.SessionID {
		t.Error("regeneration reused the session id")
	}
}
