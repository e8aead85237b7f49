package deepgram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"clinicchat/internal/domain"
)

func TestNewTranscriberDefaults(t *testing.T) {
	t.Parallel()

	tr := NewTranscriber(Config{})
	if tr.cfg.APIBaseURL != "https://api.deepgram.com/v1" || tr.cfg.Model != "nova-2" {
		t.Fatalf("unexpected defaults: %+v", tr.cfg)
	}
	if tr.cfg.SampleRate != 16000 || tr.cfg.Channels != 1 || tr.cfg.ChunkSize != defaultChunkSize {
		t.Fatalf("unexpected audio defaults: %+v", tr.cfg)
	}
}

func TestTranscribeRequiresAPIKeyAndAudio(t *testing.T) {
	t.Parallel()

	if _, err := NewTranscriber(Config{}).Transcribe(context.Background(), []byte("pcm")); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := NewTranscriber(Config{APIKey: "k"}).Transcribe(context.Background(), nil); err == nil {
		t.Fatalf("expected empty audio error")
	}
}

func TestBuildListenURL(t *testing.T) {
	t.Parallel()

	got, err := buildListenURL(Config{APIBaseURL: "https://api.deepgram.com/v1/", Model: "nova-2", SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"wss://api.deepgram.com/v1/listen?", "encoding=linear16", "sample_rate=16000", "channels=1", "interim_results=false"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %s", want, got)
		}
	}

	got, err = buildListenURL(Config{APIBaseURL: "http://localhost:8080/v1", Model: "m", Language: "hi", SmartFormat: true, SampleRate: 8000, Channels: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"ws://localhost:8080/v1/listen?", "language=hi", "smart_format=true", "sample_rate=8000"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %s", want, got)
		}
	}
}

func TestBuildListenURLInvalidBase(t *testing.T) {
	t.Parallel()

	if _, err := buildListenURL(Config{APIBaseURL: "://bad"}); err == nil {
		t.Fatalf("expected invalid url error")
	}
}

func TestTranscribeCollectsFinalSegments(t *testing.T) {
	t.Parallel()

	server := newFakeListenServer(t, []string{
		`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"my"}]}}`,
		`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"my throat"}]}}`,
		`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"hurts"}]}}`,
		`{"type":"Metadata"}`,
	})
	defer server.Close()

	tr := NewTranscriber(Config{APIKey: "secret", APIBaseURL: server.URL + "/v1", ChunkSize: 256})
	audio := make([]byte, 1000)

	text, err := tr.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if text != "my throat hurts" {
		t.Fatalf("unexpected transcript: %q", text)
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	if server.audioBytes != 1000 || server.binaryFrames != 4 {
		t.Fatalf("unexpected audio delivery: bytes=%d frames=%d", server.audioBytes, server.binaryFrames)
	}
	if server.auth != "Token secret" || server.path != "/v1/listen" {
		t.Fatalf("unexpected request: auth=%q path=%q", server.auth, server.path)
	}
}

func TestTranscribeProviderError(t *testing.T) {
	t.Parallel()

	server := newFakeListenServer(t, []string{`{"type":"Error","message":"bad audio"}`})
	defer server.Close()

	tr := NewTranscriber(Config{APIKey: "secret", APIBaseURL: server.URL})
	_, err := tr.Transcribe(context.Background(), []byte("pcm"))
	if err == nil || err.Error() != "bad audio" {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestTranscribeGivesUpWhenServerNeverCloses(t *testing.T) {
	t.Parallel()

	for name, replies := range map[string][]string{
		"nothing received": nil,
		"final received":   {`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"sore throat"}]}}`},
	} {
		replies := replies
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := newSilentListenServer(t, replies)
			defer server.Close()

			tr := NewTranscriber(Config{APIKey: "secret", APIBaseURL: server.URL, CloseTimeout: 200 * time.Millisecond})

			done := make(chan struct{})
			var (
				text string
				err  error
			)
			go func() {
				text, err = tr.Transcribe(context.Background(), make([]byte, 1000))
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatalf("transcribe did not return after the close timeout")
			}

			if replies == nil {
				if err == nil || !strings.Contains(err.Error(), "timed out") {
					t.Fatalf("expected timeout error, got text=%q err=%v", text, err)
				}
				return
			}
			if err != nil || text != "sore throat" {
				t.Fatalf("expected transcript received before timeout, got text=%q err=%v", text, err)
			}
		})
	}
}

func TestAggregatorFallsBackToTrailingPartial(t *testing.T) {
	t.Parallel()

	var agg transcriptAggregator
	agg.Add(domain.TranscriptEvent{Kind: domain.TranscriptKindFinal, Text: "I have"})
	agg.Add(domain.TranscriptEvent{Kind: domain.TranscriptKindPartial, Text: "a fev"})
	agg.Add(domain.TranscriptEvent{Kind: domain.TranscriptKindPartial, Text: "a fever"})
	agg.Add(domain.TranscriptEvent{Kind: domain.TranscriptKindPartial, Text: "  "})

	if got := agg.Text(); got != "I have a fever" {
		t.Fatalf("unexpected transcript: %q", got)
	}
}

// newSilentListenServer sends replies after CloseStream and then keeps the
// socket open until the client hangs up.
func newSilentListenServer(t *testing.T, replies []string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.TextMessage && strings.Contains(string(payload), "CloseStream") {
				break
			}
		}
		for _, reply := range replies {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

type fakeListenServer struct {
	*httptest.Server

	mu           sync.Mutex
	auth         string
	path         string
	audioBytes   int
	binaryFrames int
}

func newFakeListenServer(t *testing.T, replies []string) *fakeListenServer {
	t.Helper()

	fake := &fakeListenServer{}
	upgrader := websocket.Upgrader{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		fake.auth = r.Header.Get("Authorization")
		fake.path = r.URL.Path
		fake.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.TextMessage && strings.Contains(string(payload), "CloseStream") {
				break
			}
			fake.mu.Lock()
			fake.audioBytes += len(payload)
			fake.binaryFrames++
			fake.mu.Unlock()
		}

		for _, reply := range replies {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	return fake
}
