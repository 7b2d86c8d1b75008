package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"vnplayer/pkg/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func collect(t *testing.T, ch <-chan stream.Record) []stream.Record {
	t.Helper()
	var recs []stream.Record
	timeout := time.After(5 * time.Second)
	for {
		select {
		case rec, ok := <-ch:
			if !ok {
				return recs
			}
			recs = append(recs, rec)
		case <-timeout:
			t.Fatal("timed out waiting for stream records")
		}
	}
}

func TestKindroidService_StreamsScript(t *testing.T) {
	script := "LOC: forest\nCHA: x/calm\nSTP: go on\nx: hello\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send-message" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected auth header: %s", got)
		}
		var req kindroidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.AIID != "ai-123" {
			t.Errorf("Unexpected ai_id: %s", req.AIID)
		}
		if req.Message != "hello there" {
			t.Errorf("Unexpected message: %s", req.Message)
		}

		flusher := w.(http.Flusher)
		// Stream in two writes so the client sees multiple chunks.
		if _, err := w.Write([]byte(script[:20])); err != nil {
			t.Errorf("write failed: %v", err)
		}
		flusher.Flush()
		if _, err := w.Write([]byte(script[20:])); err != nil {
			t.Errorf("write failed: %v", err)
		}
	}))
	defer server.Close()

	k := NewKindroidService(server.URL, "test-key", "ai-123", 5*time.Second, testLogger())
	recs := collect(t, k.RequestStory(context.Background(), "hello there"))

	if len(recs) < 3 {
		t.Fatalf("Expected at least 3 records, got %d", len(recs))
	}

	var setups, dones int
	var final string
	for _, rec := range recs {
		switch rec.Type {
		case stream.RecordSetupReady:
			setups++
		case stream.RecordDone:
			dones++
			final = rec.Text
		case stream.RecordError:
			t.Fatalf("Unexpected error record: %s", rec.Err)
		}
	}
	if setups != 1 {
		t.Errorf("Expected exactly one setup_ready, got %d", setups)
	}
	if dones != 1 {
		t.Errorf("Expected exactly one done, got %d", dones)
	}
	if final != script {
		t.Errorf("Done record text mismatch:\ngot  %q\nwant %q", final, script)
	}
}

func TestKindroidService_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	k := NewKindroidService(server.URL, "test-key", "ai-123", 5*time.Second, testLogger())
	recs := collect(t, k.RequestStory(context.Background(), "hi"))

	if len(recs) != 1 {
		t.Fatalf("Expected exactly one record, got %d", len(recs))
	}
	if recs[0].Type != stream.RecordError {
		t.Errorf("Expected error record, got %s", recs[0].Type)
	}
}

func TestKindroidService_RepeatPrevious(t *testing.T) {
	var gotMessage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req kindroidRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotMessage = req.Message
		_, _ = w.Write([]byte("LOC: a\nCHA: b\nSTP: c\n"))
	}))
	defer server.Close()

	k := NewKindroidService(server.URL, "test-key", "ai-123", 5*time.Second, testLogger())
	collect(t, k.RepeatPrevious(context.Background()))

	if gotMessage != RepeatMessage {
		t.Errorf("Expected repeat message, got %q", gotMessage)
	}
}

func TestMockStorySource_EmitsFullSession(t *testing.T) {
	m := NewMockStorySource()
	m.Delay = 0

	recs := collect(t, m.RequestStory(context.Background(), "start"))

	var setups, dones int
	for _, rec := range recs {
		switch rec.Type {
		case stream.RecordSetupReady:
			setups++
		case stream.RecordDone:
			dones++
			if rec.Text != DefaultMockScript {
				t.Errorf("Done text mismatch")
			}
		}
	}
	if setups != 1 || dones != 1 {
		t.Errorf("Expected one setup_ready and one done, got %d/%d", setups, dones)
	}
}
