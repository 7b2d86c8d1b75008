package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"vnplayer/pkg/stream"
)

const (
	sendMessagePath = "/send-message"

	// DefaultStreamTimeout bounds one full story response.
	DefaultStreamTimeout = 30 * time.Second

	// readChunkSize is how much raw text one read pulls off the wire.
	readChunkSize = 512
)

// KindroidService implements StorySource against the Kindroid API. The API
// streams plain script text in the response body; the service frames it into
// stream records as it arrives.
type KindroidService struct {
	apiURL     string
	apiKey     string
	aiID       string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

var _ StorySource = (*KindroidService)(nil)

type kindroidRequest struct {
	AIID    string `json:"ai_id"`
	Message string `json:"message"`
}

// NewKindroidService creates a Kindroid story source. A zero timeout uses
// DefaultStreamTimeout.
func NewKindroidService(apiURL, apiKey, aiID string, timeout time.Duration, logger *slog.Logger) *KindroidService {
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}
	return &KindroidService{
		apiURL:  apiURL,
		apiKey:  apiKey,
		aiID:    aiID,
		timeout: timeout,
		// The per-request context carries the deadline; the client itself
		// must not cut streams short.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// RequestStory sends the player's message and streams the AI's script reply.
func (k *KindroidService) RequestStory(ctx context.Context, message string) <-chan stream.Record {
	out := make(chan stream.Record, 16)
	go k.run(ctx, message, out)
	return out
}

// RepeatPrevious re-requests the last reply after a failed stream.
func (k *KindroidService) RepeatPrevious(ctx context.Context) <-chan stream.Record {
	return k.RequestStory(ctx, RepeatMessage)
}

func (k *KindroidService) run(ctx context.Context, message string, out chan<- stream.Record) {
	defer close(out)

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	ch := &stream.Chunker{}

	resp, err := k.send(ctx, message)
	if err != nil {
		k.logger.Error("Kindroid request failed", "error", err)
		out <- ch.Fail(err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	buf := make([]byte, readChunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, rec := range ch.Feed(string(buf[:n])) {
				out <- rec
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				err = fmt.Errorf("story stream timed out: %w", ctx.Err())
			}
			k.logger.Error("Kindroid stream interrupted", "error", err)
			out <- ch.Fail(err)
			return
		}
	}

	k.logger.Debug("Kindroid stream complete", "bytes", len(ch.Text()))
	out <- ch.Done()
}

func (k *KindroidService) send(ctx context.Context, message string) (*http.Response, error) {
	reqBody, err := json.Marshal(kindroidRequest{AIID: k.aiID, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.apiURL+sendMessagePath, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+k.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}
