package services

import (
	"context"
	"time"

	"vnplayer/pkg/stream"
)

// DefaultMockScript is the canned story the mock source streams.
const DefaultMockScript = "LOC: forest_clearing\n" +
	"CHA: mira/calm, tomas/curious\n" +
	"STP: follow the path / rest by the stream\n" +
	"mira: The light comes through differently here.\n" +
	"Tomas crouches to look at the moss.\n" +
	"tomas: Someone came through before us. Recently.\n" +
	"CHA: mira/worried, tomas/curious\n" +
	"mira: Then we should keep moving.\n"

// MockStorySource streams a canned script in small chunks, for offline
// development and tests. The chunk boundaries intentionally fall mid-line so
// consumers exercise their line buffering.
type MockStorySource struct {
	Script    string
	ChunkSize int
	Delay     time.Duration
}

var _ StorySource = (*MockStorySource)(nil)

func NewMockStorySource() *MockStorySource {
	return &MockStorySource{
		Script:    DefaultMockScript,
		ChunkSize: 7,
		Delay:     30 * time.Millisecond,
	}
}

func (m *MockStorySource) RequestStory(ctx context.Context, message string) <-chan stream.Record {
	out := make(chan stream.Record, 16)
	go m.run(ctx, out)
	return out
}

func (m *MockStorySource) RepeatPrevious(ctx context.Context) <-chan stream.Record {
	return m.RequestStory(ctx, RepeatMessage)
}

func (m *MockStorySource) run(ctx context.Context, out chan<- stream.Record) {
	defer close(out)

	ch := &stream.Chunker{}
	text := m.Script
	size := m.ChunkSize
	if size <= 0 {
		size = 7
	}

	for len(text) > 0 {
		n := size
		if n > len(text) {
			n = len(text)
		}
		for _, rec := range ch.Feed(text[:n]) {
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
		text = text[n:]

		if m.Delay > 0 {
			select {
			case <-time.After(m.Delay):
			case <-ctx.Done():
				out <- ch.Fail(ctx.Err())
				return
			}
		}
	}
	out <- ch.Done()
}
