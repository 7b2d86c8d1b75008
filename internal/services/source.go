// Package services provides the story sources that feed the player: the
// Kindroid API client that streams AI-generated script text, and a mock
// source for offline development and tests.
package services

import (
	"context"

	"vnplayer/pkg/stream"
)

// RepeatMessage asks the AI to resend its previous reply, used to recover a
// stream that failed partway through without advancing the story.
const RepeatMessage = "Please repeat previous message without altering the story"

// StorySource produces a story stream in response to a player message. The
// returned channel carries framed records ending with done or error, and is
// closed after the terminal record.
type StorySource interface {
	RequestStory(ctx context.Context, message string) <-chan stream.Record
	RepeatPrevious(ctx context.Context) <-chan stream.Record
}
