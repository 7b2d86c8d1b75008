package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vnplayer/pkg/playback"
	"vnplayer/pkg/script"
)

// drive delivers effects back to the controller synchronously, standing in
// for the host's timers.
func drive(t *testing.T, ctrl *playback.Controller, fx []playback.Effect) {
	t.Helper()
	for _, e := range fx {
		for i := 0; e.Kind != playback.EffectNone; i++ {
			require.Less(t, i, 10000, "effect loop did not terminate")
			switch e.Kind {
			case playback.EffectRevealTick:
				e = ctrl.HandleRevealTick(e.Seq)
			case playback.EffectAutoAdvance:
				e = ctrl.HandleAutoAdvance(e.Seq)
			}
		}
	}
}

func feed(t *testing.T, in *Ingestor, ch *Chunker, text string) []playback.Effect {
	t.Helper()
	var fx []playback.Effect
	for _, rec := range ch.Feed(text) {
		fx = append(fx, in.Handle(rec)...)
	}
	return fx
}

func TestIngestor_SetupFiresOnceHeaderCompletes(t *testing.T) {
	ctrl := playback.New(nil, nil)
	in := NewIngestor(ctrl, nil)
	ch := &Chunker{}

	// The STP line's payload has arrived only partially: no setup yet, no
	// commands, nothing playing.
	fx := feed(t, in, ch, "LOC: forest\nCHA: x/calm\nSTP: go")
	assert.Empty(t, fx)
	assert.Equal(t, 0, ctrl.Store().Len())
	assert.Equal(t, playback.StateIdle, ctrl.State())

	// The chunk completing the "STP: go on" line triggers setup exactly once.
	recs := ch.Feed(" on\n")
	require.Len(t, recs, 2)
	assert.Equal(t, RecordChunk, recs[0].Type)
	assert.Equal(t, RecordSetupReady, recs[1].Type)

	for _, rec := range recs {
		fx = append(fx, in.Handle(rec)...)
	}

	// Exactly one location and one characters command: the STP line is a
	// choice set, not a command, and nothing was ingested twice.
	require.Equal(t, 2, ctrl.Store().Len())
	cur, ok := ctrl.Store().Current()
	require.True(t, ok)
	loc, isLoc := cur.(script.Location)
	require.True(t, isLoc)
	assert.Equal(t, "forest", loc.Name)
	assert.Equal(t, []string{"go on"}, ctrl.Choices())
	assert.True(t, ctrl.Streaming())

	// Playback started: the location command schedules a streaming advance.
	require.Len(t, fx, 1)
	assert.Equal(t, playback.EffectAutoAdvance, fx[0].Kind)
}

func TestIngestor_SecondSetupReadyIgnored(t *testing.T) {
	ctrl := playback.New(nil, nil)
	in := NewIngestor(ctrl, nil)

	header := "LOC: beach\nCHA: ava/happy\nSTP: stay\n"
	in.Handle(Record{Type: RecordChunk, Text: header})
	in.Handle(Record{Type: RecordSetupReady, Text: header})
	require.Equal(t, 2, ctrl.Store().Len())

	fx := in.Handle(Record{Type: RecordSetupReady, Text: header + header})
	assert.Empty(t, fx)
	assert.Equal(t, 2, ctrl.Store().Len(), "replayed setup must not reset the store")
}

func TestIngestor_PartialDirectiveLineBuffered(t *testing.T) {
	ctrl := playback.New(nil, nil)
	in := NewIngestor(ctrl, nil)
	ch := &Chunker{}

	feed(t, in, ch, "LOC: forest\nCHA: x/calm\nSTP: go on\n")
	require.Equal(t, 2, ctrl.Store().Len())

	// A location directive split across chunks must not be classified until
	// its line completes.
	feed(t, in, ch, "LOC: ca")
	assert.Equal(t, 2, ctrl.Store().Len())

	feed(t, in, ch, "stle_hall\n")
	require.Equal(t, 3, ctrl.Store().Len())
}

func TestIngestor_AppendedLinesCarrySceneContext(t *testing.T) {
	ctrl := playback.New(nil, nil)
	in := NewIngestor(ctrl, nil)
	ch := &Chunker{}

	fx := feed(t, in, ch, "LOC: forest\nCHA: x/calm\nSTP: go on\n")
	drive(t, ctrl, fx)
	require.Equal(t, playback.StateWaitingForMore, ctrl.State())

	fx = feed(t, in, ch, "x: hello there\n")
	require.NotEmpty(t, fx, "resume after append yields a reveal")
	cur, ok := ctrl.Store().Current()
	require.True(t, ok)
	d, isDialogue := cur.(script.Dialogue)
	require.True(t, isDialogue)
	assert.Equal(t, "x", d.Speaker)
	assert.Equal(t, "calm", d.Mood, "mood inherited from the streamed header")
	assert.Equal(t, "forest", d.Scene.Location)
}

func TestIngestor_FullSessionEndsWithChoices(t *testing.T) {
	ctrl := playback.New(nil, nil)
	in := NewIngestor(ctrl, nil)
	ch := &Chunker{}

	var choices []string
	in.OnChoices = func(c []string) { choices = c }

	chunks := []string{
		"LOC: forest\nCHA: x/calm\nSTP: go",
		" on / turn back\n",
		"x: hello wor",
		"ld\nA wind stirs the leaves.\n",
	}
	for _, c := range chunks {
		drive(t, ctrl, feed(t, in, ch, c))
	}
	require.Equal(t, playback.StateWaitingForMore, ctrl.State())

	drive(t, ctrl, in.Handle(ch.Done()))

	assert.Equal(t, playback.StateEnded, ctrl.State())
	assert.False(t, ctrl.Streaming())
	assert.True(t, in.Finished())
	assert.Equal(t, []string{"go on", "turn back"}, choices)
	assert.Equal(t, 4, ctrl.Store().Len())
}

func TestIngestor_DoneFlushesResidualTail(t *testing.T) {
	ctrl := playback.New(nil, nil)
	in := NewIngestor(ctrl, nil)
	ch := &Chunker{}

	drive(t, ctrl, feed(t, in, ch, "LOC: forest\nCHA: x/calm\nSTP: go on\n"))
	// The final line never got its newline before the stream closed.
	drive(t, ctrl, feed(t, in, ch, "x: farewell"))
	require.Equal(t, 2, ctrl.Store().Len())

	drive(t, ctrl, in.Handle(ch.Done()))

	require.Equal(t, 3, ctrl.Store().Len(), "residual buffered line flushed on done")
	cur, ok := ctrl.Store().Current()
	require.True(t, ok)
	assert.Equal(t, "farewell", cur.(script.Dialogue).Text)
}

func TestIngestor_ErrorFreezesPlayback(t *testing.T) {
	ctrl := playback.New(nil, nil)
	in := NewIngestor(ctrl, nil)
	ch := &Chunker{}

	var got error
	in.OnError = func(err error) { got = err }

	drive(t, ctrl, feed(t, in, ch, "LOC: forest\nCHA: x/calm\nSTP: go on\nx: hi\n"))
	lenBefore := ctrl.Store().Len()
	require.Equal(t, 3, lenBefore)

	fx := in.Handle(ch.Fail(errors.New("upstream timed out")))
	assert.Empty(t, fx)
	assert.EqualError(t, got, "upstream timed out")
	assert.False(t, ctrl.Streaming())
	assert.True(t, in.Finished())

	// Anything after a terminal record is dropped.
	fx = feed(t, in, ch, "x: too late\n")
	assert.Empty(t, fx)
	assert.Equal(t, lenBefore, ctrl.Store().Len())
}

func TestSplitCompleteLines(t *testing.T) {
	complete, rest := splitCompleteLines("a\nb\nc")
	assert.Equal(t, "a\nb\n", complete)
	assert.Equal(t, "c", rest)

	complete, rest = splitCompleteLines("no newline yet")
	assert.Equal(t, "", complete)
	assert.Equal(t, "no newline yet", rest)

	complete, rest = splitCompleteLines("done\n")
	assert.Equal(t, "done\n", complete)
	assert.Equal(t, "", rest)
}
