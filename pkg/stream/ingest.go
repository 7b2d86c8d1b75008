package stream

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"vnplayer/pkg/playback"
	"vnplayer/pkg/script"
)

// Ingestor consumes stream records and drives the playback controller's
// append path. It line-buffers incoming text so the parser only ever sees
// complete lines: a directive whose prefix arrived but whose payload has not
// must not be classified yet.
//
// Like the controller, the ingestor is driven from the host's event loop.
type Ingestor struct {
	ctrl   *playback.Controller
	logger *slog.Logger

	// OnChoices, if set, receives the terminal story-transition-point option
	// set when the stream completes.
	OnChoices func([]string)
	// OnError, if set, receives the terminal failure of the stream.
	OnError func(error)

	raw        strings.Builder
	lineBuffer string
	setupDone  bool
	finished   bool
}

// NewIngestor creates an ingestor driving ctrl. A nil logger discards logs.
func NewIngestor(ctrl *playback.Controller, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Ingestor{ctrl: ctrl, logger: logger}
}

// Handle processes one stream record and returns the playback effects the
// host must schedule. Records after a terminal one are dropped.
func (in *Ingestor) Handle(rec Record) []playback.Effect {
	if in.finished {
		return nil
	}

	switch rec.Type {
	case RecordSetupReady:
		return in.handleSetupReady(rec)
	case RecordChunk:
		return in.handleChunk(rec)
	case RecordDone:
		return in.handleDone(rec)
	case RecordError:
		in.handleError(rec)
		return nil
	default:
		in.logger.Warn("unknown stream record", "type", rec.Type)
		return nil
	}
}

// handleSetupReady starts playback from the accumulated script. Only the
// first occurrence counts.
func (in *Ingestor) handleSetupReady(rec Record) []playback.Effect {
	if in.setupDone {
		return nil
	}
	in.setupDone = true

	text := rec.Text
	if text == "" {
		text = in.raw.String()
	}

	// The cumulative text may end mid-line; only complete lines reach the
	// parser. The tail stays buffered for the next chunk.
	complete, rest := splitCompleteLines(text)
	in.lineBuffer = rest

	in.ctrl.SetStreaming(true)
	in.ctrl.LoadScript(complete, false)
	in.logger.Info("scene setup complete, starting playback",
		"commands", in.ctrl.Store().Len())
	return effects(in.ctrl.StartPlayback())
}

// handleChunk buffers an incremental slice and appends any newly completed
// lines to the script.
func (in *Ingestor) handleChunk(rec Record) []playback.Effect {
	in.raw.WriteString(rec.Text)
	if !in.setupDone {
		// Header not complete yet; setup_ready will carry this text.
		return nil
	}

	in.lineBuffer += rec.Text
	complete, rest := splitCompleteLines(in.lineBuffer)
	in.lineBuffer = rest
	if complete == "" {
		return nil
	}

	in.ctrl.LoadScript(complete, true)
	return effects(in.ctrl.ResumeFromWaiting())
}

// handleDone reconciles the stream end: flushes the residual line buffer,
// clears streaming, resumes playback once more and surfaces the terminal
// choice set.
func (in *Ingestor) handleDone(rec Record) []playback.Effect {
	in.finished = true

	var fx []playback.Effect
	if in.setupDone && strings.TrimSpace(in.lineBuffer) != "" {
		in.ctrl.LoadScript(in.lineBuffer, true)
	}
	in.lineBuffer = ""

	in.ctrl.SetStreaming(false)
	fx = append(fx, effects(in.ctrl.ResumeFromWaiting())...)

	final := rec.Text
	if final == "" {
		final = in.raw.String()
	}
	if in.OnChoices != nil {
		in.OnChoices(script.Parse(final).Choices)
	}
	return fx
}

// handleError surfaces a terminal stream failure. Playback freezes at the
// last successfully rendered command; streaming state is cleared.
func (in *Ingestor) handleError(rec Record) {
	in.finished = true
	in.ctrl.SetStreaming(false)

	err := errors.New(rec.Err)
	in.logger.Error("story stream failed", "error", err)
	if in.OnError != nil {
		in.OnError(err)
	}
}

// Finished reports whether a terminal record has been handled.
func (in *Ingestor) Finished() bool { return in.finished }

// splitCompleteLines cuts text at the last newline: everything up to and
// including it is complete, the remainder is a partial trailing line.
func splitCompleteLines(text string) (complete, rest string) {
	idx := strings.LastIndexByte(text, '\n')
	if idx < 0 {
		return "", text
	}
	return text[:idx+1], text[idx+1:]
}

func effects(fx ...playback.Effect) []playback.Effect {
	out := fx[:0]
	for _, e := range fx {
		if e.Kind != playback.EffectNone {
			out = append(out, e)
		}
	}
	return out
}
