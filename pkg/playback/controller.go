// Package playback implements the state machine that steps through a parsed
// script: it triggers scene rendering, runs the character-by-character text
// reveal, and decides whether and when to auto-advance.
//
// The controller is deliberately host-agnostic. It never arms timers itself;
// instead every input returns an Effect describing the timer the host should
// schedule (a reveal tick or an auto-advance), tagged with a reveal-session
// sequence number. The host delivers the timer back through HandleRevealTick
// or HandleAutoAdvance; ticks carrying a stale sequence are ignored, which is
// how superseded timers are cancelled. In the terminal player the host is a
// Bubble Tea program and effects become tea.Tick commands; in tests the
// effects are delivered synchronously.
//
// All methods must be called from a single goroutine (the host's event
// loop). The command store itself is safe for a concurrent ingestion path.
package playback

import (
	"io"
	"log/slog"
	"time"

	"vnplayer/pkg/scene"
	"vnplayer/pkg/script"
)

// State is the playback state. The reveal, streaming-stall and ended
// conditions are one enumeration so that invalid combinations (typing while
// stalled, for example) cannot be represented.
type State int

const (
	// StateIdle means no script is loaded or playback has not started.
	StateIdle State = iota
	// StateTypingOut means a text reveal is in progress for the current
	// dialogue or action command.
	StateTypingOut
	// StateAwaitingInput means the reveal finished and the controller waits
	// for advance/retreat or an auto-advance timer.
	StateAwaitingInput
	// StateWaitingForMore means the cursor exhausted the available commands
	// while the script is still growing from a stream.
	StateWaitingForMore
	// StateEnded means the cursor is exhausted and the script is complete.
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTypingOut:
		return "typing"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateWaitingForMore:
		return "waiting_for_more"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// EffectKind tags an Effect.
type EffectKind int

const (
	// EffectNone means no timer needs scheduling.
	EffectNone EffectKind = iota
	// EffectRevealTick asks the host to call HandleRevealTick after Delay.
	EffectRevealTick
	// EffectAutoAdvance asks the host to call HandleAutoAdvance after Delay.
	EffectAutoAdvance
)

// Effect is a timer request returned by controller inputs. Seq identifies
// the reveal session that armed it; the controller ignores effects delivered
// for a session that has since been superseded.
type Effect struct {
	Kind  EffectKind
	Delay time.Duration
	Seq   uint64
}

var noEffect = Effect{Kind: EffectNone}

// Reveal and auto-advance timing bounds.
const (
	MinTextSpeed = 10 * time.Millisecond
	MaxTextSpeed = 200 * time.Millisecond
	MinAutoDelay = 500 * time.Millisecond
	MaxAutoDelay = 5000 * time.Millisecond

	DefaultTextSpeed = 50 * time.Millisecond
	DefaultAutoDelay = 2000 * time.Millisecond

	// streamAdvanceDelay paces auto-advance while a script is streaming in.
	streamAdvanceDelay = 250 * time.Millisecond
	// locationAdvanceDelay paces auto-advance past a location command, which
	// reveals no text.
	locationAdvanceDelay = time.Second
)

// Controller is the playback state machine.
type Controller struct {
	store    *script.Store
	renderer scene.Renderer
	logger   *slog.Logger

	state       State
	streaming   bool
	autoAdvance bool

	// pastEnd is set when the cursor logically ran past the last known
	// command while streaming; ResumeFromWaiting advances once it can.
	pastEnd bool

	scanCtx script.Context
	choices []string

	textSpeed time.Duration
	autoDelay time.Duration

	// seq identifies the live reveal session. Bumping it invalidates every
	// previously returned effect.
	seq        uint64
	revealText []rune
	revealPos  int
	speaker    string
}

// New creates a controller drawing through r. A nil logger discards logs.
func New(r scene.Renderer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		store:     script.NewStore(),
		renderer:  r,
		logger:    logger,
		state:     StateIdle,
		textSpeed: DefaultTextSpeed,
		autoDelay: DefaultAutoDelay,
	}
}

// Store exposes the command store, mainly for progress display.
func (c *Controller) Store() *script.Store { return c.store }

// State returns the current playback state.
func (c *Controller) State() State { return c.state }

// Streaming reports whether the script is actively growing from a stream.
func (c *Controller) Streaming() bool { return c.streaming }

// AutoAdvance reports whether manual-auto mode is on.
func (c *Controller) AutoAdvance() bool { return c.autoAdvance }

// Choices returns the retained story-transition-point option set.
func (c *Controller) Choices() []string { return c.choices }

// Speaker returns the speaker of the current reveal ("" for narration).
func (c *Controller) Speaker() string { return c.speaker }

// VisibleText returns the portion of the current command's text revealed so
// far.
func (c *Controller) VisibleText() string {
	return string(c.revealText[:c.revealPos])
}

// SetStreaming toggles streaming mode. While streaming, manual input is
// ignored and exhausted cursors stall instead of ending.
func (c *Controller) SetStreaming(on bool) { c.streaming = on }

// SetAutoAdvance toggles manual-auto mode.
func (c *Controller) SetAutoAdvance(on bool) { c.autoAdvance = on }

// SetTextSpeed sets the per-character reveal delay, clamped to
// [MinTextSpeed, MaxTextSpeed].
func (c *Controller) SetTextSpeed(d time.Duration) {
	c.textSpeed = clamp(d, MinTextSpeed, MaxTextSpeed)
}

// SetAutoDelay sets the manual-auto advance delay, clamped to
// [MinAutoDelay, MaxAutoDelay].
func (c *Controller) SetAutoDelay(d time.Duration) {
	c.autoDelay = clamp(d, MinAutoDelay, MaxAutoDelay)
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// LoadScript parses text into the command store. In replace mode the store,
// scan context and playback state are fully reset. In append mode the new
// fragment inherits the running scan context and is appended without
// disturbing the cursor or playback state.
func (c *Controller) LoadScript(text string, appendMode bool) {
	if !appendMode {
		res := script.Parse(text)
		c.store.Replace(res.Commands)
		c.scanCtx = res.Context
		if res.ChoicesSeen {
			c.choices = res.Choices
		} else {
			c.choices = nil
		}
		c.seq++
		c.state = StateIdle
		c.pastEnd = false
		c.revealText = nil
		c.revealPos = 0
		c.speaker = ""
		return
	}

	res := script.ParseAppend(text, c.scanCtx)
	c.store.Append(res.Commands)
	c.scanCtx = res.Context
	if res.ChoicesSeen {
		c.choices = res.Choices
	}
}

// StartPlayback resets the cursor and processes the first command. On an
// empty store it is a no-op.
func (c *Controller) StartPlayback() Effect {
	if c.store.Len() == 0 {
		return noEffect
	}
	c.store.Reset()
	c.seq++
	return c.processCurrent()
}

// Advance is a manual advance (click, key, touch). While a reveal is in
// progress it skips instead of moving the cursor: skip-then-advance is two
// distinct user actions. Manual input is ignored entirely while streaming.
func (c *Controller) Advance() Effect {
	if c.streaming {
		return noEffect
	}
	return c.advance()
}

// Retreat is a manual step backward. It skips first like Advance, never
// stalls in WaitingForMore, and is ignored while streaming.
func (c *Controller) Retreat() Effect {
	if c.streaming {
		return noEffect
	}
	if c.state == StateTypingOut {
		return c.SkipText()
	}
	if c.state != StateAwaitingInput && c.state != StateEnded {
		return noEffect
	}
	c.seq++ // invalidate any pending auto-advance
	if !c.store.Retreat() {
		return noEffect
	}
	return c.processCurrent()
}

// SkipText cancels the in-progress reveal and displays the full text
// immediately. It is the only cancellation primitive.
func (c *Controller) SkipText() Effect {
	if c.state != StateTypingOut {
		return noEffect
	}
	c.seq++ // cancel the pending reveal tick
	c.revealPos = len(c.revealText)
	return c.finishReveal()
}

// HandleRevealTick advances the reveal by one character. Ticks from a
// superseded session are ignored.
func (c *Controller) HandleRevealTick(seq uint64) Effect {
	if seq != c.seq || c.state != StateTypingOut {
		return noEffect
	}
	if c.revealPos < len(c.revealText) {
		c.revealPos++
	}
	if c.revealPos < len(c.revealText) {
		return Effect{Kind: EffectRevealTick, Delay: c.textSpeed, Seq: c.seq}
	}
	return c.finishReveal()
}

// HandleAutoAdvance performs a timer-driven advance. Timers from a
// superseded session are ignored.
func (c *Controller) HandleAutoAdvance(seq uint64) Effect {
	if seq != c.seq || c.state != StateAwaitingInput {
		return noEffect
	}
	return c.advance()
}

// ResumeFromWaiting re-attempts processing after ingestion has appended
// commands, or ends playback once streaming has finished with nothing left.
// Outside WaitingForMore it is a no-op.
func (c *Controller) ResumeFromWaiting() Effect {
	if c.state != StateWaitingForMore {
		return noEffect
	}
	if c.pastEnd {
		if !c.store.Advance() {
			return c.stall()
		}
		c.pastEnd = false
		return c.processCurrent()
	}
	if _, ok := c.store.Current(); !ok {
		return c.stall()
	}
	return c.processCurrent()
}

// advance moves the cursor forward or applies the exhausted-cursor rule.
func (c *Controller) advance() Effect {
	if c.state == StateTypingOut {
		return c.SkipText()
	}
	if c.state != StateAwaitingInput && c.state != StateIdle && c.state != StateWaitingForMore {
		return noEffect
	}
	c.seq++ // invalidate any pending auto-advance
	if !c.store.Advance() {
		return c.stall()
	}
	return c.processCurrent()
}

// stall applies the exhausted-cursor rule: stall in WaitingForMore while
// streaming, otherwise stay on the last rendered content. Ended is reached
// only once streaming has finished and nothing remains to resume into.
func (c *Controller) stall() Effect {
	if c.streaming {
		c.state = StateWaitingForMore
		c.pastEnd = c.store.Len() > 0
		return noEffect
	}
	if c.state == StateWaitingForMore {
		c.state = StateEnded
		return noEffect
	}
	if c.store.Len() == 0 {
		c.state = StateIdle
		return noEffect
	}
	c.state = StateAwaitingInput
	return noEffect
}

// processCurrent renders the command under the cursor and starts its reveal
// or auto-advance, per command kind.
func (c *Controller) processCurrent() Effect {
	cmd, ok := c.store.Current()
	if !ok {
		return c.stall()
	}

	c.render(cmd)

	switch cmd := cmd.(type) {
	case script.Dialogue:
		return c.beginReveal(cmd.Speaker, cmd.Text)
	case script.Action:
		return c.beginReveal("", cmd.Text)
	case script.Characters:
		// Mood-change-only line: no narrative content, advance immediately.
		c.state = StateAwaitingInput
		return c.advance()
	default: // script.Location
		c.state = StateAwaitingInput
		if c.streaming {
			return Effect{Kind: EffectAutoAdvance, Delay: streamAdvanceDelay, Seq: c.seq}
		}
		if c.autoAdvance {
			return Effect{Kind: EffectAutoAdvance, Delay: locationAdvanceDelay, Seq: c.seq}
		}
		return noEffect
	}
}

// render asks the scene renderer to draw the command. Renderer failures are
// non-fatal: the renderer's own fallback absorbs asset misses, and nothing
// may block the text reveal.
func (c *Controller) render(cmd script.Command) {
	if c.renderer == nil {
		return
	}
	if err := c.renderer.RenderCommand(cmd); err != nil {
		c.logger.Warn("scene render failed", "kind", cmd.Kind(), "error", err)
	}
}

// beginReveal starts a new reveal session for a dialogue or action command.
// Only one reveal may be live at a time; the sequence bump cancels any
// previous one.
func (c *Controller) beginReveal(speaker, text string) Effect {
	c.seq++
	c.speaker = speaker
	c.revealText = []rune(text)
	c.revealPos = 0
	c.state = StateTypingOut

	if len(c.revealText) == 0 {
		return c.finishReveal()
	}
	return Effect{Kind: EffectRevealTick, Delay: c.textSpeed, Seq: c.seq}
}

// finishReveal transitions to AwaitingInput and schedules an auto-advance
// when streaming or manual-auto mode calls for one.
func (c *Controller) finishReveal() Effect {
	c.state = StateAwaitingInput
	if c.streaming {
		return Effect{Kind: EffectAutoAdvance, Delay: streamAdvanceDelay, Seq: c.seq}
	}
	if c.autoAdvance {
		return Effect{Kind: EffectAutoAdvance, Delay: c.autoDelay, Seq: c.seq}
	}
	return noEffect
}
