package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"vnplayer/internal/config"
	"vnplayer/internal/services"
	"vnplayer/pkg/playback"
	"vnplayer/pkg/scene"
	"vnplayer/pkg/stream"
)

// PlayerUI is the BubbleTea model that runs the player.
// https://github.com/charmbracelet/bubbletea
type PlayerUI struct {
	cfg    *config.Config
	source services.StorySource
	logger *slog.Logger

	ctrl     *playback.Controller
	ingest   *stream.Ingestor
	renderer *scene.TermRenderer

	dialogueViewport viewport.Model
	ready            bool
	width            int
	height           int
	err              error

	records <-chan stream.Record

	// Choice modal state
	showChoiceModal bool
	selectedChoice  int
	choicesOffered  bool

	// Quit confirmation state
	showQuitModal bool
}

type revealTickMsg struct {
	seq uint64
}

type autoAdvanceMsg struct {
	seq uint64
}

type streamRecordMsg struct {
	rec stream.Record
	ok  bool
}

var (
	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narrationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	waitingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	dialogueBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 2)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

func NewPlayerUI(cfg *config.Config, source services.StorySource, logger *slog.Logger) PlayerUI {
	renderer := scene.NewTermRenderer(80)
	ctrl := playback.New(renderer, logger)
	ctrl.SetTextSpeed(cfg.TextSpeed)
	ctrl.SetAutoDelay(cfg.AutoDelay)

	return PlayerUI{
		cfg:              cfg,
		source:           source,
		logger:           logger,
		ctrl:             ctrl,
		renderer:         renderer,
		dialogueViewport: viewport.New(80, 5),
	}
}

func (m PlayerUI) Init() tea.Cmd {
	return nil
}

// effectCmd turns a controller effect into the tea.Tick that delivers it.
func effectCmd(e playback.Effect) tea.Cmd {
	switch e.Kind {
	case playback.EffectRevealTick:
		return tea.Tick(e.Delay, func(time.Time) tea.Msg { return revealTickMsg{seq: e.Seq} })
	case playback.EffectAutoAdvance:
		return tea.Tick(e.Delay, func(time.Time) tea.Msg { return autoAdvanceMsg{seq: e.Seq} })
	}
	return nil
}

func effectCmds(fx []playback.Effect) []tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range fx {
		if cmd := effectCmd(e); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// listenStream waits for the next record from the story source.
func (m PlayerUI) listenStream() tea.Cmd {
	ch := m.records
	return func() tea.Msg {
		rec, ok := <-ch
		return streamRecordMsg{rec: rec, ok: ok}
	}
}

// startStream begins a new story request. Each request gets a fresh
// ingestor; the controller is reset by the stream's own setup record.
func (m *PlayerUI) startStream(message string) tea.Cmd {
	m.records = m.source.RequestStory(context.Background(), message)
	m.ingest = stream.NewIngestor(m.ctrl, m.logger)
	m.choicesOffered = false
	m.showChoiceModal = false
	m.err = nil
	return m.listenStream()
}

func (m PlayerUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showChoiceModal {
		return m.updateChoiceModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer.SetWidth(m.width - 4)
		m.dialogueViewport.Width = m.width - 8
		m.dialogueViewport.Height = 5
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case revealTickMsg:
		e := m.ctrl.HandleRevealTick(msg.seq)
		return m.afterPlayback(effectCmd(e))

	case autoAdvanceMsg:
		e := m.ctrl.HandleAutoAdvance(msg.seq)
		return m.afterPlayback(effectCmd(e))

	case streamRecordMsg:
		return m.updateStream(msg)
	}

	var cmd tea.Cmd
	m.dialogueViewport, cmd = m.dialogueViewport.Update(msg)
	return m, cmd
}

func (m PlayerUI) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.showQuitModal = true
		return m, nil

	case " ", "enter":
		return m.afterPlayback(effectCmd(m.ctrl.Advance()))

	case "left", "backspace":
		return m.afterPlayback(effectCmd(m.ctrl.Retreat()))

	case "a":
		m.ctrl.SetAutoAdvance(!m.ctrl.AutoAdvance())
		return m, nil

	case "s":
		if m.records == nil || (m.ingest != nil && m.ingest.Finished()) {
			return m, m.startStream("Begin the story.")
		}
		return m, nil
	}
	return m, nil
}

func (m PlayerUI) updateStream(msg streamRecordMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.records = nil
		return m.afterPlayback()
	}

	if msg.rec.Type == stream.RecordError && msg.rec.Err != "" {
		m.err = errors.New(msg.rec.Err)
	}

	cmds := effectCmds(m.ingest.Handle(msg.rec))
	if !m.ingest.Finished() {
		cmds = append(cmds, m.listenStream())
	}
	return m.afterPlayback(cmds...)
}

// afterPlayback batches pending commands and opens the choice modal once the
// stream has finished and playback has caught up with it.
func (m PlayerUI) afterPlayback(cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	if m.ingest != nil && m.ingest.Finished() && !m.choicesOffered &&
		len(m.ctrl.Choices()) > 0 && m.atRest() {
		m.choicesOffered = true
		m.showChoiceModal = true
		m.selectedChoice = 0
	}

	var filtered []tea.Cmd
	for _, cmd := range cmds {
		if cmd != nil {
			filtered = append(filtered, cmd)
		}
	}
	if len(filtered) == 0 {
		return m, nil
	}
	return m, tea.Batch(filtered...)
}

// atRest reports whether playback has nothing left to show.
func (m PlayerUI) atRest() bool {
	switch m.ctrl.State() {
	case playback.StateEnded:
		return true
	case playback.StateAwaitingInput:
		return !m.ctrl.Store().HasNext()
	}
	return false
}

func (m PlayerUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "enter":
			return m, tea.Quit
		case "n", "esc", "q":
			m.showQuitModal = false
			return m, nil
		}
	}
	return m, nil
}

func (m PlayerUI) updateChoiceModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	choices := m.ctrl.Choices()
	switch key.String() {
	case "up", "k":
		if m.selectedChoice > 0 {
			m.selectedChoice--
		}
	case "down", "j":
		if m.selectedChoice < len(choices)-1 {
			m.selectedChoice++
		}
	case "enter":
		if m.selectedChoice < len(choices) {
			choice := choices[m.selectedChoice]
			m.showChoiceModal = false
			return m, m.startStream(choice)
		}
	case "esc":
		m.showChoiceModal = false
	case "ctrl+c":
		m.showChoiceModal = false
		m.showQuitModal = true
	}
	return m, nil
}

func (m PlayerUI) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderer.Frame())
	b.WriteString("\n")
	b.WriteString(m.renderDialogue())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	view := b.String()
	if m.showQuitModal {
		return m.overlay(view, m.renderQuitModal())
	}
	if m.showChoiceModal {
		return m.overlay(view, m.renderChoiceModal())
	}
	return view
}

func (m PlayerUI) renderDialogue() string {
	width := m.width - 8
	if width < 10 {
		width = 10
	}

	var line string
	text := wordwrap.String(m.ctrl.VisibleText(), width)
	if speaker := m.ctrl.Speaker(); speaker != "" {
		line = speakerStyle.Render(speaker) + "\n" + text
	} else {
		line = narrationStyle.Render(text)
	}

	switch m.ctrl.State() {
	case playback.StateAwaitingInput:
		line += statusStyle.Render("  ▼")
	case playback.StateWaitingForMore:
		line += waitingStyle.Render("  …")
	}

	if m.err != nil {
		line += "\n" + errorStyle.Render("Error: "+m.err.Error())
	}

	m.dialogueViewport.SetContent(line)
	return dialogueBoxStyle.Width(m.width - 4).Render(m.dialogueViewport.View())
}

func (m PlayerUI) renderStatus() string {
	p := m.ctrl.Store().Progress()
	auto := "off"
	if m.ctrl.AutoAdvance() {
		auto = "on"
	}
	mode := m.ctrl.State().String()
	if m.ctrl.Streaming() {
		mode += " (streaming)"
	}

	left := fmt.Sprintf(" %d/%d (%d%%)  auto: %s  %s", p.Current, p.Total, p.Percentage, auto, mode)
	help := "space advance · ←/bksp back · a auto · s story · q quit "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 1 {
		gap = 1
	}
	return statusStyle.Render(left + strings.Repeat(" ", gap) + help)
}

func (m PlayerUI) renderQuitModal() string {
	content := modalTitleStyle.Render("Quit?") + "\n\n" +
		modalItemStyle.Render("y / enter: quit    n / esc: stay")
	return modalStyle.Render(content)
}

func (m PlayerUI) renderChoiceModal() string {
	var b strings.Builder
	b.WriteString(modalTitleStyle.Render("What happens next?"))
	b.WriteString("\n\n")

	for i, choice := range m.ctrl.Choices() {
		style := modalItemStyle
		if i == m.selectedChoice {
			style = modalSelectedItemStyle
		}
		b.WriteString(style.Render("  "+choice+"  ") + "\n")
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("↑/↓ select · enter choose · esc dismiss"))
	return modalStyle.Render(b.String())
}

func (m PlayerUI) overlay(_ string, modal string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
