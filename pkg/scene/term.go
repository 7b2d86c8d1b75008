package scene

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vnplayer/pkg/script"
)

// moodColors badge characters by mood; unknown moods fall back to neutral.
var moodColors = map[string]lipgloss.Color{
	"neutral":   lipgloss.Color("250"),
	"happy":     lipgloss.Color("220"),
	"sad":       lipgloss.Color("33"),
	"angry":     lipgloss.Color("196"),
	"worried":   lipgloss.Color("172"),
	"excited":   lipgloss.Color("205"),
	"calm":      lipgloss.Color("86"),
	"surprised": lipgloss.Color("213"),
}

// TermRenderer renders the scene as a styled text frame for the terminal
// player. It keeps the same running state as a canvas renderer would: the
// current location and on-stage characters, updated per command.
type TermRenderer struct {
	width int

	location    string
	backgrounds []string
	characters  []script.Character

	frame string
}

// NewTermRenderer creates a renderer drawing frames width cells wide.
func NewTermRenderer(width int) *TermRenderer {
	if width < 20 {
		width = 20
	}
	return &TermRenderer{width: width}
}

// SetWidth resizes the stage and redraws the current frame.
func (r *TermRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	r.width = width
	r.redraw()
}

// Frame returns the most recently drawn stage frame.
func (r *TermRenderer) Frame() string { return r.frame }

// Reset clears the stage.
func (r *TermRenderer) Reset() {
	r.location = ""
	r.backgrounds = nil
	r.characters = nil
	r.frame = ""
}

// RenderCommand updates the stage for cmd. It never fails: unknown
// locations and moods degrade to fallback colors.
func (r *TermRenderer) RenderCommand(cmd script.Command) error {
	switch cmd := cmd.(type) {
	case script.Location:
		r.location = cmd.Name
		r.backgrounds = cmd.Backgrounds
	case script.Characters:
		r.characters = cmd.List
	case script.Dialogue:
		r.applySnapshot(cmd.Scene)
	case script.Action:
		r.applySnapshot(cmd.Scene)
	}
	r.redraw()
	return nil
}

func (r *TermRenderer) applySnapshot(s script.Snapshot) {
	if s.Location != "" {
		r.location = s.Location
		r.backgrounds = script.BackgroundsFor(s.Location)
	}
	if s.Characters != nil {
		r.characters = s.Characters
	}
}

func (r *TermRenderer) redraw() {
	var b strings.Builder
	b.WriteString(r.renderBackdrop())
	b.WriteString("\n")
	b.WriteString(r.renderStage())
	r.frame = b.String()
}

// renderBackdrop draws a full-width bar in the location's first fallback
// color, labeled with the location name.
func (r *TermRenderer) renderBackdrop() string {
	colors := r.backgrounds
	if len(colors) == 0 {
		colors = script.BackgroundsFor(r.location)
	}

	label := r.location
	if label == "" {
		label = "(no location)"
	}

	style := lipgloss.NewStyle().
		Background(lipgloss.Color(colors[0])).
		Foreground(lipgloss.Color("235")).
		Width(r.width).
		Align(lipgloss.Center)
	return style.Render(label)
}

// renderStage places character badges across the stage line per the
// deterministic position assignment.
func (r *TermRenderer) renderStage() string {
	if len(r.characters) == 0 {
		return lipgloss.NewStyle().Width(r.width).Render("")
	}

	var left, center, right []string
	for i, pos := range Positions(len(r.characters)) {
		badge := r.renderBadge(r.characters[i])
		switch pos {
		case PositionLeft:
			left = append(left, badge)
		case PositionRight:
			right = append(right, badge)
		default:
			center = append(center, badge)
		}
	}

	third := r.width / 3
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(third).Align(lipgloss.Left).Render(strings.Join(left, " ")),
		lipgloss.NewStyle().Width(third).Align(lipgloss.Center).Render(strings.Join(center, " ")),
		lipgloss.NewStyle().Width(r.width-2*third).Align(lipgloss.Right).Render(strings.Join(right, " ")),
	)
	return row
}

func (r *TermRenderer) renderBadge(ch script.Character) string {
	color, ok := moodColors[strings.ToLower(ch.Mood)]
	if !ok {
		color = moodColors[script.DefaultMood]
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(ch.Name + "·" + ch.Mood)
}
