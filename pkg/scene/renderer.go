// Package scene draws the visual side of playback: backgrounds for the
// current location and characters at deterministic stage positions.
package scene

import "vnplayer/pkg/script"

// Renderer draws the scene for a command. Implementations must never fail
// the caller because of a missing asset: an asset miss is absorbed into a
// placeholder visual and at most logged. A returned error is advisory and
// playback continues regardless.
type Renderer interface {
	RenderCommand(cmd script.Command) error
}

// Position is a horizontal stage slot.
type Position string

const (
	PositionLeft   Position = "left"
	PositionCenter Position = "center"
	PositionRight  Position = "right"
)

// Positions assigns stage slots for n characters: one centers, two flank,
// three fill all slots, and larger casts bucket proportionally by index.
func Positions(n int) []Position {
	switch n {
	case 0:
		return nil
	case 1:
		return []Position{PositionCenter}
	case 2:
		return []Position{PositionLeft, PositionRight}
	case 3:
		return []Position{PositionLeft, PositionCenter, PositionRight}
	}

	positions := make([]Position, n)
	for i := 0; i < n; i++ {
		ratio := float64(i) / float64(n-1)
		switch {
		case ratio < 0.3:
			positions[i] = PositionLeft
		case ratio > 0.7:
			positions[i] = PositionRight
		default:
			positions[i] = PositionCenter
		}
	}
	return positions
}
