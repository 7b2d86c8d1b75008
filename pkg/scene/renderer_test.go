package scene

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vnplayer/pkg/script"
)

func TestPositions(t *testing.T) {
	assert.Nil(t, Positions(0))
	assert.Equal(t, []Position{PositionCenter}, Positions(1))
	assert.Equal(t, []Position{PositionLeft, PositionRight}, Positions(2))
	assert.Equal(t, []Position{PositionLeft, PositionCenter, PositionRight}, Positions(3))
}

func TestPositions_LargeCastBuckets(t *testing.T) {
	got := Positions(5)
	// Ratios 0, .25, .5, .75, 1 bucket to left, left, center, right, right.
	assert.Equal(t, []Position{
		PositionLeft, PositionLeft, PositionCenter, PositionRight, PositionRight,
	}, got)
}

func TestTermRenderer_NeverFails(t *testing.T) {
	r := NewTermRenderer(60)

	cmds := script.Parse("LOC: nowhere_special\nCHA: ghost/ominous\nghost: boo\nIt vanishes.").Commands
	for _, cmd := range cmds {
		require.NoError(t, r.RenderCommand(cmd), "renderer must absorb asset misses")
	}
	assert.NotEmpty(t, r.Frame())
	assert.True(t, strings.Contains(r.Frame(), "nowhere_special"))
}

func TestTermRenderer_SnapshotDrivesStage(t *testing.T) {
	r := NewTermRenderer(60)
	res := script.Parse("LOC: beach\nCHA: ava/happy, bob\nAva: hi")

	for _, cmd := range res.Commands {
		require.NoError(t, r.RenderCommand(cmd))
	}

	frame := r.Frame()
	assert.Contains(t, frame, "beach")
	assert.Contains(t, frame, "ava")
	assert.Contains(t, frame, "bob")
}

func TestTermRenderer_Reset(t *testing.T) {
	r := NewTermRenderer(60)
	require.NoError(t, r.RenderCommand(script.Location{Name: "city", Backgrounds: script.BackgroundsFor("city")}))
	r.Reset()
	assert.Empty(t, r.Frame())
}
