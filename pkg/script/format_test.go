package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_CapitalizesSpeakerNames(t *testing.T) {
	got := Format("ava: hi there\nbob marley: yo", FormatOptions{CapitalizeNames: true})
	assert.Equal(t, "Ava: hi there\nBob Marley: yo", got)
}

func TestFormat_DirectivesUntouched(t *testing.T) {
	src := "LOC: beach\nCHA: ava/happy\nSTP: a / b"
	assert.Equal(t, src, Format(src, FormatOptions{CapitalizeNames: true}))
}

func TestFormat_NormalizesSpacing(t *testing.T) {
	got := Format("Ava: hi   \n\n\n\nBob: yo", FormatOptions{NormalizeSpacing: true})
	assert.Equal(t, "Ava: hi\n\nBob: yo", got)
}

func TestFormat_IndentDialogue(t *testing.T) {
	got := Format("Ava: hi\nThe wind blows.", FormatOptions{IndentDialogue: true})
	assert.Equal(t, "  Ava: hi\nThe wind blows.", got)
}

func TestFormat_DoesNotChangeMeaning(t *testing.T) {
	src := "loc is not a directive\nava: hi\n\n\nbob: bye"
	formatted := Format(src, FormatOptions{NormalizeSpacing: true, CapitalizeNames: true})

	before := Parse(src)
	after := Parse(formatted)
	assert.Equal(t, len(before.Commands), len(after.Commands))
	for i := range before.Commands {
		assert.Equal(t, before.Commands[i].Kind(), after.Commands[i].Kind())
	}
}

func TestValidate_FlagsEmptyDirectives(t *testing.T) {
	v := Validate("LOC:\nCHA:\n: no speaker\nAva:")
	assert.False(t, v.Valid)
	assert.Len(t, v.Errors, 3)
	assert.Contains(t, v.Errors[0], "empty location")
	assert.Contains(t, v.Errors[1], "empty characters")
	assert.Contains(t, v.Errors[2], "missing speaker")
	assert.Contains(t, v.Warnings, "line 4: empty dialogue")
}

func TestValidate_WarnsOnMissingSetup(t *testing.T) {
	v := Validate("Ava: hi")
	assert.True(t, v.Valid)
	assert.Contains(t, v.Warnings, "no locations defined in script")
	assert.Contains(t, v.Warnings, "no characters defined in script")
}

func TestStats(t *testing.T) {
	res := Parse("LOC: beach\nCHA: ava/happy\nAva: hi\nShe waves.\nLOC: beach\nCHA: ava/sad, bob\nAva: bye")
	stats := Stats(res.Commands)

	assert.Equal(t, 1, stats.Locations)
	assert.Equal(t, 2, stats.Characters)
	assert.Equal(t, 2, stats.DialogueLines)
	assert.Equal(t, 1, stats.ActionLines)
	assert.Equal(t, []string{"happy", "sad"}, stats.MoodsByName["ava"])
	assert.Equal(t, []string{"neutral"}, stats.MoodsByName["bob"])
}
