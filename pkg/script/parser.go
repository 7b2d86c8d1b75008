package script

import "strings"

// Directive prefixes recognized by the parser.
const (
	prefixLocation   = "LOC:"
	prefixCharacters = "CHA:"
	prefixChoices    = "STP:"
)

// Context carries the scene-scan state across an append boundary, so that
// fragments appended to an already-parsed script inherit the location and
// characters established before the boundary. The zero value is the state
// at the top of a script.
type Context struct {
	Location   string
	Characters []Character
}

// Result is the outcome of one parse pass.
type Result struct {
	Commands []Command

	// Choices is the retained story-transition-point set: the payload of the
	// most recent STP: directive in the parsed text. ChoicesSeen reports
	// whether any STP: directive appeared at all, so callers can tell
	// "no directive" apart from "directive with empty payload".
	Choices     []string
	ChoicesSeen bool

	// Context is the scan state after the last line, for append parsing.
	Context Context
}

// Parse converts raw script text into an ordered command sequence. It is
// total: lines that match no directive or dialogue shape degrade to action
// commands rather than failing the parse.
func Parse(text string) Result {
	return ParseAppend(text, Context{})
}

// ParseAppend parses text as a continuation of a script whose scan state is
// ctx. The returned Result carries the updated state.
func ParseAppend(text string, ctx Context) Result {
	res := Result{Context: ctx}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, prefixLocation):
			name := strings.TrimSpace(line[len(prefixLocation):])
			res.Context.Location = name
			res.Commands = append(res.Commands, Location{
				Name:        name,
				Backgrounds: BackgroundsFor(name),
			})

		case strings.HasPrefix(line, prefixCharacters):
			chars := parseCharacters(strings.TrimSpace(line[len(prefixCharacters):]))
			res.Context.Characters = chars
			res.Commands = append(res.Commands, Characters{List: chars})

		case strings.HasPrefix(line, prefixChoices):
			// Metadata about the next player choice, not a playable command.
			// The most recent directive wins.
			res.Choices = parseChoices(strings.TrimSpace(line[len(prefixChoices):]))
			res.ChoicesSeen = true

		case strings.Contains(line, ":"):
			res.Commands = append(res.Commands, parseDialogue(line, res.Context))

		default:
			res.Commands = append(res.Commands, Action{
				Text:  line,
				Scene: res.Context.snapshot(),
			})
		}
	}

	return res
}

// parseCharacters splits a CHA: payload into an ordered character list.
// Entries are "name" or "name/mood"; an empty payload yields an empty list.
func parseCharacters(payload string) []Character {
	chars := make([]Character, 0)
	if payload == "" {
		return chars
	}
	for _, part := range strings.Split(payload, ",") {
		part = strings.TrimSpace(part)
		if name, mood, ok := strings.Cut(part, "/"); ok {
			chars = append(chars, Character{
				Name: strings.TrimSpace(name),
				Mood: strings.TrimSpace(mood),
			})
		} else {
			chars = append(chars, Character{Name: part, Mood: DefaultMood})
		}
	}
	return chars
}

// parseChoices splits an STP: payload on "/", dropping empty segments.
func parseChoices(payload string) []string {
	choices := make([]string, 0)
	for _, part := range strings.Split(payload, "/") {
		if part = strings.TrimSpace(part); part != "" {
			choices = append(choices, part)
		}
	}
	return choices
}

func parseDialogue(line string, ctx Context) Dialogue {
	speaker, text, _ := strings.Cut(line, ":")
	speaker = strings.TrimSpace(speaker)
	return Dialogue{
		Speaker: speaker,
		Text:    strings.TrimSpace(text),
		Mood:    ctx.moodFor(speaker),
		Scene:   ctx.snapshot(),
	}
}

// moodFor resolves a speaker's mood against the current characters by
// case-insensitive name match. With duplicate names, the last entry wins.
// Unknown speakers are neutral.
func (c Context) moodFor(speaker string) string {
	mood := DefaultMood
	for _, ch := range c.Characters {
		if strings.EqualFold(ch.Name, speaker) {
			mood = ch.Mood
		}
	}
	return mood
}

// snapshot copies the scan state for attachment to a command.
func (c Context) snapshot() Snapshot {
	var chars []Character
	if c.Characters != nil {
		chars = make([]Character, len(c.Characters))
		copy(chars, c.Characters)
	}
	return Snapshot{Location: c.Location, Characters: chars}
}
