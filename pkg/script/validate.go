package script

import (
	"fmt"
	"strings"
)

// Validation is a non-fatal lint report for a script. The parser itself
// never rejects input; these are advisory findings for authors.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate lints a script for common authoring mistakes: empty directive
// payloads, missing speaker names, and scripts without any scene setup.
func Validate(text string) Validation {
	v := Validation{
		Valid:    true,
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	var hasLocation, hasCharacters bool

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		num := i + 1

		switch {
		case line == "":

		case strings.HasPrefix(line, prefixLocation):
			hasLocation = true
			if strings.TrimSpace(line[len(prefixLocation):]) == "" {
				v.Errors = append(v.Errors, fmt.Sprintf("line %d: empty location", num))
				v.Valid = false
			}

		case strings.HasPrefix(line, prefixCharacters):
			hasCharacters = true
			if strings.TrimSpace(line[len(prefixCharacters):]) == "" {
				v.Errors = append(v.Errors, fmt.Sprintf("line %d: empty characters list", num))
				v.Valid = false
			}

		case strings.HasPrefix(line, prefixChoices):
			if len(parseChoices(strings.TrimSpace(line[len(prefixChoices):]))) == 0 {
				v.Warnings = append(v.Warnings, fmt.Sprintf("line %d: empty choice list", num))
			}

		case strings.Contains(line, ":"):
			colon := strings.Index(line, ":")
			if colon == 0 {
				v.Errors = append(v.Errors, fmt.Sprintf("line %d: missing speaker name", num))
				v.Valid = false
			}
			if colon == len(line)-1 {
				v.Warnings = append(v.Warnings, fmt.Sprintf("line %d: empty dialogue", num))
			}
		}
	}

	if !hasLocation {
		v.Warnings = append(v.Warnings, "no locations defined in script")
	}
	if !hasCharacters {
		v.Warnings = append(v.Warnings, "no characters defined in script")
	}

	return v
}

// Statistics summarizes a parsed script.
type Statistics struct {
	Locations     int                 `json:"locations"`
	Characters    int                 `json:"characters"`
	DialogueLines int                 `json:"dialogue_lines"`
	ActionLines   int                 `json:"action_lines"`
	MoodsByName   map[string][]string `json:"moods_by_name,omitempty"`
}

// Stats walks a command sequence and counts narrative content. Character
// moods are collected per name across all CHA: directives.
func Stats(commands []Command) Statistics {
	stats := Statistics{MoodsByName: make(map[string][]string)}
	locations := make(map[string]struct{})

	for _, cmd := range commands {
		switch c := cmd.(type) {
		case Location:
			if _, seen := locations[c.Name]; !seen {
				locations[c.Name] = struct{}{}
				stats.Locations++
			}
		case Characters:
			for _, ch := range c.List {
				if !contains(stats.MoodsByName[ch.Name], ch.Mood) {
					stats.MoodsByName[ch.Name] = append(stats.MoodsByName[ch.Name], ch.Mood)
				}
			}
		case Dialogue:
			stats.DialogueLines++
		case Action:
			stats.ActionLines++
		}
	}

	stats.Characters = len(stats.MoodsByName)
	return stats
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
