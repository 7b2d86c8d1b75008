package script

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatOptions controls Format.
type FormatOptions struct {
	NormalizeSpacing bool `json:"normalize_spacing"`
	CapitalizeNames  bool `json:"capitalize_names"`
	IndentDialogue   bool `json:"indent_dialogue"`
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// Format rewrites a script without changing its meaning: collapses runs of
// blank lines, trims trailing whitespace, and optionally capitalizes speaker
// names and indents dialogue. Directive lines pass through untouched.
func Format(text string, opts FormatOptions) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0

	for _, raw := range lines {
		line := strings.TrimRight(raw, " \t")

		if opts.NormalizeSpacing {
			if strings.TrimSpace(line) == "" {
				blanks++
				if blanks > 1 {
					continue
				}
				out = append(out, "")
				continue
			}
			blanks = 0
			line = strings.TrimSpace(line)
		}

		out = append(out, formatLine(line, opts))
	}

	return strings.Join(out, "\n")
}

func formatLine(line string, opts FormatOptions) string {
	trimmed := strings.TrimSpace(line)
	if isDirective(trimmed) || !strings.Contains(trimmed, ":") {
		return line
	}

	speaker, text, _ := strings.Cut(trimmed, ":")
	speaker = strings.TrimSpace(speaker)
	if opts.CapitalizeNames && speaker != "" {
		speaker = titleCaser.String(speaker)
	}

	formatted := speaker + ": " + strings.TrimSpace(text)
	if opts.IndentDialogue {
		formatted = "  " + formatted
	}
	return formatted
}

func isDirective(line string) bool {
	return strings.HasPrefix(line, prefixLocation) ||
		strings.HasPrefix(line, prefixCharacters) ||
		strings.HasPrefix(line, prefixChoices)
}
