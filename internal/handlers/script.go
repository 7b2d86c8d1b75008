package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"vnplayer/pkg/script"
)

// ScriptHandler serves stateless script tooling: parse, validate, format.
type ScriptHandler struct {
	logger *slog.Logger
}

func NewScriptHandler(logger *slog.Logger) *ScriptHandler {
	return &ScriptHandler{logger: logger}
}

type ScriptRequest struct {
	Text string `json:"text"`
	// Format options; ignored by parse and validate.
	NormalizeSpacing bool `json:"normalize_spacing,omitempty"`
	CapitalizeNames  bool `json:"capitalize_names,omitempty"`
	IndentDialogue   bool `json:"indent_dialogue,omitempty"`
}

// CommandView is the wire shape of a command. The in-memory union flattens
// to one struct with kind-dependent fields.
type CommandView struct {
	Kind        script.Kind        `json:"kind"`
	Name        string             `json:"name,omitempty"`
	Backgrounds []string           `json:"backgrounds,omitempty"`
	Characters  []script.Character `json:"characters,omitempty"`
	Speaker     string             `json:"speaker,omitempty"`
	Text        string             `json:"text,omitempty"`
	Mood        string             `json:"mood,omitempty"`
	Scene       *script.Snapshot   `json:"scene,omitempty"`
}

type ParseResponse struct {
	Commands   []CommandView     `json:"commands"`
	Choices    []string          `json:"choices,omitempty"`
	Statistics script.Statistics `json:"statistics"`
}

type FormatResponse struct {
	Formatted string `json:"formatted"`
}

func viewOf(cmd script.Command) CommandView {
	switch c := cmd.(type) {
	case script.Location:
		return CommandView{Kind: c.Kind(), Name: c.Name, Backgrounds: c.Backgrounds}
	case script.Characters:
		return CommandView{Kind: c.Kind(), Characters: c.List}
	case script.Dialogue:
		scene := c.Scene
		return CommandView{Kind: c.Kind(), Speaker: c.Speaker, Text: c.Text, Mood: c.Mood, Scene: &scene}
	case script.Action:
		scene := c.Scene
		return CommandView{Kind: c.Kind(), Text: c.Text, Scene: &scene}
	}
	return CommandView{}
}

// ServeHTTP routes /v1/script/{parse,validate,format}.
func (h *ScriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req ScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch r.URL.Path {
	case "/v1/script/parse":
		h.parse(w, req)
	case "/v1/script/validate":
		writeJSON(w, h.logger, http.StatusOK, script.Validate(req.Text))
	case "/v1/script/format":
		h.format(w, req)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown script operation")
	}
}

func (h *ScriptHandler) parse(w http.ResponseWriter, req ScriptRequest) {
	res := script.Parse(req.Text)

	views := make([]CommandView, 0, len(res.Commands))
	for _, cmd := range res.Commands {
		views = append(views, viewOf(cmd))
	}

	writeJSON(w, h.logger, http.StatusOK, ParseResponse{
		Commands:   views,
		Choices:    res.Choices,
		Statistics: script.Stats(res.Commands),
	})
}

func (h *ScriptHandler) format(w http.ResponseWriter, req ScriptRequest) {
	opts := script.FormatOptions{
		NormalizeSpacing: req.NormalizeSpacing,
		CapitalizeNames:  req.CapitalizeNames,
		IndentDialogue:   req.IndentDialogue,
	}
	writeJSON(w, h.logger, http.StatusOK, FormatResponse{
		Formatted: script.Format(req.Text, opts),
	})
}
