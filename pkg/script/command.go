package script

// Kind discriminates the command variants produced by the parser.
type Kind string

const (
	KindLocation   Kind = "location"
	KindCharacters Kind = "characters"
	KindDialogue   Kind = "dialogue"
	KindAction     Kind = "action"
)

// DefaultMood is used when a character or speaker has no explicit mood.
const DefaultMood = "neutral"

// Character is one entry of a CHA: directive.
type Character struct {
	Name string `json:"name"`
	Mood string `json:"mood"`
}

// Snapshot is the (location, characters) pair captured onto a dialogue or
// action command at parse time. It is immutable once created: lines are
// scanned top to bottom and later directives never rewrite earlier commands.
type Snapshot struct {
	Location   string      `json:"location,omitempty"`
	Characters []Character `json:"characters,omitempty"`
}

// Command is one unit of playable story content or scene-state change.
// It is a closed union: Location, Characters, Dialogue and Action are the
// only implementations.
type Command interface {
	Kind() Kind
}

// Location changes the current scene backdrop.
type Location struct {
	Name string `json:"name"`
	// Backgrounds are fallback colors for the location, a rendering hint
	// consumed when no backdrop asset exists.
	Backgrounds []string `json:"backgrounds"`
}

// Characters replaces the on-stage character list.
type Characters struct {
	List []Character `json:"characters"`
}

// Dialogue is a spoken line.
type Dialogue struct {
	Speaker string   `json:"speaker"`
	Text    string   `json:"text"`
	Mood    string   `json:"mood"`
	Scene   Snapshot `json:"scene"`
}

// Action is a narration line.
type Action struct {
	Text  string   `json:"text"`
	Scene Snapshot `json:"scene"`
}

func (Location) Kind() Kind   { return KindLocation }
func (Characters) Kind() Kind { return KindCharacters }
func (Dialogue) Kind() Kind   { return KindDialogue }
func (Action) Kind() Kind     { return KindAction }
