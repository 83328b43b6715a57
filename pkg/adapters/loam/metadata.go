package loam

// AutomatonMetadata is the frontmatter of an automaton document.
// States are kept raw so schema.Decode can apply its head operation hook.
type AutomatonMetadata struct {
	Name        string           `json:"name" mapstructure:"name"`
	Description string           `json:"description" mapstructure:"description"`
	Tapes       int              `json:"tapes" mapstructure:"tapes"`
	Blank       any              `json:"blank" mapstructure:"blank"`
	Start       string           `json:"start" mapstructure:"start"`
	States      []map[string]any `json:"states" mapstructure:"states"`
}

func (m AutomatonMetadata) raw() map[string]any {
	states := make([]any, len(m.States))
	for i, st := range m.States {
		states[i] = st
	}
	raw := map[string]any{
		"name":        m.Name,
		"description": m.Description,
		"tapes":       m.Tapes,
		"start":       m.Start,
		"states":      states,
	}
	if m.Blank != nil {
		raw["blank"] = m.Blank
	}
	return raw
}
