package templates

// CueTemplate represents a template for generating XQ cues
type CueTemplate struct {
	Type       string         `json:"type" yaml:"type"`                             // Cue type: "play", "fade" or "stop"
	Name       string         `json:"name" yaml:"name"`                             // Cue name
	Properties map[string]any `json:"properties" yaml:"properties"`                 // Kind-specific parameters
	Children   []CueTemplate  `json:"children,omitempty" yaml:"children,omitempty"` // Child cues (for groups)
}

// Property keys
const (
	PropLoop           = "loop"
	PropOutputVolume   = "outputVolume"
	PropStartingVolume = "startingVolume"
	PropSpeed          = "speed"
	PropTargetVolume   = "targetVolume"
	PropFadeTime       = "fadeTime"
	PropCurveShape     = "curveShape"
	PropPause          = "pause"
)

// Play is the template for a freshly added Play cue.
func Play() CueTemplate {
	return CueTemplate{
		Type: "play",
		Name: "Play",
		Properties: map[string]any{
			PropLoop:           false,
			PropOutputVolume:   0.0,
			PropStartingVolume: 0.0,
			PropSpeed:          1.0,
		},
	}
}

// Fade is the template for a freshly added Fade cue.
func Fade() CueTemplate {
	return CueTemplate{
		Type: "fade",
		Name: "Fade",
		Properties: map[string]any{
			PropTargetVolume: 0.0,
			PropFadeTime:     3.0,
			PropCurveShape:   0.5,
		},
	}
}

// Stop is the template for a freshly added Stop cue.
func Stop() CueTemplate {
	return CueTemplate{
		Type: "stop",
		Name: "Stop",
		Properties: map[string]any{
			PropPause: false,
		},
	}
}

// ForType returns the built-in template for a cue type.
func ForType(cueType string) (CueTemplate, bool) {
	switch cueType {
	case "play":
		return Play(), true
	case "fade":
		return Fade(), true
	case "stop":
		return Stop(), true
	}
	return CueTemplate{}, false
}

// Group builds a group template around child templates.
func Group(name string, children ...CueTemplate) CueTemplate {
	return CueTemplate{Type: "group", Name: name, Children: children}
}

// Float returns a numeric property, accepting any of the numeric types a
// decoder may produce. Missing or non-numeric values return 0.
func (t CueTemplate) Float(key string) float64 {
	switch v := t.Properties[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns a boolean property, false if missing.
func (t CueTemplate) Bool(key string) bool {
	v, _ := t.Properties[key].(bool)
	return v
}

// With returns a copy of the template with one property overridden.
func (t CueTemplate) With(key string, value any) CueTemplate {
	props := make(map[string]any, len(t.Properties)+1)
	for k, v := range t.Properties {
		props[k] = v
	}
	props[key] = value
	t.Properties = props
	return t
}
