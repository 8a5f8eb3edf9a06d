package xq

import (
	"fmt"

	"github.com/zenibako/xq-golang/templates"

	"github.com/charmbracelet/log"
)

// CueFromTemplate builds a cue from a template. Properties the template
// leaves out keep the built-in defaults for its type.
func CueFromTemplate(tmpl templates.CueTemplate, target *Target) (Cue, error) {
	defaults, ok := templates.ForType(tmpl.Type)
	if !ok {
		return Cue{}, fmt.Errorf("%w: no template for cue type %q", ErrInvalidCue, tmpl.Type)
	}
	for k, v := range tmpl.Properties {
		defaults = defaults.With(k, v)
	}

	name := tmpl.Name
	if name == "" {
		name = defaults.Name
	}

	cue := Cue{Name: name, Target: target}
	switch tmpl.Type {
	case CueTypePlay:
		cue.Action = PlayAction{
			Loop:           defaults.Bool(templates.PropLoop),
			OutputVolume:   defaults.Float(templates.PropOutputVolume),
			StartingVolume: defaults.Float(templates.PropStartingVolume),
			Speed:          defaults.Float(templates.PropSpeed),
		}
	case CueTypeFade:
		cue.Action = FadeAction{
			TargetVolume: defaults.Float(templates.PropTargetVolume),
			FadeTime:     defaults.Float(templates.PropFadeTime),
			CurveShape:   defaults.Float(templates.PropCurveShape),
		}
	case CueTypeStop:
		cue.Action = StopAction{Pause: defaults.Bool(templates.PropPause)}
	}

	if err := cue.Validate(); err != nil {
		return Cue{}, err
	}
	return cue, nil
}

// GroupFromTemplate builds a cue group from a group template. Every child is
// aimed at target.
func GroupFromTemplate(tmpl templates.CueTemplate, target *Target) (CueGroup, error) {
	group := CueGroup{Name: tmpl.Name}
	for i, child := range tmpl.Children {
		cue, err := CueFromTemplate(child, target)
		if err != nil {
			return group, fmt.Errorf("failed to create child cue %d: %w", i, err)
		}
		group.Add(cue)
	}
	log.Info("Created group from template", "group", group.Name, "cues", len(group.Cues))
	return group, nil
}

// NewCue appends a default cue of the given kind with no target, the way a
// freshly added cue appears in the authoring tool.
func (g *CueGroup) NewCue(kind Kind) *Cue {
	tmpl, ok := templates.ForType(kind.String())
	if !ok {
		log.Warnf("Unknown cue kind %v", kind)
		return nil
	}
	cue, err := CueFromTemplate(tmpl, nil)
	if err != nil {
		log.Errorf("Default %s cue is invalid: %v", kind, err)
		return nil
	}
	g.Add(cue)
	return &g.Cues[len(g.Cues)-1]
}
