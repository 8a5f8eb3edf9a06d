package xq

import (
	"fmt"
	"os"
	"time"

	"github.com/zenibako/xq-golang/templates"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Default settings for a show file
const (
	DefaultTickRate = 60
	DefaultOSCHost  = "127.0.0.1"
	DefaultOSCPort  = 53100
)

// ShowData represents the serialized show structure.
// The same shape is read from and written to YAML and JSON.
type ShowData struct {
	Name     string        `json:"name" yaml:"name"`
	Settings Settings      `json:"settings,omitempty" yaml:"settings,omitempty"`
	Targets  []TargetData  `json:"targets,omitempty" yaml:"targets,omitempty"`
	Lists    []CueListData `json:"lists" yaml:"lists"`
}

// Settings holds host configuration carried in a show file.
type Settings struct {
	TickRate int         `json:"tickRate,omitempty" yaml:"tickRate,omitempty"` // Ticks per second
	DryRun   bool        `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`     // Log cues instead of playing them
	OSC      OSCSettings `json:"osc,omitempty" yaml:"osc,omitempty"`
}

// OSCSettings configures the OSC trigger listener and the optional remote output.
type OSCSettings struct {
	Host       string `json:"host,omitempty" yaml:"host,omitempty"`             // Listener bind host
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`             // Listener port
	ReplyHost  string `json:"replyHost,omitempty" yaml:"replyHost,omitempty"`   // Where replies go; empty disables replies
	ReplyPort  int    `json:"replyPort,omitempty" yaml:"replyPort,omitempty"`   // Reply port
	RemoteHost string `json:"remoteHost,omitempty" yaml:"remoteHost,omitempty"` // Remote audio engine for the osc backend
	RemotePort int    `json:"remotePort,omitempty" yaml:"remotePort,omitempty"` // Remote audio engine port
}

// TargetData declares a target and the clip it carries.
type TargetData struct {
	Name string `json:"name" yaml:"name"`
	Clip string `json:"clip,omitempty" yaml:"clip,omitempty"` // Clip file or remote identifier
}

// CueListData is the serialized form of a CueList.
type CueListData struct {
	Name   string         `json:"name" yaml:"name"`
	Groups []CueGroupData `json:"groups" yaml:"groups"`
}

// CueGroupData is the serialized form of a CueGroup.
type CueGroupData struct {
	Name string    `json:"name" yaml:"name"`
	Cues []CueData `json:"cues" yaml:"cues"`
}

// CueData is the serialized form of a Cue. Only the fields for its type are
// written; missing fields read back as the type's defaults.
type CueData struct {
	// Common properties
	Type    string  `json:"type" yaml:"type"`
	Name    string  `json:"name,omitempty" yaml:"name,omitempty"`
	Target  string  `json:"target,omitempty" yaml:"target,omitempty"`
	PreWait float64 `json:"preWait,omitempty" yaml:"preWait,omitempty"`

	// Play properties
	Loop           *bool    `json:"loop,omitempty" yaml:"loop,omitempty"`
	OutputVolume   *float64 `json:"outputVolume,omitempty" yaml:"outputVolume,omitempty"`
	StartingVolume *float64 `json:"startingVolume,omitempty" yaml:"startingVolume,omitempty"`
	Speed          *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`

	// Fade properties
	TargetVolume *float64 `json:"targetVolume,omitempty" yaml:"targetVolume,omitempty"`
	FadeTime     *float64 `json:"fadeTime,omitempty" yaml:"fadeTime,omitempty"`
	CurveShape   *float64 `json:"curveShape,omitempty" yaml:"curveShape,omitempty"`

	// Stop properties
	Pause *bool `json:"pause,omitempty" yaml:"pause,omitempty"`
}

// Show is a loaded show: its settings, targets and cue lists.
type Show struct {
	Name     string
	Settings Settings
	Targets  []TargetData
	Lists    []*CueList
}

// TickInterval converts the tick rate into a scheduler interval.
func (s Settings) TickInterval() time.Duration {
	rate := s.TickRate
	if rate <= 0 {
		rate = DefaultTickRate
	}
	return time.Second / time.Duration(rate)
}

// withDefaults fills unset settings.
func (s Settings) withDefaults() Settings {
	if s.TickRate <= 0 {
		s.TickRate = DefaultTickRate
	}
	if s.OSC.Host == "" {
		s.OSC.Host = DefaultOSCHost
	}
	if s.OSC.Port == 0 {
		s.OSC.Port = DefaultOSCPort
	}
	return s
}

// List returns the cue list with the given name, or the first list when name is empty.
func (s *Show) List(name string) *CueList {
	for _, l := range s.Lists {
		if name == "" || l.Name == name {
			return l
		}
	}
	return nil
}

// LoadShowFile reads and decodes a show file.
func LoadShowFile(path string, resolver TargetResolver) (*Show, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read show file: %w", err)
	}
	return LoadShow(data, resolver)
}

// DecodeShowData parses YAML (or JSON, which YAML accepts) into ShowData.
func DecodeShowData(data []byte) (ShowData, error) {
	var raw ShowData
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ShowData{}, fmt.Errorf("failed to parse show data: %w", err)
	}
	return raw, nil
}

// LoadShow decodes a show and binds its cues to targets from resolver.
// A cue naming a target the resolver does not know gets a bare target with
// no audio output, so it fails when triggered rather than at load time.
func LoadShow(data []byte, resolver TargetResolver) (*Show, error) {
	raw, err := DecodeShowData(data)
	if err != nil {
		return nil, err
	}

	show := &Show{
		Name:     raw.Name,
		Settings: raw.Settings.withDefaults(),
		Targets:  raw.Targets,
	}

	unbound := make(map[string]*Target)
	bind := func(name string) *Target {
		if name == "" {
			return nil
		}
		if resolver != nil {
			if t, ok := resolver.ResolveTarget(name); ok {
				return t
			}
		}
		if t, ok := unbound[name]; ok {
			return t
		}
		log.Warnf("Target %q is not available; cues aimed at it will fail", name)
		t := &Target{Name: name}
		unbound[name] = t
		return t
	}

	for li, listData := range raw.Lists {
		list := &CueList{Name: listData.Name}
		for gi, groupData := range listData.Groups {
			group := CueGroup{Name: groupData.Name}
			for ci, cueData := range groupData.Cues {
				cue, err := cueData.toCue(bind(cueData.Target))
				if err != nil {
					return nil, fmt.Errorf("list %d group %d cue %d: %w", li, gi, ci, err)
				}
				group.Add(cue)
			}
			list.Groups = append(list.Groups, group)
		}
		show.Lists = append(show.Lists, list)
	}

	log.Info("Loaded show", "name", show.Name, "lists", len(show.Lists), "targets", len(show.Targets))
	return show, nil
}

func (d CueData) toCue(target *Target) (Cue, error) {
	kind, err := ParseKind(d.Type)
	if err != nil {
		return Cue{}, err
	}

	cue := Cue{Name: d.Name, Target: target, PreWait: d.PreWait}
	switch kind {
	case KindPlay:
		def := templates.Play()
		cue.Action = PlayAction{
			Loop:           boolOr(d.Loop, def.Bool(templates.PropLoop)),
			OutputVolume:   floatOr(d.OutputVolume, def.Float(templates.PropOutputVolume)),
			StartingVolume: floatOr(d.StartingVolume, def.Float(templates.PropStartingVolume)),
			Speed:          floatOr(d.Speed, def.Float(templates.PropSpeed)),
		}
	case KindFade:
		def := templates.Fade()
		cue.Action = FadeAction{
			TargetVolume: floatOr(d.TargetVolume, def.Float(templates.PropTargetVolume)),
			FadeTime:     floatOr(d.FadeTime, def.Float(templates.PropFadeTime)),
			CurveShape:   floatOr(d.CurveShape, def.Float(templates.PropCurveShape)),
		}
	case KindStop:
		def := templates.Stop()
		cue.Action = StopAction{Pause: boolOr(d.Pause, def.Bool(templates.PropPause))}
	}
	if cue.Name == "" {
		cue.Name = kind.String()
	}

	if err := cue.Validate(); err != nil {
		return Cue{}, err
	}
	return cue, nil
}

func toCueData(c Cue) CueData {
	d := CueData{
		Type:    c.Kind().String(),
		Name:    c.Name,
		Target:  c.TargetName(),
		PreWait: c.PreWait,
	}
	switch a := c.Action.(type) {
	case PlayAction:
		d.Loop = &a.Loop
		d.OutputVolume = &a.OutputVolume
		d.StartingVolume = &a.StartingVolume
		d.Speed = &a.Speed
	case FadeAction:
		d.TargetVolume = &a.TargetVolume
		d.FadeTime = &a.FadeTime
		d.CurveShape = &a.CurveShape
	case StopAction:
		d.Pause = &a.Pause
	}
	return d
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
