package xq

import (
	"fmt"
	"strings"
	"time"

	"github.com/zenibako/xq-golang/volume"

	"github.com/charmbracelet/log"
)

// Kind identifies what a cue does when it fires.
type Kind int

const (
	KindPlay Kind = iota
	KindFade
	KindStop
)

// Cue type names as they appear in show files
const (
	CueTypePlay = "play"
	CueTypeFade = "fade"
	CueTypeStop = "stop"
)

// Parameter ranges accepted by the authoring tool
const (
	MinSpeed        = -3.0
	MaxSpeed        = 3.0
	MaxCueFadeTime  = 30.0 // seconds
	MaxTargetVolume = 0.0  // dB, fades never push above unity
)

func (k Kind) String() string {
	switch k {
	case KindPlay:
		return CueTypePlay
	case KindFade:
		return CueTypeFade
	case KindStop:
		return CueTypeStop
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a cue type name onto a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case CueTypePlay:
		return KindPlay, nil
	case CueTypeFade:
		return KindFade, nil
	case CueTypeStop:
		return KindStop, nil
	default:
		return 0, fmt.Errorf("%w: unknown cue type %q", ErrInvalidCue, s)
	}
}

// Action holds the kind-specific parameters of a cue.
// Exactly one of PlayAction, FadeAction or StopAction.
type Action interface {
	Kind() Kind
	validate() error
}

// PlayAction starts (or resumes) playback on the target.
type PlayAction struct {
	Loop           bool    // Loop the clip
	OutputVolume   float64 // dB offset applied on top of every fade
	StartingVolume float64 // dB the fade level resets to on play
	Speed          float64 // Playback speed / pitch multiplier
}

// FadeAction moves the target's level over time.
type FadeAction struct {
	TargetVolume float64 // dB at the end of the fade
	FadeTime     float64 // seconds
	CurveShape   float64 // 0 = slow start, 1 = fast start
}

// StopAction stops or pauses the target.
type StopAction struct {
	Pause bool // Pause and keep the playhead instead of stopping
}

func (PlayAction) Kind() Kind { return KindPlay }
func (FadeAction) Kind() Kind { return KindFade }
func (StopAction) Kind() Kind { return KindStop }

func (a PlayAction) validate() error {
	var problems []string
	if a.OutputVolume < volume.MinDB || a.OutputVolume > volume.MaxDB {
		problems = append(problems, fmt.Sprintf("output volume %.2f outside [%g, %g]", a.OutputVolume, volume.MinDB, volume.MaxDB))
	}
	if a.StartingVolume < volume.MinDB || a.StartingVolume > volume.MaxDB {
		problems = append(problems, fmt.Sprintf("starting volume %.2f outside [%g, %g]", a.StartingVolume, volume.MinDB, volume.MaxDB))
	}
	if a.Speed < MinSpeed || a.Speed > MaxSpeed {
		problems = append(problems, fmt.Sprintf("speed %.2f outside [%g, %g]", a.Speed, MinSpeed, MaxSpeed))
	}
	return joinProblems(problems)
}

func (a FadeAction) validate() error {
	var problems []string
	if a.TargetVolume < volume.MinDB || a.TargetVolume > MaxTargetVolume {
		problems = append(problems, fmt.Sprintf("target volume %.2f outside [%g, %g]", a.TargetVolume, volume.MinDB, MaxTargetVolume))
	}
	if a.FadeTime < 0 || a.FadeTime > MaxCueFadeTime {
		problems = append(problems, fmt.Sprintf("fade time %.2f outside [0, %g]", a.FadeTime, MaxCueFadeTime))
	}
	if a.CurveShape < 0 || a.CurveShape > 1 {
		problems = append(problems, fmt.Sprintf("curve shape %.2f outside [0, 1]", a.CurveShape))
	}
	return joinProblems(problems)
}

func (a StopAction) validate() error { return nil }

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidCue, strings.Join(problems, "; "))
}

// Cue is a single timed audio action aimed at one target.
type Cue struct {
	Name    string
	Target  *Target // Not owned; resolved to a Controller when triggered
	PreWait float64 // Seconds to wait before the action runs
	Action  Action
}

// NewPlayCue creates a Play cue.
func NewPlayCue(name string, target *Target, action PlayAction) Cue {
	return Cue{Name: name, Target: target, Action: action}
}

// NewFadeCue creates a Fade cue.
func NewFadeCue(name string, target *Target, action FadeAction) Cue {
	return Cue{Name: name, Target: target, Action: action}
}

// NewStopCue creates a Stop cue.
func NewStopCue(name string, target *Target, pause bool) Cue {
	return Cue{Name: name, Target: target, Action: StopAction{Pause: pause}}
}

// Kind reports the cue's kind. A cue without an action reports KindPlay.
func (c *Cue) Kind() Kind {
	if c.Action == nil {
		return KindPlay
	}
	return c.Action.Kind()
}

// Validate checks the cue's parameters against the ranges the authoring tool allows.
func (c *Cue) Validate() error {
	if c.Action == nil {
		return fmt.Errorf("%w: cue %q has no action", ErrInvalidCue, c.Name)
	}
	if c.PreWait < 0 {
		return fmt.Errorf("%w: cue %q has negative pre-wait %.2f", ErrInvalidCue, c.Name, c.PreWait)
	}
	if err := c.Action.validate(); err != nil {
		return fmt.Errorf("cue %q: %w", c.Name, err)
	}
	return nil
}

// TargetName returns the name of the cue's target, or "" if it has none.
func (c *Cue) TargetName() string {
	if c.Target == nil {
		return ""
	}
	return c.Target.Name
}

func (c *Cue) preWait() time.Duration {
	return seconds(c.PreWait)
}

// CueGroup is an ordered batch of cues fired together (an "XQ").
type CueGroup struct {
	Name string
	Cues []Cue
}

// Add appends a cue to the group.
func (g *CueGroup) Add(cue Cue) {
	g.Cues = append(g.Cues, cue)
}

// Clear removes every cue from the group.
func (g *CueGroup) Clear() {
	g.Cues = nil
	log.Debugf("Cleared cue group %q", g.Name)
}

// CueList is an ordered collection of cue groups.
type CueList struct {
	Name   string
	Groups []CueGroup
}

// Group returns the group at index, or nil if index is out of range.
func (l *CueList) Group(index int) *CueGroup {
	if l == nil || index < 0 || index >= len(l.Groups) {
		return nil
	}
	return &l.Groups[index]
}

// Len returns the number of groups in the list.
func (l *CueList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Groups)
}

// Prepare takes over every output the list targets: native auto-play is
// switched off and anything already sounding is stopped.
func (l *CueList) Prepare() {
	seen := make(map[*Target]bool)
	for gi := range l.Groups {
		for ci := range l.Groups[gi].Cues {
			cue := &l.Groups[gi].Cues[ci]
			t := cue.Target
			if t == nil {
				log.Warnf("Cue %q in group %q has no target", cue.Name, l.Groups[gi].Name)
				continue
			}
			if seen[t] {
				continue
			}
			seen[t] = true
			if t.Output == nil {
				log.Warnf("Target %q has no audio output; check the targets in cue list %q", t.Name, l.Name)
				continue
			}
			if ap, ok := t.Output.(AutoPlayer); ok {
				ap.SetAutoPlay(false)
			}
			if t.Output.IsPlaying() {
				t.Output.Stop()
			}
		}
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
