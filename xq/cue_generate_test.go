package xq

import (
	"errors"
	"testing"

	"github.com/zenibako/xq-golang/templates"
)

func TestCueFromTemplateDefaults(t *testing.T) {
	target := NewTarget("Music", NewMockOutput("music"))

	testCases := []struct {
		name string
		tmpl templates.CueTemplate
		want Action
	}{
		{name: "play", tmpl: templates.Play(), want: PlayAction{Speed: 1}},
		{name: "fade", tmpl: templates.Fade(), want: FadeAction{FadeTime: 3, CurveShape: 0.5}},
		{name: "stop", tmpl: templates.Stop(), want: StopAction{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cue, err := CueFromTemplate(tc.tmpl, target)
			if err != nil {
				t.Fatalf("CueFromTemplate failed: %v", err)
			}
			if cue.Action != tc.want {
				t.Errorf("Expected %+v, got %+v", tc.want, cue.Action)
			}
			if cue.Target != target {
				t.Error("Expected the cue aimed at the given target")
			}
		})
	}
}

func TestCueFromTemplateOverrides(t *testing.T) {
	tmpl := templates.CueTemplate{
		Type: CueTypeFade,
		Name: "Duck",
		Properties: map[string]any{
			templates.PropTargetVolume: -12,
			templates.PropFadeTime:     1.5,
		},
	}

	cue, err := CueFromTemplate(tmpl, nil)
	if err != nil {
		t.Fatalf("CueFromTemplate failed: %v", err)
	}
	want := FadeAction{TargetVolume: -12, FadeTime: 1.5, CurveShape: 0.5}
	if cue.Action != want || cue.Name != "Duck" {
		t.Errorf("Expected %+v named Duck, got %+v named %q", want, cue.Action, cue.Name)
	}
}

func TestCueFromTemplateErrors(t *testing.T) {
	if _, err := CueFromTemplate(templates.CueTemplate{Type: "video"}, nil); !errors.Is(err, ErrInvalidCue) {
		t.Errorf("Expected ErrInvalidCue for an unknown type, got %v", err)
	}

	loud := templates.Fade().With(templates.PropTargetVolume, 12.0)
	if _, err := CueFromTemplate(loud, nil); !errors.Is(err, ErrInvalidCue) {
		t.Errorf("Expected ErrInvalidCue for a fade above unity, got %v", err)
	}
}

func TestGroupFromTemplate(t *testing.T) {
	target := NewTarget("Music", NewMockOutput("music"))
	tmpl := templates.Group("Opening",
		templates.Play(),
		templates.Fade().With(templates.PropTargetVolume, -20.0),
	)

	group, err := GroupFromTemplate(tmpl, target)
	if err != nil {
		t.Fatalf("GroupFromTemplate failed: %v", err)
	}
	if group.Name != "Opening" || len(group.Cues) != 2 {
		t.Fatalf("Expected Opening with 2 cues, got %q with %d", group.Name, len(group.Cues))
	}
	if group.Cues[1].Kind() != KindFade {
		t.Errorf("Expected the second cue to fade, got %v", group.Cues[1].Kind())
	}
}

func TestGroupNewCue(t *testing.T) {
	var group CueGroup
	cue := group.NewCue(KindFade)
	if cue == nil {
		t.Fatal("Expected a new cue")
	}
	if cue.Target != nil || cue.Name != "Fade" {
		t.Errorf("Expected an untargeted cue named Fade, got %+v", cue)
	}
	if len(group.Cues) != 1 {
		t.Errorf("Expected the cue appended, got %d cues", len(group.Cues))
	}

	if group.NewCue(Kind(9)) != nil {
		t.Error("Expected nil for an unknown kind")
	}

	group.Clear()
	if len(group.Cues) != 0 {
		t.Error("Expected Clear to empty the group")
	}
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{"play": KindPlay, " Fade ": KindFade, "STOP": KindStop} {
		got, err := ParseKind(input)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseKind("group"); !errors.Is(err, ErrInvalidCue) {
		t.Errorf("Expected ErrInvalidCue, got %v", err)
	}
}
