package templates

import "testing"

func TestBuiltInTemplates(t *testing.T) {
	testCases := []struct {
		cueType string
		key     string
		want    float64
	}{
		{"play", PropSpeed, 1.0},
		{"play", PropStartingVolume, 0.0},
		{"fade", PropFadeTime, 3.0},
		{"fade", PropCurveShape, 0.5},
	}

	for _, tc := range testCases {
		tmpl, ok := ForType(tc.cueType)
		if !ok {
			t.Fatalf("Expected a template for %q", tc.cueType)
		}
		if got := tmpl.Float(tc.key); got != tc.want {
			t.Errorf("%s.%s = %v, want %v", tc.cueType, tc.key, got, tc.want)
		}
	}

	if _, ok := ForType("memo"); ok {
		t.Error("Expected no template for an unknown type")
	}
	if Stop().Bool(PropPause) {
		t.Error("Expected stop template to default to a full stop")
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	base := Fade()
	changed := base.With(PropTargetVolume, -20)

	if base.Float(PropTargetVolume) != 0 {
		t.Errorf("Expected base template untouched, got %v", base.Float(PropTargetVolume))
	}
	if changed.Float(PropTargetVolume) != -20 {
		t.Errorf("Expected override to read back as -20, got %v", changed.Float(PropTargetVolume))
	}
}

func TestGroupTemplate(t *testing.T) {
	g := Group("Scene 1", Play(), Fade(), Stop())
	if g.Type != "group" || len(g.Children) != 3 {
		t.Errorf("Expected group with 3 children, got %+v", g)
	}
}
