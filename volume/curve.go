package volume

import (
	"math"
	"sort"
)

// Keyframe is a single control point on a Curve.
// Tangents are slopes in value-per-time. Weights are carried for authoring
// tools that draw weighted handles; evaluation ignores them.
type Keyframe struct {
	Time       float64 `json:"time" yaml:"time"`
	Value      float64 `json:"value" yaml:"value"`
	InTangent  float64 `json:"inTangent,omitempty" yaml:"inTangent,omitempty"`
	OutTangent float64 `json:"outTangent,omitempty" yaml:"outTangent,omitempty"`
	InWeight   float64 `json:"inWeight,omitempty" yaml:"inWeight,omitempty"`
	OutWeight  float64 `json:"outWeight,omitempty" yaml:"outWeight,omitempty"`
}

// Curve is a piecewise cubic Hermite curve through its keyframes.
type Curve struct {
	Keys []Keyframe `json:"keys" yaml:"keys"`
}

// NewCurve builds a curve from keys, sorted by time.
func NewCurve(keys ...Keyframe) Curve {
	sorted := make([]Keyframe, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return Curve{Keys: sorted}
}

// Evaluate returns the curve value at t. Inputs outside the key range are
// clamped to the first or last key. An empty curve is the identity.
func (c Curve) Evaluate(t float64) float64 {
	switch len(c.Keys) {
	case 0:
		return t
	case 1:
		return c.Keys[0].Value
	}

	first, last := c.Keys[0], c.Keys[len(c.Keys)-1]
	if t <= first.Time {
		return first.Value
	}
	if t >= last.Time {
		return last.Value
	}

	i := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Time > t }) - 1
	return hermite(c.Keys[i], c.Keys[i+1], t)
}

func hermite(k0, k1 Keyframe, t float64) float64 {
	dt := k1.Time - k0.Time
	if dt <= 0 {
		return k1.Value
	}
	s := (t - k0.Time) / dt
	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return h00*k0.Value + h10*dt*k0.OutTangent + h01*k1.Value + h11*dt*k1.InTangent
}

// BuildFadeCurve returns the two-key fade shape from (0,0) to (1,1).
// shape 0 leaves the start flat and the end steep, shape 1 starts steep and
// settles flat. shape is clamped to [0,1].
func BuildFadeCurve(shape float64) Curve {
	shape = Clamp(shape, 0, 1)
	return NewCurve(
		Keyframe{Time: 0, Value: 0, InTangent: 0, OutTangent: math.Sin(shape), InWeight: 0, OutWeight: 1 - shape},
		Keyframe{Time: 1, Value: 1, InTangent: 1 - shape, OutTangent: 0, InWeight: shape, OutWeight: 0},
	)
}

// EaseInOut is the flat-tangent s-curve used when a fade has no shape.
func EaseInOut() Curve {
	return NewCurve(
		Keyframe{Time: 0, Value: 0},
		Keyframe{Time: 1, Value: 1},
	)
}
