package xq

// Clip identifies the audio a target plays.
type Clip struct {
	Name   string `json:"name" yaml:"name"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"` // File path or remote identifier
}

// AudioOutput is the playback capability a target must expose for cues to drive it.
type AudioOutput interface {
	Clip() *Clip        // nil when no clip is assigned
	Volume() float64    // Linear amplitude
	SetVolume(float64)  // Linear amplitude
	SetLoop(bool)       // Applies to the next Play
	Play()              // Start from the beginning
	Pause()             // Suspend, keeping the playhead
	Resume()            // Continue from a pause
	Stop()              // Stop and release the playhead
	IsPlaying() bool
}

// SpeedSetter is implemented by outputs that can change playback speed.
type SpeedSetter interface {
	SetSpeed(float64)
}

// AutoPlayer is implemented by outputs that would start on their own when loaded.
type AutoPlayer interface {
	SetAutoPlay(bool)
}

// Target is an addressable object in the host that may carry audio.
// The first cue aimed at a target with an output attaches a Controller to it.
type Target struct {
	Name   string
	Output AudioOutput // nil when the target has no audio capability

	controller *Controller
}

// NewTarget creates a target around an output.
func NewTarget(name string, output AudioOutput) *Target {
	return &Target{Name: name, Output: output}
}

// Controller returns the attached controller, or nil if none has been attached yet.
func (t *Target) Controller() *Controller {
	if t == nil {
		return nil
	}
	return t.controller
}

// TargetResolver looks targets up by name while loading a show.
type TargetResolver interface {
	ResolveTarget(name string) (*Target, bool)
}

// TargetMap is a TargetResolver backed by a map.
type TargetMap map[string]*Target

// ResolveTarget implements TargetResolver.
func (m TargetMap) ResolveTarget(name string) (*Target, bool) {
	t, ok := m[name]
	return t, ok
}
