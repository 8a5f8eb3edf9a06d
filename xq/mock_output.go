package xq

import (
	"time"
)

// MockOutput is an in-memory AudioOutput for tests and dry rehearsals.
// It records every call and keeps a playhead that only moves when
// AdvancePlayhead is called.
type MockOutput struct {
	clip     *Clip
	volume   float64
	loop     bool
	playing  bool
	autoPlay bool
	speed    float64
	position time.Duration
	calls    []string // Method names in call order
	volumes  []float64
}

// NewMockOutput creates a mock output at unity volume holding clip.
// Pass an empty clip name for an output with no clip assigned.
func NewMockOutput(clipName string) *MockOutput {
	m := &MockOutput{volume: 1, speed: 1, autoPlay: true}
	if clipName != "" {
		m.clip = &Clip{Name: clipName}
	}
	return m
}

func (m *MockOutput) Clip() *Clip     { return m.clip }
func (m *MockOutput) Volume() float64 { return m.volume }
func (m *MockOutput) IsPlaying() bool { return m.playing }

func (m *MockOutput) SetVolume(v float64) {
	m.volume = v
	m.volumes = append(m.volumes, v)
}

func (m *MockOutput) SetLoop(loop bool) {
	m.loop = loop
	m.calls = append(m.calls, "SetLoop")
}

func (m *MockOutput) Play() {
	m.position = 0
	m.playing = true
	m.calls = append(m.calls, "Play")
}

func (m *MockOutput) Pause() {
	m.playing = false
	m.calls = append(m.calls, "Pause")
}

func (m *MockOutput) Resume() {
	m.playing = true
	m.calls = append(m.calls, "Resume")
}

func (m *MockOutput) Stop() {
	m.playing = false
	m.position = 0
	m.calls = append(m.calls, "Stop")
}

// SetSpeed implements SpeedSetter.
func (m *MockOutput) SetSpeed(speed float64) {
	m.speed = speed
}

// SetAutoPlay implements AutoPlayer.
func (m *MockOutput) SetAutoPlay(on bool) {
	m.autoPlay = on
}

// AdvancePlayhead moves the playhead forward while playing.
func (m *MockOutput) AdvancePlayhead(d time.Duration) {
	if m.playing {
		m.position += d
	}
}

// SetClip assigns or clears (nil) the clip.
func (m *MockOutput) SetClip(clip *Clip) { m.clip = clip }

// StartExternally simulates the output starting on its own, as auto-play would.
func (m *MockOutput) StartExternally() { m.playing = true }

func (m *MockOutput) Position() time.Duration { return m.position }
func (m *MockOutput) Loop() bool              { return m.loop }
func (m *MockOutput) Speed() float64          { return m.speed }
func (m *MockOutput) AutoPlay() bool          { return m.autoPlay }

// Calls returns the transport calls received so far.
func (m *MockOutput) Calls() []string {
	return append([]string(nil), m.calls...)
}

// Volumes returns every volume written so far.
func (m *MockOutput) Volumes() []float64 {
	return append([]float64(nil), m.volumes...)
}

// ClearCalls forgets recorded calls and volumes.
func (m *MockOutput) ClearCalls() {
	m.calls = nil
	m.volumes = nil
}
