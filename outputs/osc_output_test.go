package outputs

import (
	"errors"
	"testing"

	"github.com/zenibako/xq-golang/xq"

	"github.com/hypebeast/go-osc/osc"
)

// recordingSender keeps every message instead of sending it.
type recordingSender struct {
	messages []*osc.Message
	err      error
}

func (r *recordingSender) Send(packet osc.Packet) error {
	if msg, ok := packet.(*osc.Message); ok {
		r.messages = append(r.messages, msg)
	}
	return r.err
}

func (r *recordingSender) last(t *testing.T) *osc.Message {
	t.Helper()
	if len(r.messages) == 0 {
		t.Fatal("Expected a message to be sent")
	}
	return r.messages[len(r.messages)-1]
}

func TestOSCOutputTransport(t *testing.T) {
	sender := &recordingSender{}
	out := NewOSCOutputWithSender(sender, "Main Speakers", &xq.Clip{Name: "intro", Source: "intro.wav"})

	testCases := []struct {
		name    string
		action  func()
		address string
		args    []any
		playing bool
	}{
		{name: "play", action: out.Play, address: "/xq/target/Main_Speakers/play", args: []any{"intro.wav"}, playing: true},
		{name: "pause", action: out.Pause, address: "/xq/target/Main_Speakers/pause", playing: false},
		{name: "resume", action: out.Resume, address: "/xq/target/Main_Speakers/resume", playing: true},
		{name: "stop", action: out.Stop, address: "/xq/target/Main_Speakers/stop", playing: false},
		{name: "volume", action: func() { out.SetVolume(0.5) }, address: "/xq/target/Main_Speakers/volume", args: []any{float32(0.5)}},
		{name: "loop", action: func() { out.SetLoop(true) }, address: "/xq/target/Main_Speakers/loop", args: []any{int32(1)}},
		{name: "speed", action: func() { out.SetSpeed(1.5) }, address: "/xq/target/Main_Speakers/speed", args: []any{float32(1.5)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.action()
			msg := sender.last(t)
			if msg.Address != tc.address {
				t.Errorf("Expected address %s, got %s", tc.address, msg.Address)
			}
			if len(msg.Arguments) != len(tc.args) {
				t.Fatalf("Expected %d arguments, got %v", len(tc.args), msg.Arguments)
			}
			for i, want := range tc.args {
				if msg.Arguments[i] != want {
					t.Errorf("Argument %d: expected %v (%T), got %v (%T)", i, want, want, msg.Arguments[i], msg.Arguments[i])
				}
			}
			if tc.name != "volume" && tc.name != "loop" && tc.name != "speed" && out.IsPlaying() != tc.playing {
				t.Errorf("Expected IsPlaying %v", tc.playing)
			}
		})
	}

	if out.Volume() != 0.5 {
		t.Errorf("Expected the volume tracked locally, got %v", out.Volume())
	}
}

func TestOSCOutputPlaysClipNameWithoutSource(t *testing.T) {
	sender := &recordingSender{}
	out := NewOSCOutputWithSender(sender, "Speaker", &xq.Clip{Name: "cue-42"})
	out.Play()
	if got := sender.last(t).Arguments[0]; got != "cue-42" {
		t.Errorf("Expected the clip name, got %v", got)
	}
}

func TestOSCOutputSendFailureKeepsState(t *testing.T) {
	sender := &recordingSender{err: errors.New("network down")}
	out := NewOSCOutputWithSender(sender, "Speaker", nil)
	out.Play()
	if !out.IsPlaying() {
		t.Error("Expected local state to follow the request even when sending fails")
	}
}

func TestOSCOutputDrivenByController(t *testing.T) {
	sender := &recordingSender{}
	out := NewOSCOutputWithSender(sender, "Speaker", &xq.Clip{Name: "music"})
	target := xq.NewTarget("Speaker", out)

	sched := xq.NewScheduler()
	sched.Start()
	cue := xq.NewPlayCue("Play", target, xq.PlayAction{Speed: 2})
	if err := sched.Trigger(&cue); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}

	var sawSpeed, sawPlay bool
	for _, msg := range sender.messages {
		switch msg.Address {
		case "/xq/target/Speaker/speed":
			sawSpeed = true
		case "/xq/target/Speaker/play":
			sawPlay = true
		}
	}
	if !sawSpeed || !sawPlay {
		t.Errorf("Expected speed and play messages, got %d messages", len(sender.messages))
	}
}
