package xq

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func playCue(name string, target *Target) Cue {
	return NewPlayCue(name, target, PlayAction{Speed: 1})
}

func newRunningScheduler() *Scheduler {
	s := NewScheduler()
	s.Start()
	return s
}

func TestTriggerRequiresRunningScheduler(t *testing.T) {
	cue := playCue("Play", NewTarget("Speaker", NewMockOutput("Music")))

	var missing *Scheduler
	if err := missing.Trigger(&cue); !errors.Is(err, ErrNoScheduler) {
		t.Errorf("Expected ErrNoScheduler from a nil scheduler, got %v", err)
	}

	unstarted := NewScheduler()
	if err := unstarted.Trigger(&cue); !errors.Is(err, ErrNoScheduler) {
		t.Errorf("Expected ErrNoScheduler before Start, got %v", err)
	}

	closed := newRunningScheduler()
	closed.Close()
	if err := closed.Trigger(&cue); !errors.Is(err, ErrNoScheduler) {
		t.Errorf("Expected ErrNoScheduler after Close, got %v", err)
	}
	if err := closed.TriggerGroup(&CueGroup{Cues: []Cue{cue}}); !errors.Is(err, ErrNoScheduler) {
		t.Errorf("Expected ErrNoScheduler for a group after Close, got %v", err)
	}
}

func TestTriggerTargetErrors(t *testing.T) {
	s := newRunningScheduler()

	testCases := []struct {
		name   string
		target *Target
		want   error
	}{
		{name: "no target", target: nil, want: ErrMissingTarget},
		{name: "no audio output", target: NewTarget("Light", nil), want: ErrMissingAudioCapability},
		{name: "no clip", target: NewTarget("Speaker", NewMockOutput("")), want: ErrMissingClip},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cue := playCue("Play", tc.target)
			err := s.Trigger(&cue)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}

	if len(s.Controllers()) != 0 {
		t.Errorf("Expected no controllers after failed triggers, got %d", len(s.Controllers()))
	}
}

func TestTriggerRejectsInvalidCue(t *testing.T) {
	s := newRunningScheduler()
	target := NewTarget("Speaker", NewMockOutput("Music"))

	testCases := []struct {
		name string
		cue  Cue
	}{
		{name: "no action", cue: Cue{Name: "Empty", Target: target}},
		{name: "negative pre-wait", cue: Cue{Name: "Early", Target: target, PreWait: -1, Action: PlayAction{Speed: 1}}},
		{name: "speed out of range", cue: playCueWith(target, PlayAction{Speed: 5})},
		{name: "fade above unity", cue: NewFadeCue("Loud", target, FadeAction{TargetVolume: 6, FadeTime: 1})},
		{name: "fade too long", cue: NewFadeCue("Slow", target, FadeAction{FadeTime: 45})},
		{name: "bad curve shape", cue: NewFadeCue("Bent", target, FadeAction{FadeTime: 1, CurveShape: 1.5})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.Trigger(&tc.cue); !errors.Is(err, ErrInvalidCue) {
				t.Errorf("Expected ErrInvalidCue, got %v", err)
			}
		})
	}
}

func playCueWith(target *Target, action PlayAction) Cue {
	return NewPlayCue("Play", target, action)
}

func TestPlayThenFadeScenario(t *testing.T) {
	s := newRunningScheduler()
	out := NewMockOutput("Music")
	target := NewTarget("Speaker", out)

	group := CueGroup{Name: "Opening"}
	group.Add(playCue("Start", target))
	group.Add(NewFadeCue("Down", target, FadeAction{TargetVolume: -20, FadeTime: 2, CurveShape: 0.5}))

	if err := s.TriggerGroup(&group); err != nil {
		t.Fatalf("TriggerGroup failed: %v", err)
	}
	if !out.IsPlaying() {
		t.Fatal("Expected playback to start immediately")
	}

	for i := 0; i < 200; i++ {
		s.Tick(10 * time.Millisecond)
	}

	if got := out.Volume(); math.Abs(got-0.1) > tolerance {
		t.Errorf("Expected amplitude 0.1 after 2s, got %v", got)
	}
	if target.Controller().Fading() {
		t.Error("Expected the fade to be finished")
	}
}

func TestGroupCuesFireTogether(t *testing.T) {
	s := newRunningScheduler()
	outs := []*MockOutput{NewMockOutput("A"), NewMockOutput("B"), NewMockOutput("C")}

	var group CueGroup
	for i, out := range outs {
		group.Add(playCue(out.Clip().Name, NewTarget(out.Clip().Name, out)))
		if out.IsPlaying() {
			t.Fatalf("Output %d playing before the group fired", i)
		}
	}

	if err := s.TriggerGroup(&group); err != nil {
		t.Fatalf("TriggerGroup failed: %v", err)
	}
	for i, out := range outs {
		if !out.IsPlaying() {
			t.Errorf("Expected output %d to start in the same tick", i)
		}
	}
}

func TestMixedGroupDispatchesInOneTick(t *testing.T) {
	s := newRunningScheduler()
	a := NewTarget("A", NewMockOutput("A"))
	b := NewTarget("B", NewMockOutput("B"))
	c := NewTarget("C", NewMockOutput("C"))

	group := CueGroup{Name: "Mixed"}
	group.Add(playCue("Play", a))
	group.Add(NewFadeCue("Fade", b, FadeAction{TargetVolume: -20, FadeTime: 1, CurveShape: 0.5}))
	group.Add(NewStopCue("Stop", c, false))

	if err := s.TriggerGroup(&group); err != nil {
		t.Fatalf("TriggerGroup failed: %v", err)
	}
	if !a.Controller().Playing() {
		t.Error("Expected A to be playing")
	}
	if !b.Controller().Fading() {
		t.Error("Expected B to be fading")
	}
	if got := c.Controller().State(); got != StateStopping {
		t.Errorf("Expected C to be stopping, got %v", got)
	}
	if s.PendingTimers() != 0 {
		t.Errorf("Expected no pending timers, got %d", s.PendingTimers())
	}
}

func TestFailingCueDoesNotAbortGroup(t *testing.T) {
	s := newRunningScheduler()
	out := NewMockOutput("Music")

	group := CueGroup{Name: "Mixed"}
	group.Add(playCue("Nowhere", nil))
	group.Add(playCue("Somewhere", NewTarget("Speaker", out)))

	err := s.TriggerGroup(&group)
	if !errors.Is(err, ErrMissingTarget) {
		t.Errorf("Expected the group error to carry ErrMissingTarget, got %v", err)
	}
	if !out.IsPlaying() {
		t.Error("Expected the valid cue to fire despite the failure")
	}
}

func TestPreWaitDelaysDispatch(t *testing.T) {
	s := newRunningScheduler()
	out := NewMockOutput("Music")
	cue := playCue("Later", NewTarget("Speaker", out))
	cue.PreWait = 0.5

	if err := s.Trigger(&cue); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if s.PendingTimers() != 1 {
		t.Fatalf("Expected 1 pending pre-wait, got %d", s.PendingTimers())
	}

	for i := 0; i < 49; i++ {
		s.Tick(10 * time.Millisecond)
	}
	if out.IsPlaying() {
		t.Fatal("Expected nothing to play before the pre-wait elapses")
	}

	s.Tick(10 * time.Millisecond)
	if !out.IsPlaying() {
		t.Error("Expected playback once the pre-wait elapsed")
	}
	if s.PendingTimers() != 0 {
		t.Errorf("Expected no pending pre-waits, got %d", s.PendingTimers())
	}
}

func TestPostedPreWaitStartsCountingNextTick(t *testing.T) {
	s := newRunningScheduler()
	out := NewMockOutput("Music")
	cue := playCue("Remote", NewTarget("Speaker", out))
	cue.PreWait = 0.5

	if err := s.Post(func() {
		if err := s.Trigger(&cue); err != nil {
			t.Errorf("Trigger failed: %v", err)
		}
	}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		s.Tick(100 * time.Millisecond)
	}
	if out.IsPlaying() {
		t.Error("Expected the pre-wait not to count the tick it was posted on")
	}
	s.Tick(100 * time.Millisecond)
	if !out.IsPlaying() {
		t.Error("Expected the cue to fire after the full pre-wait")
	}
}

func TestPreWaitCapturesParameters(t *testing.T) {
	s := newRunningScheduler()
	out := NewMockOutput("Music")
	cue := playCue("Later", NewTarget("Speaker", out))
	cue.PreWait = 0.1

	if err := s.Trigger(&cue); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	cue.Action = PlayAction{Speed: 2, Loop: true}

	tickFor(s, 100*time.Millisecond, 10*time.Millisecond)
	if out.Speed() != 1 || out.Loop() {
		t.Errorf("Expected the parameters from trigger time, got speed %v loop %v", out.Speed(), out.Loop())
	}
}

func TestPreWaitsFireInScheduleOrder(t *testing.T) {
	s := newRunningScheduler()
	out := NewMockOutput("Music")
	target := NewTarget("Speaker", out)

	play := playCue("Play", target)
	play.PreWait = 0.1
	stop := NewStopCue("Stop", target, false)
	stop.PreWait = 0.1

	_ = s.Trigger(&play)
	_ = s.Trigger(&stop)
	tickFor(s, 100*time.Millisecond, 10*time.Millisecond)

	if got := target.Controller().State(); got != StateStopping {
		t.Errorf("Expected play then stop, leaving the target stopping, got %v", got)
	}
}

func TestPostRunsOnNextTick(t *testing.T) {
	s := newRunningScheduler()
	ran := 0
	if err := s.Post(func() { ran++ }); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if ran != 0 {
		t.Fatal("Expected posted work to wait for a tick")
	}
	s.Tick(10 * time.Millisecond)
	if ran != 1 {
		t.Errorf("Expected posted work to run once, ran %d times", ran)
	}
}

func TestPostReportsFullQueue(t *testing.T) {
	s := NewScheduler()
	for i := 0; i < commandQueueSize; i++ {
		if err := s.Post(func() {}); err != nil {
			t.Fatalf("Post %d failed: %v", i, err)
		}
	}
	if err := s.Post(func() {}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got %v", err)
	}
}

func TestDryRunLeavesOutputsAlone(t *testing.T) {
	s := newRunningScheduler()
	s.SetDryRun(true)
	out := NewMockOutput("Music")
	cue := playCue("Play", NewTarget("Speaker", out))

	if err := s.Trigger(&cue); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if out.IsPlaying() {
		t.Error("Expected dry run not to start playback")
	}
}

func TestStopAll(t *testing.T) {
	s := newRunningScheduler()
	a, b := NewMockOutput("A"), NewMockOutput("B")
	ta, tb := NewTarget("A", a), NewTarget("B", b)

	group := CueGroup{Cues: []Cue{playCue("A", ta), playCue("B", tb)}}
	_ = s.TriggerGroup(&group)
	later := NewFadeCue("Later", ta, FadeAction{TargetVolume: -10, FadeTime: 1})
	later.PreWait = 1
	_ = s.Trigger(&later)

	s.StopAll()
	if s.PendingTimers() != 0 {
		t.Errorf("Expected StopAll to drop pre-waits, got %d", s.PendingTimers())
	}

	tickFor(s, 2*time.Second, 10*time.Millisecond)
	if a.IsPlaying() || b.IsPlaying() {
		t.Error("Expected every output to be stopped")
	}
	if ta.Controller().State() != StateStopped || tb.Controller().State() != StateStopped {
		t.Error("Expected every controller to be stopped")
	}
}

func TestCloseCancelsEverything(t *testing.T) {
	s := newRunningScheduler()
	out := NewMockOutput("Music")
	target := NewTarget("Speaker", out)

	cue := playCue("Later", target)
	cue.PreWait = 1
	_ = s.Trigger(&cue)

	s.Close()
	if s.Running() {
		t.Error("Expected the scheduler to be closed")
	}
	if s.PendingTimers() != 0 || len(s.Controllers()) != 0 {
		t.Errorf("Expected no timers or controllers, got %d and %d", s.PendingTimers(), len(s.Controllers()))
	}

	tickFor(s, 2*time.Second, 10*time.Millisecond)
	if out.IsPlaying() {
		t.Error("Expected the cancelled pre-wait never to fire")
	}
}

func TestDisableCancelsPreWaits(t *testing.T) {
	s := newRunningScheduler()
	out := NewMockOutput("Music")
	target := NewTarget("Speaker", out)

	cue := playCue("Later", target)
	cue.PreWait = 0.5
	_ = s.Trigger(&cue)

	target.Controller().Disable()
	if s.PendingTimers() != 0 {
		t.Errorf("Expected Disable to cancel the pre-wait, got %d pending", s.PendingTimers())
	}
	tickFor(s, time.Second, 10*time.Millisecond)
	if out.IsPlaying() {
		t.Error("Expected the cancelled pre-wait never to fire")
	}
}

func TestTriggerGroupAt(t *testing.T) {
	s := newRunningScheduler()
	out := NewMockOutput("Music")
	list := &CueList{Name: "Main", Groups: []CueGroup{{Name: "One", Cues: []Cue{playCue("Play", NewTarget("Speaker", out))}}}}

	if err := s.TriggerGroupAt(list, 3); !errors.Is(err, ErrGroupIndex) {
		t.Errorf("Expected ErrGroupIndex, got %v", err)
	}
	if err := s.TriggerGroupAt(list, 0); err != nil {
		t.Errorf("TriggerGroupAt failed: %v", err)
	}
	if !out.IsPlaying() {
		t.Error("Expected group 0 to fire")
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	s := newRunningScheduler()
	s.SetTickInterval(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	ran := make(chan struct{})
	if err := s.Post(func() { close(ran) }); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Run to drain posted work")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Run to return nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Run to return after cancel")
	}
}

func TestPrepareTakesOverOutputs(t *testing.T) {
	out := NewMockOutput("Music")
	out.StartExternally()
	speaker := NewTarget("Speaker", out)
	silent := NewTarget("Silent", nil)

	list := &CueList{Name: "Main", Groups: []CueGroup{
		{Name: "Opening", Cues: []Cue{playCue("Play", speaker), NewStopCue("Stop", silent, false)}},
		{Name: "Again", Cues: []Cue{playCue("Play again", speaker)}},
	}}
	list.Prepare()

	if out.AutoPlay() {
		t.Error("Expected auto-play to be switched off")
	}
	if out.IsPlaying() {
		t.Error("Expected the externally started output to be stopped")
	}
	stops := 0
	for _, c := range out.Calls() {
		if c == "Stop" {
			stops++
		}
	}
	if stops != 1 {
		t.Errorf("Expected one Stop for a target used twice, got %d", stops)
	}
}

func TestControllerNeedsClip(t *testing.T) {
	out := NewMockOutput("Music")
	out.SetClip(nil)

	s := newRunningScheduler()
	if _, err := s.Controller(NewTarget("Speaker", out)); !errors.Is(err, ErrMissingClip) {
		t.Errorf("Expected ErrMissingClip after the clip is cleared, got %v", err)
	}
}
