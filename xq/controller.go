package xq

import (
	"fmt"
	"math"
	"time"

	"github.com/zenibako/xq-golang/volume"

	"github.com/charmbracelet/log"
)

// Fade time limits. Shorter fades would click; longer ones are almost
// certainly a typo.
const (
	MinFadeTime = 10 * time.Millisecond
	MaxFadeTime = 60 * time.Second
)

// degenerateFadeDB is how close start and target must be for a fade to be skipped.
const degenerateFadeDB = 1e-6

// PlaybackState is the controller's view of its output.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
	StateStopping // De-click fade running; the output stops when it ends
)

func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("PlaybackState(%d)", int(s))
	}
}

// fadeSession is one in-flight volume interpolation.
type fadeSession struct {
	startDB    float64
	targetDB   float64
	duration   time.Duration
	elapsed    time.Duration
	curve      volume.Curve
	onComplete func() // Not called when the session is superseded
}

// Controller owns playback and volume for a single audio output.
// All methods must be called from the scheduler's tick goroutine.
type Controller struct {
	name   string
	target *Target
	output AudioOutput
	clip   *Clip
	sched  *Scheduler

	state          PlaybackState
	loop           bool
	outputVolume   float64 // dB offset added to the fade level
	startingVolume float64 // dB the fade level resets to on play
	fadeVolume     float64 // dB tracked by fades
	pushed         float64 // Amplitude last written to the output
	speed          float64

	fade *fadeSession
}

// newController takes over an output: anything sounding is stopped, looping
// is reset and the level is set to the starting volume.
func newController(s *Scheduler, target *Target, clip *Clip) *Controller {
	c := &Controller{
		name:   target.Name,
		target: target,
		output: target.Output,
		clip:   clip,
		sched:  s,
		speed:  1,
	}

	if c.output.IsPlaying() {
		c.output.Stop()
	}
	c.output.SetLoop(c.loop)
	if ap, ok := c.output.(AutoPlayer); ok {
		ap.SetAutoPlay(false)
	}
	c.fadeVolume = c.startingVolume
	c.pushVolume()

	return c
}

// Name returns the name of the controlled target.
func (c *Controller) Name() string { return c.name }

// Clip returns the clip the controller was seeded with.
func (c *Controller) Clip() *Clip { return c.clip }

// State returns the current playback state.
func (c *Controller) State() PlaybackState { return c.state }

// Playing reports whether playback is intended to be running.
// It is false as soon as a stop is requested, before the de-click fade ends.
func (c *Controller) Playing() bool { return c.state == StatePlaying }

// Paused reports whether the output is paused.
func (c *Controller) Paused() bool { return c.state == StatePaused }

// Fading reports whether a fade session is active.
func (c *Controller) Fading() bool { return c.fade != nil }

// Loop reports the loop flag that will apply to the next Play.
func (c *Controller) Loop() bool { return c.loop }

// FadeVolume returns the fade-tracked level in dB, without the output offset.
func (c *Controller) FadeVolume() float64 { return c.fadeVolume }

// OutputVolume returns the output offset in dB.
func (c *Controller) OutputVolume() float64 { return c.outputVolume }

// Gain returns the effective level in dB.
func (c *Controller) Gain() float64 { return c.fadeVolume + c.outputVolume }

// Configure copies a Play cue's parameters onto the controller.
func (c *Controller) Configure(p PlayAction) {
	c.loop = p.Loop
	c.outputVolume = p.OutputVolume
	c.startingVolume = p.StartingVolume
}

// SetOutputVolume changes the output offset and applies it immediately.
func (c *Controller) SetOutputVolume(db float64) {
	c.outputVolume = db
	c.pushVolume()
}

// Play starts playback from the beginning, or resumes it after a pause.
// Any running fade or pending stop is cancelled.
func (c *Controller) Play(speed float64) {
	log.Info("Play triggered", "target", c.name, "speed", speed)

	c.cancelFade()
	c.speed = speed
	if ss, ok := c.output.(SpeedSetter); ok {
		ss.SetSpeed(speed)
	} else if speed != 1 {
		log.Debugf("Output for %s cannot change speed; playing at 1x", c.name)
	}

	c.fadeVolume = c.startingVolume
	c.pushVolume()

	c.output.SetLoop(c.loop)

	if c.state == StatePaused {
		c.output.Resume()
	} else {
		c.output.Play()
	}
	c.state = StatePlaying
}

// Stop stops playback. With pause set it pauses instead and keeps the playhead.
// A full stop fades to silence over MinFadeTime first to avoid a click; the
// state reads StateStopping until the output is actually stopped.
func (c *Controller) Stop(pause bool) {
	if pause {
		c.Pause()
		return
	}

	log.Info("Stop triggered", "target", c.name)

	c.cancelFade()
	c.state = StateStopping
	if !c.startFade(volume.MinDB, MinFadeTime, volume.EaseInOut(), c.finishStop) {
		c.finishStop()
	}
}

// Pause suspends the output without touching its volume.
func (c *Controller) Pause() {
	log.Info("Pause triggered", "target", c.name)

	c.cancelFade()
	c.output.Pause()
	c.state = StatePaused
}

func (c *Controller) finishStop() {
	c.output.Stop()
	if c.state == StateStopping {
		c.state = StateStopped
	}
	log.Debugf("Output for %s stopped", c.name)
}

// FadeTo fades to targetDB using the default s-curve.
func (c *Controller) FadeTo(targetDB float64, duration time.Duration) {
	c.FadeToCurve(targetDB, duration, volume.EaseInOut())
}

// FadeToShape fades to targetDB using BuildFadeCurve(shape).
func (c *Controller) FadeToShape(targetDB float64, duration time.Duration, shape float64) {
	c.FadeToCurve(targetDB, duration, volume.BuildFadeCurve(shape))
}

// FadeToCurve fades to targetDB along a custom curve. The curve maps fade
// progress in [0,1] onto interpolation weight in [0,1].
// A new fade supersedes any fade already running, including a stop's de-click fade.
func (c *Controller) FadeToCurve(targetDB float64, duration time.Duration, curve volume.Curve) {
	if c.state == StateStopping {
		c.state = StatePlaying
	}
	c.startFade(targetDB, duration, curve, nil)
}

// startFade resamples the live level and begins a session. It returns false
// for a degenerate fade, which leaves the controller idle.
func (c *Controller) startFade(targetDB float64, duration time.Duration, curve volume.Curve, onComplete func()) bool {
	c.cancelFade()
	c.resampleFadeVolume()

	if duration > MaxFadeTime {
		log.Warnf("Fade time %v on %s is clamped to %v - %v", duration, c.name, MinFadeTime, MaxFadeTime)
	}
	duration = clampDuration(duration, MinFadeTime, MaxFadeTime)

	startDB := c.fadeVolume
	if math.Abs(startDB-targetDB) < degenerateFadeDB {
		log.Debugf("Fade on %s skipped; already at %.2f dB", c.name, targetDB)
		return false
	}

	log.Infof("Fading %s from %.2f dB to %.2f dB over %v", c.name, startDB, targetDB, duration)

	c.fade = &fadeSession{
		startDB:    startDB,
		targetDB:   targetDB,
		duration:   duration,
		curve:      curve,
		onComplete: onComplete,
	}
	return true
}

// Step advances the active fade by dt.
func (c *Controller) Step(dt time.Duration) {
	f := c.fade
	if f == nil {
		return
	}

	f.elapsed += dt
	t := volume.Clamp(float64(f.elapsed)/float64(f.duration), 0, 1)
	c.fadeVolume = volume.Lerp(f.startDB, f.targetDB, f.curve.Evaluate(t))
	c.pushVolume()

	if f.elapsed >= f.duration {
		c.fade = nil
		if f.onComplete != nil {
			f.onComplete()
		}
	}
}

// Disable cancels the controller's fade and any pre-waits aimed at it, and
// detaches it from its target. The next cue on the target attaches a fresh one.
func (c *Controller) Disable() {
	c.cancelFade()
	if c.sched != nil {
		c.sched.release(c)
	}
	if c.target != nil && c.target.controller == c {
		c.target.controller = nil
	}
	log.Debugf("Controller for %s disabled", c.name)
}

func (c *Controller) cancelFade() {
	if c.fade != nil {
		log.Debugf("Cancelling fade on %s", c.name)
		c.fade = nil
	}
}

// resampleFadeVolume picks up a volume set on the output behind the
// controller's back. Amplitudes above unity do not convert back to dB, so
// while the output still holds what was last pushed the tracked level stands.
func (c *Controller) resampleFadeVolume() {
	live := c.output.Volume()
	if math.Abs(live-c.pushed) < 1e-12 {
		return
	}
	c.fadeVolume = volume.AmplitudeToDecibels(live) - c.outputVolume
	log.Debugf("Output volume on %s changed externally; fade level is now %.2f dB", c.name, c.fadeVolume)
}

func (c *Controller) pushVolume() {
	c.pushed = volume.DecibelsToAmplitude(c.Gain())
	c.output.SetVolume(c.pushed)
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
