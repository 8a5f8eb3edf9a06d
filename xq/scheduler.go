package xq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTickInterval drives Run at roughly 60 ticks per second.
const DefaultTickInterval = time.Second / 60

const commandQueueSize = 256

// timer is a pending pre-wait continuation.
type timer struct {
	id        uint64
	born      uint64 // Tick the timer was scheduled on
	remaining time.Duration
	owner     *Controller
	fire      func()
	cancelled bool
}

// Scheduler times pre-waits, routes cues to controllers and steps every
// controller's fade once per tick. It is the single owner of the timeline:
// controller state is only touched from the goroutine calling Tick (or Run).
// Other goroutines hand work over with Post.
type Scheduler struct {
	running      bool
	dryRun       bool          // Log dispatches instead of touching outputs
	tickInterval time.Duration // Interval used by Run
	controllers  []*Controller
	timers       []*timer
	nextTimerID  uint64
	commands     chan func()
	elapsed      time.Duration // Total time ticked since Start
	ticks        uint64
}

// NewScheduler creates a stopped scheduler. Call Start before triggering cues.
func NewScheduler() *Scheduler {
	return &Scheduler{
		tickInterval: DefaultTickInterval,
		commands:     make(chan func(), commandQueueSize),
	}
}

// SetDryRun sets whether to run in dry-run mode (no output is touched)
func (s *Scheduler) SetDryRun(dryRun bool) {
	s.dryRun = dryRun
}

// SetTickInterval sets the interval Run ticks at
func (s *Scheduler) SetTickInterval(interval time.Duration) {
	if interval <= 0 {
		log.Warnf("Ignoring non-positive tick interval %v", interval)
		return
	}
	s.tickInterval = interval
}

// Start opens the scheduler for dispatch.
func (s *Scheduler) Start() {
	s.running = true
	log.Debug("Scheduler started")
}

// Close cancels every pending pre-wait and fade and closes the scheduler.
// Later dispatches fail with ErrNoScheduler.
func (s *Scheduler) Close() {
	if !s.running {
		return
	}
	for _, t := range s.timers {
		t.cancelled = true
	}
	s.timers = nil
	for _, c := range append([]*Controller(nil), s.controllers...) {
		c.Disable()
	}
	s.running = false
	log.Debug("Scheduler closed")
}

// Running reports whether the scheduler accepts dispatches.
func (s *Scheduler) Running() bool {
	return s != nil && s.running
}

// Elapsed returns the total time ticked since the scheduler was created.
func (s *Scheduler) Elapsed() time.Duration {
	return s.elapsed
}

// Controllers returns the attached controllers in attach order.
func (s *Scheduler) Controllers() []*Controller {
	return append([]*Controller(nil), s.controllers...)
}

// PendingTimers returns the number of pre-waits still counting down.
func (s *Scheduler) PendingTimers() int {
	return len(s.timers)
}

// Post queues fn to run on the tick goroutine at the start of the next tick.
// It never blocks.
func (s *Scheduler) Post(fn func()) error {
	select {
	case s.commands <- fn:
		return nil
	default:
		log.Warn("Scheduler command queue is full; dropping command")
		return ErrQueueFull
	}
}

// Tick advances the timeline by dt: running fades are stepped, posted
// commands run, then due pre-waits fire in the order they were scheduled.
// Fades and pre-waits started during a tick begin counting on the next one.
func (s *Scheduler) Tick(dt time.Duration) {
	s.ticks++
	s.elapsed += dt

	for _, c := range append([]*Controller(nil), s.controllers...) {
		c.Step(dt)
	}

	s.drainCommands()

	pending := s.timers
	s.timers = nil
	var due []*timer
	for _, t := range pending {
		if t.cancelled {
			continue
		}
		if t.born == s.ticks {
			s.timers = append(s.timers, t)
			continue
		}
		t.remaining -= dt
		if t.remaining <= 0 {
			due = append(due, t)
		} else {
			s.timers = append(s.timers, t)
		}
	}
	for _, t := range due {
		if t.cancelled {
			continue
		}
		t.cancelled = true
		t.fire()
	}
}

func (s *Scheduler) drainCommands() {
	for {
		select {
		case fn := <-s.commands:
			fn()
		default:
			return
		}
	}
}

// Run ticks the scheduler every tick interval until ctx is done, measuring
// real elapsed time between ticks.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	log.Infof("Scheduler running at %v per tick", s.tickInterval)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Debug("Scheduler run loop exiting")
			return nil
		case now := <-ticker.C:
			s.Tick(now.Sub(last))
			last = now
		}
	}
}

// Trigger fires a single cue: its target's controller is resolved (and
// attached on first use), then the action runs now or after the pre-wait.
func (s *Scheduler) Trigger(cue *Cue) error {
	if !s.Running() {
		log.Error("XQ: a running scheduler is required to trigger cues")
		return ErrNoScheduler
	}
	if cue == nil {
		return fmt.Errorf("%w: nil cue", ErrInvalidCue)
	}
	if err := cue.Validate(); err != nil {
		log.Errorf("XQ: %v", err)
		return err
	}

	ctrl, err := s.Controller(cue.Target)
	if err != nil {
		log.Errorf("XQ: cannot trigger %q: %v", cue.Name, err)
		return err
	}

	// Parameters are captured now; edits to the cue during the pre-wait do not apply.
	snapshot := *cue
	wait := snapshot.preWait()
	if wait <= 0 {
		s.dispatch(&snapshot, ctrl)
		return nil
	}

	log.Infof("Waiting %v, then triggering %s on %s", wait, snapshot.Kind(), ctrl.Name())
	s.schedule(ctrl, wait, func() { s.dispatch(&snapshot, ctrl) })
	return nil
}

// TriggerGroup fires every cue in the group in order without waiting on
// any of them. A failing cue does not stop the rest.
func (s *Scheduler) TriggerGroup(group *CueGroup) error {
	if !s.Running() {
		log.Error("XQ: a running scheduler is required to trigger cues")
		return ErrNoScheduler
	}
	if group == nil {
		return nil
	}

	log.Info("Triggering group", "group", group.Name, "cues", len(group.Cues))
	var errs []error
	for i := range group.Cues {
		if err := s.Trigger(&group.Cues[i]); err != nil {
			errs = append(errs, fmt.Errorf("group %q cue %d: %w", group.Name, i, err))
		}
	}
	return errors.Join(errs...)
}

// TriggerGroupAt fires the group at index in list.
func (s *Scheduler) TriggerGroupAt(list *CueList, index int) error {
	group := list.Group(index)
	if group == nil {
		log.Errorf("XQ: group %d does not exist (list has %d)", index, list.Len())
		return fmt.Errorf("%w: %d", ErrGroupIndex, index)
	}
	return s.TriggerGroup(group)
}

// StopAll stops every attached controller and drops every pending pre-wait.
func (s *Scheduler) StopAll() {
	for _, t := range s.timers {
		t.cancelled = true
	}
	s.timers = nil
	for _, c := range s.controllers {
		if c.State() != StateStopped {
			c.Stop(false)
		}
	}
	log.Warn("All targets stopped")
}

// Controller resolves the controller for a target, attaching one seeded with
// the output's clip if the target has none yet.
func (s *Scheduler) Controller(target *Target) (*Controller, error) {
	if target == nil {
		return nil, ErrMissingTarget
	}
	if target.controller != nil {
		return target.controller, nil
	}
	if target.Output == nil {
		return nil, fmt.Errorf("%w: %q; is the target in the cue list correct?", ErrMissingAudioCapability, target.Name)
	}
	clip := target.Output.Clip()
	if clip == nil {
		return nil, fmt.Errorf("%w: %q; ensure there's a clip attached to the target", ErrMissingClip, target.Name)
	}

	ctrl := newController(s, target, clip)
	target.controller = ctrl
	s.controllers = append(s.controllers, ctrl)
	log.Debug("Attached controller", "target", target.Name, "clip", clip.Name)
	return ctrl, nil
}

func (s *Scheduler) dispatch(cue *Cue, ctrl *Controller) {
	if s.dryRun {
		log.Printf("[DRY RUN] Would trigger %s cue %q on %s", cue.Kind(), cue.Name, ctrl.Name())
		return
	}

	switch a := cue.Action.(type) {
	case PlayAction:
		ctrl.Configure(a)
		ctrl.Play(a.Speed)
	case FadeAction:
		ctrl.FadeToShape(a.TargetVolume, seconds(a.FadeTime), a.CurveShape)
	case StopAction:
		ctrl.Stop(a.Pause)
	default:
		log.Warnf("Unknown action %T on cue %q", cue.Action, cue.Name)
	}
}

func (s *Scheduler) schedule(owner *Controller, wait time.Duration, fire func()) {
	s.nextTimerID++
	s.timers = append(s.timers, &timer{
		id:        s.nextTimerID,
		born:      s.ticks,
		remaining: wait,
		owner:     owner,
		fire:      fire,
	})
}

// release forgets a controller and cancels the pre-waits aimed at it.
func (s *Scheduler) release(c *Controller) {
	kept := s.timers[:0]
	for _, t := range s.timers {
		if t.owner == c {
			t.cancelled = true
			continue
		}
		kept = append(kept, t)
	}
	s.timers = kept

	for i, other := range s.controllers {
		if other == c {
			s.controllers = append(s.controllers[:i], s.controllers[i+1:]...)
			break
		}
	}
}
