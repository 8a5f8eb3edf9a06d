package xq

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Advancer steps linearly through a cue list, one group per GO.
type Advancer struct {
	List      *CueList
	Scheduler *Scheduler
	Current   int // Index of the group fired last
	Next      int // Index of the group the next GO fires
}

// NewAdvancer creates an advancer standing on the first group of list.
func NewAdvancer(list *CueList, sched *Scheduler) *Advancer {
	return &Advancer{List: list, Scheduler: sched}
}

// Advance fires the next group and moves the playhead, wrapping to the
// first group after the last. An empty list is logged and left untouched.
// The playhead moves even if some cues in the group fail.
func (a *Advancer) Advance() error {
	total := a.List.Len()
	if total == 0 {
		log.Warnf("%s: GO called, but no groups found in cue list", a.name())
		return ErrEmptyGroupList
	}
	if !a.Scheduler.Running() {
		log.Error("XQ: a running scheduler is required to trigger cues")
		return ErrNoScheduler
	}
	if a.Next < 0 || a.Next >= total {
		a.Next = 0
	}

	group := a.List.Group(a.Next)
	err := a.Scheduler.TriggerGroup(group)
	log.Infof("%s: triggered group %d: %s", a.name(), a.Next, group.Name)

	a.Current = a.Next
	if a.Next+1 < total {
		a.Next++
	} else {
		a.Next = 0
	}

	if err != nil {
		return fmt.Errorf("group %d: %w", a.Current, err)
	}
	return nil
}

// Peek returns the group the next Advance fires, or nil for an empty list.
func (a *Advancer) Peek() *CueGroup {
	if a.List.Len() == 0 {
		return nil
	}
	if a.Next < 0 || a.Next >= a.List.Len() {
		return a.List.Group(0)
	}
	return a.List.Group(a.Next)
}

// Reset puts the playhead back on the first group.
func (a *Advancer) Reset() {
	a.Current = 0
	a.Next = 0
	log.Debugf("%s: reset to the top", a.name())
}

// SetList swaps in a new cue list, keeping the playhead where it is when it
// still fits.
func (a *Advancer) SetList(list *CueList) {
	a.List = list
	if a.Next >= list.Len() {
		a.Next = 0
	}
	if a.Current >= list.Len() {
		a.Current = 0
	}
}

func (a *Advancer) name() string {
	if a.List == nil || a.List.Name == "" {
		return "Advancer"
	}
	return fmt.Sprintf("Advancer[%s]", a.List.Name)
}
