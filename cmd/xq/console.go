package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/zenibako/xq-golang/xq"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
)

// errQuit ends the run when the operator quits the console.
var errQuit = errors.New("operator quit")

// onTick runs fn on the scheduler's tick goroutine and waits for it.
func onTick(ctx context.Context, sched *xq.Scheduler, fn func()) error {
	done := make(chan struct{})
	if err := sched.Post(func() {
		fn()
		close(done)
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runConsole drives the first cue list from the terminal.
func runConsole(ctx context.Context, sched *xq.Scheduler, advancers []*xq.Advancer) error {
	primary := advancers[0]

	for {
		var (
			listName string
			next     string
			groups   []string
		)
		if err := onTick(ctx, sched, func() {
			listName = primary.List.Name
			if g := primary.Peek(); g != nil {
				next = g.Name
			}
			for i := range primary.List.Groups {
				groups = append(groups, primary.List.Groups[i].Name)
			}
		}); err != nil {
			return nil
		}

		var choice string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Cue list %q", listName)).
					Description(fmt.Sprintf("Standing by: %s", next)).
					Options(
						huh.NewOption("GO", "go"),
						huh.NewOption("Fire a group", "group"),
						huh.NewOption("Back to the top", "reset"),
						huh.NewOption("Panic (stop everything)", "panic"),
						huh.NewOption("Quit", "quit"),
					).
					Value(&choice),
			),
		)
		if err := form.RunWithContext(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, huh.ErrUserAborted) {
				return errQuit
			}
			return fmt.Errorf("console input failed: %v", err)
		}

		var op func()
		switch choice {
		case "go":
			op = func() {
				if err := primary.Advance(); err != nil {
					log.Errorf("GO failed: %v", err)
				}
			}
		case "group":
			index, err := pickGroup(ctx, groups)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Warnf("No group fired: %v", err)
				continue
			}
			op = func() {
				if err := sched.TriggerGroupAt(primary.List, index); err != nil {
					log.Errorf("Group %d failed: %v", index, err)
				}
			}
		case "reset":
			op = primary.Reset
		case "panic":
			op = sched.StopAll
		case "quit":
			return errQuit
		default:
			return fmt.Errorf("unexpected choice: %s", choice)
		}

		if err := onTick(ctx, sched, op); err != nil {
			return nil
		}
	}
}

func pickGroup(ctx context.Context, groups []string) (int, error) {
	if len(groups) == 0 {
		return 0, xq.ErrEmptyGroupList
	}
	options := make([]huh.Option[string], 0, len(groups))
	for i, name := range groups {
		options = append(options, huh.NewOption(fmt.Sprintf("%d: %s", i, name), strconv.Itoa(i)))
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which group?").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return 0, err
	}
	return strconv.Atoi(choice)
}
