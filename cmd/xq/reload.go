package main

import (
	"context"
	"os"

	"github.com/zenibako/xq-golang/outputs"
	"github.com/zenibako/xq-golang/xq"

	"github.com/charmbracelet/log"
)

// reloader swaps edited cue lists into the running show. It owns show and
// targets; the advancers are only touched on the tick goroutine.
type reloader struct {
	sched     *xq.Scheduler
	show      *xq.Show
	targets   xq.TargetMap
	factory   outputs.Factory
	advancers []*xq.Advancer
	resolver  xq.ReloadResolver
	watcher   *xq.Watcher
}

func (r *reloader) run(ctx context.Context) error {
	w := r.watcher
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			r.reload(path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Show file watcher error: %v", err)
		}
	}
}

func (r *reloader) reload(path string) {
	log.Infof("Show file %s changed, reloading", path)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("Failed to read show file: %v", err)
		return
	}
	raw, err := xq.DecodeShowData(data)
	if err != nil {
		log.Errorf("Keeping the running show: %v", err)
		return
	}
	outputs.MergeTargets(r.targets, raw.Targets, r.factory)

	updated, err := xq.LoadShow(data, r.targets)
	if err != nil {
		log.Errorf("Keeping the running show: %v", err)
		return
	}

	changes := xq.DiffShows(r.show, updated)
	if len(changes) == 0 {
		log.Info("Show file saved with no cue changes")
		return
	}
	for _, c := range changes {
		xq.LogComparison(c)
	}

	choice, err := r.resolver.ResolveReload(changes)
	if err != nil {
		log.Errorf("Reload not applied: %v", err)
		return
	}
	if choice != xq.ChoiceApply {
		log.Info("Keeping the running show")
		return
	}

	r.show = updated
	err = r.sched.Post(func() {
		for _, a := range r.advancers {
			list := updated.List(a.List.Name)
			if list == nil {
				log.Warnf("Cue list %q is gone from the show file; keeping the loaded version", a.List.Name)
				continue
			}
			a.SetList(list)
		}
		log.Info("Show reloaded")
	})
	if err != nil {
		log.Errorf("Reload not applied: %v", err)
	}
}
