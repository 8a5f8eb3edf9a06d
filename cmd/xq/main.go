package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/zenibako/xq-golang/outputs"
	"github.com/zenibako/xq-golang/xq"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Remote engine defaults for the osc backend
const (
	defaultRemoteHost = "127.0.0.1"
	defaultRemotePort = 53200
)

type options struct {
	showPath    string
	listName    string
	backend     string
	dryRun      bool
	interactive bool
	reloadMode  string
	export      string
	oscHost     string
	oscPort     int
}

func main() {
	var opts options
	flag.StringVar(&opts.showPath, "show", "show.yaml", "path to the show file (YAML or JSON)")
	flag.StringVar(&opts.listName, "list", "", "run only this cue list (default: all; the first answers /xq/go)")
	flag.StringVar(&opts.backend, "backend", outputs.BackendEbiten, "audio backend: ebiten|osc|mock")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "log cues instead of playing them")
	flag.BoolVar(&opts.interactive, "interactive", false, "run the operator console")
	flag.StringVar(&opts.reloadMode, "reload", "auto", "apply show file edits: auto|prompt|remote|off")
	flag.StringVar(&opts.export, "export", "", "print the normalized show as json|yaml and exit")
	flag.StringVar(&opts.oscHost, "osc-host", "", "OSC listener host (overrides the show settings)")
	flag.IntVar(&opts.oscPort, "osc-port", 0, "OSC listener port (overrides the show settings)")
	logLevel := flag.String("log-level", "info", "log level: debug|info|warn|error")
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level %q: %v", *logLevel, err)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options) error {
	data, err := os.ReadFile(opts.showPath)
	if err != nil {
		return fmt.Errorf("failed to read show file: %w", err)
	}
	raw, err := xq.DecodeShowData(data)
	if err != nil {
		return err
	}

	factory, err := newFactory(opts, raw.Settings)
	if err != nil {
		return err
	}
	targets := outputs.BuildTargets(raw.Targets, factory)

	show, err := xq.LoadShow(data, targets)
	if err != nil {
		return err
	}

	if opts.export != "" {
		return export(show, opts.export)
	}

	sched := xq.NewScheduler()
	sched.SetTickInterval(show.Settings.TickInterval())
	sched.SetDryRun(opts.dryRun || show.Settings.DryRun)
	sched.Start()
	defer sched.Close()

	advancers, err := newAdvancers(show, opts.listName, sched)
	if err != nil {
		return err
	}

	host, port := show.Settings.OSC.Host, show.Settings.OSC.Port
	if opts.oscHost != "" {
		host = opts.oscHost
	}
	if opts.oscPort != 0 {
		port = opts.oscPort
	}
	listener := xq.NewTriggerListener(host, port, sched, advancers...)
	listener.SetReplyTarget(show.Settings.OSC.ReplyHost, show.Settings.OSC.ReplyPort)

	var r *reloader
	if opts.reloadMode != "off" {
		resolver, err := newResolver(opts.reloadMode, listener)
		if err != nil {
			return err
		}
		watcher, err := xq.NewWatcher(opts.showPath)
		if err != nil {
			return fmt.Errorf("failed to watch show file: %w", err)
		}
		defer watcher.Close()

		r = &reloader{
			sched:     sched,
			show:      show,
			targets:   targets,
			factory:   factory,
			advancers: advancers,
			resolver:  resolver,
			watcher:   watcher,
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return listener.ListenAndServe(ctx) })
	if r != nil {
		g.Go(func() error { return r.run(ctx) })
	}
	if opts.interactive {
		g.Go(func() error { return runConsole(ctx, sched, advancers) })
	}

	log.Infof("Show %q ready: %d cue list(s), GO on %s:%d%s", show.Name, len(advancers), host, port, dryRunNote(opts, show))
	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	log.Info("Show closed")
	return nil
}

func newFactory(opts options, settings xq.Settings) (outputs.Factory, error) {
	switch opts.backend {
	case outputs.BackendEbiten:
		return outputs.EbitenFactory(filepath.Dir(opts.showPath)), nil
	case outputs.BackendOSC:
		host, port := settings.OSC.RemoteHost, settings.OSC.RemotePort
		if host == "" {
			host = defaultRemoteHost
		}
		if port == 0 {
			port = defaultRemotePort
		}
		log.Infof("Sending audio transport to %s:%d", host, port)
		return outputs.OSCFactory(host, port), nil
	case outputs.BackendMock:
		return outputs.MockFactory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want ebiten, osc or mock)", opts.backend)
	}
}

func newAdvancers(show *xq.Show, listName string, sched *xq.Scheduler) ([]*xq.Advancer, error) {
	var lists []*xq.CueList
	if listName != "" {
		list := show.List(listName)
		if list == nil {
			return nil, fmt.Errorf("cue list %q not found in show %q", listName, show.Name)
		}
		lists = append(lists, list)
	} else {
		lists = show.Lists
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("show %q has no cue lists", show.Name)
	}

	advancers := make([]*xq.Advancer, 0, len(lists))
	for _, list := range lists {
		list.Prepare()
		advancers = append(advancers, xq.NewAdvancer(list, sched))
	}
	return advancers, nil
}

func newResolver(mode string, listener *xq.TriggerListener) (xq.ReloadResolver, error) {
	switch mode {
	case "auto":
		return xq.AutoResolver{}, nil
	case "prompt":
		return xq.PromptResolver{}, nil
	case "remote":
		r := xq.NewRemoteResolver(listener.SendReloadRequest)
		listener.SetReloadResolver(r)
		return r, nil
	default:
		return nil, fmt.Errorf("unknown reload mode %q (want auto, prompt, remote or off)", mode)
	}
}

func export(show *xq.Show, format string) error {
	var (
		out string
		err error
	)
	switch format {
	case "json":
		out, err = xq.ToJSON(show, true)
	case "yaml":
		out, err = xq.ToYAML(show)
	default:
		return fmt.Errorf("unknown export format %q (want json or yaml)", format)
	}
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func dryRunNote(opts options, show *xq.Show) string {
	if opts.dryRun || show.Settings.DryRun {
		return " [DRY RUN]"
	}
	return ""
}
