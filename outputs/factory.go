package outputs

import (
	"path/filepath"

	"github.com/zenibako/xq-golang/xq"

	"github.com/charmbracelet/log"
)

// Backend names accepted by BuildTargets
const (
	BackendEbiten = "ebiten"
	BackendOSC    = "osc"
	BackendMock   = "mock"
)

// Factory creates the output for one declared target.
type Factory func(decl xq.TargetData) (xq.AudioOutput, error)

// EbitenFactory loads clips from disk, relative to baseDir. A target
// without a clip gets an output with nothing to play.
func EbitenFactory(baseDir string) Factory {
	return func(decl xq.TargetData) (xq.AudioOutput, error) {
		if decl.Clip == "" {
			log.Warnf("Target %q declares no clip", decl.Name)
			return newClipless(), nil
		}
		path := decl.Clip
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return LoadEbitenOutput(path)
	}
}

// OSCFactory sends every target's transport to one remote engine.
func OSCFactory(host string, port int) Factory {
	return func(decl xq.TargetData) (xq.AudioOutput, error) {
		var clip *xq.Clip
		if decl.Clip != "" {
			clip = &xq.Clip{Name: decl.Name, Source: decl.Clip}
		}
		return NewOSCOutput(host, port, decl.Name, clip), nil
	}
}

// MockFactory creates in-memory outputs, for rehearsing a show without audio.
func MockFactory() Factory {
	return func(decl xq.TargetData) (xq.AudioOutput, error) {
		return xq.NewMockOutput(decl.Clip), nil
	}
}

// BuildTargets creates a target for every declaration. A target whose output
// fails to load is still created, without an output, so cues aimed at it
// report the problem when they fire.
func BuildTargets(decls []xq.TargetData, factory Factory) xq.TargetMap {
	targets := make(xq.TargetMap, len(decls))
	for _, decl := range decls {
		out, err := factory(decl)
		if err != nil {
			log.Errorf("Target %q has no audio output: %v", decl.Name, err)
			targets[decl.Name] = xq.NewTarget(decl.Name, nil)
			continue
		}
		targets[decl.Name] = xq.NewTarget(decl.Name, out)
	}
	return targets
}

// MergeTargets adds targets declared in decls that targets does not know yet.
// Existing targets keep their outputs and controllers.
func MergeTargets(targets xq.TargetMap, decls []xq.TargetData, factory Factory) {
	var fresh []xq.TargetData
	for _, decl := range decls {
		if _, ok := targets[decl.Name]; !ok {
			fresh = append(fresh, decl)
		}
	}
	for name, t := range BuildTargets(fresh, factory) {
		targets[name] = t
	}
}
