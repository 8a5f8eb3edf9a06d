package xq

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/log"
)

// Change actions reported by DiffCueLists
const (
	ChangeCreate = "create"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// GroupChange describes how one group differs between two versions of a cue list
type GroupChange struct {
	Index          int               // Group position in the list
	Name           string            // Group name (new name for updates and creates)
	Action         string            // What changed: "create", "update", "delete"
	ModifiedFields map[string]string // Fields that differ: field_name -> "old_value -> new_value"
}

// ListComparison contains the result of comparing two versions of a cue list
type ListComparison struct {
	ListName string
	Changes  []GroupChange
}

// HasChanges reports whether anything differs.
func (c ListComparison) HasChanges() bool {
	return len(c.Changes) > 0
}

// DiffCueLists compares cue lists group by group, by position.
func DiffCueLists(old, updated *CueList) ListComparison {
	comparison := ListComparison{}
	if updated != nil {
		comparison.ListName = updated.Name
	} else if old != nil {
		comparison.ListName = old.Name
	}

	oldLen, newLen := old.Len(), updated.Len()
	for i := 0; i < max(oldLen, newLen); i++ {
		switch {
		case i >= oldLen:
			g := updated.Group(i)
			comparison.Changes = append(comparison.Changes, GroupChange{Index: i, Name: g.Name, Action: ChangeCreate})
		case i >= newLen:
			g := old.Group(i)
			comparison.Changes = append(comparison.Changes, GroupChange{Index: i, Name: g.Name, Action: ChangeDelete})
		default:
			fields := diffGroup(old.Group(i), updated.Group(i))
			if len(fields) > 0 {
				comparison.Changes = append(comparison.Changes, GroupChange{
					Index:          i,
					Name:           updated.Group(i).Name,
					Action:         ChangeUpdate,
					ModifiedFields: fields,
				})
			}
		}
	}
	return comparison
}

// DiffShows compares every list of two shows, matching lists by name.
// Lists only present in one show compare against an empty list.
func DiffShows(old, updated *Show) []ListComparison {
	var results []ListComparison
	seen := make(map[string]bool)
	for _, list := range updated.Lists {
		seen[list.Name] = true
		if c := DiffCueLists(old.List(list.Name), list); c.HasChanges() {
			results = append(results, c)
		}
	}
	for _, list := range old.Lists {
		if seen[list.Name] {
			continue
		}
		if c := DiffCueLists(list, &CueList{Name: list.Name}); c.HasChanges() {
			results = append(results, c)
		}
	}
	return results
}

// LogComparison prints a comparison the way an operator wants to read it
func LogComparison(c ListComparison) {
	if !c.HasChanges() {
		log.Infof("Cue list %q unchanged", c.ListName)
		return
	}
	log.Infof("Cue list %q: %d group(s) changed", c.ListName, len(c.Changes))
	for _, change := range c.Changes {
		log.Info("Group changed", "index", change.Index, "name", change.Name, "action", change.Action)
		keys := make([]string, 0, len(change.ModifiedFields))
		for k := range change.ModifiedFields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			log.Debugf("  %s: %s", k, change.ModifiedFields[k])
		}
	}
}

func diffGroup(old, updated *CueGroup) map[string]string {
	fields := make(map[string]string)
	if old.Name != updated.Name {
		fields["name"] = fmt.Sprintf("'%s' -> '%s'", old.Name, updated.Name)
	}
	if len(old.Cues) != len(updated.Cues) {
		fields["cues"] = fmt.Sprintf("'%d' -> '%d'", len(old.Cues), len(updated.Cues))
	}
	for i := 0; i < min(len(old.Cues), len(updated.Cues)); i++ {
		before := cueFields(toCueData(old.Cues[i]))
		after := cueFields(toCueData(updated.Cues[i]))
		for k, v := range after {
			if before[k] != v {
				fields[fmt.Sprintf("cues[%d].%s", i, k)] = fmt.Sprintf("'%s' -> '%s'", before[k], v)
			}
		}
		for k, v := range before {
			if _, ok := after[k]; !ok {
				fields[fmt.Sprintf("cues[%d].%s", i, k)] = fmt.Sprintf("'%s' -> ''", v)
			}
		}
	}
	return fields
}

func cueFields(d CueData) map[string]string {
	fields := map[string]string{
		"type":    d.Type,
		"name":    d.Name,
		"target":  d.Target,
		"preWait": formatFloat(d.PreWait),
	}
	putFloat := func(key string, v *float64) {
		if v != nil {
			fields[key] = formatFloat(*v)
		}
	}
	putBool := func(key string, v *bool) {
		if v != nil {
			fields[key] = strconv.FormatBool(*v)
		}
	}
	putBool("loop", d.Loop)
	putFloat("outputVolume", d.OutputVolume)
	putFloat("startingVolume", d.StartingVolume)
	putFloat("speed", d.Speed)
	putFloat("targetVolume", d.TargetVolume)
	putFloat("fadeTime", d.FadeTime)
	putFloat("curveShape", d.CurveShape)
	putBool("pause", d.Pause)
	return fields
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
