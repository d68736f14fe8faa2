package modectx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hivetechs/hive/internal/types"
)

// scratchPrefix marks cache entries that do not survive most mode changes.
const scratchPrefix = "scratch."

// Action is what a transformation did with one item.
type Action string

const (
	ActionPreserved   Action = "preserved"
	ActionTransformed Action = "transformed"
	ActionDropped     Action = "dropped"
)

// Detail records the fate of a single item.
type Detail struct {
	ItemType string `json:"item_type"` // task, file or cache
	Key      string `json:"key"`
	Action   Action `json:"action"`
	Reason   string `json:"reason"`
}

// Transformation summarizes how a snapshot was carried across a switch.
// Preserved + Transformed + Dropped always equals the source item count.
type Transformation struct {
	Preserved   int      `json:"items_preserved"`
	Transformed int      `json:"items_transformed"`
	Dropped     int      `json:"items_dropped"`
	Quality     float64  `json:"transformation_quality"`
	Details     []Detail `json:"details,omitempty"`
}

// EmptyTransformation is the result of a switch that carried no context.
func EmptyTransformation() Transformation {
	return Transformation{Quality: 1.0}
}

// Total returns the number of items accounted for.
func (t Transformation) Total() int {
	return t.Preserved + t.Transformed + t.Dropped
}

type transformKind int

const (
	kindPassThrough transformKind = iota
	kindPlanningToExecution
	kindExecutionToPlanning
	kindIntoAnalysis
	kindOutOfAnalysis
)

func kindFor(from, to types.ModeType) transformKind {
	switch {
	case from == to:
		return kindPassThrough
	case from == types.ModePlanning && to == types.ModeExecution:
		return kindPlanningToExecution
	case from == types.ModeExecution && to == types.ModePlanning:
		return kindExecutionToPlanning
	case to == types.ModeAnalysis:
		return kindIntoAnalysis
	case from == types.ModeAnalysis:
		return kindOutOfAnalysis
	default:
		return kindPassThrough
	}
}

// Transformer carries snapshots between mode-specific shapes.
type Transformer struct{}

// Transform converts snap from one mode's shape to another's and returns the
// converted snapshot along with an accounting of every item. The source
// snapshot is not modified.
func (Transformer) Transform(snap *Snapshot, from, to types.ModeType) (*Snapshot, Transformation, error) {
	if snap == nil {
		return nil, EmptyTransformation(), nil
	}
	src, err := snap.Contents()
	if err != nil {
		return nil, Transformation{}, fmt.Errorf("transform %s -> %s: %w", from, to, err)
	}

	kind := kindFor(from, to)
	out := src.Clone()
	out.ActiveTasks = nil
	out.Workspace.OpenFiles = nil
	out.Cache = nil

	var tr Transformation
	note := func(itemType, key string, action Action, reason string) {
		switch action {
		case ActionPreserved:
			tr.Preserved++
		case ActionTransformed:
			tr.Transformed++
		case ActionDropped:
			tr.Dropped++
		}
		tr.Details = append(tr.Details, Detail{ItemType: itemType, Key: key, Action: action, Reason: reason})
	}

	for _, task := range src.ActiveTasks {
		switch kind {
		case kindPlanningToExecution:
			t := task
			t.Data = cloneMap(task.Data)
			if t.Data == nil {
				t.Data = make(map[string]any)
			}
			t.Data["planned_in"] = string(from)
			out.ActiveTasks = append(out.ActiveTasks, t)
			note("task", task.ID, ActionTransformed, "planned task handed to execution")
		case kindExecutionToPlanning:
			if task.Done() {
				note("task", task.ID, ActionDropped, "completed task needs no further planning")
				continue
			}
			out.ActiveTasks = append(out.ActiveTasks, task)
			note("task", task.ID, ActionPreserved, "unfinished task returns to planning")
		default:
			out.ActiveTasks = append(out.ActiveTasks, task)
			note("task", task.ID, ActionPreserved, "task carried over")
		}
	}

	for _, f := range src.Workspace.OpenFiles {
		out.Workspace.OpenFiles = append(out.Workspace.OpenFiles, f)
		note("file", f, ActionPreserved, "open files are mode independent")
	}

	keys := make([]string, 0, len(src.Cache))
	for k := range src.Cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fromPrefix := string(from) + "."
	toPrefix := string(to) + "."
	for _, k := range keys {
		v := src.Cache[k]
		if out.Cache == nil {
			out.Cache = make(map[string]any, len(src.Cache))
		}

		if kind == kindPassThrough {
			out.Cache[k] = v
			note("cache", k, ActionPreserved, "no transformation registered")
			continue
		}

		if strings.HasPrefix(k, scratchPrefix) && kind != kindIntoAnalysis {
			note("cache", k, ActionDropped, "scratch data is discarded on mode change")
			continue
		}

		if strings.HasPrefix(k, fromPrefix) {
			renamed := toPrefix + strings.TrimPrefix(k, fromPrefix)
			if _, clash := src.Cache[renamed]; clash {
				note("cache", k, ActionDropped, fmt.Sprintf("superseded by existing %s", renamed))
				continue
			}
			out.Cache[renamed] = v
			note("cache", k, ActionTransformed, fmt.Sprintf("re-homed as %s", renamed))
			continue
		}

		out.Cache[k] = v
		note("cache", k, ActionPreserved, "shared cache entry")
	}

	total := src.TotalItems()
	tr.Quality = quality(tr.Preserved, tr.Transformed, total)

	result := &Snapshot{
		ID:          snap.ID,
		Mode:        snap.Mode,
		Timestamp:   snap.Timestamp,
		Data:        out,
		Metadata:    snap.Metadata,
		Preserved:   tr.Preserved,
		Transformed: tr.Transformed,
	}
	result.Metadata.Compressed = false
	result.Metadata.ItemCount = out.TotalItems()
	result.Metadata.TaskCount = len(out.ActiveTasks)
	result.Metadata.Warnings = append([]string(nil), snap.Metadata.Warnings...)
	return result, tr, nil
}

func quality(preserved, transformed, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return float64(preserved)/float64(total)*0.7 + float64(transformed)/float64(total)*0.3
}
