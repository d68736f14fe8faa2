// Package modectx owns the working context of each mode: the tasks, user
// state, workspace and cache a mode accumulates, point-in-time snapshots of
// that context, and the rules for carrying it across a mode switch.
package modectx

import (
	"time"

	"github.com/google/uuid"
	"github.com/hivetechs/hive/internal/types"
)

// ContextVersion is stamped into every context's metadata.
const ContextVersion = "2.0"

// TaskPriority ranks active tasks.
type TaskPriority string

const (
	PriorityCritical TaskPriority = "critical"
	PriorityHigh     TaskPriority = "high"
	PriorityMedium   TaskPriority = "medium"
	PriorityLow      TaskPriority = "low"
)

// Importance marks how valuable a context is to keep.
type Importance string

const (
	ImportanceEssential Importance = "essential"
	ImportanceImportant Importance = "important"
	ImportanceStandard  Importance = "standard"
	ImportanceOptional  Importance = "optional"
)

// ActiveTask is a unit of work in progress within a mode.
type ActiveTask struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Progress float64        `json:"progress"` // 0.0 to 1.0
	Priority TaskPriority   `json:"priority"`
	Data     map[string]any `json:"data,omitempty"`
}

// Done reports whether the task has reached full progress.
func (t ActiveTask) Done() bool {
	return t.Progress >= 1.0
}

// NewTask creates a task with a fresh identifier.
func NewTask(title string, priority TaskPriority) ActiveTask {
	return ActiveTask{ID: uuid.New().String(), Title: title, Priority: priority}
}

// RecentAction is something the user did recently.
type RecentAction struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context,omitempty"`
}

// CursorPosition is a location in an open file.
type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// UserState tracks what the user is focused on.
type UserState struct {
	CurrentFocus  string            `json:"current_focus"`
	RecentActions []RecentAction    `json:"recent_actions,omitempty"`
	Preferences   map[string]string `json:"preferences,omitempty"`
	SessionID     string            `json:"session_id"`
}

// Workspace tracks editor and terminal state.
type Workspace struct {
	OpenFiles       []string                  `json:"open_files,omitempty"`
	CursorPositions map[string]CursorPosition `json:"cursor_positions,omitempty"`
	UnsavedChanges  map[string]string         `json:"unsaved_changes,omitempty"`
	TerminalHistory []string                  `json:"terminal_history,omitempty"`
}

// ContextData is the payload carried by a context and its snapshots.
//
// Cache keys may be namespaced by mode ("planning.outline") so they can be
// re-homed when the context moves to another mode. Keys under "scratch."
// are throwaway and are dropped by most transformations.
type ContextData struct {
	ActiveTasks []ActiveTask   `json:"active_tasks,omitempty"`
	UserState   UserState      `json:"user_state"`
	Workspace   Workspace      `json:"workspace"`
	Cache       map[string]any `json:"cache,omitempty"`
}

// TotalItems counts the items a transformation accounts for: tasks, open
// files and cache entries.
func (d ContextData) TotalItems() int {
	return len(d.ActiveTasks) + len(d.Workspace.OpenFiles) + len(d.Cache)
}

// EstimatedSize approximates the serialized size of the data in bytes.
func (d ContextData) EstimatedSize() int {
	return len(d.ActiveTasks)*200 + len(d.Cache)*100 + len(d.Workspace.OpenFiles)*50 + 1024
}

// Clone returns a copy that shares no slices or maps with d. Cache and task
// data values are copied shallowly.
func (d ContextData) Clone() ContextData {
	out := ContextData{
		UserState: UserState{
			CurrentFocus:  d.UserState.CurrentFocus,
			RecentActions: append([]RecentAction(nil), d.UserState.RecentActions...),
			Preferences:   cloneMap(d.UserState.Preferences),
			SessionID:     d.UserState.SessionID,
		},
		Workspace: Workspace{
			OpenFiles:       append([]string(nil), d.Workspace.OpenFiles...),
			CursorPositions: cloneMap(d.Workspace.CursorPositions),
			UnsavedChanges:  cloneMap(d.Workspace.UnsavedChanges),
			TerminalHistory: append([]string(nil), d.Workspace.TerminalHistory...),
		},
		Cache: cloneMap(d.Cache),
	}
	if d.ActiveTasks != nil {
		out.ActiveTasks = make([]ActiveTask, len(d.ActiveTasks))
		for i, t := range d.ActiveTasks {
			t.Data = cloneMap(t.Data)
			out.ActiveTasks[i] = t
		}
	}
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Metadata describes where a context came from.
type Metadata struct {
	Version    string         `json:"version"`
	SourceMode types.ModeType `json:"source_mode"`
	Tags       []string       `json:"tags,omitempty"`
	Importance Importance     `json:"importance"`
}

// HasTag reports whether the metadata carries tag.
func (m Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ModeContext is the live context of one mode.
type ModeContext struct {
	Mode         types.ModeType `json:"mode"`
	CreatedAt    time.Time      `json:"created_at"`
	LastModified time.Time      `json:"last_modified"`
	Data         ContextData    `json:"data"`
	Metadata     Metadata       `json:"metadata"`
}

func newModeContext(mode types.ModeType, now time.Time) *ModeContext {
	return &ModeContext{
		Mode:         mode,
		CreatedAt:    now,
		LastModified: now,
		Data: ContextData{
			UserState: UserState{SessionID: uuid.New().String()},
		},
		Metadata: Metadata{
			Version:    ContextVersion,
			SourceMode: mode,
			Importance: ImportanceStandard,
		},
	}
}

func (c *ModeContext) clone() ModeContext {
	out := *c
	out.Data = c.Data.Clone()
	out.Metadata.Tags = append([]string(nil), c.Metadata.Tags...)
	return out
}
