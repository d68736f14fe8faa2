package hybrid

import (
	"sync"
	"time"

	"github.com/hivetechs/hive/internal/types"
)

const maxTrackedTasks = 500

// Progress is the live state of one hybrid task.
type Progress struct {
	TaskID         string         `json:"task_id"`
	CurrentSegment string         `json:"current_segment"`
	CurrentMode    types.ModeType `json:"current_mode"`
	Completion     float64        `json:"completion"`
	Switches       int            `json:"switches"`
	StartedAt      time.Time      `json:"started_at"`
	Elapsed        time.Duration  `json:"elapsed"`
}

// Stats summarizes every tracked task.
type Stats struct {
	TotalTasks       int                    `json:"total_tasks"`
	ActiveTasks      int                    `json:"active_tasks"`
	AverageProgress  float64                `json:"average_progress"`
	ModeDistribution map[types.ModeType]int `json:"mode_distribution"`
	AverageSwitches  float64                `json:"average_switches"`
}

// Tracker records progress of hybrid tasks. It is safe for concurrent use.
type Tracker struct {
	mu           sync.RWMutex
	tasks        map[string]*Progress
	order        []string
	distribution map[types.ModeType]int
	now          func() time.Time
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		tasks:        make(map[string]*Progress),
		distribution: make(map[types.ModeType]int),
		now:          time.Now,
	}
}

// Start begins tracking taskID at its first segment.
func (t *Tracker) Start(taskID, segmentID string, mode types.ModeType) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.tasks[taskID]; !ok {
		t.order = append(t.order, taskID)
	}
	t.tasks[taskID] = &Progress{
		TaskID:         taskID,
		CurrentSegment: segmentID,
		CurrentMode:    mode,
		StartedAt:      t.now(),
	}
	if len(t.order) > maxTrackedTasks {
		evict := t.order[0]
		t.order = t.order[1:]
		delete(t.tasks, evict)
	}
}

// Update records that taskID finished segmentID in mode.
func (t *Tracker) Update(taskID, segmentID string, mode types.ModeType, completion float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.tasks[taskID]
	if !ok {
		return
	}
	p.CurrentSegment = segmentID
	p.CurrentMode = mode
	p.Completion = types.Clamp(completion, 0, 1)
	p.Elapsed = t.now().Sub(p.StartedAt)
	t.distribution[mode]++
}

// RecordSwitch counts a mode switch made on behalf of taskID.
func (t *Tracker) RecordSwitch(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.tasks[taskID]; ok {
		p.Switches++
	}
}

// Get returns a copy of taskID's progress.
func (t *Tracker) Get(taskID string) (Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.tasks[taskID]
	if !ok {
		return Progress{}, false
	}
	return *p, true
}

// Stats computes aggregate statistics.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := Stats{
		TotalTasks:       len(t.tasks),
		ModeDistribution: make(map[types.ModeType]int, len(t.distribution)),
	}
	for m, n := range t.distribution {
		stats.ModeDistribution[m] = n
	}
	if len(t.tasks) == 0 {
		return stats
	}

	var progress float64
	var switches int
	for _, p := range t.tasks {
		progress += p.Completion
		switches += p.Switches
		if p.Completion < 1 {
			stats.ActiveTasks++
		}
	}
	stats.AverageProgress = progress / float64(len(t.tasks))
	stats.AverageSwitches = float64(switches) / float64(len(t.tasks))
	return stats
}
