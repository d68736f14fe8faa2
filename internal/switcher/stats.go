package switcher

import (
	"sort"
	"time"

	"github.com/hivetechs/hive/internal/types"
)

const maxCommonPaths = 5

// PathCount is a recurring three-mode path and how often it occurred.
type PathCount struct {
	Path  [3]types.ModeType `json:"path"`
	Count int               `json:"count"`
}

// Stats summarizes the transition history.
type Stats struct {
	TotalTransitions int                              `json:"total_transitions"`
	SuccessRate      float64                          `json:"success_rate"`
	AverageDuration  time.Duration                    `json:"average_duration"`
	ModePreferences  map[types.ModeType]float64       `json:"mode_preferences"`
	CommonPaths      []PathCount                      `json:"common_paths"`
	ModeTime         map[types.ModeType]time.Duration `json:"mode_time"`
}

// Stats computes statistics over the retained history. The success rate is
// 1.0 before any transition has been attempted. Preferences and paths only
// consider successful transitions.
func (s *Switcher) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalTransitions: len(s.history),
		SuccessRate:      1.0,
		ModePreferences:  make(map[types.ModeType]float64),
		ModeTime:         make(map[types.ModeType]time.Duration, len(s.modeTime)+1),
	}
	for m, d := range s.modeTime {
		stats.ModeTime[m] = d
	}
	stats.ModeTime[s.current] += s.now().Sub(s.enteredAt)

	if len(s.history) == 0 {
		return stats
	}

	var total time.Duration
	var succeeded []TransitionRecord
	for _, r := range s.history {
		total += r.Duration
		if r.Success {
			succeeded = append(succeeded, r)
		}
	}
	stats.AverageDuration = total / time.Duration(len(s.history))
	stats.SuccessRate = float64(len(succeeded)) / float64(len(s.history))

	for _, r := range succeeded {
		stats.ModePreferences[r.To]++
	}
	if len(succeeded) > 0 {
		for m, c := range stats.ModePreferences {
			stats.ModePreferences[m] = c / float64(len(succeeded))
		}
	}

	stats.CommonPaths = commonPaths(succeeded)
	return stats
}

// commonPaths counts A->B->C chains formed by consecutive transitions and
// returns the most frequent, ties broken by first occurrence.
func commonPaths(records []TransitionRecord) []PathCount {
	index := make(map[[3]types.ModeType]int)
	var paths []PathCount
	for i := 1; i < len(records); i++ {
		prev, next := records[i-1], records[i]
		if prev.To != next.From {
			continue
		}
		key := [3]types.ModeType{prev.From, prev.To, next.To}
		if j, ok := index[key]; ok {
			paths[j].Count++
			continue
		}
		index[key] = len(paths)
		paths = append(paths, PathCount{Path: key, Count: 1})
	}

	sort.SliceStable(paths, func(i, j int) bool { return paths[i].Count > paths[j].Count })
	if len(paths) > maxCommonPaths {
		paths = paths[:maxCommonPaths]
	}
	return paths
}
