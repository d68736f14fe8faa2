package modectx

import (
	"fmt"
	"time"

	"github.com/hivetechs/hive/internal/types"
)

// SnapshotMetadata describes why and how a snapshot was taken.
type SnapshotMetadata struct {
	Reason        string    `json:"reason"`
	AutoGenerated bool      `json:"auto_generated"`
	Expiry        time.Time `json:"expiry"`
	SizeBytes     int       `json:"size_bytes"`
	Compressed    bool      `json:"compressed"`
	Warnings      []string  `json:"warnings,omitempty"`

	// Counts are kept here so a compressed snapshot can answer questions
	// about its contents without being decoded.
	ItemCount int `json:"item_count"`
	TaskCount int `json:"task_count"`
}

// Snapshot is an immutable capture of a mode's context. When the context is
// large, Data is left empty and the gzip-encoded payload is held in
// Compressed instead.
type Snapshot struct {
	ID          string           `json:"id"`
	Mode        types.ModeType   `json:"mode"`
	Timestamp   time.Time        `json:"timestamp"`
	Data        ContextData      `json:"data"`
	Compressed  []byte           `json:"compressed,omitempty"`
	Metadata    SnapshotMetadata `json:"metadata"`
	Preserved   int              `json:"preserved"`
	Transformed int              `json:"transformed"`
}

// TotalItems returns the number of tasks, open files and cache entries in
// the snapshot. A nil snapshot has none.
func (s *Snapshot) TotalItems() int {
	if s == nil {
		return 0
	}
	if s.Metadata.Compressed {
		return s.Metadata.ItemCount
	}
	return s.Data.TotalItems()
}

// HasActiveTasks reports whether the snapshot carries any tasks.
func (s *Snapshot) HasActiveTasks() bool {
	if s == nil {
		return false
	}
	if s.Metadata.Compressed {
		return s.Metadata.TaskCount > 0
	}
	return len(s.Data.ActiveTasks) > 0
}

// HasModeSpecificData reports whether the snapshot was taken in mode and is
// non-empty.
func (s *Snapshot) HasModeSpecificData(mode types.ModeType) bool {
	return s != nil && s.Mode == mode && s.TotalItems() > 0
}

// Expired reports whether the snapshot's expiry has passed at now.
func (s *Snapshot) Expired(now time.Time) bool {
	return s != nil && !s.Metadata.Expiry.IsZero() && now.After(s.Metadata.Expiry)
}

// Contents returns the snapshot's data, decoding it if it was compressed.
func (s *Snapshot) Contents() (ContextData, error) {
	if s == nil {
		return ContextData{}, nil
	}
	if !s.Metadata.Compressed {
		return s.Data.Clone(), nil
	}
	data, err := decompressData(s.Compressed)
	if err != nil {
		return ContextData{}, fmt.Errorf("snapshot %s: %w", s.ID, err)
	}
	return data, nil
}
