package modectx

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hivetechs/hive/internal/logging"
	"github.com/hivetechs/hive/internal/types"
	"go.uber.org/zap"
)

// OperationType classifies entries in the context history.
type OperationType string

const (
	OpCreate   OperationType = "create"
	OpUpdate   OperationType = "update"
	OpSnapshot OperationType = "snapshot"
	OpRestore  OperationType = "restore"
	OpClear    OperationType = "clear"
)

// Operation is one entry in the context history.
type Operation struct {
	Type      OperationType  `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Mode      types.ModeType `json:"mode"`
	Details   string         `json:"details"`
}

// Statistics summarizes what the context manager holds.
type Statistics struct {
	ActiveContexts   int              `json:"active_contexts"`
	TotalSnapshots   int              `json:"total_snapshots"`
	TotalSizeBytes   int              `json:"total_size_bytes"`
	OperationsCount  int              `json:"operations_count"`
	ModesWithContext []types.ModeType `json:"modes_with_context"`
}

// Config configures a ContextManager. Zero values select defaults.
type Config struct {
	CompressionThreshold int           // bytes, default 10KB
	HistoryLimit         int           // default 1000
	SnapshotLimit        int           // snapshots retained, default 100
	SnapshotTTL          time.Duration // default 24h
	Logger               *zap.Logger
}

// ContextManager owns the active context of each mode and the snapshots
// taken from them. It is safe for concurrent use.
type ContextManager struct {
	mu        sync.RWMutex
	contexts  map[types.ModeType]*ModeContext
	snapshots []*Snapshot
	history   []Operation

	rules     []Rule
	threshold int
	histLimit int
	snapLimit int
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewContextManager creates an empty ContextManager.
func NewContextManager(cfg Config) *ContextManager {
	m := &ContextManager{
		contexts:  make(map[types.ModeType]*ModeContext),
		rules:     defaultRules(),
		threshold: cfg.CompressionThreshold,
		histLimit: cfg.HistoryLimit,
		snapLimit: cfg.SnapshotLimit,
		ttl:       cfg.SnapshotTTL,
		logger:    logging.OrNop(cfg.Logger),
		now:       time.Now,
	}
	if m.threshold <= 0 {
		m.threshold = DefaultCompressionThreshold
	}
	if m.histLimit <= 0 {
		m.histLimit = 1000
	}
	if m.snapLimit <= 0 {
		m.snapLimit = 100
	}
	if m.ttl <= 0 {
		m.ttl = 24 * time.Hour
	}
	return m
}

// GetContext returns a copy of mode's context, creating an empty one on
// first access.
func (m *ContextManager) GetContext(mode types.ModeType) (ModeContext, error) {
	if !mode.IsValid() {
		return ModeContext{}, &types.ValidationError{Op: "get context", Reasons: []string{fmt.Sprintf("invalid mode %q", mode)}}
	}

	m.mu.RLock()
	c, ok := m.contexts[mode]
	if ok {
		out := c.clone()
		m.mu.RUnlock()
		return out, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(mode).clone(), nil
}

// HasContext reports whether mode has an active context. Unlike GetContext
// it never creates one.
func (m *ContextManager) HasContext(mode types.ModeType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.contexts[mode]
	return ok
}

// Items returns the total item count of mode's context, or 0 if it has
// none.
func (m *ContextManager) Items(mode types.ModeType) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.contexts[mode]; ok {
		return c.Data.TotalItems()
	}
	return 0
}

// UpdateContext applies fn to a copy of mode's context (creating it if
// needed) and stores the result if it passes validation. A failing update
// leaves the stored context untouched.
func (m *ContextManager) UpdateContext(mode types.ModeType, fn func(*ModeContext) error) error {
	if !mode.IsValid() {
		return &types.ValidationError{Op: "update context", Reasons: []string{fmt.Sprintf("invalid mode %q", mode)}}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.ensureLocked(mode).clone()
	if err := fn(&working); err != nil {
		return fmt.Errorf("update %s context: %w", mode, err)
	}
	working.Mode = mode
	working.LastModified = m.now()

	warnings, err := validate(m.rules, &working)
	if err != nil {
		return fmt.Errorf("update %s context: %w", mode, err)
	}
	m.logWarnings(mode, warnings)

	m.contexts[mode] = &working
	m.recordLocked(OpUpdate, mode, fmt.Sprintf("%d items", working.Data.TotalItems()))
	return nil
}

// CaptureSnapshot validates mode's context and captures it. It fails with a
// NotFoundError when mode has no active context.
func (m *ContextManager) CaptureSnapshot(mode types.ModeType, reason string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contexts[mode]
	if !ok {
		return nil, &types.NotFoundError{Resource: "context", ID: string(mode)}
	}

	warnings, err := validate(m.rules, c)
	if err != nil {
		return nil, fmt.Errorf("capture %s snapshot: %w", mode, err)
	}
	m.logWarnings(mode, warnings)

	now := m.now()
	data := c.Data.Clone()
	total := data.TotalItems()
	if reason == "" {
		reason = "Mode switch"
	}
	snap := &Snapshot{
		ID:        uuid.New().String(),
		Mode:      mode,
		Timestamp: now,
		Metadata: SnapshotMetadata{
			Reason:        reason,
			AutoGenerated: true,
			Expiry:        now.Add(m.ttl),
			SizeBytes:     data.EstimatedSize(),
			Warnings:      warnings,
			ItemCount:     total,
			TaskCount:     len(data.ActiveTasks),
		},
		Preserved: total,
	}

	if snap.Metadata.SizeBytes > m.threshold {
		payload, err := compressData(data)
		if err != nil {
			return nil, fmt.Errorf("capture %s snapshot: %w", mode, err)
		}
		snap.Compressed = payload
		snap.Metadata.Compressed = true
	} else {
		snap.Data = data
	}

	m.snapshots = append(m.snapshots, snap)
	if len(m.snapshots) > m.snapLimit {
		m.snapshots = m.snapshots[len(m.snapshots)-m.snapLimit:]
	}
	m.recordLocked(OpSnapshot, mode, fmt.Sprintf("snapshot %s (%d items, compressed=%t)", snap.ID, total, snap.Metadata.Compressed))

	m.logger.Debug("context snapshot captured",
		zap.String("mode", string(mode)),
		zap.String("snapshot_id", snap.ID),
		zap.Int("items", total),
		zap.Int("size_bytes", snap.Metadata.SizeBytes),
		zap.Bool("compressed", snap.Metadata.Compressed))
	return snap, nil
}

// RestoreSnapshot replaces mode's context with the contents of snap. The
// restored context is tagged "restored" and records the snapshot's mode as
// its source.
func (m *ContextManager) RestoreSnapshot(mode types.ModeType, snap *Snapshot) error {
	if snap == nil {
		return &types.ValidationError{Op: "restore snapshot", Reasons: []string{"snapshot is nil"}}
	}
	if !mode.IsValid() {
		return &types.ValidationError{Op: "restore snapshot", Reasons: []string{fmt.Sprintf("invalid mode %q", mode)}}
	}
	now := m.now()
	if snap.Expired(now) {
		return &types.ValidationError{Op: "restore snapshot",
			Reasons: []string{fmt.Sprintf("snapshot %s expired at %s", snap.ID, snap.Metadata.Expiry.Format(time.RFC3339))}}
	}

	data, err := snap.Contents()
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	restored := &ModeContext{
		Mode:         mode,
		CreatedAt:    now,
		LastModified: now,
		Data:         data,
		Metadata: Metadata{
			Version:    ContextVersion,
			SourceMode: snap.Mode,
			Tags:       []string{"restored"},
			Importance: ImportanceImportant,
		},
	}
	if restored.Data.UserState.SessionID == "" {
		restored.Data.UserState.SessionID = uuid.New().String()
	}

	warnings, err := validate(m.rules, restored)
	if err != nil {
		return fmt.Errorf("restore snapshot %s: %w", snap.ID, err)
	}
	m.logWarnings(mode, warnings)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[mode] = restored
	m.recordLocked(OpRestore, mode, fmt.Sprintf("restored from snapshot %s", snap.ID))
	return nil
}

// ClearContexts drops every active context and retained snapshot.
func (m *ContextManager) ClearContexts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts = make(map[types.ModeType]*ModeContext)
	m.snapshots = nil
	m.recordLocked(OpClear, types.ModeHybrid, "all contexts cleared")
}

// History returns a copy of the operation log, oldest first.
func (m *ContextManager) History() []Operation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Operation(nil), m.history...)
}

// Statistics reports what the manager currently holds.
func (m *ContextManager) Statistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Statistics{
		ActiveContexts:  len(m.contexts),
		TotalSnapshots:  len(m.snapshots),
		OperationsCount: len(m.history),
	}
	for _, mode := range types.AllModes {
		if c, ok := m.contexts[mode]; ok {
			stats.TotalSizeBytes += c.Data.EstimatedSize()
			stats.ModesWithContext = append(stats.ModesWithContext, mode)
		}
	}
	return stats
}

func (m *ContextManager) ensureLocked(mode types.ModeType) *ModeContext {
	if c, ok := m.contexts[mode]; ok {
		return c
	}
	c := newModeContext(mode, m.now())
	m.contexts[mode] = c
	m.recordLocked(OpCreate, mode, "context created")
	return c
}

// recordLocked appends to the history and trims it. Callers hold m.mu.
func (m *ContextManager) recordLocked(op OperationType, mode types.ModeType, details string) {
	m.history = append(m.history, Operation{Type: op, Timestamp: m.now(), Mode: mode, Details: details})
	if len(m.history) > m.histLimit {
		m.history = m.history[len(m.history)-m.histLimit:]
	}
}

func (m *ContextManager) logWarnings(mode types.ModeType, warnings []string) {
	for _, w := range warnings {
		m.logger.Warn("context validation warning", zap.String("mode", string(mode)), zap.String("warning", w))
	}
}
