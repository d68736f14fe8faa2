// Package manager is the entry point used by the CLI and the REPL. A
// ModeManager owns one instance of every subsystem (detector, context
// manager, switcher, hybrid engine and preference manager) and keeps their
// state in a storage backend between runs.
//
// Subsystem locks are taken one at a time and in a fixed order:
// ContextManager, then Switcher, then PreferenceManager. No method holds a
// subsystem lock while the oracle is being called.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hivetechs/hive/internal/ai"
	"github.com/hivetechs/hive/internal/config"
	"github.com/hivetechs/hive/internal/detector"
	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/hybrid"
	"github.com/hivetechs/hive/internal/logging"
	"github.com/hivetechs/hive/internal/modectx"
	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/storage"
	"github.com/hivetechs/hive/internal/switcher"
	"github.com/hivetechs/hive/internal/transition"
	"github.com/hivetechs/hive/internal/types"
)

// Config configures a ModeManager. Zero values select defaults.
type Config struct {
	Settings  config.ManagerConfig // default: config.DefaultManagerConfig()
	Graph     *transition.Graph    // default: transition.DefaultGraph()
	Oracle    ai.Oracle            // nil disables every oracle call
	Store     storage.Storage      // nil keeps state in memory only
	Activator switcher.Activator   // mode-specific switch action
	Runner    hybrid.SegmentRunner // executes hybrid segments
	Logger    *zap.Logger
}

// ModeManager coordinates mode detection, switching, hybrid execution and
// preference learning.
type ModeManager struct {
	settings config.ManagerConfig
	store    storage.Storage
	logger   *zap.Logger

	detector *detector.Detector
	contexts *modectx.ContextManager
	switcher *switcher.Switcher
	engine   *hybrid.Engine
	prefs    *preferences.Manager

	mu         sync.RWMutex // guards the fields below
	autoMode   bool
	lastSwitch time.Time
	closed     bool

	now func() time.Time
}

// New builds a ModeManager and loads any state the store holds. A store
// without state starts the manager in the configured default mode.
func New(ctx context.Context, cfg Config) (*ModeManager, error) {
	settings := cfg.Settings
	if settings == (config.ManagerConfig{}) {
		settings = config.DefaultManagerConfig()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manager configuration: %w", err)
	}
	graph := cfg.Graph
	if graph == nil {
		graph = transition.DefaultGraph()
	}
	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStorage()
	}
	logger := logging.OrNop(cfg.Logger)

	m := &ModeManager{
		settings: settings,
		store:    store,
		logger:   logger,
		detector: detector.New(detector.Config{
			Oracle: cfg.Oracle,
			Logger: logger.Named("detector"),
		}),
		contexts: modectx.NewContextManager(modectx.Config{
			CompressionThreshold: settings.CompressionThreshold,
			SnapshotTTL:          settings.SnapshotTTL,
			Logger:               logger.Named("context"),
		}),
		switcher: switcher.New(switcher.Config{
			Validator: transition.NewValidator(graph),
			Oracle:    cfg.Oracle,
			Activator: cfg.Activator,
			Initial:   settings.DefaultMode,
			Logger:    logger.Named("switcher"),
		}),
		engine: hybrid.NewEngine(hybrid.Config{
			Oracle:   cfg.Oracle,
			Strategy: settings.HybridStrategy,
			Runner:   cfg.Runner,
			Logger:   logger.Named("hybrid"),
		}),
		prefs: preferences.NewManager(preferences.Config{
			DetectionHistoryLimit: settings.DetectionHistoryLimit,
			SwitchHistoryLimit:    settings.SwitchHistoryLimit,
			Logger:                logger.Named("preferences"),
		}),
		now: time.Now,
	}

	if err := m.load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// load restores learning data and mode state from the store.
func (m *ModeManager) load(ctx context.Context) error {
	data, err := m.store.LoadLearningData(ctx)
	if err != nil {
		return fmt.Errorf("failed to load learning data: %w", err)
	}
	if data != nil {
		if err := m.prefs.Load(*data); err != nil {
			return fmt.Errorf("failed to load learning data: %w", err)
		}
	} else {
		// first run: seed preferences from configuration
		p := m.prefs.Preferences()
		p.LearningEnabled = m.settings.LearningEnabled
		p.AdaptationRate = m.settings.AdaptationRate
		if err := m.prefs.UpdatePreferences(p); err != nil {
			return err
		}
	}

	state, err := m.store.LoadModeState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mode state: %w", err)
	}
	if state == nil {
		return nil
	}
	if err := m.switcher.Restore(state.CurrentMode, state.EnteredAt); err != nil {
		return fmt.Errorf("failed to restore mode state: %w", err)
	}
	m.mu.Lock()
	m.autoMode = state.AutoMode
	m.lastSwitch = state.LastSwitch
	m.mu.Unlock()

	m.logger.Debug("mode state restored",
		zap.String("mode", string(state.CurrentMode)),
		zap.Bool("auto_mode", state.AutoMode))
	return nil
}

// CurrentMode returns the current mode.
func (m *ModeManager) CurrentMode() types.ModeType {
	return m.switcher.Current()
}

// Graph returns the mode graph switches are validated against.
func (m *ModeManager) Graph() *transition.Graph {
	return m.switcher.Graph()
}

// Settings returns the configuration the manager runs with.
func (m *ModeManager) Settings() config.ManagerConfig {
	return m.settings
}

// Store returns the storage backend.
func (m *ModeManager) Store() storage.Storage {
	return m.store
}

// Contexts exposes the context manager so callers can record work in the
// current mode's context.
func (m *ModeManager) Contexts() *modectx.ContextManager {
	return m.contexts
}

// AutoMode reports whether detections switch modes automatically.
func (m *ModeManager) AutoMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.autoMode
}

// SetAutoMode turns automatic switching on or off and persists the flag.
func (m *ModeManager) SetAutoMode(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	changed := m.autoMode != enabled
	m.autoMode = enabled
	m.mu.Unlock()

	if changed {
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		m.emit(ctx, events.NewSimpleEvent(events.EventTypeAutoModeChanged, m.CurrentMode(),
			events.SeverityInfo, "automatic mode switching "+state), nil)
	}
	return m.saveState(ctx)
}

// Save writes learning data and mode state to the store.
func (m *ModeManager) Save(ctx context.Context) error {
	data := m.prefs.Snapshot()
	if err := m.store.SaveLearningData(ctx, &data); err != nil {
		return fmt.Errorf("failed to save learning data: %w", err)
	}
	return m.saveState(ctx)
}

func (m *ModeManager) saveState(ctx context.Context) error {
	m.mu.RLock()
	state := types.ModeState{
		AutoMode:   m.autoMode,
		LastSwitch: m.lastSwitch,
	}
	m.mu.RUnlock()
	state.CurrentMode = m.switcher.Current()
	state.EnteredAt = m.switcher.EnteredAt()

	if err := m.store.SaveModeState(ctx, state); err != nil {
		return fmt.Errorf("failed to save mode state: %w", err)
	}
	return nil
}

// persist saves after an operation. Failures are logged, not returned, so
// a storage problem never undoes a completed switch.
func (m *ModeManager) persist(ctx context.Context) {
	if err := m.Save(ctx); err != nil {
		m.logger.Warn("failed to persist mode manager state", zap.Error(err))
	}
}

// Close saves state and closes the store. Calling Close twice is a no-op.
func (m *ModeManager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	saveErr := m.Save(ctx)
	closeErr := m.store.Close()
	return errors.Join(saveErr, closeErr)
}
