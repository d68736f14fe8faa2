package types

import "time"

// ModeState is the persisted part of a manager's state, so that one-shot
// CLI invocations continue where the previous one stopped.
type ModeState struct {
	CurrentMode ModeType  `json:"current_mode"`
	EnteredAt   time.Time `json:"entered_at"`
	AutoMode    bool      `json:"auto_mode"`
	LastSwitch  time.Time `json:"last_switch"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultModeState is the state of a manager that has never run.
func DefaultModeState() ModeState {
	return ModeState{CurrentMode: DefaultMode}
}
