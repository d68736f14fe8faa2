package modectx

import (
	"errors"
	"fmt"

	"github.com/hivetechs/hive/internal/types"
)

const (
	maxUnsavedChanges = 10
	maxCacheEntries   = 1000
)

// Rule validates a context before it is snapshotted, restored or updated.
// A non-nil error blocks the operation; warnings never do.
type Rule interface {
	Name() string
	Validate(c *ModeContext) (warnings []string, err error)
}

// TaskIntegrityRule requires every task to have an ID and a progress in
// [0,1].
type TaskIntegrityRule struct{}

func (TaskIntegrityRule) Name() string { return "task_integrity" }

func (TaskIntegrityRule) Validate(c *ModeContext) ([]string, error) {
	var reasons []string
	for i, t := range c.Data.ActiveTasks {
		if t.ID == "" {
			reasons = append(reasons, fmt.Sprintf("task %d has an empty ID", i))
		}
		if t.Progress < 0 || t.Progress > 1 {
			reasons = append(reasons, fmt.Sprintf("invalid progress %.2f for task %s", t.Progress, t.ID))
		}
	}
	if len(reasons) > 0 {
		return nil, &types.ValidationError{Op: "validate tasks", Reasons: reasons}
	}
	return nil, nil
}

// WorkspaceValidityRule warns about a large number of unsaved files.
type WorkspaceValidityRule struct{}

func (WorkspaceValidityRule) Name() string { return "workspace_validity" }

func (WorkspaceValidityRule) Validate(c *ModeContext) ([]string, error) {
	if n := len(c.Data.Workspace.UnsavedChanges); n > maxUnsavedChanges {
		return []string{fmt.Sprintf("Large number of unsaved changes (%d)", n)}, nil
	}
	return nil, nil
}

// SizeLimitRule caps the number of cache entries.
type SizeLimitRule struct{}

func (SizeLimitRule) Name() string { return "size_limit" }

func (SizeLimitRule) Validate(c *ModeContext) ([]string, error) {
	if n := len(c.Data.Cache); n > maxCacheEntries {
		return nil, &types.CapacityError{What: "context cache", Limit: maxCacheEntries, Got: n}
	}
	return nil, nil
}

func defaultRules() []Rule {
	return []Rule{TaskIntegrityRule{}, WorkspaceValidityRule{}, SizeLimitRule{}}
}

// validate runs every rule and joins the failures.
func validate(rules []Rule, c *ModeContext) ([]string, error) {
	var warnings []string
	var errs []error
	for _, r := range rules {
		w, err := r.Validate(c)
		warnings = append(warnings, w...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return warnings, errors.Join(errs...)
}
