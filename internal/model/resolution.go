package model

import "strings"

// ResolutionAction is what the user chose to do with a candidate.
type ResolutionAction string

// Resolution actions.
const (
	ActionUpdateExisting ResolutionAction = "UPDATE_EXISTING"
	ActionAddSeparate    ResolutionAction = "ADD_SEPARATE"
	ActionSkip           ResolutionAction = "SKIP"
)

// ParseResolutionAction accepts the canonical names and a few short aliases.
func ParseResolutionAction(s string) (ResolutionAction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ActionUpdateExisting), "UPDATE", "U":
		return ActionUpdateExisting, true
	case string(ActionAddSeparate), "ADD", "A":
		return ActionAddSeparate, true
	case string(ActionSkip), "S":
		return ActionSkip, true
	default:
		return "", false
	}
}

// ResolutionDecision is the per-candidate review state.
type ResolutionDecision struct {
	Action   ResolutionAction `json:"action"`
	Selected bool             `json:"selected"`
}

// Committable reports whether the decision results in a store operation.
func (d ResolutionDecision) Committable() bool {
	return d.Selected && d.Action != ActionSkip
}
