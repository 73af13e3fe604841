package workflows

// StateMachine enforces forward-only status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a state machine from an allowed transition table
func NewStateMachine(transitions map[string][]string) *StateMachine {
	allowed := make(map[string][]string, len(transitions))
	for from, to := range transitions {
		allowed[from] = append([]string(nil), to...)
	}
	return &StateMachine{allowedTransitions: allowed}
}

// NewCampaignStateMachine returns the campaign lifecycle: a campaign leaves
// ACTIVE exactly once and never comes back.
func NewCampaignStateMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		"active":    {"completed", "cancelled", "failed"},
		"completed": {},
		"cancelled": {},
		"failed":    {},
	})
}

// NewMilestoneStateMachine returns the milestone lifecycle.
func NewMilestoneStateMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		"pending":  {"approved", "rejected"},
		"approved": {"released"},
		"released": {},
		"rejected": {},
	})
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}

// IsTerminal reports whether no transition leaves the given status.
func (sm *StateMachine) IsTerminal(status string) bool {
	return len(sm.GetAllowedTransitions(status)) == 0
}
