package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampaignStateMachine(t *testing.T) {
	sm := NewCampaignStateMachine()

	assert.True(t, sm.CanTransition("active", "cancelled"))
	assert.True(t, sm.CanTransition("active", "completed"))
	assert.True(t, sm.CanTransition("active", "failed"))

	assert.False(t, sm.CanTransition("cancelled", "active"))
	assert.False(t, sm.CanTransition("failed", "completed"))
	assert.False(t, sm.CanTransition("unknown", "active"))

	assert.True(t, sm.IsTerminal("cancelled"))
	assert.False(t, sm.IsTerminal("active"))
}

func TestMilestoneStateMachine(t *testing.T) {
	sm := NewMilestoneStateMachine()

	assert.True(t, sm.CanTransition("pending", "approved"))
	assert.True(t, sm.CanTransition("pending", "rejected"))
	assert.True(t, sm.CanTransition("approved", "released"))

	assert.False(t, sm.CanTransition("approved", "pending"))
	assert.False(t, sm.CanTransition("pending", "released"))
	assert.False(t, sm.CanTransition("rejected", "released"))
	assert.False(t, sm.CanTransition("released", "approved"))

	assert.ElementsMatch(t, []string{"approved", "rejected"}, sm.GetAllowedTransitions("pending"))
	assert.Empty(t, sm.GetAllowedTransitions("nope"))
}

func TestNewStateMachineCopiesTable(t *testing.T) {
	table := map[string][]string{"a": {"b"}}
	sm := NewStateMachine(table)
	table["a"][0] = "c"

	assert.True(t, sm.CanTransition("a", "b"))
	assert.False(t, sm.CanTransition("a", "c"))
}
