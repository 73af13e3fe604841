package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	actor := uuid.New()
	campaign := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	entry, err := NewEntry(ActionCampaignCancelled, "campaigns", campaign.String(), actor, &campaign,
		map[string]string{"status": "active"},
		map[string]string{"status": "cancelled"},
		at)
	require.NoError(t, err)

	assert.Equal(t, ActionCampaignCancelled, entry.Action)
	assert.Equal(t, "campaigns", entry.Table)
	assert.Equal(t, actor, entry.ActorID)
	assert.Equal(t, time.UTC, entry.CreatedAt.Location())

	var newValues map[string]string
	require.NoError(t, json.Unmarshal(entry.NewValues, &newValues))
	assert.Equal(t, "cancelled", newValues["status"])
}

func TestNewEntryWithoutOldValues(t *testing.T) {
	entry, err := NewEntry(ActionCampaignCreated, "campaigns", "id", uuid.New(), nil, nil, map[string]int{"goal": 1}, time.Now())
	require.NoError(t, err)

	assert.Nil(t, entry.OldValues)
	assert.NotNil(t, entry.NewValues)
	assert.Nil(t, entry.CampaignID)
}
