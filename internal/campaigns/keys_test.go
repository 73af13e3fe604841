package campaigns

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCampaignID(t *testing.T) {
	creator := uuid.MustParse("2b0c6a3e-4c55-4f21-9a61-0d8c7e3b1f10")

	assert.Equal(t, CampaignID(creator, "Solar"), CampaignID(creator, "Solar"))
	assert.NotEqual(t, CampaignID(creator, "Solar"), CampaignID(creator, "solar"))
	assert.NotEqual(t, CampaignID(creator, "Solar"), CampaignID(uuid.New(), "Solar"))
	assert.Equal(t, uuid.Version(5), CampaignID(creator, "Solar").Version())
}

func TestDerivedIDsAreDistinctPerKind(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ids := []uuid.UUID{
		InvestmentID(a, b),
		InvestmentID(b, a),
		VoteID(a, b),
		MilestoneID(a, 0),
		MilestoneID(a, 1),
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
}
