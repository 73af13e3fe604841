package campaigns

import (
	"encoding/binary"

	"github.com/google/uuid"

	"peoplefi/campaign-portal/campaign-portal-backend/pkg/address"
)

// CampaignID is the address of the campaign a creator opens under title
func CampaignID(creator uuid.UUID, title string) uuid.UUID {
	return address.Derive("campaign", creator[:], []byte(title))
}

// InvestmentID is the address of investor's single investment in campaign
func InvestmentID(campaignID, investor uuid.UUID) uuid.UUID {
	return address.Derive("investment", campaignID[:], investor[:])
}

// MilestoneID is the address of the milestone at index within campaign
func MilestoneID(campaignID uuid.UUID, index int) uuid.UUID {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(index))
	return address.Derive("milestone", campaignID[:], idx[:])
}

// VoteID is the address of voter's vote on a milestone
func VoteID(milestoneID, voter uuid.UUID) uuid.UUID {
	return address.Derive("vote", milestoneID[:], voter[:])
}
