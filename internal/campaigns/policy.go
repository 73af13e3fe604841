package campaigns

// Policy holds the configurable governance rules.
type Policy struct {
	// RequireCreatorForRelease restricts releases to the campaign creator.
	// When false any authenticated principal may trigger a release; the
	// funds still only go to the creator.
	RequireCreatorForRelease bool `json:"require_creator_for_release"`

	// RequireActiveCampaign blocks voting and releases once the campaign
	// has left the active status.
	RequireActiveCampaign bool `json:"require_active_campaign"`

	// RejectOnMajorityAgainst moves a milestone to rejected once
	// votes_against exceeds half of the raised amount.
	RejectOnMajorityAgainst bool `json:"reject_on_majority_against"`
}

// DefaultPolicy only requires an active campaign for votes and releases.
func DefaultPolicy() Policy {
	return Policy{
		RequireCreatorForRelease: false,
		RequireActiveCampaign:    true,
		RejectOnMajorityAgainst:  false,
	}
}
