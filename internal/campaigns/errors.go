package campaigns

import "errors"

// Validation failures
var (
	ErrTitleTooLong       = errors.New("title is too long")
	ErrDescriptionTooLong = errors.New("description is too long")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDeadline    = errors.New("invalid deadline")
	ErrTooManyMilestones  = errors.New("too many milestones (max 10)")
	ErrAmountOverflow     = errors.New("amount overflows campaign totals")
)

// State and authorization failures
var (
	ErrCampaignNotActive    = errors.New("campaign is not active")
	ErrCampaignExpired      = errors.New("campaign has expired")
	ErrInvalidMilestone     = errors.New("invalid milestone index")
	ErrMilestoneNotPending  = errors.New("milestone is not pending")
	ErrMilestoneNotApproved = errors.New("milestone is not approved")
	ErrAlreadyVoted         = errors.New("already voted on this milestone")
	ErrNoInvestment         = errors.New("voter has no investment in this campaign")
	ErrDuplicateInvestment  = errors.New("investor already has an investment in this campaign")
	ErrCampaignExists       = errors.New("campaign already exists for this creator and title")
	ErrUnauthorized         = errors.New("unauthorized")
)

// Lookup failures
var (
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrInvestmentNotFound = errors.New("investment not found")
)
