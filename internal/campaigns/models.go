package campaigns

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus represents the lifecycle status of a campaign
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// MilestoneStatus represents the governance status of a milestone
type MilestoneStatus string

const (
	MilestoneStatusPending  MilestoneStatus = "pending"
	MilestoneStatusApproved MilestoneStatus = "approved"
	MilestoneStatusReleased MilestoneStatus = "released"
	MilestoneStatusRejected MilestoneStatus = "rejected"
)

// Field bounds enforced at write time
const (
	MaxTitleLength                = 100
	MaxDescriptionLength          = 500
	MaxMilestones                 = 10
	MaxMilestoneTitleLength       = 50
	MaxMilestoneDescriptionLength = 200
)

// Campaign is a fundraising request whose funds are released in milestones
type Campaign struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatorID     uuid.UUID      `json:"creator_id" gorm:"type:uuid;not null;uniqueIndex:idx_campaign_creator_title,priority:1"`
	Title         string         `json:"title" gorm:"size:100;not null;uniqueIndex:idx_campaign_creator_title,priority:2"`
	Description   string         `json:"description" gorm:"size:500"`
	GoalAmount    int64          `json:"goal_amount" gorm:"not null"`
	RaisedAmount  int64          `json:"raised_amount" gorm:"not null;default:0"`
	Deadline      time.Time      `json:"deadline" gorm:"not null;index"`
	Status        CampaignStatus `json:"status" gorm:"size:16;not null;default:'active';index"`
	InvestorCount int            `json:"investor_count" gorm:"not null;default:0"`
	Milestones    []Milestone    `json:"milestones" gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName returns the table name
func (Campaign) TableName() string {
	return "campaigns"
}

// ReleasedAmount sums the amounts of released milestones
func (c *Campaign) ReleasedAmount() int64 {
	var total int64
	for _, m := range c.Milestones {
		if m.Status == MilestoneStatusReleased {
			total += m.Amount
		}
	}
	return total
}

// AllReleased reports whether the campaign has milestones and every one of
// them has paid out.
func (c *Campaign) AllReleased() bool {
	if len(c.Milestones) == 0 {
		return false
	}
	for _, m := range c.Milestones {
		if m.Status != MilestoneStatusReleased {
			return false
		}
	}
	return true
}

func (c *Campaign) clone() *Campaign {
	out := *c
	out.Milestones = make([]Milestone, len(c.Milestones))
	for i, m := range c.Milestones {
		m.Votes = append([]MilestoneVote(nil), m.Votes...)
		out.Milestones[i] = m
	}
	return &out
}

// Milestone is one tranche of a campaign's funds
type Milestone struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	CampaignID   uuid.UUID       `json:"campaign_id" gorm:"type:uuid;not null;uniqueIndex:idx_milestone_campaign_position,priority:1"`
	Index        int             `json:"index" gorm:"column:position;not null;uniqueIndex:idx_milestone_campaign_position,priority:2"`
	Title        string          `json:"title" gorm:"size:50;not null"`
	Description  string          `json:"description" gorm:"size:200"`
	Amount       int64           `json:"amount" gorm:"not null"`
	Status       MilestoneStatus `json:"status" gorm:"size:16;not null;default:'pending'"`
	VotesFor     int64           `json:"votes_for" gorm:"not null;default:0"`
	VotesAgainst int64           `json:"votes_against" gorm:"not null;default:0"`
	Votes        []MilestoneVote `json:"votes" gorm:"foreignKey:MilestoneID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName returns the table name
func (Milestone) TableName() string {
	return "campaign_milestones"
}

// Voters returns the investors that have voted on the milestone
func (m *Milestone) Voters() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m.Votes))
	for _, v := range m.Votes {
		out = append(out, v.VoterID)
	}
	return out
}

// HasVoted reports whether voter is already in the voter set
func (m *Milestone) HasVoted(voter uuid.UUID) bool {
	for _, v := range m.Votes {
		if v.VoterID == voter {
			return true
		}
	}
	return false
}

// MilestoneVote records one investor's weighted vote. The unique index on
// (milestone_id, voter_id) is the voter set.
type MilestoneVote struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	MilestoneID uuid.UUID `json:"milestone_id" gorm:"type:uuid;not null;uniqueIndex:idx_vote_unique,priority:1"`
	CampaignID  uuid.UUID `json:"campaign_id" gorm:"type:uuid;not null;index"`
	VoterID     uuid.UUID `json:"voter_id" gorm:"type:uuid;not null;uniqueIndex:idx_vote_unique,priority:2"`
	Approve     bool      `json:"approve" gorm:"not null"`
	Weight      int64     `json:"weight" gorm:"not null"`
	CastAt      time.Time `json:"cast_at" gorm:"not null"`
}

// TableName returns the table name
func (MilestoneVote) TableName() string {
	return "milestone_votes"
}

// Investment is one investor's single contribution to one campaign. It is
// also the investor's vote weight.
type Investment struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CampaignID uuid.UUID `json:"campaign_id" gorm:"type:uuid;not null;uniqueIndex:idx_investment_campaign_investor,priority:1"`
	InvestorID uuid.UUID `json:"investor_id" gorm:"type:uuid;not null;uniqueIndex:idx_investment_campaign_investor,priority:2;index"`
	Amount     int64     `json:"amount" gorm:"not null"`
	InvestedAt time.Time `json:"invested_at" gorm:"not null"`
}

// TableName returns the table name
func (Investment) TableName() string {
	return "investments"
}

// VaultSnapshot reports a campaign's custody balance next to the amount the
// campaign records say it should hold.
type VaultSnapshot struct {
	CampaignID     uuid.UUID `json:"campaign_id"`
	VaultID        uuid.UUID `json:"vault_id"`
	Balance        int64     `json:"balance"`
	RaisedAmount   int64     `json:"raised_amount"`
	ReleasedAmount int64     `json:"released_amount"`
	Consistent     bool      `json:"consistent"`
}
